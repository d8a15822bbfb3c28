package core

import (
	"fmt"
	"strings"
)

type point struct {
	Title  string
	Detail string
}

// analysis is the fixed structure every canned response follows.
type analysis struct {
	MarketPotential   string
	Investment        string
	RevenueLabel      string
	Revenue           string
	BreakEven         string
	Insights          []string
	Recommendations   []string
	Pros              []point
	Cons              []point
	Risks             string
	SuccessPercent    int
	SuccessQualifier  string
	AdditionalContext []string
}

type fallbackRule struct {
	Topic    string
	Matches  func(lowerPrompt string) bool
	Analysis analysis
}

func containsAny(keywords ...string) func(string) bool {
	return func(s string) bool {
		for _, k := range keywords {
			if strings.Contains(s, k) {
				return true
			}
		}
		return false
	}
}

const genericTopic = "generic"

// fallbackRules are evaluated in order; the first match wins.
var fallbackRules = []fallbackRule{
	{
		Topic:   "coffee",
		Matches: containsAny("cafe", "coffee"),
		Analysis: analysis{
			MarketPotential: "High in urban areas",
			Investment:      "$20,000 - $50,000",
			RevenueLabel:    "Monthly Revenue",
			Revenue:         "$8,000 - $15,000",
			BreakEven:       "8-14 months",
			Insights: []string{
				"High foot traffic locations essential",
				"Specialty coffee trend growing 25% YoY",
				"Food pairing increases average ticket by 40%",
			},
			Recommendations: []string{
				"Focus on unique selling proposition",
				"Implement loyalty program from day one",
				"Partner with delivery platforms",
			},
			Pros: []point{
				{"Recurring Revenue", "Daily coffee habits create consistent customer base"},
				{"High Margin Products", "Specialty drinks have 70-80% profit margins"},
				{"Community Hub", "Can become neighborhood gathering spot building brand loyalty"},
			},
			Cons: []point{
				{"Location Dependency", "Success heavily depends on foot traffic and visibility"},
				{"Perishable Inventory", "Coffee beans and food items have limited shelf life"},
				{"Staff Intensive", "Requires skilled baristas and consistent quality control"},
			},
			Risks:            "High competition, location dependency, rising coffee bean prices",
			SuccessPercent:   68,
			SuccessQualifier: "with proper execution",
			AdditionalContext: []string{
				"The cafe industry is evolving beyond just coffee service. Modern consumers seek experiential spaces with comfortable ambiance, reliable WiFi, and unique menu offerings. Specialty coffee with single-origin beans and alternative brewing methods can command premium pricing.",
				"Focus on creating Instagram-worthy interiors and signature drinks that encourage social media sharing. Consider incorporating local artwork, hosting community events, or offering coffee workshops to build customer loyalty. The morning rush (7-10 AM) typically generates 40% of daily revenue, so efficient service during peak hours is crucial.",
			},
		},
	},
	{
		Topic:   "restaurant",
		Matches: containsAny("restaurant", "food"),
		Analysis: analysis{
			MarketPotential: "Moderate to High",
			Investment:      "$50,000 - $150,000",
			RevenueLabel:    "Monthly Revenue",
			Revenue:         "$15,000 - $30,000",
			BreakEven:       "12-18 months",
			Insights: []string{
				"Cuisine specialization increases success rate by 30%",
				"Online presence drives 60% of new customers",
				"Takeaway/delivery = 40% of revenue",
			},
			Recommendations: []string{
				"Define clear target demographic",
				"Invest in professional food photography",
				"Implement table reservation system",
			},
			Pros: []point{
				{"High Demand", "Food is essential, ensuring consistent customer base"},
				{"Profit Margins", "Can achieve 15-25% net profit with proper management"},
				{"Scalability", "Easy to expand with multiple locations or franchise model"},
			},
			Cons: []point{
				{"High Competition", "Saturated market requires strong differentiation"},
				{"Operational Complexity", "Managing staff, inventory, and quality control"},
				{"Regulatory Hurdles", "Multiple licenses and health regulations to comply with"},
			},
			Risks:            "Food costs volatility, staff turnover, health regulations, changing consumer preferences",
			SuccessPercent:   62,
			SuccessQualifier: "with unique concept and proper execution",
			AdditionalContext: []string{
				"The restaurant industry in urban areas shows strong growth potential, particularly for specialized cuisines that cater to specific dietary preferences like vegan, gluten-free, or regional specialties. Location plays a crucial role - areas near office complexes or residential neighborhoods with high foot traffic tend to perform better.",
				"Consumer trends indicate growing demand for experiential dining and Instagram-worthy ambiance. Integrating technology through online ordering systems and table reservation apps can significantly enhance customer experience and operational efficiency. Building a strong brand identity and focusing on consistent quality are key differentiators in this competitive space.",
			},
		},
	},
	{
		Topic:   "tech",
		Matches: containsAny("tech", "app", "saas"),
		Analysis: analysis{
			MarketPotential: "Very High (if scalable)",
			Investment:      "$10,000 - $100,000",
			RevenueLabel:    "Revenue Model",
			Revenue:         "Subscription/Advertising/Freemium",
			BreakEven:       "6-24 months",
			Insights: []string{
				"MVP approach reduces failure risk by 45%",
				"User acquisition cost critical metric",
				"B2B SaaS has higher success rate than B2C",
			},
			Recommendations: []string{
				"Build MVP and validate with real users",
				"Focus on solving specific pain point",
				"Plan scalable infrastructure from day one",
			},
			Pros: []point{
				{"High Scalability", "Digital products can scale globally with minimal additional cost"},
				{"Recurring Revenue", "Subscription models provide predictable cash flow"},
				{"Low Operational Costs", "Once built, maintenance costs are relatively low"},
			},
			Cons: []point{
				{"Technical Complexity", "Requires skilled developers and ongoing maintenance"},
				{"Rapid Obsolescence", "Technology trends change quickly requiring constant updates"},
				{"User Acquisition Costs", "High competition for user attention in digital space"},
			},
			Risks:            "Technical debt, market timing, funding, rapid technological changes",
			SuccessPercent:   45,
			SuccessQualifier: "(higher with experienced team)",
			AdditionalContext: []string{
				"The tech startup landscape favors niche solutions over broad platforms. Identify specific pain points in established industries that can be solved with technology. B2B SaaS typically has longer sales cycles but higher customer lifetime value compared to B2C applications.",
				"Focus on achieving product-market fit before scaling. Consider starting with a specific geographic market or industry vertical. Cloud infrastructure costs can escalate quickly, so implement proper monitoring and optimization from the beginning. Building a strong technical team and establishing clear development processes are critical for long-term success.",
			},
		},
	},
	{
		Topic:   "nightlife",
		Matches: containsAny("bar", "pub", "night"),
		Analysis: analysis{
			MarketPotential: "High in entertainment districts",
			Investment:      "$75,000 - $200,000",
			RevenueLabel:    "Monthly Revenue",
			Revenue:         "$20,000 - $50,000",
			BreakEven:       "12-24 months",
			Insights: []string{
				"Location determines 70% of success",
				"Thematic concepts outperform generic bars",
				"Craft cocktails increase profit margins by 35%",
			},
			Recommendations: []string{
				"Secure prime location with good visibility",
				"Develop unique cocktail menu and theme",
				"Invest in quality sound system and ambiance",
			},
			Pros: []point{
				{"High Profit Margins", "Alcohol typically has 70-80% markup"},
				{"Evening Focus", "Allows for other business activities during day"},
				{"Entertainment Factor", "Can host events and live performances"},
			},
			Cons: []point{
				{"Licensing Challenges", "Complex alcohol licensing and compliance requirements"},
				{"Seasonal Fluctuations", "Business can vary significantly by season and day of week"},
				{"Security Concerns", "Requires proper security measures and staff training"},
			},
			Risks:            "Licensing issues, seasonal fluctuations, competition, changing regulations",
			SuccessPercent:   58,
			SuccessQualifier: "with strong concept",
			AdditionalContext: []string{
				"Successful bars often create unique thematic experiences rather than just serving drinks. Consider concepts like speakeasy bars, rooftop lounges, or sports bars with specific target demographics. Weekend revenue typically accounts for 60-70% of weekly income, so effective marketing for Thursday through Saturday nights is crucial.",
				"Craft cocktails with premium ingredients can significantly increase average customer spending. Building relationships with local influencers and implementing a strong social media presence helps drive traffic. Proper inventory management and staff training in mixology and customer service are essential for maintaining quality and controlling costs.",
			},
		},
	},
	{
		Topic:   "ecommerce",
		Matches: containsAny("e-commerce", "online store"),
		Analysis: analysis{
			MarketPotential: "High with right niche",
			Investment:      "$5,000 - $50,000",
			RevenueLabel:    "Monthly Revenue",
			Revenue:         "$10,000 - $100,000",
			BreakEven:       "6-15 months",
			Insights: []string{
				"Niche products outperform general merchandise",
				"Customer reviews drive 80% of purchase decisions",
				"Mobile optimization essential (60% of traffic)",
			},
			Recommendations: []string{
				"Identify underserved market niche",
				"Invest in professional product photography",
				"Implement robust logistics and return policy",
			},
			Pros: []point{
				{"Global Reach", "Can sell to customers worldwide from single location"},
				{"24/7 Operations", "Automated systems generate revenue around the clock"},
				{"Low Overhead", "No physical storefront reduces fixed costs"},
			},
			Cons: []point{
				{"Intense Competition", "Global marketplace means competing with major players"},
				{"Logistics Complexity", "Shipping, returns, and inventory management challenges"},
				{"Customer Acquisition", "Rising digital advertising costs"},
			},
			Risks:            "Supply chain issues, platform dependency, cybersecurity, changing algorithms",
			SuccessPercent:   55,
			SuccessQualifier: "with unique products and strong marketing",
			AdditionalContext: []string{
				"E-commerce success increasingly depends on finding specialized niches rather than competing in broad categories. Dropshipping models reduce inventory risk but typically have lower profit margins. Building a brand story and focusing on customer experience can justify premium pricing.",
				"Social commerce through platforms like Instagram and TikTok is becoming increasingly important for discovery and sales. Consider starting with a focused product line and expanding based on customer feedback and sales data. International shipping capabilities can significantly expand your market potential but require careful planning for customs and logistics.",
			},
		},
	},
	{
		Topic:   genericTopic,
		Matches: func(string) bool { return true },
		Analysis: analysis{
			MarketPotential: "Varies based on industry",
			Investment:      "Dependent on scale",
			RevenueLabel:    "Monthly Revenue",
			Revenue:         "Market dependent",
			BreakEven:       "Typically 12-24 months",
			Insights: []string{
				"Market validation before full launch",
				"Strong digital presence and marketing",
				"Customer experience focus",
			},
			Recommendations: []string{
				"Conduct thorough market research",
				"Develop minimum viable product/service",
				"Build customer feedback loop",
			},
			Pros: []point{
				{"Entrepreneurial Freedom", "Ability to build business according to your vision"},
				{"Unlimited Earning Potential", "Success directly tied to effort and execution"},
				{"Skill Development", "Opportunity to learn multiple business aspects"},
			},
			Cons: []point{
				{"Financial Risk", "Personal investment and potential losses"},
				{"Work-Life Balance", "Typically requires long hours especially in early stages"},
				{"Wearing Multiple Hats", "Need to handle all business functions initially"},
			},
			Risks:            "Market competition, execution challenges, funding, economic conditions",
			SuccessPercent:   60,
			SuccessQualifier: "with proper planning and execution",
			AdditionalContext: []string{
				"Every successful business begins with solving a specific problem or fulfilling a market need. Start by conducting thorough market research to understand your target audience, competition, and industry trends. Validate your business concept with potential customers before making significant investments.",
				"Focus on building a strong value proposition that differentiates you from competitors. Develop a detailed business plan covering operations, marketing, finances, and growth strategy. Remember that most businesses take longer and require more capital than initially projected, so maintain adequate financial reserves.",
			},
		},
	},
}

func matchRule(prompt string) fallbackRule {
	lower := strings.ToLower(prompt)
	for _, r := range fallbackRules {
		if r.Matches(lower) {
			return r
		}
	}
	return fallbackRules[len(fallbackRules)-1]
}

// Fallback returns the canned analysis for prompt. It is deterministic and
// never empty, and its first line echoes prompt verbatim.
func Fallback(prompt string) string {
	return matchRule(prompt).Analysis.render(prompt)
}

// FallbackTopic names the rule Fallback selects for prompt.
func FallbackTopic(prompt string) string {
	return matchRule(prompt).Topic
}

func (a analysis) render(prompt string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**BUSINESS ANALYSIS: %s**\n\n", prompt)

	fmt.Fprintf(&b, "**Market Potential**: %s\n", a.MarketPotential)
	fmt.Fprintf(&b, "**Initial Investment**: %s\n", a.Investment)
	fmt.Fprintf(&b, "**%s**: %s\n", a.RevenueLabel, a.Revenue)
	fmt.Fprintf(&b, "**Break-even**: %s\n\n", a.BreakEven)

	b.WriteString("**KEY INSIGHTS**:\n")
	for _, s := range a.Insights {
		fmt.Fprintf(&b, "✅ %s\n", s)
	}

	b.WriteString("\n**RECOMMENDATIONS**:\n")
	for i, s := range a.Recommendations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}

	b.WriteString("\n**PROS & CONS**:\n**Pros:**\n")
	for _, p := range a.Pros {
		fmt.Fprintf(&b, "• **%s**: %s\n", p.Title, p.Detail)
	}
	b.WriteString("\n**Cons:**\n")
	for _, p := range a.Cons {
		fmt.Fprintf(&b, "• **%s**: %s\n", p.Title, p.Detail)
	}

	fmt.Fprintf(&b, "\n**RISKS**: %s\n", a.Risks)
	fmt.Fprintf(&b, "**SUCCESS PROBABILITY**: %d%% %s\n", a.SuccessPercent, a.SuccessQualifier)

	b.WriteString("\n**ADDITIONAL INSIGHTS**:\n")
	b.WriteString(strings.Join(a.AdditionalContext, "\n\n"))
	return b.String()
}
