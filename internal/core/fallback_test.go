package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackTopicSelection(t *testing.T) {
	tests := []struct {
		prompt string
		topic  string
	}{
		{"Opening a coffee shop in Bangalore", "coffee"},
		{"A CAFE near the university", "coffee"},
		{"Coffee-themed restaurant downtown", "coffee"},
		{"Restaurant business in Mumbai", "restaurant"},
		{"Healthy FOOD delivery", "restaurant"},
		{"Starting a tech startup with 5L investment", "tech"},
		{"Mobile app development company", "tech"},
		{"B2B SaaS for clinics", "tech"},
		{"Rooftop bar in Goa", "nightlife"},
		{"Irish pub", "nightlife"},
		{"Nightclub for students", "nightlife"},
		{"E-commerce store for fashion", "ecommerce"},
		{"An online store for handmade soap", "ecommerce"},
		{"Plumbing services franchise", genericTopic},
		{"", genericTopic},
	}
	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			assert.Equal(t, tt.topic, FallbackTopic(tt.prompt))
		})
	}
}

func TestFallbackEchoesPromptInFirstLine(t *testing.T) {
	prompts := []string{
		"Opening a coffee shop in Bangalore",
		"  padded prompt with *markdown* ",
		"Plumbing services franchise",
		"Ünïcödé bakery 🍞",
		"",
	}
	for _, p := range prompts {
		out := Fallback(p)
		require.NotEmpty(t, out)
		firstLine, _, _ := strings.Cut(out, "\n")
		assert.Equal(t, "**BUSINESS ANALYSIS: "+p+"**", firstLine)
	}
}

func TestFallbackIsDeterministic(t *testing.T) {
	for _, p := range []string{"coffee", "restaurant", "saas", "pub", "e-commerce", "anything"} {
		assert.Equal(t, Fallback(p), Fallback(p))
	}
}

func TestFallbackCoffeeWinsOverRestaurant(t *testing.T) {
	both := "A coffee restaurant"
	assert.Equal(t, "coffee", FallbackTopic(both))
	assert.Contains(t, Fallback(both), "Specialty coffee trend growing 25% YoY")
	assert.NotContains(t, Fallback(both), "Cuisine specialization")
}

func TestFallbackDocumentStructure(t *testing.T) {
	sections := []string{
		"**Market Potential**:",
		"**Initial Investment**:",
		"**Break-even**:",
		"**KEY INSIGHTS**:",
		"**RECOMMENDATIONS**:",
		"**Pros:**",
		"**Cons:**",
		"**RISKS**:",
		"**SUCCESS PROBABILITY**:",
		"**ADDITIONAL INSIGHTS**:",
	}
	for _, rule := range fallbackRules {
		t.Run(rule.Topic, func(t *testing.T) {
			out := rule.Analysis.render("idea")
			for _, s := range sections {
				assert.Contains(t, out, s)
			}
			assert.Contains(t, out, "%")
			assert.Len(t, rule.Analysis.Insights, 3)
			assert.Len(t, rule.Analysis.Recommendations, 3)
			assert.Len(t, rule.Analysis.Pros, 3)
			assert.Len(t, rule.Analysis.Cons, 3)
		})
	}
}

func TestFallbackCoffeeScenario(t *testing.T) {
	out := Fallback("Opening a coffee shop in Bangalore")
	assert.Contains(t, out, "Market Potential")
	assert.Contains(t, out, "Opening a coffee shop in Bangalore")
	assert.Contains(t, out, "**SUCCESS PROBABILITY**: 68% with proper execution")
}

func TestGenericRuleIsLast(t *testing.T) {
	last := fallbackRules[len(fallbackRules)-1]
	assert.Equal(t, genericTopic, last.Topic)
	assert.True(t, last.Matches("zzz"))
}
