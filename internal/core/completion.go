package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrCompletionUnavailable covers every way the completion endpoint can fail:
// transport, auth, quota, blocked or empty responses.
var ErrCompletionUnavailable = errors.New("completion unavailable")

// CompletionClient turns a business-idea prompt into analysis text.
// Implementations wrap the prompt with BuildAnalysisPrompt and never return
// placeholder text; every failure satisfies errors.Is(err, ErrCompletionUnavailable).
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
}

const (
	defaultTemperature     = float32(0.7)
	defaultMaxOutputTokens = int32(2048)
)

const analysisTemplate = `You are SmartBiz AI, a business analysis expert. Analyze this business idea and provide detailed insights in this exact format:

**BUSINESS ANALYSIS: %[1]s**

**Market Potential**: [Brief assessment - High/Medium/Low]
**Initial Investment**: [Range in USD or INR]
**Monthly Revenue Potential**: [Realistic range]
**Break-even Timeline**: [Months]

**KEY INSIGHTS**:
✅ [Most important positive factor]
✅ [Second important factor]
✅ [Third important factor]

**RECOMMENDATIONS**:
1. [First critical recommendation]
2. [Second important action]
3. [Third strategic move]

**PROS & CONS**:
**Pros:**
• [Major advantage 1 with explanation]
• [Major advantage 2 with explanation]
• [Major advantage 3 with explanation]

**Cons:**
• [Major challenge 1 with explanation]
• [Major challenge 2 with explanation]
• [Major challenge 3 with explanation]

**RISKS**: [Main risks to consider]
**SUCCESS PROBABILITY**: [Percentage] with proper execution

**ADDITIONAL INSIGHTS**:
[Provide 2-3 paragraphs of detailed analysis covering market trends, customer demographics, location factors, competition analysis, and growth opportunities specific to this business. Make it practical and actionable.]

Keep the analysis realistic, data-driven, and actionable. Focus on the specific business mentioned and provide genuine insights.`

// BuildAnalysisPrompt wraps the user's idea in the fixed analysis template.
func BuildAnalysisPrompt(idea string) string {
	return fmt.Sprintf(analysisTemplate, idea)
}

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCompletionUnavailable, fmt.Sprintf(format, args...))
}

// joinTextParts concatenates the text parts of a response candidate and
// rejects responses that carry no text.
func joinTextParts(parts []string) (string, error) {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p)
	}
	text := b.String()
	if strings.TrimSpace(text) == "" {
		return "", unavailable("empty response")
	}
	return text, nil
}

// UnavailableClient fails every call. It stands in when no credentials are
// configured so that all replies come from the fallback generator.
type UnavailableClient struct {
	Reason string
}

func (c UnavailableClient) Complete(context.Context, string) (string, error) {
	reason := c.Reason
	if reason == "" {
		reason = "no completion backend configured"
	}
	return "", unavailable("%s", reason)
}

func (c UnavailableClient) Name() string {
	return "offline"
}
