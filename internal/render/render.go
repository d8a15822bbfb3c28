package render

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"smartbiz.ai/advisor/internal/core"
)

const defaultWordWrap = 80

var (
	userLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("42")).
				Bold(true)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))
)

// Renderer formats turns for a terminal. A nil markdown renderer means
// text is printed as-is.
type Renderer struct {
	md *glamour.TermRenderer
}

// NewRenderer builds a markdown renderer; plain disables markdown entirely,
// which is what piped output wants.
func NewRenderer(plain bool) *Renderer {
	if plain {
		return &Renderer{}
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(defaultWordWrap),
	)
	if err != nil {
		return &Renderer{}
	}
	return &Renderer{md: md}
}

// Markdown renders content, returning it unchanged when rendering fails.
func (r *Renderer) Markdown(content string) string {
	if r.md == nil {
		return content
	}
	rendered, err := r.md.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

func (r *Renderer) Turn(t core.Turn) string {
	label := userLabelStyle.Render("You")
	if t.Author == core.AuthorAssistant {
		label = assistantLabelStyle.Render("SmartBiz AI")
	}
	header := label + " " + timestampStyle.Render(t.CreatedAt.Format("15:04"))

	body := t.Text
	if t.Author == core.AuthorAssistant {
		body = r.Markdown(t.Text)
	}
	return header + "\n" + strings.TrimRight(body, "\n") + "\n"
}

// Turns renders a transcript in display order.
func (r *Renderer) Turns(turns []core.Turn) string {
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r.Turn(t))
	}
	return b.String()
}

var speechReplacer = strings.NewReplacer("**", "", "*", "", "#", "")

// SpeechText strips markdown emphasis and heading markers so the text can
// be handed to a speech synthesizer.
func SpeechText(text string) string {
	return speechReplacer.Replace(text)
}

// QuickQuestions are the suggested prompts offered before the first question.
var QuickQuestions = []string{
	"Opening a coffee shop in Bangalore",
	"Starting a tech startup with 5L investment",
	"Restaurant business in Mumbai",
	"E-commerce store for fashion",
	"Mobile app development company",
}
