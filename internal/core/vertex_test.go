package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestVertexResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking...", Thought: true},
				{Text: "Answer "},
				nil,
				{Text: "text"},
			}},
		}},
	}
	text, err := vertexResponseText(resp)
	require.NoError(t, err)
	assert.Equal(t, "Answer text", text)
}

func TestVertexResponseTextEmpty(t *testing.T) {
	cases := []*genai.GenerateContentResponse{
		nil,
		{},
		{Candidates: []*genai.Candidate{{}}},
		{Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Thought: true, Text: "hmm"}}}}}},
	}
	for _, resp := range cases {
		_, err := vertexResponseText(resp)
		assert.ErrorIs(t, err, ErrCompletionUnavailable)
	}
}

func TestNewVertexClientRequiresProject(t *testing.T) {
	_, err := NewVertexClient(t.Context(), "", "us-central1", "", 0)
	assert.Error(t, err)
}
