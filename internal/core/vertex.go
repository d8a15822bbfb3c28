package core

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

const defaultVertexModelName = "gemini-2.0-flash"

// VertexClient calls Gemini through Vertex AI using application default credentials.
type VertexClient struct {
	client    *genai.Client
	modelName string
	timeout   time.Duration
}

func NewVertexClient(ctx context.Context, project, location, modelName string, timeout time.Duration) (*VertexClient, error) {
	if project == "" {
		return nil, fmt.Errorf("vertex project is required")
	}
	if modelName == "" {
		modelName = defaultVertexModelName
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  project,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}
	return &VertexClient{client: client, modelName: modelName, timeout: timeout}, nil
}

func (c *VertexClient) Name() string {
	return "vertex:" + c.modelName
}

func (c *VertexClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.Models.GenerateContent(ctx,
		c.modelName,
		genai.Text(BuildAnalysisPrompt(prompt)),
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(defaultTemperature),
			MaxOutputTokens: defaultMaxOutputTokens,
		},
	)
	if err != nil {
		return "", unavailable("vertex request failed: %v", err)
	}
	return vertexResponseText(resp)
}

func vertexResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", unavailable("vertex response had no candidates")
	}
	var parts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought && part.Text != "" {
			parts = append(parts, part.Text)
		}
	}
	return joinTextParts(parts)
}
