package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

const defaultGeminiModelName = "gemini-1.5-flash-latest"

// GeminiClient calls the Gemini API with an API key.
type GeminiClient struct {
	client    *genai.Client
	modelName string
	timeout   time.Duration
	log       zerolog.Logger
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string, timeout time.Duration, log zerolog.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if modelName == "" {
		modelName = defaultGeminiModelName
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiClient{
		client:    client,
		modelName: modelName,
		timeout:   timeout,
		log:       log,
	}, nil
}

func (c *GeminiClient) Name() string {
	return "gemini:" + c.modelName
}

func (c *GeminiClient) Close() {
	if c.client == nil {
		return
	}
	if err := c.client.Close(); err != nil {
		c.log.Error().Err(err).Msg("Error closing GenAI client")
	} else {
		c.log.Info().Msg("GenAI client closed.")
	}
}

func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	model := c.client.GenerativeModel(c.modelName)
	temp := defaultTemperature
	maxTokens := defaultMaxOutputTokens
	model.GenerationConfig = genai.GenerationConfig{
		MaxOutputTokens: &maxTokens,
		Temperature:     &temp,
	}

	resp, err := model.GenerateContent(ctx, genai.Text(BuildAnalysisPrompt(prompt)))
	if err != nil {
		return "", unavailable("gemini request failed: %v", err)
	}
	return geminiResponseText(resp)
}

func geminiResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", unavailable("gemini response had no candidates")
	}
	var parts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			parts = append(parts, string(txt))
		}
	}
	return joinTextParts(parts)
}
