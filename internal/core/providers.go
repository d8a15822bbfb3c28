package core

import (
	"context"

	"github.com/rs/zerolog"

	"smartbiz.ai/advisor/internal/config"
)

// NewCompletionClient builds the client for COMPLETION_BACKEND. Without
// credentials it returns UnavailableClient so every reply falls back.
// The returned func releases the client.
func NewCompletionClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (CompletionClient, func(), error) {
	if !cfg.CompletionConfigured() {
		log.Warn().Str("backend", cfg.CompletionBackend).Msg("No completion credentials configured, serving fallback analyses only")
		return UnavailableClient{Reason: "no credentials for " + cfg.CompletionBackend}, func() {}, nil
	}

	switch cfg.CompletionBackend {
	case config.BackendVertex:
		c, err := NewVertexClient(ctx, cfg.VertexProject, cfg.VertexLocation, cfg.VertexModel, cfg.CompletionTimeout)
		if err != nil {
			return nil, nil, err
		}
		return c, func() {}, nil
	default:
		c, err := NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.CompletionTimeout, log)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	}
}
