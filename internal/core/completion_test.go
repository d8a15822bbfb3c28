package core

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartbiz.ai/advisor/internal/config"
)

func TestBuildAnalysisPrompt(t *testing.T) {
	p := BuildAnalysisPrompt("Opening a coffee shop in Bangalore")
	assert.Contains(t, p, "**BUSINESS ANALYSIS: Opening a coffee shop in Bangalore**")
	assert.Contains(t, p, "**SUCCESS PROBABILITY**")
	assert.NotContains(t, p, "%!")
}

func TestUnavailableClientFailsClosed(t *testing.T) {
	text, err := UnavailableClient{}.Complete(context.Background(), "anything")
	assert.Empty(t, text)
	assert.True(t, errors.Is(err, ErrCompletionUnavailable))
	assert.Equal(t, "offline", UnavailableClient{}.Name())
}

func TestJoinTextPartsRejectsEmpty(t *testing.T) {
	_, err := joinTextParts(nil)
	assert.ErrorIs(t, err, ErrCompletionUnavailable)

	_, err = joinTextParts([]string{"  ", "\n"})
	assert.ErrorIs(t, err, ErrCompletionUnavailable)

	text, err := joinTextParts([]string{"Hello, ", "world"})
	require.NoError(t, err)
	assert.Equal(t, "Hello, world", text)
}

func TestNewCompletionClientWithoutCredentials(t *testing.T) {
	client, closeFn, err := NewCompletionClient(context.Background(),
		&config.Config{CompletionBackend: config.BackendGemini}, zerolog.Nop())
	require.NoError(t, err)
	defer closeFn()

	_, err = client.Complete(context.Background(), "idea")
	assert.ErrorIs(t, err, ErrCompletionUnavailable)
}
