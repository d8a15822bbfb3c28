package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"smartbiz.ai/advisor/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"debug":   zerolog.DebugLevel,
		"DEBUG":   zerolog.DebugLevel,
		"warn":    zerolog.WarnLevel,
		"bananas": zerolog.InfoLevel,
	}
	for raw, want := range tests {
		assert.Equal(t, want, parseLevel(raw), "level %q", raw)
	}
}

func TestNewAppliesLevel(t *testing.T) {
	log := New(&config.Config{ServiceName: "test", LogLevel: "error", LogFormat: "json"})
	assert.Equal(t, zerolog.ErrorLevel, log.GetLevel())
}

func TestNewWithOutputWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(&config.Config{ServiceName: "advisor-test", LogLevel: "info", LogFormat: "json"}, &buf)
	log.Debug().Msg("hidden")
	log.Info().Str("session_id", "s1").Msg("Session started")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"service":"advisor-test"`)
	assert.Contains(t, out, `"session_id":"s1"`)
}
