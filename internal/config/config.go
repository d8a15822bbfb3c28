package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	BackendGemini = "gemini"
	BackendVertex = "vertex"

	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"smartbiz-advisor"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"console"`

	CompletionBackend string        `env:"COMPLETION_BACKEND" envDefault:"gemini"`
	GeminiAPIKey      string        `env:"GEMINI_API_KEY"`
	GeminiModel       string        `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash-latest"`
	VertexProject     string        `env:"VERTEX_PROJECT"`
	VertexLocation    string        `env:"VERTEX_LOCATION" envDefault:"us-central1"`
	VertexModel       string        `env:"VERTEX_MODEL" envDefault:"gemini-2.0-flash"`
	CompletionTimeout time.Duration `env:"COMPLETION_TIMEOUT" envDefault:"60s"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"sqlite"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"smartbiz.db"`
	BoltPath    string `env:"BOLT_PATH" envDefault:"smartbiz.bolt"`

	JWTSecret  string        `env:"JWT_SECRET"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	ChatRateLimit   float64       `env:"CHAT_RATE_LIMIT" envDefault:"2"`
	ChatRateBurst   int           `env:"CHAT_RATE_BURST" envDefault:"5"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse env config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.CompletionBackend = strings.ToLower(strings.TrimSpace(c.CompletionBackend))
	switch c.CompletionBackend {
	case BackendGemini, BackendVertex:
	default:
		return fmt.Errorf("unsupported COMPLETION_BACKEND %q", c.CompletionBackend)
	}

	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case DriverSQLite, DriverBolt:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}

	if c.CompletionTimeout <= 0 {
		c.CompletionTimeout = 60 * time.Second
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 24 * time.Hour
	}
	if c.ChatRateBurst <= 0 {
		c.ChatRateBurst = 1
	}
	return nil
}

// RequireJWTSecret is checked by entrypoints that issue session tokens.
func (c *Config) RequireJWTSecret() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	return nil
}

// CompletionConfigured reports whether credentials exist for the selected backend.
func (c *Config) CompletionConfigured() bool {
	switch c.CompletionBackend {
	case BackendVertex:
		return c.VertexProject != ""
	default:
		return c.GeminiAPIKey != ""
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
