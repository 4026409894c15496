package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// ErrConfiguration marks a startup configuration problem. It is fatal and never
// surfaces per request.
var ErrConfiguration = errors.New("configuration error")

// Config holds runtime configuration read from the environment.
type Config struct {
	// Server
	Port           int           `env:"PORT" envDefault:"8080"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"90s"`

	// Upload limits
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"` // 10MB in bytes

	// Inference endpoints
	APIToken         string        `env:"HUGGINGFACE_API_TOKEN"`
	SummarizeURL     string        `env:"SUMMARIZE_URL" envDefault:"https://api-inference.huggingface.co/models/slauw87/bart_summarisation"`
	QAURL            string        `env:"QA_URL" envDefault:"https://api-inference.huggingface.co/models/rsvp-ai/bertserini-bert-base-squad"`
	InferenceTimeout time.Duration `env:"INFERENCE_TIMEOUT" envDefault:"30s"`

	// Sessions
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"1h"`

	// Result cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"memory"` // "memory" (per session) or "redis" (shared)
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}

// Validate reports missing or inconsistent settings. Every returned error
// matches ErrConfiguration.
func (c Config) Validate() error {
	if c.APIToken == "" {
		return fmt.Errorf("%w: HUGGINGFACE_API_TOKEN is required", ErrConfiguration)
	}
	if c.SummarizeURL == "" || c.QAURL == "" {
		return fmt.Errorf("%w: SUMMARIZE_URL and QA_URL must not be empty", ErrConfiguration)
	}
	if c.InferenceTimeout <= 0 {
		return fmt.Errorf("%w: INFERENCE_TIMEOUT must be positive, got %s", ErrConfiguration, c.InferenceTimeout)
	}
	switch c.CacheProvider {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: REDIS_ADDR is required when CACHE_PROVIDER=redis", ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: invalid CACHE_PROVIDER: %s (valid options: memory, redis)", ErrConfiguration, c.CacheProvider)
	}
	return nil
}
