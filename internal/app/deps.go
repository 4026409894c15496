package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"

	"claim-summarizer/internal/cache"
	"claim-summarizer/internal/config"
	"claim-summarizer/internal/extract"
	"claim-summarizer/internal/inference"
	"claim-summarizer/internal/logger"
	"claim-summarizer/internal/pipeline"
	"claim-summarizer/internal/session"
)

const memoryCacheCleanup = 10 * time.Minute

// Deps bundles the runtime dependencies of the summarizer service.
type Deps struct {
	Config    config.Config
	Log       *slog.Logger
	Extractor extract.Extractor
	Inference inference.Client
	// Cache is the shared result backend. Nil means every session gets its
	// own in-memory cache.
	Cache    cache.Cache
	Sessions *session.Store
}

// Build loads env, config, and shared components.
func Build(ctx context.Context) (Deps, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Deps{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return Deps{}, err
	}
	log := logger.New(cfg.LogLevel)

	client, err := buildInference(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize inference client: %w", err)
	}
	shared, err := buildCache(ctx, cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize cache: %w", err)
	}

	deps := Deps{
		Config:    cfg,
		Log:       log,
		Extractor: extract.Default(),
		Inference: client,
		Cache:     shared,
	}
	deps.Sessions = NewSessionStore(deps)
	return deps, nil
}

// NewSessionStore builds the session registry. Each session gets a controller
// bound to the shared cache, or to a private memory cache when there is none.
func NewSessionStore(deps Deps) *session.Store {
	opts := pipeline.Options{}
	if deps.Cache != nil {
		// Shared entries outlive a crashed process; bound them by the session TTL.
		opts.CacheTTL = deps.Config.SessionTTL
	}
	return session.NewStore(deps.Config.SessionTTL, func(id string) *pipeline.Controller {
		c := deps.Cache
		if c == nil {
			c = cache.NewMemoryCache(memoryCacheCleanup)
		}
		return pipeline.NewController(id, deps.Extractor, deps.Inference, c, deps.Log, opts)
	}, deps.Log)
}

// Close ends all sessions and releases the shared cache.
func (d Deps) Close() error {
	if d.Sessions != nil {
		d.Sessions.Close()
	}
	if d.Cache != nil {
		return d.Cache.Close()
	}
	return nil
}

func buildInference(cfg config.Config, log *slog.Logger) (inference.Client, error) {
	client, err := inference.NewHTTPClient(inference.Options{
		Token:        cfg.APIToken,
		SummarizeURL: cfg.SummarizeURL,
		AnswerURL:    cfg.QAURL,
		Timeout:      cfg.InferenceTimeout,
	}, log)
	if err != nil {
		return nil, err
	}
	log.Info("using inference endpoints", "summarize_url", cfg.SummarizeURL, "qa_url", cfg.QAURL, "timeout", cfg.InferenceTimeout)
	return client, nil
}

func buildCache(ctx context.Context, cfg config.Config, log *slog.Logger) (cache.Cache, error) {
	switch cfg.CacheProvider {
	case "memory":
		log.Info("using per-session memory cache")
		return nil, nil
	case "redis":
		c, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Warn("redis unavailable, using per-session memory cache", "addr", cfg.RedisAddr, "err", err)
			return nil, nil
		}
		log.Info("using Redis cache", "addr", cfg.RedisAddr)
		return c, nil
	default:
		return nil, fmt.Errorf("invalid CACHE_PROVIDER: %s (valid options: memory, redis)", cfg.CacheProvider)
	}
}
