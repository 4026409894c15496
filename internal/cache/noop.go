package cache

import (
	"context"
	"time"
)

var _ Cache = (*NoOpCache)(nil)

// NoOpCache stands in for a controller built without a cache: every lookup
// misses, so each action reaches the inference backend.
type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (NoOpCache) Get(context.Context, string) (*Result, error) { return nil, nil }

func (NoOpCache) Set(context.Context, string, *Result, time.Duration) error { return nil }

func (NoOpCache) InvalidateSession(context.Context, string) error { return nil }

func (NoOpCache) Close() error { return nil }
