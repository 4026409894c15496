package cache

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache keeps results in process. One instance normally backs a single
// session, so it dies with it.
type MemoryCache struct {
	items *gocache.Cache
}

// NewMemoryCache creates an in-memory cache. Entries stored without a ttl never
// expire; cleanup sweeps expired ones.
func NewMemoryCache(cleanup time.Duration) *MemoryCache {
	return &MemoryCache{items: gocache.New(gocache.NoExpiration, cleanup)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*Result, error) {
	if x, found := c.items.Get(key); found {
		r := x.(Result)
		r.Summary = append([]string(nil), r.Summary...)
		return &r, nil
	}
	return nil, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, result *Result, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	r := *result
	r.Summary = append([]string(nil), r.Summary...)
	c.items.Set(key, r, ttl)
	return nil
}

func (c *MemoryCache) InvalidateSession(_ context.Context, sessionID string) error {
	prefix := SessionPrefix(sessionID)
	for key := range c.items.Items() {
		if strings.HasPrefix(key, prefix) {
			c.items.Delete(key)
		}
	}
	return nil
}

func (c *MemoryCache) Close() error {
	c.items.Flush()
	return nil
}
