package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoOpCacheNeverHits(t *testing.T) {
	var c Cache = NewNoOpCache()
	ctx := context.Background()
	key := GenerateCacheKey("session-123", KindAnswer, "text", "question")

	require.NoError(t, c.Set(ctx, key, &Result{Answer: "water damage", Score: 0.9}, time.Hour))

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, c.InvalidateSession(ctx, "session-123"))
	assert.NoError(t, c.Close())
}
