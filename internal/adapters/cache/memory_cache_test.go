package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finwatch/invoice-funnel/internal/core"
)

func newTestCache(t *testing.T) *MemoryCache {
	t.Helper()
	c := NewMemoryCache(zap.NewNop(), time.Hour)
	t.Cleanup(c.Stop)
	return c
}

func entry(id string, expiresIn time.Duration) *core.CacheEntry {
	now := time.Now()
	return &core.CacheEntry{
		MessageID:  id,
		Category:   core.CategoryAcceptObvious,
		Confidence: 72,
		DecidedAt:  now,
		ExpiresAt:  now.Add(expiresIn),
	}
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, entry("msg-1", time.Hour)))

	got, err := c.Get(ctx, "msg-1")
	require.NoError(t, err)
	assert.Equal(t, core.CategoryAcceptObvious, got.Category)
	assert.Equal(t, 72, got.Confidence)
}

func TestMemoryCacheMissReturnsNotFound(t *testing.T) {
	c := newTestCache(t)

	_, err := c.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCacheExpiredEntryIsAMiss(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, entry("msg-1", -time.Minute)))

	_, err := c.Get(ctx, "msg-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCacheDelete(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, entry("msg-1", time.Hour)))
	require.NoError(t, c.Delete(ctx, "msg-1"))

	_, err := c.Get(ctx, "msg-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCacheCleanupRemovesOnlyExpired(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, entry("fresh", time.Hour)))
	require.NoError(t, c.Set(ctx, entry("stale", -time.Minute)))

	require.NoError(t, c.Cleanup(ctx))

	_, err := c.Get(ctx, "fresh")
	assert.NoError(t, err)
	assert.Len(t, c.entries, 1)
}
