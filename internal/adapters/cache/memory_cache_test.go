package cache

import (
	"context"
	"testing"
	"time"

	"github.com/janzheng/mailcheck/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func entryFor(email string, ttl time.Duration) *core.CacheEntry {
	now := time.Now()
	return &core.CacheEntry{
		Email: email,
		Result: &core.PipelineResult{
			Email:  email,
			Status: core.StatusPersonHigh,
		},
		LastSeen:  now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), time.Hour)
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, entryFor("jane@acme.com", time.Hour)))

	entry, err := c.Get(ctx, "jane@acme.com")
	require.NoError(t, err)
	assert.Equal(t, core.StatusPersonHigh, entry.Result.Status)

	_, err = c.Get(ctx, "unknown@acme.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), time.Hour)
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, entryFor("jane@acme.com", -time.Minute)))

	_, err := c.Get(ctx, "jane@acme.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), time.Hour)
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, entryFor("jane@acme.com", time.Hour)))
	require.NoError(t, c.Delete(ctx, "jane@acme.com"))

	_, err := c.Get(ctx, "jane@acme.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCacheCleanup(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), time.Hour)
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, entryFor("live@acme.com", time.Hour)))
	require.NoError(t, c.Set(ctx, entryFor("stale@acme.com", -time.Minute)))

	require.NoError(t, c.Cleanup(ctx))

	_, err := c.Get(ctx, "live@acme.com")
	assert.NoError(t, err)
	c.mu.RLock()
	_, stale := c.entries["stale@acme.com"]
	c.mu.RUnlock()
	assert.False(t, stale)
}
