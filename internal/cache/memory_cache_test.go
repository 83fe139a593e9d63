package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "permissions:maps", map[string][]string{"admin": {"*:*"}}, time.Minute))

	var got map[string][]string
	require.NoError(t, c.Get(ctx, "permissions:maps", &got))
	assert.Equal(t, []string{"*:*"}, got["admin"])

	require.NoError(t, c.Delete(ctx, "permissions:maps"))
	assert.ErrorIs(t, c.Get(ctx, "permissions:maps", &got), ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &memoryCache{entries: map[string]memoryEntry{}, now: func() time.Time { return now }}

	require.NoError(t, c.Set(ctx, "session:1", true, time.Minute))
	var ok bool
	require.NoError(t, c.Get(ctx, "session:1", &ok))
	assert.True(t, ok)

	now = now.Add(time.Minute)
	assert.ErrorIs(t, c.Get(ctx, "session:1", &ok), ErrCacheMiss)
}

func TestMemoryCacheDeletePattern(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	for _, k := range []string{"session:a", "session:b", "permissions:maps"} {
		require.NoError(t, c.Set(ctx, k, 1, 0))
	}

	require.NoError(t, c.DeletePattern(ctx, "session:*"))

	var v int
	assert.ErrorIs(t, c.Get(ctx, "session:a", &v), ErrCacheMiss)
	assert.ErrorIs(t, c.Get(ctx, "session:b", &v), ErrCacheMiss)
	assert.NoError(t, c.Get(ctx, "permissions:maps", &v))
}
