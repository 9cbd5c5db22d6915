package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, limit int) (*FixedWindowLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter, err := NewFixedWindowLimiter(client, "test:ratelimit", limit, time.Minute)
	require.NoError(t, err)
	fixed := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }
	return limiter, mr
}

func TestFixedWindowLimiterBlocksOverLimit(t *testing.T) {
	limiter, _ := newLimiter(t, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "ip-1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d should pass", i+1)
	}
	ok, err := limiter.Allow(ctx, "ip-1")
	require.NoError(t, err)
	assert.False(t, ok, "third request should be blocked")

	ok, err = limiter.Allow(ctx, "ip-2")
	require.NoError(t, err)
	assert.True(t, ok, "other keys keep their own quota")
}

func TestFixedWindowLimiterNewWindow(t *testing.T) {
	limiter, _ := newLimiter(t, 1)
	ctx := context.Background()

	ok, _ := limiter.Allow(ctx, "ip-1")
	assert.True(t, ok)
	ok, _ = limiter.Allow(ctx, "ip-1")
	assert.False(t, ok)

	next := time.Date(2026, 1, 1, 10, 1, 0, 0, time.UTC)
	limiter.now = func() time.Time { return next }
	ok, _ = limiter.Allow(ctx, "ip-1")
	assert.True(t, ok)
}

func TestFixedWindowLimiterFailsOpen(t *testing.T) {
	limiter, mr := newLimiter(t, 1)
	mr.Close()

	ok, err := limiter.Allow(context.Background(), "ip-1")
	assert.Error(t, err)
	assert.True(t, ok)
}

func TestFixedWindowLimiterRequiresClient(t *testing.T) {
	limiter, err := NewFixedWindowLimiter(nil, "", 1, time.Second)
	assert.Error(t, err)
	assert.Nil(t, limiter)
}
