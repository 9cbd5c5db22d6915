package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := NewRedisCache(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

func TestRedisCacheSetGet(t *testing.T) {
	rc, _ := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		Name string `json:"name"`
	}
	require.NoError(t, rc.Set(ctx, "k", payload{Name: "orwell"}, time.Minute))

	var got payload
	found, err := rc.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "orwell", got.Name)

	found, err = rc.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCacheExpiry(t *testing.T) {
	rc, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, rc.Set(ctx, "revoked", true, time.Second))
	ok, err := rc.Exists(ctx, "revoked")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Second)
	ok, err = rc.Exists(ctx, "revoked")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCacheDelete(t *testing.T) {
	rc, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, rc.Set(ctx, "credential:a@library.test", "x", 0))
	require.NoError(t, rc.Set(ctx, "credential:b@library.test", "y", 0))
	require.NoError(t, rc.Delete(ctx, "credential:a@library.test", "credential:b@library.test"))
	ok, err := rc.Exists(ctx, "credential:a@library.test")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, rc.Ping(ctx))
}

func TestRedisCacheSetNX(t *testing.T) {
	rc, _ := newTestCache(t)
	ctx := context.Background()

	stored, err := rc.SetNX(ctx, "credential:c@library.test", "first", 0)
	require.NoError(t, err)
	assert.True(t, stored)

	stored, err = rc.SetNX(ctx, "credential:c@library.test", "second", 0)
	require.NoError(t, err)
	assert.False(t, stored)

	var got string
	_, err = rc.Get(ctx, "credential:c@library.test", &got)
	require.NoError(t, err)
	assert.Equal(t, "first", got)
}
