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

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*FixedWindow, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewFixedWindow(client, limit, window), mr
}

func TestFixedWindow_AllowsUnderLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(context.Background(), "203.0.113.7")
		require.NoError(t, err)
		assert.True(t, allowed)
	}
}

func TestFixedWindow_BlocksOverLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2, time.Minute)

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(context.Background(), "203.0.113.7")
		require.NoError(t, err)
		require.True(t, allowed)
	}

	allowed, err := limiter.Allow(context.Background(), "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestFixedWindow_SourcesAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, time.Minute)

	allowed, err := limiter.Allow(context.Background(), "203.0.113.7")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(context.Background(), "203.0.113.8")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestFixedWindow_WindowResets(t *testing.T) {
	limiter, mr := newTestLimiter(t, 1, time.Minute)

	allowed, err := limiter.Allow(context.Background(), "203.0.113.7")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(context.Background(), "203.0.113.7")
	require.NoError(t, err)
	require.False(t, allowed)

	mr.FastForward(time.Minute + time.Second)

	allowed, err = limiter.Allow(context.Background(), "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestFixedWindow_RedisDown(t *testing.T) {
	limiter, mr := newTestLimiter(t, 1, time.Minute)
	mr.Close()

	allowed, err := limiter.Allow(context.Background(), "203.0.113.7")
	require.Error(t, err)
	assert.False(t, allowed)
}
