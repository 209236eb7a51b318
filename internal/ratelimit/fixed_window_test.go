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

	limiter, err := NewRedisFixedWindowLimiter(client, "test:ratelimit", limit, time.Minute)
	require.NoError(t, err)
	return limiter, mr
}

func TestFixedWindowLimiterRedis(t *testing.T) {
	ctx := context.Background()
	limiter, _ := newLimiter(t, 2)

	assert.True(t, limiter.Allow(ctx, "ip-1"), "first request should pass")
	assert.True(t, limiter.Allow(ctx, "ip-1"), "second request should pass")
	assert.False(t, limiter.Allow(ctx, "ip-1"), "third request should be blocked")
	assert.True(t, limiter.Allow(ctx, "ip-2"), "other keys have their own quota")
}

func TestFixedWindowLimiterRedisFailClosed(t *testing.T) {
	limiter, mr := newLimiter(t, 1)
	mr.Close()
	assert.False(t, limiter.Allow(context.Background(), "ip-1"))
}

func TestFixedWindowLimiterValidates(t *testing.T) {
	_, err := NewRedisFixedWindowLimiter(nil, "", 1, time.Second)
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	_, err = NewRedisFixedWindowLimiter(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "", 0, time.Second)
	assert.Error(t, err)
}

func TestUnlimited(t *testing.T) {
	var l Limiter = Unlimited{}
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow(context.Background(), "ip-1"))
	}
}
