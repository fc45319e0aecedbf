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

func newRedisLimiter(t *testing.T, max int, window time.Duration) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisLimiter(client, "proxy", max, window), mr
}

func TestRedisLimiter_AllowsUpToMax(t *testing.T) {
	limiter, mr := newRedisLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		decision, err := limiter.Check(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Equal(t, 3-i, decision.Remaining)
	}

	decision, err := limiter.Check(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 0, decision.Remaining)

	// A chamada negada não incrementa o contador
	value, err := mr.Get("ratelimit:proxy:user-1")
	require.NoError(t, err)
	assert.Equal(t, "3", value)
	assert.Greater(t, mr.TTL("ratelimit:proxy:user-1"), time.Duration(0))
}

func TestRedisLimiter_ResetsAfterWindow(t *testing.T) {
	limiter, mr := newRedisLimiter(t, 1, time.Minute)
	ctx := context.Background()

	first, _ := limiter.Check(ctx, "user-1")
	second, _ := limiter.Check(ctx, "user-1")
	assert.True(t, first.Allowed)
	assert.False(t, second.Allowed)

	mr.FastForward(time.Minute + time.Second)

	third, err := limiter.Check(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, third.Allowed)
	assert.Equal(t, 0, third.Remaining)
}

func TestRedisLimiter_ErrorWhenRedisUnavailable(t *testing.T) {
	limiter, mr := newRedisLimiter(t, 1, time.Minute)
	mr.Close()

	_, err := limiter.Check(context.Background(), "user-1")
	assert.Error(t, err)
}

func TestRedisLimiter_DeniedKeyWithoutExpiryGetsWindow(t *testing.T) {
	limiter, mr := newRedisLimiter(t, 2, time.Minute)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	// Contador no limite sem TTL, como após um PERSIST ou expiração perdida
	require.NoError(t, mr.Set("ratelimit:proxy:user-1", "2"))

	decision, err := limiter.Check(context.Background(), "user-1")
	require.NoError(t, err)

	assert.False(t, decision.Allowed)
	assert.True(t, decision.ResetAt.After(now))
	assert.LessOrEqual(t, decision.ResetAt.Sub(now), time.Minute)
	assert.Greater(t, mr.TTL("ratelimit:proxy:user-1"), time.Duration(0))
}
