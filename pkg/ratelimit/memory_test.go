package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func TestFixedWindow_AllowsUpToMax(t *testing.T) {
	clock := newClock()
	limiter := NewFixedWindow(60, time.Minute, WithClock(clock.Now))
	ctx := context.Background()

	previous := 60
	for i := 1; i <= 60; i++ {
		decision, err := limiter.Check(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, decision.Allowed, "chamada %d deveria ser permitida", i)
		assert.Less(t, decision.Remaining, previous)
		assert.Equal(t, 60-i, decision.Remaining)
		previous = decision.Remaining
		clock.Advance(100 * time.Millisecond)
	}

	decision, err := limiter.Check(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 0, decision.Remaining)
}

func TestFixedWindow_DeniedCallsDoNotConsumeQuota(t *testing.T) {
	clock := newClock()
	limiter := NewFixedWindow(2, time.Minute, WithClock(clock.Now))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = limiter.Check(ctx, "ip")
	}

	limiter.mu.Lock()
	count := limiter.entries["ip"].count
	limiter.mu.Unlock()

	assert.Equal(t, 2, count)
}

func TestFixedWindow_ResetsAfterWindow(t *testing.T) {
	clock := newClock()
	limiter := NewFixedWindow(3, time.Minute, WithClock(clock.Now))
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _ = limiter.Check(ctx, "user-1")
	}

	// Exatamente no instante do reset a janela ainda vale
	clock.Advance(time.Minute)
	decision, _ := limiter.Check(ctx, "user-1")
	assert.False(t, decision.Allowed)

	clock.Advance(time.Millisecond)
	decision, err := limiter.Check(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 2, decision.Remaining)

	limiter.mu.Lock()
	assert.Equal(t, 1, limiter.entries["user-1"].count)
	limiter.mu.Unlock()
}

func TestFixedWindow_KeysAreIndependent(t *testing.T) {
	limiter := NewFixedWindow(1, time.Minute)
	ctx := context.Background()

	first, _ := limiter.Check(ctx, "a")
	second, _ := limiter.Check(ctx, "b")
	third, _ := limiter.Check(ctx, "a")

	assert.True(t, first.Allowed)
	assert.True(t, second.Allowed)
	assert.False(t, third.Allowed)
}

func TestFixedWindow_Sweep(t *testing.T) {
	clock := newClock()
	limiter := NewFixedWindow(10, time.Minute, WithClock(clock.Now))
	ctx := context.Background()

	_, _ = limiter.Check(ctx, "old")
	clock.Advance(45 * time.Second)
	_, _ = limiter.Check(ctx, "recent")
	clock.Advance(30 * time.Second)

	removed := limiter.Sweep(clock.Now())

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, limiter.Len())
}

func TestFixedWindow_Concurrent(t *testing.T) {
	limiter := NewFixedWindow(100, time.Minute)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)

	for i := 0; i < 250; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			decision, _ := limiter.Check(ctx, "shared")
			if decision.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, allowed)
}
