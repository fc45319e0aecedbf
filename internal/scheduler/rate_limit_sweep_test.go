package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/meta-insights-proxy/internal/metrics"
	"github.com/vfg2006/meta-insights-proxy/pkg/ratelimit"
)

func TestRateLimitSweepService_sweep(t *testing.T) {
	start := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	now := start
	clock := func() time.Time { return now }

	proxyLimiter := ratelimit.NewFixedWindow(60, time.Minute, ratelimit.WithClock(clock))
	authLimiter := ratelimit.NewFixedWindow(20, time.Minute, ratelimit.WithClock(clock))
	ctx := context.Background()

	_, err := proxyLimiter.Check(ctx, "user-1")
	require.NoError(t, err)
	_, err = authLimiter.Check(ctx, "10.0.0.1")
	require.NoError(t, err)

	now = start.Add(30 * time.Second)
	_, err = proxyLimiter.Check(ctx, "user-2")
	require.NoError(t, err)

	m := metrics.New()
	service := NewRateLimitSweepService("*/5 * * * *", m,
		SweepTarget{Name: "proxy", Sweeper: proxyLimiter},
		SweepTarget{Name: "auth", Sweeper: authLimiter},
	)
	service.now = func() time.Time { return start.Add(61 * time.Second) }

	service.sweep()

	assert.Equal(t, 1, proxyLimiter.Len())
	assert.Equal(t, 0, authLimiter.Len())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RateLimitEntries.WithLabelValues("proxy")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.RateLimitEntries.WithLabelValues("auth")))
}

func TestRateLimitSweepService_StartWithoutTargets(t *testing.T) {
	service := NewRateLimitSweepService("*/5 * * * *", nil)

	assert.NoError(t, service.Start(context.Background()))
}
