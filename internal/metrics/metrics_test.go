package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	m := New()

	m.ObserveProxyRequest("campaigns", "ok")
	m.ObserveProxyRequest("campaigns", "ok")
	m.ObserveRateLimitDenied("proxy")
	m.ObserveUpstream(http.MethodGet, "ok", 120*time.Millisecond)
	m.ObserveEnrichment(3, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProxyRequests.WithLabelValues("campaigns", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitDenials.WithLabelValues("proxy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues(http.MethodGet, "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.EnrichedCampaigns))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EnrichmentFailures))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveProxyRequest("ads", "error")
		m.ObserveUpstream(http.MethodPost, "ok", time.Second)
		m.ObserveEnrichment(1, 1)
		m.SetRateLimitEntries("auth", 10)
		m.ObserveTokenRefresh("ok")
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveRateLimitDenied("auth")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `meta_proxy_rate_limit_denials_total{limiter="auth"} 1`)
}
