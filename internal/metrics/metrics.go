package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "meta_proxy"

// Metrics agrupa os coletores do proxy. Um ponteiro nil é válido e não registra nada.
type Metrics struct {
	registry *prometheus.Registry

	ProxyRequests      *prometheus.CounterVec
	RateLimitDenials   *prometheus.CounterVec
	UpstreamRequests   *prometheus.CounterVec
	UpstreamLatency    *prometheus.HistogramVec
	EnrichmentFailures prometheus.Counter
	EnrichedCampaigns  prometheus.Counter
	RateLimitEntries   *prometheus.GaugeVec
	TokenRefreshes     *prometheus.CounterVec
}

// New cria os coletores num registry próprio, o que permite várias instâncias em testes
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ProxyRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total de requisições ao proxy por ação e resultado",
			},
			[]string{"action", "outcome"},
		),
		RateLimitDenials: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_denials_total",
				Help:      "Requisições negadas pelo rate limiter",
			},
			[]string{"limiter"},
		),
		UpstreamRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Chamadas feitas à Graph API",
			},
			[]string{"method", "outcome"},
		),
		UpstreamLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_request_duration_seconds",
				Help:      "Latência das chamadas à Graph API",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
			},
			[]string{"method"},
		),
		EnrichmentFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "enrichment_failures_total",
				Help:      "Campanhas devolvidas com insights zerados por falha no enriquecimento",
			},
		),
		EnrichedCampaigns: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "enriched_campaigns_total",
				Help:      "Campanhas enriquecidas com sucesso",
			},
		),
		RateLimitEntries: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "rate_limit_entries",
				Help:      "Janelas ativas mantidas em memória pelo rate limiter",
			},
			[]string{"limiter"},
		),
		TokenRefreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_refreshes_total",
				Help:      "Renovações de tokens de longa duração do Meta",
			},
			[]string{"outcome"},
		),
	}
}

// Handler expõe o registry no formato do Prometheus
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveUpstream satisfaz metaclient.Observer
func (m *Metrics) ObserveUpstream(method, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(method, outcome).Inc()
	m.UpstreamLatency.WithLabelValues(method).Observe(duration.Seconds())
}

func (m *Metrics) ObserveProxyRequest(action, outcome string) {
	if m == nil {
		return
	}
	m.ProxyRequests.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) ObserveRateLimitDenied(limiter string) {
	if m == nil {
		return
	}
	m.RateLimitDenials.WithLabelValues(limiter).Inc()
}

// ObserveEnrichment registra o resultado de um lote de enriquecimento
func (m *Metrics) ObserveEnrichment(succeeded, failed int) {
	if m == nil {
		return
	}
	m.EnrichedCampaigns.Add(float64(succeeded))
	m.EnrichmentFailures.Add(float64(failed))
}

func (m *Metrics) SetRateLimitEntries(limiter string, entries int) {
	if m == nil {
		return
	}
	m.RateLimitEntries.WithLabelValues(limiter).Set(float64(entries))
}

func (m *Metrics) ObserveTokenRefresh(outcome string) {
	if m == nil {
		return
	}
	m.TokenRefreshes.WithLabelValues(outcome).Inc()
}
