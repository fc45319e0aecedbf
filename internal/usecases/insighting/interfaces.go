package insighting

import (
	"context"
	"net/url"

	"github.com/vfg2006/meta-insights-proxy/internal/domain"
)

// CampaignEnricher define a interface do pipeline de enriquecimento de campanhas
type CampaignEnricher interface {
	// EnrichCampaigns lista as campanhas de uma conta e anexa a cada uma o resumo recente de insights
	EnrichCampaigns(ctx context.Context, accessToken, adAccountID string, listParams url.Values, window domain.InsightsQuery) (*EnrichedCampaigns, error)
}

// EnrichmentObserver recebe o resultado de cada lote (implementado por internal/metrics)
type EnrichmentObserver interface {
	ObserveEnrichment(succeeded, failed int)
}

type noopObserver struct{}

func (noopObserver) ObserveEnrichment(int, int) {}
