package insighting

import (
	"context"
	"net/url"

	metadomain "github.com/vfg2006/meta-insights-proxy/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/meta-insights-proxy/infrastructure/integrator/meta/metaclient"
	"github.com/vfg2006/meta-insights-proxy/internal/config"
	"github.com/vfg2006/meta-insights-proxy/internal/domain"
	"github.com/vfg2006/meta-insights-proxy/pkg/log"
	"github.com/vfg2006/meta-insights-proxy/pkg/utils"
	"golang.org/x/sync/errgroup"
)

// EnrichedCampaigns é uma lista nova a cada chamada, na mesma ordem devolvida pelo Meta
type EnrichedCampaigns struct {
	Campaigns []domain.Campaign
	Paging    *metadomain.Paging
}

type Enricher struct {
	client   metaclient.Client
	cfg      config.Enrichment
	observer EnrichmentObserver
}

type EnricherOption func(*Enricher)

func WithEnrichmentObserver(observer EnrichmentObserver) EnricherOption {
	return func(e *Enricher) {
		if observer != nil {
			e.observer = observer
		}
	}
}

func NewEnricher(client metaclient.Client, cfg config.Enrichment, opts ...EnricherOption) *Enricher {
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}

	e := &Enricher{
		client:   client,
		cfg:      cfg,
		observer: noopObserver{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// EnrichCampaigns busca as campanhas (falha aqui é fatal) e depois os insights de cada uma em paralelo.
// Falha em uma campanha não afeta as outras: ela volta com o bloco zerado e EnrichmentFailed.
func (e *Enricher) EnrichCampaigns(
	ctx context.Context,
	accessToken, adAccountID string,
	listParams url.Values,
	window domain.InsightsQuery,
) (*EnrichedCampaigns, error) {
	logger := log.ForContext(ctx).WithField("ad_account_id", adAccountID)

	list, err := e.client.GetCampaignsByAccountID(ctx, accessToken, adAccountID, listParams)
	if err != nil {
		logger.WithField("error", err.Error()).Error("insights: erro ao listar campanhas")
		return nil, err
	}

	campaigns := make([]domain.Campaign, len(list.Data))
	for i, campaign := range list.Data {
		campaigns[i] = toCampaign(campaign)
	}

	if len(campaigns) == 0 {
		return &EnrichedCampaigns{Campaigns: campaigns, Paging: list.Paging}, nil
	}

	snapshotParams := InsightsValues(e.snapshotWindow(window), nil)

	if e.cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Deadline)
		defer cancel()
	}

	// Cada goroutine escreve apenas no próprio índice, então a ordem de entrada é preservada
	var group errgroup.Group
	group.SetLimit(e.cfg.MaxConcurrency)

	for i := range campaigns {
		i := i
		group.Go(func() error {
			insights, err := e.fetchSnapshot(ctx, accessToken, campaigns[i].ID, snapshotParams)
			if err != nil {
				campaigns[i].EnrichmentFailed = true
				log.ForContext(ctx).WithFields(log.Fields{
					"campaign_id": campaigns[i].ID,
					"error":       err.Error(),
				}).Warn("insights: falha ao enriquecer campanha, devolvendo métricas zeradas")
				return nil
			}

			campaigns[i].Insights = insights
			return nil
		})
	}

	_ = group.Wait()

	failed := 0
	for _, campaign := range campaigns {
		if campaign.EnrichmentFailed {
			failed++
		}
	}
	e.observer.ObserveEnrichment(len(campaigns)-failed, failed)

	logger.WithFields(log.Fields{
		"campaigns": len(campaigns),
		"failed":    failed,
	}).Debug("insights: enriquecimento concluído")

	return &EnrichedCampaigns{Campaigns: campaigns, Paging: list.Paging}, nil
}

func (e *Enricher) snapshotWindow(window domain.InsightsQuery) domain.UpstreamInsightsParams {
	if !window.HasRange() && window.DatePreset == "" {
		window.DatePreset = e.cfg.DatePreset
	}
	window.Level = ""

	return Translate(window)
}

func (e *Enricher) fetchSnapshot(ctx context.Context, accessToken, campaignID string, params url.Values) (domain.CampaignInsights, error) {
	if err := ctx.Err(); err != nil {
		return domain.CampaignInsights{}, err
	}

	if e.cfg.ItemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.ItemTimeout)
		defer cancel()
	}

	list, err := e.client.GetCampaignInsights(ctx, accessToken, campaignID, params)
	if err != nil {
		return domain.CampaignInsights{}, err
	}

	// Campanha sem entrega no período: o Meta devolve data vazio
	if list == nil || len(list.Data) == 0 {
		return domain.CampaignInsights{}, nil
	}

	return ParseInsights(list.Data[0]), nil
}

// ParseInsights converte os números em string da Graph API; campos ausentes viram 0
func ParseInsights(row metadomain.CampaignInsight) domain.CampaignInsights {
	return domain.CampaignInsights{
		Spend:       utils.RoundWithTwoDecimalPlace(utils.CoerceFloat(row.Spend)),
		Impressions: utils.CoerceInt(row.Impressions),
		Clicks:      utils.CoerceInt(row.Clicks),
		CPC:         utils.CoerceFloat(row.CPC),
		CPM:         utils.CoerceFloat(row.CPM),
		CTR:         utils.CoerceFloat(row.CTR),
		Reach:       utils.CoerceInt(row.Reach),
		Frequency:   utils.CoerceFloat(row.Frequency),
	}
}

func toCampaign(campaign metadomain.Campaign) domain.Campaign {
	return domain.Campaign{
		ID:              campaign.ID,
		Name:            campaign.Name,
		Status:          campaign.Status,
		EffectiveStatus: campaign.EffectiveStatus,
		Objective:       campaign.Objective,
		DailyBudget:     campaign.DailyBudget,
		LifetimeBudget:  campaign.LifetimeBudget,
		StartTime:       campaign.StartTime,
		StopTime:        campaign.StopTime,
	}
}

var _ CampaignEnricher = (*Enricher)(nil)
