package proxying

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	metadomain "github.com/vfg2006/meta-insights-proxy/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/meta-insights-proxy/infrastructure/integrator/meta/metaclient"
	"github.com/vfg2006/meta-insights-proxy/internal/domain"
	"github.com/vfg2006/meta-insights-proxy/internal/usecases/insighting"
	"github.com/vfg2006/meta-insights-proxy/pkg/log"
	"github.com/vfg2006/meta-insights-proxy/pkg/utils"
)

// Dispatcher encaminha cada ação validada para a chamada correspondente ao Meta
type Dispatcher interface {
	Dispatch(ctx context.Context, req *ValidatedRequest, accessToken string) (*domain.ResponseEnvelope, error)
}

type actionHandler func(ctx context.Context, req *ValidatedRequest, accessToken string) (*domain.ResponseEnvelope, error)

type Service struct {
	client   metaclient.Client
	enricher insighting.CampaignEnricher
	handlers map[Action]actionHandler
}

func NewService(client metaclient.Client, enricher insighting.CampaignEnricher) *Service {
	s := &Service{
		client:   client,
		enricher: enricher,
	}

	s.handlers = map[Action]actionHandler{
		ActionAdAccounts:           s.adAccounts,
		ActionBusinesses:           s.businesses,
		ActionBusinessAdAccounts:   s.businessAdAccounts,
		ActionCampaigns:            s.campaigns,
		ActionCampaignsWithInsight: s.campaignsWithInsights,
		ActionAdSets:               s.adSets,
		ActionAds:                  s.ads,
		ActionInsights:             s.insights,
		ActionInsightsTimeseries:   s.insightsTimeseries,
		ActionCreateCampaign:       s.createCampaign,
		ActionUpdateCampaign:       s.updateCampaign,
		ActionDuplicateCampaign:    s.duplicateCampaign,
	}

	return s
}

func (s *Service) Dispatch(ctx context.Context, req *ValidatedRequest, accessToken string) (*domain.ResponseEnvelope, error) {
	handler, ok := s.handlers[req.Action]
	if !ok {
		return nil, &DomainError{Action: req.Action, Message: fmt.Sprintf("ação sem handler: %s", req.Action)}
	}

	logger := log.ForContext(ctx).WithField("action", string(req.Action))
	if req.Action.IsMutation() {
		logger.Info("proxy: despachando alteração para o Meta")
	} else {
		logger.Debug("proxy: despachando ação")
	}

	return handler(ctx, req, accessToken)
}

func (s *Service) adAccounts(ctx context.Context, req *ValidatedRequest, accessToken string) (*domain.ResponseEnvelope, error) {
	return s.list(ctx, accessToken, "me/adaccounts", req.Params.UpstreamValues(metadomain.AdAccountFields))
}

func (s *Service) businesses(ctx context.Context, req *ValidatedRequest, accessToken string) (*domain.ResponseEnvelope, error) {
	return s.list(ctx, accessToken, "me/businesses", req.Params.UpstreamValues(metadomain.BusinessFields))
}

func (s *Service) businessAdAccounts(ctx context.Context, req *ValidatedRequest, accessToken string) (*domain.ResponseEnvelope, error) {
	if req.Params.BusinessID == "" {
		return nil, missingParam(req.Action, "business_id")
	}

	endpoint := fmt.Sprintf("%s/owned_ad_accounts", req.Params.BusinessID)
	return s.list(ctx, accessToken, endpoint, req.Params.UpstreamValues(metadomain.AdAccountFields))
}

func (s *Service) campaigns(ctx context.Context, req *ValidatedRequest, accessToken string) (*domain.ResponseEnvelope, error) {
	if req.Params.AdAccountID == "" {
		return nil, missingParam(req.Action, "ad_account_id")
	}

	endpoint := fmt.Sprintf("%s/campaigns", metaclient.AdAccountPath(req.Params.AdAccountID))
	return s.list(ctx, accessToken, endpoint, req.Params.UpstreamValues(metadomain.CampaignFields))
}

func (s *Service) campaignsWithInsights(ctx context.Context, req *ValidatedRequest, accessToken string) (*domain.ResponseEnvelope, error) {
	if req.Params.AdAccountID == "" {
		return nil, missingParam(req.Action, "ad_account_id")
	}

	// fields é controlado pelo pipeline para garantir os campos do contrato
	params := req.Params
	params.Fields = ""

	result, err := s.enricher.EnrichCampaigns(ctx, accessToken, req.Params.AdAccountID, params.UpstreamValues(""), req.Params.Insights)
	if err != nil {
		return nil, err
	}

	envelope := &domain.ResponseEnvelope{Data: result.Campaigns}
	if result.Paging != nil {
		paging, err := json.Marshal(result.Paging)
		if err != nil {
			return nil, errors.Wrap(err, "proxy: erro ao serializar paginação")
		}
		envelope.Paging = paging
	}

	return envelope, nil
}

func (s *Service) adSets(ctx context.Context, req *ValidatedRequest, accessToken string) (*domain.ResponseEnvelope, error) {
	var endpoint string

	switch {
	case req.Params.CampaignID != "":
		endpoint = fmt.Sprintf("%s/adsets", req.Params.CampaignID)
	case req.Params.AdAccountID != "":
		endpoint = fmt.Sprintf("%s/adsets", metaclient.AdAccountPath(req.Params.AdAccountID))
	default:
		return nil, missingParam(req.Action, "campaign_id", "ad_account_id")
	}

	return s.list(ctx, accessToken, endpoint, req.Params.UpstreamValues(metadomain.AdSetFields))
}

func (s *Service) ads(ctx context.Context, req *ValidatedRequest, accessToken string) (*domain.ResponseEnvelope, error) {
	var endpoint string

	switch {
	case req.Params.AdSetID != "":
		endpoint = fmt.Sprintf("%s/ads", req.Params.AdSetID)
	case req.Params.CampaignID != "":
		endpoint = fmt.Sprintf("%s/ads", req.Params.CampaignID)
	case req.Params.AdAccountID != "":
		endpoint = fmt.Sprintf("%s/ads", metaclient.AdAccountPath(req.Params.AdAccountID))
	default:
		return nil, missingParam(req.Action, "adset_id", "campaign_id", "ad_account_id")
	}

	return s.list(ctx, accessToken, endpoint, req.Params.UpstreamValues(metadomain.AdFields))
}

func (s *Service) insights(ctx context.Context, req *ValidatedRequest, accessToken string) (*domain.ResponseEnvelope, error) {
	if req.Params.ObjectID == "" {
		return nil, missingParam(req.Action, "object_id")
	}

	params := insighting.InsightsValues(insighting.Translate(req.Params.Insights), req.Params.UpstreamValues(metadomain.InsightFields))
	return s.list(ctx, accessToken, fmt.Sprintf("%s/insights", req.Params.ObjectID), params)
}

func (s *Service) insightsTimeseries(ctx context.Context, req *ValidatedRequest, accessToken string) (*domain.ResponseEnvelope, error) {
	if req.Params.ObjectID == "" {
		return nil, missingParam(req.Action, "object_id")
	}

	params := insighting.InsightsValues(insighting.TranslateTimeseries(req.Params.Insights), req.Params.UpstreamValues(metadomain.InsightFields))
	return s.list(ctx, accessToken, fmt.Sprintf("%s/insights", req.Params.ObjectID), params)
}

func (s *Service) createCampaign(ctx context.Context, req *ValidatedRequest, accessToken string) (*domain.ResponseEnvelope, error) {
	if req.Params.AdAccountID == "" {
		return nil, missingParam(req.Action, "ad_account_id")
	}

	body := cloneBody(req.Body)
	if _, ok := body["status"]; !ok {
		body["status"] = domain.CampaignStatusPaused
	}
	if _, ok := body["special_ad_categories"]; !ok {
		body["special_ad_categories"] = []string{}
	}

	endpoint := fmt.Sprintf("%s/campaigns", metaclient.AdAccountPath(req.Params.AdAccountID))
	return s.mutate(ctx, req.Action, accessToken, endpoint, body)
}

func (s *Service) updateCampaign(ctx context.Context, req *ValidatedRequest, accessToken string) (*domain.ResponseEnvelope, error) {
	if req.Params.CampaignID == "" {
		return nil, missingParam(req.Action, "campaign_id")
	}

	return s.mutate(ctx, req.Action, accessToken, req.Params.CampaignID, cloneBody(req.Body))
}

func (s *Service) duplicateCampaign(ctx context.Context, req *ValidatedRequest, accessToken string) (*domain.ResponseEnvelope, error) {
	if req.Params.CampaignID == "" {
		return nil, missingParam(req.Action, "campaign_id")
	}

	body := cloneBody(req.Body)
	if _, ok := body["rename_options"]; !ok {
		suffix, err := utils.CopySuffix()
		if err != nil {
			return nil, errors.Wrap(err, "proxy: erro ao gerar sufixo da cópia")
		}
		body["rename_options"] = map[string]string{"rename_suffix": suffix}
	}
	if _, ok := body["status_option"]; !ok {
		body["status_option"] = domain.CampaignStatusPaused
	}
	if _, ok := body["deep_copy"]; !ok {
		body["deep_copy"] = false
	}

	return s.mutate(ctx, req.Action, accessToken, fmt.Sprintf("%s/copies", req.Params.CampaignID), body)
}

// list faz um GET e devolve data e paging exatamente como vieram do Meta
func (s *Service) list(ctx context.Context, accessToken, endpoint string, params url.Values) (*domain.ResponseEnvelope, error) {
	payload, err := s.client.Request(ctx, accessToken, endpoint, params, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}

	var response metadomain.ListResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return nil, &metadomain.UpstreamError{Message: "resposta inesperada da Graph API", StatusCode: http.StatusBadGateway}
	}

	data := response.Data
	if len(data) == 0 || string(data) == "null" {
		data = []byte("[]")
	}

	return &domain.ResponseEnvelope{Data: data, Paging: response.Paging}, nil
}

func (s *Service) mutate(ctx context.Context, action Action, accessToken, endpoint string, body map[string]any) (*domain.ResponseEnvelope, error) {
	payload, err := s.client.Request(ctx, accessToken, endpoint, nil, http.MethodPost, body)
	if err != nil {
		return nil, err
	}

	log.ForContext(ctx).WithFields(log.Fields{
		"action":   string(action),
		"endpoint": endpoint,
	}).Info("proxy: alteração enviada ao Meta")

	return &domain.ResponseEnvelope{Data: rawJSON(payload)}, nil
}

func cloneBody(body map[string]any) map[string]any {
	clone := make(map[string]any, len(body))
	for key, value := range body {
		clone[key] = value
	}
	return clone
}

type rawJSON []byte

func (r rawJSON) MarshalJSON() ([]byte, error) {
	return r, nil
}

var _ Dispatcher = (*Service)(nil)
