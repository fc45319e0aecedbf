package metaclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	metadomain "github.com/vfg2006/meta-insights-proxy/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/meta-insights-proxy/pkg/log"
)

// GetCampaignsByAccountID lista as campanhas de uma conta de anúncios (uma única página; paging é repassado)
func (c *MetaClient) GetCampaignsByAccountID(ctx context.Context, accessToken, accountID string, params url.Values) (*metadomain.CampaignList, error) {
	values := cloneValues(params)
	if values.Get("fields") == "" {
		values.Set("fields", metadomain.CampaignFields)
	}

	body, err := c.Request(ctx, accessToken, fmt.Sprintf("%s/campaigns", AdAccountPath(accountID)), values, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}

	var response metadomain.CampaignList
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, unexpectedBody(ctx, "campanhas", err)
	}

	if response.Data == nil {
		response.Data = []metadomain.Campaign{}
	}

	return &response, nil
}

// GetCampaignInsights busca as linhas de insights de uma campanha
func (c *MetaClient) GetCampaignInsights(ctx context.Context, accessToken, campaignID string, params url.Values) (*metadomain.CampaignInsightList, error) {
	values := cloneValues(params)
	if values.Get("fields") == "" {
		values.Set("fields", metadomain.SnapshotFields)
	}

	body, err := c.Request(ctx, accessToken, fmt.Sprintf("%s/insights", campaignID), values, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}

	var response metadomain.CampaignInsightList
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, unexpectedBody(ctx, "insights da campanha", err)
	}

	return &response, nil
}

// unexpectedBody trata um corpo fora do formato esperado como falha do Meta, como no repasse genérico
func unexpectedBody(ctx context.Context, resource string, err error) *metadomain.UpstreamError {
	log.ForContext(ctx).WithError(err).Warnf("meta: erro ao decodificar %s", resource)

	return &metadomain.UpstreamError{
		Message:    "resposta inesperada da Graph API",
		StatusCode: http.StatusBadGateway,
	}
}

// AdAccountPath garante o prefixo act_ exigido pela Graph API
func AdAccountPath(accountID string) string {
	if len(accountID) > 4 && accountID[:4] == "act_" {
		return accountID
	}
	return "act_" + accountID
}
