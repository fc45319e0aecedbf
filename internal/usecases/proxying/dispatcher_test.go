package proxying

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metadomain "github.com/vfg2006/meta-insights-proxy/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/meta-insights-proxy/infrastructure/integrator/meta/metaclient/mocks"
	"github.com/vfg2006/meta-insights-proxy/internal/config"
	"github.com/vfg2006/meta-insights-proxy/internal/usecases/insighting"
	"go.uber.org/mock/gomock"
)

func newDispatcher(t *testing.T) (*Service, *mocks.MockClient) {
	t.Helper()

	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	enricher := insighting.NewEnricher(client, config.Enrichment{
		DatePreset:     "last_7d",
		MaxConcurrency: 2,
		ItemTimeout:    time.Second,
		Deadline:       2 * time.Second,
	})

	return NewService(client, enricher), client
}

func mustValidate(t *testing.T, raw map[string]any) *ValidatedRequest {
	t.Helper()
	req, err := Validate(raw)
	require.NoError(t, err)
	return req
}

func encode(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestDispatch_MissingRequiredParam(t *testing.T) {
	tests := []struct {
		action  string
		missing string
	}{
		{action: "campaigns", missing: "ad_account_id"},
		{action: "campaigns_with_insights", missing: "ad_account_id"},
		{action: "business_ad_accounts", missing: "business_id"},
		{action: "adsets", missing: "campaign_id ou ad_account_id"},
		{action: "ads", missing: "adset_id ou campaign_id ou ad_account_id"},
		{action: "insights", missing: "object_id"},
		{action: "insights_timeseries", missing: "object_id"},
		{action: "update_campaign", missing: "campaign_id"},
		{action: "duplicate_campaign", missing: "campaign_id"},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			service, _ := newDispatcher(t)

			body := map[string]any{}
			if tt.action == "update_campaign" {
				body["status"] = "PAUSED"
			}

			_, err := service.Dispatch(context.Background(), mustValidate(t, map[string]any{"action": tt.action, "body": body}), "tok")

			var domainErr *DomainError
			require.True(t, errors.As(err, &domainErr))
			assert.Contains(t, domainErr.Error(), tt.missing)
			assert.Equal(t, Action(tt.action), domainErr.Action)
		})
	}
}

func TestDispatch_CampaignsPassesPagingThrough(t *testing.T) {
	service, client := newDispatcher(t)

	client.EXPECT().
		Request(gomock.Any(), "tok", "act_123/campaigns", gomock.Any(), http.MethodGet, nil).
		DoAndReturn(func(ctx context.Context, token, endpoint string, params url.Values, method string, body map[string]any) ([]byte, error) {
			assert.Equal(t, metadomain.CampaignFields, params.Get("fields"))
			assert.Equal(t, "25", params.Get("limit"))
			assert.Equal(t, "cursor", params.Get("after"))
			return []byte(`{"data":[{"id":"1"}],"paging":{"cursors":{"after":"n"},"next":"https://graph"}}`), nil
		})

	envelope, err := service.Dispatch(context.Background(), mustValidate(t, map[string]any{
		"action": "campaigns",
		"params": map[string]any{"ad_account_id": "123", "limit": 25.0, "after": "cursor"},
	}), "tok")
	require.NoError(t, err)

	assert.JSONEq(t, `{"data":[{"id":"1"}],"paging":{"cursors":{"after":"n"},"next":"https://graph"}}`, encode(t, envelope))
}

func TestDispatch_EmptyListBecomesArray(t *testing.T) {
	service, client := newDispatcher(t)

	client.EXPECT().Request(gomock.Any(), gomock.Any(), "me/businesses", gomock.Any(), http.MethodGet, nil).Return([]byte(`{}`), nil)

	envelope, err := service.Dispatch(context.Background(), mustValidate(t, map[string]any{"action": "businesses"}), "tok")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[]}`, encode(t, envelope))
}

func TestDispatch_AdsPrefersMostSpecificParent(t *testing.T) {
	service, client := newDispatcher(t)

	client.EXPECT().Request(gomock.Any(), gomock.Any(), "555/ads", gomock.Any(), http.MethodGet, nil).Return([]byte(`{"data":[]}`), nil)

	_, err := service.Dispatch(context.Background(), mustValidate(t, map[string]any{
		"action": "ads",
		"params": map[string]any{"adset_id": "555", "campaign_id": "444", "ad_account_id": "333"},
	}), "tok")
	require.NoError(t, err)
}

func TestDispatch_InsightsTranslatesParams(t *testing.T) {
	service, client := newDispatcher(t)

	client.EXPECT().
		Request(gomock.Any(), gomock.Any(), "999/insights", gomock.Any(), http.MethodGet, nil).
		DoAndReturn(func(ctx context.Context, token, endpoint string, params url.Values, method string, body map[string]any) ([]byte, error) {
			assert.Equal(t, `{"since":"2025-01-01","until":"2025-01-31"}`, params.Get("time_range"))
			assert.Empty(t, params.Get("date_preset"))
			assert.Equal(t, "campaign", params.Get("level"))
			assert.Empty(t, params.Get("breakdown"))
			assert.Empty(t, params.Get("time_increment"))
			assert.Equal(t, metadomain.InsightFields, params.Get("fields"))
			return []byte(`{"data":[{"spend":"1.00"}]}`), nil
		})

	_, err := service.Dispatch(context.Background(), mustValidate(t, map[string]any{
		"action": "insights",
		"params": map[string]any{
			"object_id":   "999",
			"date_start":  "2025-01-01",
			"date_end":    "2025-01-31",
			"date_preset": "last_7d",
			"level":       "campaign",
			"breakdown":   "month",
		},
	}), "tok")
	require.NoError(t, err)
}

func TestDispatch_InsightsTimeseriesForcesDaily(t *testing.T) {
	service, client := newDispatcher(t)

	client.EXPECT().
		Request(gomock.Any(), gomock.Any(), "act_1/insights", gomock.Any(), http.MethodGet, nil).
		DoAndReturn(func(ctx context.Context, token, endpoint string, params url.Values, method string, body map[string]any) ([]byte, error) {
			assert.Equal(t, "1", params.Get("time_increment"))
			assert.Equal(t, "last_30d", params.Get("date_preset"))
			return []byte(`{"data":[]}`), nil
		})

	_, err := service.Dispatch(context.Background(), mustValidate(t, map[string]any{
		"action": "insights_timeseries",
		"params": map[string]any{"object_id": "act_1", "date_preset": "last_30d", "breakdown": "week"},
	}), "tok")
	require.NoError(t, err)
}

func TestDispatch_CampaignsWithInsights(t *testing.T) {
	service, client := newDispatcher(t)

	client.EXPECT().
		GetCampaignsByAccountID(gomock.Any(), "tok", "act_123", gomock.Any()).
		Return(&metadomain.CampaignList{Data: []metadomain.Campaign{
			{ID: "1", Name: "A", Status: "ACTIVE"},
			{ID: "2", Name: "B", Status: "PAUSED"},
		}}, nil)

	client.EXPECT().GetCampaignInsights(gomock.Any(), "tok", "1", gomock.Any()).
		Return(&metadomain.CampaignInsightList{Data: []metadomain.CampaignInsight{{Spend: "12.5", Impressions: "100", Clicks: "7"}}}, nil)
	client.EXPECT().GetCampaignInsights(gomock.Any(), "tok", "2", gomock.Any()).
		Return(nil, &metadomain.UpstreamError{Message: "boom"})

	envelope, err := service.Dispatch(context.Background(), mustValidate(t, map[string]any{
		"action": "campaigns_with_insights",
		"params": map[string]any{"ad_account_id": "act_123"},
	}), "tok")
	require.NoError(t, err)

	body := encode(t, envelope)
	assert.Contains(t, body, `"enrichmentFailed":true`)
	assert.Contains(t, body, `"spend":12.5`)
	assert.NotContains(t, body, `"paging"`)
}

func TestDispatch_CreateCampaignDefaults(t *testing.T) {
	service, client := newDispatcher(t)

	client.EXPECT().
		Request(gomock.Any(), "tok", "act_42/campaigns", nil, http.MethodPost, gomock.Any()).
		DoAndReturn(func(ctx context.Context, token, endpoint string, params url.Values, method string, body map[string]any) ([]byte, error) {
			assert.Equal(t, "PAUSED", body["status"])
			assert.Equal(t, []string{}, body["special_ad_categories"])
			assert.Equal(t, "Lançamento", body["name"])
			return []byte(`{"id":"777"}`), nil
		})

	req := mustValidate(t, map[string]any{
		"action": "create_campaign",
		"params": map[string]any{"ad_account_id": "42"},
		"body":   map[string]any{"name": "Lançamento", "objective": "OUTCOME_LEADS"},
	})

	envelope, err := service.Dispatch(context.Background(), req, "tok")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"id":"777"}}`, encode(t, envelope))

	// O corpo validado não é alterado
	_, mutated := req.Body["status"]
	assert.False(t, mutated)
}

func TestDispatch_DuplicateCampaignRenames(t *testing.T) {
	service, client := newDispatcher(t)

	client.EXPECT().
		Request(gomock.Any(), "tok", "321/copies", nil, http.MethodPost, gomock.Any()).
		DoAndReturn(func(ctx context.Context, token, endpoint string, params url.Values, method string, body map[string]any) ([]byte, error) {
			rename, ok := body["rename_options"].(map[string]string)
			require.True(t, ok)
			assert.True(t, strings.HasPrefix(rename["rename_suffix"], " - Cópia "))
			assert.Equal(t, "PAUSED", body["status_option"])
			return []byte(`{"copied_campaign_id":"654"}`), nil
		})

	envelope, err := service.Dispatch(context.Background(), mustValidate(t, map[string]any{
		"action": "duplicate_campaign",
		"params": map[string]any{"campaign_id": "321"},
	}), "tok")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"copied_campaign_id":"654"}}`, encode(t, envelope))
}

func TestDispatch_UpstreamErrorPropagates(t *testing.T) {
	service, client := newDispatcher(t)

	upstreamErr := &metadomain.UpstreamError{Message: "(#100) Invalid parameter", Code: 100}
	client.EXPECT().Request(gomock.Any(), gomock.Any(), "555", nil, http.MethodPost, gomock.Any()).Return(nil, upstreamErr)

	_, err := service.Dispatch(context.Background(), mustValidate(t, map[string]any{
		"action": "update_campaign",
		"params": map[string]any{"campaign_id": "555"},
		"body":   map[string]any{"daily_budget": 2000.0},
	}), "tok")

	assert.ErrorIs(t, err, upstreamErr)
}
