package metaclient

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	metadomain "github.com/vfg2006/meta-insights-proxy/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/meta-insights-proxy/internal/config"
	"github.com/vfg2006/meta-insights-proxy/pkg/log"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

//go:generate mockgen -source=client.go -destination=mocks/client_mock.go -package=mocks
type Client interface {
	// Request executa uma chamada autenticada à Graph API e devolve o corpo JSON já validado
	Request(ctx context.Context, accessToken, endpoint string, params url.Values, method string, body map[string]any) ([]byte, error)
	GetCampaignsByAccountID(ctx context.Context, accessToken, accountID string, params url.Values) (*metadomain.CampaignList, error)
	GetCampaignInsights(ctx context.Context, accessToken, campaignID string, params url.Values) (*metadomain.CampaignInsightList, error)
	GetMe(ctx context.Context, accessToken string) (*metadomain.User, error)
	ExchangeToken(ctx context.Context, accessToken string) (*metadomain.TokenResponse, error)
}

// Observer recebe a duração e o resultado de cada chamada ao Meta
type Observer interface {
	ObserveUpstream(method, outcome string, duration time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveUpstream(string, string, time.Duration) {}

type MetaClient struct {
	cfg        config.Meta
	httpClient *http.Client
	limiter    *rate.Limiter
	observer   Observer
}

type Option func(*MetaClient)

// WithHTTPClient troca o http.Client usado (útil para testes com httptest)
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *MetaClient) {
		c.httpClient = httpClient
	}
}

func WithObserver(observer Observer) Option {
	return func(c *MetaClient) {
		if observer != nil {
			c.observer = observer
		}
	}
}

func NewClient(cfg config.Meta, opts ...Option) *MetaClient {
	burst := cfg.RequestBurst
	if burst < 1 {
		burst = 1
	}

	client := &MetaClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		observer:   noopObserver{},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

func (c *MetaClient) Request(ctx context.Context, accessToken, endpoint string, params url.Values, method string, body map[string]any) ([]byte, error) {
	if accessToken == "" {
		return nil, &metadomain.UpstreamError{Message: "token de acesso do Meta ausente", StatusCode: http.StatusUnauthorized}
	}

	values := cloneValues(params)
	values.Set("access_token", accessToken)
	if c.cfg.AppSecret != "" {
		values.Set("appsecret_proof", appSecretProof(accessToken, c.cfg.AppSecret))
	}

	return c.do(ctx, endpoint, values, method, body)
}

func (c *MetaClient) do(ctx context.Context, endpoint string, values url.Values, method string, body map[string]any) ([]byte, error) {
	if method == "" {
		method = http.MethodGet
	}
	endpoint = strings.TrimPrefix(endpoint, "/")

	logger := log.ForContext(ctx).WithFields(log.Fields{
		"endpoint": endpoint,
		"method":   method,
	})
	logger.Debug("meta: enviando requisição para a Graph API")

	if c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &metadomain.UpstreamError{Message: fmt.Sprintf("requisição não enviada: %s", err.Error())}
	}

	req, err := c.newRequest(ctx, endpoint, values, method, body)
	if err != nil {
		logger.WithError(err).Error("meta: erro ao criar a requisição")
		return nil, errors.Wrap(err, "meta: erro ao criar a requisição")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observer.ObserveUpstream(method, "transport_error", time.Since(start))
		upstreamErr := transportError(err)
		logger.WithField("error", upstreamErr.Message).Error("meta: erro ao fazer a requisição")
		return nil, upstreamErr
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observer.ObserveUpstream(method, "transport_error", time.Since(start))
		return nil, &metadomain.UpstreamError{Message: "erro ao ler resposta: " + err.Error(), StatusCode: resp.StatusCode}
	}

	payload, err := parseResponse(resp.StatusCode, data)
	if err != nil {
		c.observer.ObserveUpstream(method, "upstream_error", time.Since(start))
		logger.WithField("error", err.Error()).Warn("meta: Graph API retornou erro")
		return nil, err
	}

	c.observer.ObserveUpstream(method, "ok", time.Since(start))
	return payload, nil
}

func (c *MetaClient) newRequest(ctx context.Context, endpoint string, values url.Values, method string, body map[string]any) (*http.Request, error) {
	target := fmt.Sprintf("%s/%s", c.cfg.URL, endpoint)

	if method == http.MethodGet || method == http.MethodDelete {
		return http.NewRequestWithContext(ctx, method, target+"?"+values.Encode(), nil)
	}

	// POST: parâmetros e corpo vão como formulário, mantendo o token fora da URL
	for key, value := range body {
		encoded, err := formValue(value)
		if err != nil {
			return nil, fmt.Errorf("campo %s: %w", key, err)
		}
		values.Set(key, encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewBufferString(values.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return req, nil
}

// parseResponse trata o objeto "error" como falha mesmo quando o status HTTP é 200
func parseResponse(statusCode int, data []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(data)

	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope metadomain.ErrorResponse
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, &metadomain.UpstreamError{Message: "resposta inválida da Graph API", StatusCode: statusCode}
		}

		if envelope.Error != nil {
			return nil, metadomain.NewUpstreamError(envelope.Error, statusCode)
		}
	}

	if statusCode < 200 || statusCode > 299 {
		return nil, &metadomain.UpstreamError{
			Message:    fmt.Sprintf("Graph API respondeu com status %d", statusCode),
			StatusCode: statusCode,
		}
	}

	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return nil, &metadomain.UpstreamError{Message: "resposta inválida da Graph API", StatusCode: statusCode}
	}

	return trimmed, nil
}

// transportError remove a URL (que carrega o access_token) da mensagem de erro
func transportError(err error) *metadomain.UpstreamError {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &metadomain.UpstreamError{Message: "tempo limite excedido ao chamar a Graph API", StatusCode: http.StatusGatewayTimeout}
	}

	if errors.Is(err, context.Canceled) {
		return &metadomain.UpstreamError{Message: "requisição à Graph API cancelada"}
	}

	return &metadomain.UpstreamError{Message: "falha de comunicação com a Graph API: " + err.Error()}
}

func formValue(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	}
}

func appSecretProof(accessToken, appSecret string) string {
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write([]byte(accessToken))
	return hex.EncodeToString(mac.Sum(nil))
}

func cloneValues(params url.Values) url.Values {
	values := url.Values{}
	for key, items := range params {
		values[key] = append([]string(nil), items...)
	}
	return values
}
