package metaclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	metadomain "github.com/vfg2006/meta-insights-proxy/infrastructure/integrator/meta/domain"
)

// GetMe verifica um token consultando o endpoint /me
func (c *MetaClient) GetMe(ctx context.Context, accessToken string) (*metadomain.User, error) {
	params := url.Values{}
	params.Set("fields", "id,name")

	body, err := c.Request(ctx, accessToken, "me", params, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}

	var user metadomain.User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, errors.Wrap(err, "meta: erro ao decodificar /me")
	}

	if user.ID == "" {
		return nil, &metadomain.UpstreamError{Message: "token não identificou um usuário do Meta"}
	}

	return &user, nil
}

// ExchangeToken troca um token (curto ou longo) por um token de longa duração
func (c *MetaClient) ExchangeToken(ctx context.Context, accessToken string) (*metadomain.TokenResponse, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("token de acesso não pode ser vazio")
	}

	params := url.Values{}
	params.Add("grant_type", "fb_exchange_token")
	params.Add("client_id", c.cfg.AppID)
	params.Add("client_secret", c.cfg.AppSecret)
	params.Add("fb_exchange_token", accessToken)

	body, err := c.do(ctx, "oauth/access_token", params, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}

	var tokenResp metadomain.TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, errors.Wrap(err, "meta: erro ao decodificar resposta do token")
	}

	if tokenResp.AccessToken == "" {
		return nil, &metadomain.UpstreamError{Message: "token retornado pela API é vazio"}
	}

	logrus.Infof("Token de longa duração obtido com sucesso. Expira em %s.", FormatDuration(tokenResp.ExpiresIn))

	return &tokenResp, nil
}

// FormatDuration formata a duração em segundos para um formato legível
func FormatDuration(seconds int64) string {
	duration := time.Duration(seconds) * time.Second
	days := duration / (24 * time.Hour)
	hours := (duration % (24 * time.Hour)) / time.Hour
	minutes := (duration % time.Hour) / time.Minute

	return fmt.Sprintf("%d dias, %d horas e %d minutos", days, hours, minutes)
}

// TokenExpiration calcula quando o token expira; tokens sem expires_in são tratados como 60 dias
func TokenExpiration(now time.Time, expiresIn int64) time.Time {
	if expiresIn <= 0 {
		return now.Add(60 * 24 * time.Hour)
	}
	return now.Add(time.Duration(expiresIn) * time.Second)
}
