package handler

import (
	"errors"
	"net/http"

	"github.com/vfg2006/meta-insights-proxy/internal/domain"
	"github.com/vfg2006/meta-insights-proxy/internal/usecases/authenticating"
	"github.com/vfg2006/meta-insights-proxy/pkg/apiErrors"
	"github.com/vfg2006/meta-insights-proxy/pkg/log"
	"github.com/vfg2006/meta-insights-proxy/pkg/middleware"
)

// MetaAuth conecta (authenticate) ou renova (refresh_token) o token do Meta do usuário autenticado
func MetaAuth(authenticator authenticating.Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		claims, ok := middleware.ClaimsFromContext(ctx)
		if !ok {
			apiErrors.WriteError(w, apiErrors.ErrMissingCredential, "Usuário não autenticado")
			return
		}

		var req domain.MetaAuthRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "corpo deve ser um objeto JSON válido")
			return
		}

		logger := log.ForContext(ctx).WithField("action", req.Action)

		var (
			resp *domain.MetaAuthResponse
			err  error
		)

		switch req.Action {
		case domain.MetaAuthActionAuthenticate:
			if req.AccessToken == "" {
				apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "access_token é obrigatório para a ação authenticate")
				return
			}
			resp, err = authenticator.Authenticate(ctx, claims.UserID(), req)
		case domain.MetaAuthActionRefreshToken:
			resp, err = authenticator.RefreshToken(ctx, claims.UserID(), req.AccessToken)
		case "":
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "action: campo obrigatório")
			return
		default:
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "action: deve ser authenticate ou refresh_token")
			return
		}

		if err != nil {
			logger.WithError(err).Warn("auth: operação com o Meta falhou")

			var authErr *authenticating.AuthError
			if errors.As(err, &authErr) {
				apiErrors.WriteError(w, authErr.Code, authErr.Message())
				return
			}

			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro interno no servidor")
			return
		}

		writeJSON(w, r, http.StatusOK, resp)
	}
}
