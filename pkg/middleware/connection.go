package middleware

import (
	"context"
	"net/http"

	"github.com/vfg2006/meta-insights-proxy/internal/domain"
	"github.com/vfg2006/meta-insights-proxy/internal/usecases/authenticating"
	"github.com/vfg2006/meta-insights-proxy/pkg/apiErrors"
	"github.com/vfg2006/meta-insights-proxy/pkg/log"
)

// RequireMetaConnection carrega o usuário autenticado e exige um token do Meta utilizável.
// Deve vir depois de RequireUser na cadeia.
func RequireMetaConnection(authService authenticating.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				log.L.Warn("Tentativa de acesso sem autenticação")
				apiErrors.WriteError(w, apiErrors.ErrMissingCredential, "Usuário não autenticado")
				return
			}

			user, err := authService.GetConnectedUser(r.Context(), claims.UserID())
			if err != nil {
				log.ForContext(r.Context()).WithError(err).Warn("Usuário sem conexão utilizável com o Meta")
				writeAuthError(w, err, apiErrors.ErrMetaNotConnected)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyMetaUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// MetaUserFromContext devolve o usuário carregado por RequireMetaConnection
func MetaUserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(ContextKeyMetaUser).(*domain.User)
	return user, ok && user != nil
}
