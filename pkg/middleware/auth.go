package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/vfg2006/meta-insights-proxy/internal/domain"
	"github.com/vfg2006/meta-insights-proxy/internal/usecases/authenticating"
	"github.com/vfg2006/meta-insights-proxy/pkg/apiErrors"
	"github.com/vfg2006/meta-insights-proxy/pkg/log"
)

type contextKey string

const (
	ContextKeyUser     contextKey = "user"
	ContextKeyMetaUser contextKey = "meta_user"
)

// RequireUser exige um bearer token válido e guarda as claims no contexto
func RequireUser(authService authenticating.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				apiErrors.WriteError(w, apiErrors.ErrMissingCredential, "Authorization header is required")
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader || strings.TrimSpace(tokenString) == "" {
				apiErrors.WriteError(w, apiErrors.ErrMissingCredential, "Bearer token is required")
				return
			}

			claims, err := authService.ValidateToken(strings.TrimSpace(tokenString))
			if err != nil {
				log.ForContext(r.Context()).WithError(err).Warn("Bearer token rejeitado")
				writeAuthError(w, err, apiErrors.ErrInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, claims)
			ctx = log.WithCaller(ctx, claims.UserID())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext devolve as claims guardadas por RequireUser
func ClaimsFromContext(ctx context.Context) (*domain.Claims, bool) {
	claims, ok := ctx.Value(ContextKeyUser).(*domain.Claims)
	return claims, ok && claims != nil
}

func writeAuthError(w http.ResponseWriter, err error, fallbackCode string) {
	var authErr *authenticating.AuthError
	if errors.As(err, &authErr) {
		apiErrors.WriteError(w, authErr.Code, authErr.Message())
		return
	}

	apiErrors.WriteError(w, fallbackCode, "")
}
