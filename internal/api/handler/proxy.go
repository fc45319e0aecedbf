package handler

import (
	"errors"
	"io"
	"net/http"

	metadomain "github.com/vfg2006/meta-insights-proxy/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/meta-insights-proxy/internal/usecases/proxying"
	"github.com/vfg2006/meta-insights-proxy/pkg/apiErrors"
	"github.com/vfg2006/meta-insights-proxy/pkg/log"
	"github.com/vfg2006/meta-insights-proxy/pkg/middleware"
)

const (
	outcomeOK            = "ok"
	outcomeInvalid       = "invalid"
	outcomeUpstreamError = "upstream_error"
	outcomeThrottled     = "upstream_throttled"
	outcomeError         = "error"
	unknownAction        = "unknown"
)

type ProxyObserver interface {
	ObserveProxyRequest(action, outcome string)
}

// Proxy valida {action, params, body}, despacha para o Meta e devolve {data, paging}
func Proxy(dispatcher proxying.Dispatcher, observer ProxyObserver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := log.ForContext(ctx)

		user, ok := middleware.MetaUserFromContext(ctx)
		if !ok {
			apiErrors.WriteError(w, apiErrors.ErrMetaNotConnected, "conta do Meta não conectada")
			return
		}

		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			observer.ObserveProxyRequest(unknownAction, outcomeInvalid)
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "corpo da requisição muito grande ou ilegível")
			return
		}

		req, err := proxying.ValidateJSON(data)
		if err != nil {
			logger.WithError(err).Warn("proxy: requisição rejeitada na validação")
			observer.ObserveProxyRequest(unknownAction, outcomeInvalid)
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, err.Error())
			return
		}

		action := string(req.Action)
		logger = logger.WithField("action", action)

		envelope, err := dispatcher.Dispatch(ctx, req, user.Metadata.MetaAccessToken)
		if err != nil {
			code, message, outcome := proxyErrorResponse(err)
			logger.WithError(err).Warn("proxy: ação falhou")
			observer.ObserveProxyRequest(action, outcome)
			apiErrors.WriteError(w, code, message)
			return
		}

		observer.ObserveProxyRequest(action, outcomeOK)
		writeJSON(w, r, http.StatusOK, envelope)
	}
}

// proxyErrorResponse traduz o erro do dispatcher em código, mensagem e outcome das métricas
func proxyErrorResponse(err error) (code, message, outcome string) {
	var domainErr *proxying.DomainError
	if errors.As(err, &domainErr) {
		return apiErrors.ErrMissingRequiredData, domainErr.Message, outcomeInvalid
	}

	var validationErr *proxying.ValidationError
	if errors.As(err, &validationErr) {
		return apiErrors.ErrInvalidRequest, err.Error(), outcomeInvalid
	}

	var upstreamErr *metadomain.UpstreamError
	if errors.As(err, &upstreamErr) {
		// Token revogado no Meta exige reconexão, não correção da requisição
		if upstreamErr.IsTokenExpired() {
			return apiErrors.ErrMetaTokenExpired, upstreamErr.Message, outcomeUpstreamError
		}
		// Throttling do Meta segue como 400 com a mensagem original; só a métrica separa
		if upstreamErr.IsRateLimited() {
			return apiErrors.ErrUpstream, upstreamErr.Message, outcomeThrottled
		}
		return apiErrors.ErrUpstream, upstreamErr.Message, outcomeUpstreamError
	}

	return apiErrors.ErrInternalServer, "Erro interno no servidor", outcomeError
}
