package handler

import (
	"net/http"

	"github.com/justinas/alice"
	"github.com/vfg2006/meta-insights-proxy/internal/api/handler/router"
	"github.com/vfg2006/meta-insights-proxy/internal/usecases/authenticating"
	"github.com/vfg2006/meta-insights-proxy/internal/usecases/proxying"
	"github.com/vfg2006/meta-insights-proxy/pkg/middleware"
	"github.com/vfg2006/meta-insights-proxy/pkg/ratelimit"
)

const (
	ProxyLimiterName = "proxy"
	AuthLimiterName  = "auth"
)

type Observer interface {
	ProxyObserver
	middleware.RateLimitObserver
}

func Healthcheck(checks map[string]HealthCheck, jobs map[string]StatusProvider) []router.Route {
	return []router.Route{
		{
			Path:    "/healthcheck",
			Method:  http.MethodGet,
			Handler: HealthcheckHandler(checks, jobs),
		},
	}
}

func Metrics(handler http.Handler) []router.Route {
	return []router.Route{
		{
			Path:    "/metrics",
			Method:  http.MethodGet,
			Handler: handler,
		},
	}
}

func MetaProxy(dispatcher proxying.Dispatcher, authenticator authenticating.Authenticator, limiter ratelimit.Limiter, proxies *middleware.TrustedProxies, observer Observer) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/meta/proxy",
			Method:  http.MethodPost,
			Handler: Proxy(dispatcher, observer),
			Middlewares: []alice.Constructor{
				middleware.RequireUser(authenticator),
				middleware.RateLimit(ProxyLimiterName, limiter, proxies.UserKey, observer),
				middleware.RequireMetaConnection(authenticator),
			},
		},
	}
}

func MetaAuthentication(authenticator authenticating.Authenticator, limiter ratelimit.Limiter, proxies *middleware.TrustedProxies, observer Observer) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/meta/auth",
			Method:  http.MethodPost,
			Handler: MetaAuth(authenticator),
			Middlewares: []alice.Constructor{
				middleware.RateLimit(AuthLimiterName, limiter, proxies.ClientIPKey, observer),
				middleware.RequireUser(authenticator),
			},
		},
	}
}
