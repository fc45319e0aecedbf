package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/justinas/alice"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/meta-insights-proxy/internal/api/handler"
	"github.com/vfg2006/meta-insights-proxy/internal/api/handler/router"
	"github.com/vfg2006/meta-insights-proxy/internal/config"
	"github.com/vfg2006/meta-insights-proxy/internal/metrics"
	"github.com/vfg2006/meta-insights-proxy/internal/usecases/authenticating"
	"github.com/vfg2006/meta-insights-proxy/internal/usecases/proxying"
	"github.com/vfg2006/meta-insights-proxy/pkg/middleware"
	"github.com/vfg2006/meta-insights-proxy/pkg/ratelimit"
)

type Server struct {
	httpServer *http.Server
}

// Dependencies reúne os serviços já construídos em cmd/api
type Dependencies struct {
	Dispatcher    proxying.Dispatcher
	Authenticator authenticating.Authenticator
	ProxyLimiter  ratelimit.Limiter
	AuthLimiter   ratelimit.Limiter
	Metrics       *metrics.Metrics
	HealthChecks  map[string]handler.HealthCheck
	Jobs          map[string]handler.StatusProvider
}

func New(config *config.Config, deps Dependencies) (*Server, error) {
	if deps.Dispatcher == nil || deps.Authenticator == nil {
		return nil, fmt.Errorf("api: dispatcher e authenticator são obrigatórios")
	}
	if deps.ProxyLimiter == nil || deps.AuthLimiter == nil {
		return nil, fmt.Errorf("api: limitadores de requisição são obrigatórios")
	}

	proxies, err := middleware.NewTrustedProxies(config.Server.TrustedProxies)
	if err != nil {
		return nil, err
	}

	rt := router.New(
		router.WithRoutes(handler.Healthcheck(deps.HealthChecks, deps.Jobs)...),
		router.WithRoutes(handler.Metrics(deps.Metrics.Handler())...),
		router.WithRoutes(handler.MetaProxy(deps.Dispatcher, deps.Authenticator, deps.ProxyLimiter, proxies, deps.Metrics)...),
		router.WithRoutes(handler.MetaAuthentication(deps.Authenticator, deps.AuthLimiter, proxies, deps.Metrics)...),
	)

	middlewares := []alice.Constructor{
		middleware.LogPanicMiddleware(),
		middleware.LoggingMiddleware(),
		middleware.Cors(config.Server.AllowedOrigins),
	}

	handler := alice.New(middlewares...).Then(rt)

	srv := &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port),
			Handler:           handler,
			ReadHeaderTimeout: 2 * time.Second,
			// campaigns_with_insights pode levar até ENRICHMENT_DEADLINE
			WriteTimeout: config.Enrichment.Deadline + 10*time.Second,
		},
	}

	return srv, nil
}

// Handler expõe a cadeia completa, usada nos testes com httptest
func (s Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s Server) Run(ctx context.Context) error {
	go func() {
		logrus.WithFields(logrus.Fields{
			"address": s.httpServer.Addr,
		}).Info("Servidor iniciando")

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Error("Erro durante a execução do servidor")
		}
	}()

	// Canal para aguardar sinais de término
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	// Aguardar pelo sinal ou pelo cancelamento do contexto
	select {
	case <-done:
		logrus.Info("Sinal de interrupção recebido")
	case <-ctx.Done():
		logrus.Info("Contexto de aplicação cancelado")
	}

	// Define timeout para desligamento
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Log de início do desligamento
	logrus.WithFields(logrus.Fields{
		"timeout": "15s",
	}).Info("Iniciando desligamento gracioso do servidor")

	if err := s.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Erro durante o desligamento do servidor")
		return err
	}

	logrus.Info("Servidor desligado com sucesso")
	return nil
}

func (s Server) Shutdown(ctx context.Context) error {
	logrus.Info("Executando operações de limpeza antes do desligamento")

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		return err
	}

	logrus.Info("Servidor HTTP desligado com sucesso")
	return nil
}
