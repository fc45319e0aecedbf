package main

import (
	"context"
	"os"
	"path"
	"runtime"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/meta-insights-proxy/infrastructure/database/postgres"
	"github.com/vfg2006/meta-insights-proxy/infrastructure/integrator/meta/metaclient"
	"github.com/vfg2006/meta-insights-proxy/infrastructure/repository"
	"github.com/vfg2006/meta-insights-proxy/internal/api"
	"github.com/vfg2006/meta-insights-proxy/internal/api/handler"
	"github.com/vfg2006/meta-insights-proxy/internal/config"
	"github.com/vfg2006/meta-insights-proxy/internal/metrics"
	"github.com/vfg2006/meta-insights-proxy/internal/scheduler"
	"github.com/vfg2006/meta-insights-proxy/internal/usecases/authenticating"
	"github.com/vfg2006/meta-insights-proxy/internal/usecases/insighting"
	"github.com/vfg2006/meta-insights-proxy/internal/usecases/proxying"
	"github.com/vfg2006/meta-insights-proxy/pkg/ratelimit"
)

func main() {
	// Inicializa configuração de logs
	configureLogger()

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	// Define o nível de log com base na configuração
	logLevel, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		logrus.Warnf("Nível de log inválido: %s, usando 'info'", cfg.App.LogLevel)
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)
	logrus.Infof("Nível de log configurado para: %s", logLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgConn := pgconn(ctx, cfg.Database)
	defer pgConn.Close()

	appMetrics := metrics.New()

	userRepo := repository.NewUserRepository(pgConn)

	metaClient := metaclient.NewClient(cfg.Meta, metaclient.WithObserver(appMetrics))

	authenticator := authenticating.NewService(userRepo, metaClient, cfg)
	enricher := insighting.NewEnricher(metaClient, cfg.Enrichment, insighting.WithEnrichmentObserver(appMetrics))
	dispatcher := proxying.NewService(metaClient, enricher)

	healthChecks := map[string]handler.HealthCheck{
		"postgres": pgConn.Ping,
	}

	var (
		proxyLimiter ratelimit.Limiter
		authLimiter  ratelimit.Limiter
		sweepTargets []scheduler.SweepTarget
	)

	switch cfg.RateLimit.Store {
	case "redis":
		redisClient := redisconn(ctx, cfg.Redis)
		defer redisClient.Close()

		proxyLimiter = ratelimit.NewRedisLimiter(redisClient, handler.ProxyLimiterName, cfg.RateLimit.ProxyMax, cfg.RateLimit.ProxyWindow)
		authLimiter = ratelimit.NewRedisLimiter(redisClient, handler.AuthLimiterName, cfg.RateLimit.AuthMax, cfg.RateLimit.AuthWindow)
		healthChecks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	default:
		proxyWindow := ratelimit.NewFixedWindow(cfg.RateLimit.ProxyMax, cfg.RateLimit.ProxyWindow)
		authWindow := ratelimit.NewFixedWindow(cfg.RateLimit.AuthMax, cfg.RateLimit.AuthWindow)
		proxyLimiter, authLimiter = proxyWindow, authWindow
		sweepTargets = []scheduler.SweepTarget{
			{Name: handler.ProxyLimiterName, Sweeper: proxyWindow},
			{Name: handler.AuthLimiterName, Sweeper: authWindow},
		}
	}

	logrus.WithField("store", cfg.RateLimit.Store).Info("Rate limiter configurado")

	// Inicia os agendadores em background
	sweepService := scheduler.NewRateLimitSweepService(cfg.RateLimit.SweepCron, appMetrics, sweepTargets...)
	if err := sweepService.Start(ctx); err != nil {
		logrus.WithError(err).Error("Erro ao iniciar o agendador de limpeza dos limitadores")
	}

	tokenRefreshService := scheduler.NewTokenRefreshService(authenticator, appMetrics, cfg.TokenRefresh)
	if err := tokenRefreshService.Start(ctx); err != nil {
		logrus.WithError(err).Error("Erro ao iniciar o agendador de renovação de tokens do Meta")
	}

	server, err := api.New(cfg, api.Dependencies{
		Dispatcher:    dispatcher,
		Authenticator: authenticator,
		ProxyLimiter:  proxyLimiter,
		AuthLimiter:   authLimiter,
		Metrics:       appMetrics,
		HealthChecks:  healthChecks,
		Jobs: map[string]handler.StatusProvider{
			"token_refresh": tokenRefreshService,
		},
	})
	if err != nil {
		logrus.Fatal(err)
	}

	if err := server.Run(ctx); err != nil {
		logrus.Error(err)
	}
}

// configureLogger configura o formato e comportamento dos logs
func configureLogger() {
	_, file, _, _ := runtime.Caller(0)
	dir := path.Dir(file)
	os.Chdir(dir)

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}

// pgconn cria uma conexão com o banco de dados
func pgconn(ctx context.Context, dbConfig config.Database) *postgres.Connection {
	conn, err := postgres.NewConnection(ctx, dbConfig)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao conectar ao PostgreSQL")
	}

	logrus.Info("Conexão com PostgreSQL estabelecida com sucesso")
	return conn
}

// redisconn cria o cliente usado pelo rate limiter compartilhado
func redisconn(ctx context.Context, redisConfig config.Redis) *redis.Client {
	opts, err := redis.ParseURL(redisConfig.URL)
	if err != nil {
		logrus.WithError(err).Fatal("REDIS_URL inválida")
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).Fatal("Erro ao conectar ao Redis")
	}

	logrus.Info("Conexão com Redis estabelecida com sucesso")
	return client
}
