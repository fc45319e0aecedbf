package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/meta-insights-proxy/internal/config"
	"github.com/vfg2006/meta-insights-proxy/internal/usecases/authenticating"
)

// TokenRefresher é a parte do autenticador usada pelo job
type TokenRefresher interface {
	RefreshExpiring(ctx context.Context, threshold time.Duration) (authenticating.RefreshSummary, error)
}

type TokenRefreshObserver interface {
	ObserveTokenRefresh(outcome string)
}

// TokenRefreshService renova periodicamente os tokens de longa duração do Meta antes que expirem
type TokenRefreshService struct {
	scheduler  *gocron.Scheduler
	config     config.TokenRefresh
	refresher  TokenRefresher
	observer   TokenRefreshObserver
	running    bool
	runMutex   sync.Mutex
	lastRunAt  time.Time
	lastResult authenticating.RefreshSummary
}

func NewTokenRefreshService(refresher TokenRefresher, observer TokenRefreshObserver, cfg config.TokenRefresh) *TokenRefreshService {
	logrus.WithFields(logrus.Fields{
		"cron_schedule": cfg.CronSchedule,
		"threshold":     cfg.Threshold.String(),
		"enabled":       cfg.Enabled,
	}).Info("Configuração do agendador de renovação de tokens do Meta carregada")

	return &TokenRefreshService{
		scheduler: gocron.NewScheduler(time.Local),
		config:    cfg,
		refresher: refresher,
		observer:  observer,
	}
}

// Start agenda o job; o agendador para quando ctx é cancelado
func (s *TokenRefreshService) Start(ctx context.Context) error {
	if !s.config.Enabled {
		logrus.Info("Renovação de tokens do Meta desabilitada por configuração")
		return nil
	}

	_, err := s.scheduler.Cron(s.config.CronSchedule).Do(func() {
		s.refreshAll(ctx)
	})
	if err != nil {
		return fmt.Errorf("erro ao agendar renovação de tokens do Meta: %w", err)
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("Parando agendador de renovação de tokens do Meta")
		s.scheduler.Stop()
	}()

	return nil
}

func (s *TokenRefreshService) refreshAll(ctx context.Context) {
	s.runMutex.Lock()
	if s.running {
		s.runMutex.Unlock()
		logrus.Info("Renovação de tokens do Meta já em andamento, ignorando")
		return
	}
	s.running = true
	s.runMutex.Unlock()

	defer func() {
		s.runMutex.Lock()
		s.running = false
		s.runMutex.Unlock()
	}()

	startTime := time.Now()

	summary, err := s.refresher.RefreshExpiring(ctx, s.config.Threshold)
	if err != nil {
		logrus.WithError(err).Error("Erro ao renovar tokens do Meta")
		s.observe("error")
		return
	}

	for i := 0; i < summary.Refreshed; i++ {
		s.observe("refreshed")
	}
	for i := 0; i < summary.Failed; i++ {
		s.observe("failed")
	}

	s.runMutex.Lock()
	s.lastRunAt = startTime
	s.lastResult = summary
	s.runMutex.Unlock()

	logrus.WithFields(logrus.Fields{
		"duration":  time.Since(startTime).String(),
		"refreshed": summary.Refreshed,
		"failed":    summary.Failed,
	}).Info("Renovação de tokens do Meta concluída")
}

func (s *TokenRefreshService) observe(outcome string) {
	if s.observer != nil {
		s.observer.ObserveTokenRefresh(outcome)
	}
}

// GetStatus retorna o status atual do agendador
func (s *TokenRefreshService) GetStatus() map[string]any {
	s.runMutex.Lock()
	defer s.runMutex.Unlock()

	return map[string]any{
		"enabled":        s.config.Enabled,
		"cron":           s.config.CronSchedule,
		"threshold":      s.config.Threshold.String(),
		"running":        s.running,
		"last_run_at":    s.lastRunAt,
		"last_refreshed": s.lastResult.Refreshed,
		"last_failed":    s.lastResult.Failed,
	}
}
