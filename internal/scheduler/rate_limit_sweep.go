package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/meta-insights-proxy/pkg/ratelimit"
)

type SweepTarget struct {
	Name    string
	Sweeper ratelimit.Sweeper
}

type RateLimitEntriesObserver interface {
	SetRateLimitEntries(limiter string, entries int)
}

// RateLimitSweepService remove janelas expiradas dos limitadores em memória.
// O store redis expira as chaves sozinho e não precisa deste job.
type RateLimitSweepService struct {
	scheduler    *gocron.Scheduler
	cronSchedule string
	targets      []SweepTarget
	observer     RateLimitEntriesObserver
	now          func() time.Time
}

func NewRateLimitSweepService(cronSchedule string, observer RateLimitEntriesObserver, targets ...SweepTarget) *RateLimitSweepService {
	return &RateLimitSweepService{
		scheduler:    gocron.NewScheduler(time.Local),
		cronSchedule: cronSchedule,
		targets:      targets,
		observer:     observer,
		now:          time.Now,
	}
}

func (s *RateLimitSweepService) Start(ctx context.Context) error {
	if len(s.targets) == 0 {
		logrus.Info("Nenhum limitador em memória para limpar, agendador de limpeza não iniciado")
		return nil
	}

	_, err := s.scheduler.Cron(s.cronSchedule).Do(s.sweep)
	if err != nil {
		return fmt.Errorf("erro ao agendar limpeza dos limitadores: %w", err)
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("Parando agendador de limpeza dos limitadores")
		s.scheduler.Stop()
	}()

	return nil
}

func (s *RateLimitSweepService) sweep() {
	now := s.now()

	for _, target := range s.targets {
		removed := target.Sweeper.Sweep(now)
		remaining := target.Sweeper.Len()

		if s.observer != nil {
			s.observer.SetRateLimitEntries(target.Name, remaining)
		}

		logrus.WithFields(logrus.Fields{
			"limiter":   target.Name,
			"removed":   removed,
			"remaining": remaining,
		}).Debug("Janelas expiradas removidas do limitador")
	}
}
