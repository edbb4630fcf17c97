package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"abante-news-scraper/internal/config"
	"abante-news-scraper/internal/observability"
)

// Scheduler runs a job once, on a fixed interval, or on a cron expression,
// per the scheduler config section.
type Scheduler struct {
	cfg    *config.Config
	logger *observability.Logger
}

func NewScheduler(cfg *config.Config, logger *observability.Logger) *Scheduler {
	return &Scheduler{cfg: cfg, logger: logger}
}

// Run blocks until ctx is canceled (interval/cron modes) or the single job
// finishes (oneshot).
func (s *Scheduler) Run(ctx context.Context, job func(context.Context) error) error {
	switch s.cfg.Scheduler.Mode {
	case "oneshot":
		return job(ctx)
	case "interval":
		return s.runInterval(ctx, job)
	case "cron":
		return s.runCron(ctx, job)
	default:
		return fmt.Errorf("unknown scheduler mode: %q", s.cfg.Scheduler.Mode)
	}
}

func (s *Scheduler) runInterval(ctx context.Context, job func(context.Context) error) error {
	interval := s.cfg.GetSchedulerInterval()
	s.logger.Info("Scheduler running on interval", "interval", interval.String())

	// First run happens immediately, then on every tick.
	if err := job(ctx); err != nil {
		s.logger.Error("Scheduled run failed", "error", err.Error())
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := job(ctx); err != nil {
				s.logger.Error("Scheduled run failed", "error", err.Error())
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Scheduler) runCron(ctx context.Context, job func(context.Context) error) error {
	c := cron.New()
	_, err := c.AddFunc(s.cfg.Scheduler.CronExpr, func() {
		if err := job(ctx); err != nil {
			s.logger.Error("Scheduled run failed", "error", err.Error())
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", s.cfg.Scheduler.CronExpr, err)
	}

	s.logger.Info("Scheduler running on cron", "expr", s.cfg.Scheduler.CronExpr)
	c.Start()
	<-ctx.Done()

	// Let an in-flight run finish before returning.
	stopCtx := c.Stop()
	<-stopCtx.Done()

	return ctx.Err()
}
