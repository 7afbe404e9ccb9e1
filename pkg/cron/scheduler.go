// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Purger deletes every run recorded before the cutoff together with its stored workbook.
type Purger interface {
	PurgeExpired(ctx context.Context, before time.Time) (int, error)
}

// RetentionPolicy controls when the retention job fires and how far back runs are kept.
type RetentionPolicy struct {
	Spec string // standard 5-field cron expression
	Days int
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron   *cron.Cron
	purger Purger
	policy RetentionPolicy
	logger *slog.Logger
	now    func() time.Time
}

// NewScheduler creates a new job scheduler.
func NewScheduler(purger Purger, policy RetentionPolicy, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:   c,
		purger: purger,
		policy: policy,
		logger: logger,
		now:    time.Now,
	}
}

// Start registers the retention job and begins scheduling. A policy with no
// positive retention window registers nothing.
func (s *Scheduler) Start() error {
	if s.policy.Days > 0 {
		if _, err := s.cron.AddFunc(s.policy.Spec, s.purgeExpiredRuns); err != nil {
			return fmt.Errorf("schedule retention job %q: %w", s.policy.Spec, err)
		}
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
		slog.Int("retention_days", s.policy.Days),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow triggers the retention job synchronously and returns the number of purged runs.
func (s *Scheduler) RunNow(ctx context.Context) (int, error) {
	return s.purge(ctx)
}

// Cutoff is the creation time before which runs are purged.
func (s *Scheduler) Cutoff() time.Time {
	return s.now().UTC().AddDate(0, 0, -s.policy.Days)
}

func (s *Scheduler) purgeExpiredRuns() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if _, err := s.purge(ctx); err != nil {
		s.logger.Error("retention job failed", slog.Any("error", err))
	}
}

func (s *Scheduler) purge(ctx context.Context) (int, error) {
	cutoff := s.Cutoff()
	s.logger.Info("starting run retention purge", slog.Time("cutoff", cutoff))

	n, err := s.purger.PurgeExpired(ctx, cutoff)
	if err != nil {
		return n, fmt.Errorf("purge runs before %s: %w", cutoff.Format(time.DateOnly), err)
	}

	s.logger.Info("run retention purge completed", slog.Int("runs_purged", n))
	return n, nil
}
