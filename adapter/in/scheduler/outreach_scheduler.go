// Package scheduler runs the periodic reply sweep on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"time"

	"outreach_server/core/domain"
	"outreach_server/core/port/in"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const (
	// DefaultSchedule runs the sweep every 30 minutes.
	DefaultSchedule = "*/30 * * * *"

	// sweepDeadline caps one scheduled run. When it expires, no further
	// records are launched; in-flight checks finish and persist.
	sweepDeadline = 5 * time.Minute
)

// Scheduler triggers reply sweeps on a UTC cron schedule.
type Scheduler struct {
	replySync in.ReplySync
	lookback  time.Duration
	schedule  string
	cron      *cron.Cron
	log       zerolog.Logger
}

func New(replySync in.ReplySync, schedule string, lookback time.Duration, log zerolog.Logger) *Scheduler {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Scheduler{
		replySync: replySync,
		lookback:  lookback,
		schedule:  schedule,
		cron:      cron.New(cron.WithLocation(time.UTC)),
		log:       log.With().Str("component", "sweep_scheduler").Logger(),
	}
}

// Start registers the sweep job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runSweep); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info().Str("schedule", s.schedule).Msg("reply sweep scheduled")
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("reply sweep scheduler stopped")
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepDeadline)
	defer cancel()

	result, err := s.replySync.RunSweep(ctx, s.lookback)
	if err != nil {
		if errors.Is(err, domain.ErrSweepInProgress) {
			s.log.Info().Msg("skipping scheduled sweep, another sweep is running")
			return
		}
		s.log.Error().Err(err).Msg("scheduled reply sweep failed")
		return
	}

	s.log.Info().
		Int("checked", result.RecordsChecked).
		Int("updated", result.RecordsUpdated).
		Int("failed", result.RecordsFailed).
		Msg("scheduled reply sweep finished")
}
