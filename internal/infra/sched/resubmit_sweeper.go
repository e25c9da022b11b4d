package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Resubmitter re-enqueues jobs that were accepted but never reached a worker.
type Resubmitter interface {
	ResubmitStale(ctx context.Context) (int, error)
}

// ResubmitSweeper periodically hands stale SUBMITTED jobs back to the pool.
type ResubmitSweeper struct {
	interval time.Duration
	jobs     Resubmitter
	log      *zerolog.Logger
}

func NewResubmitSweeper(interval time.Duration, jobs Resubmitter, logger *zerolog.Logger) *ResubmitSweeper {
	l := logger.With().Str("component", "ResubmitSweeper").Logger()
	return &ResubmitSweeper{interval: interval, jobs: jobs, log: &l}
}

func (w *ResubmitSweeper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting resubmit sweeper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping resubmit sweeper")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.jobs.ResubmitStale(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("resubmit sweep error")
			}
			if n > 0 {
				w.log.Info().Int("count", n).Msg("stale jobs resubmitted")
			}
		}
	}
}
