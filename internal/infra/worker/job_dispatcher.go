package worker

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/roberjo/AuraStream-sub001/internal/usecase"
)

// Compile-time check
var _ usecase.JobScheduler = (*JobDispatcher)(nil)

// JobProcessor runs one persisted job to completion.
type JobProcessor interface {
	Process(ctx context.Context, jobID string) error
}

// JobDispatcher feeds job ids to the pool. Jobs that do not fit stay
// SUBMITTED in the store and are picked up by the resubmit sweeper.
type JobDispatcher struct {
	pool *Pool
	proc JobProcessor
	log  *zerolog.Logger
}

func NewJobDispatcher(pool *Pool, proc JobProcessor, logger *zerolog.Logger) *JobDispatcher {
	l := logger.With().Str("component", "JobDispatcher").Logger()
	return &JobDispatcher{pool: pool, proc: proc, log: &l}
}

func (d *JobDispatcher) Enqueue(_ context.Context, jobID string) error {
	err := d.pool.Submit(func(ctx context.Context) error {
		return d.proc.Process(ctx, jobID)
	})
	if err != nil {
		return err
	}
	d.log.Debug().Str("job_id", jobID).Msg("job enqueued")
	return nil
}
