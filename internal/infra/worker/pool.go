// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/roberjo/AuraStream-sub001/internal/domain"
	"github.com/roberjo/AuraStream-sub001/internal/infra/metrics"
)

// A small bounded worker pool. Submit never blocks; a saturated queue is
// reported as domain.ErrQueueFull.

type Task func(ctx context.Context) error

type Pool struct {
	wg     sync.WaitGroup
	jobs   chan Task
	quit   chan struct{}
	stop   sync.Once
	cancel context.CancelFunc
	n      int
	log    *zerolog.Logger
}

// NewPool creates a pool of workers with a queue of queueSize pending tasks.
// queueSize <= 0 defaults to four slots per worker.
func NewPool(workers, queueSize int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queueSize <= 0 {
		queueSize = workers * 4
	}
	l := logger.With().Str("component", "WorkerPool").Logger()
	return &Pool{jobs: make(chan Task, queueSize), quit: make(chan struct{}), n: workers, log: &l}
}

func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					return
				case task := <-p.jobs:
					metrics.SetWorkerQueueDepth(len(p.jobs))
					if task == nil {
						continue
					}
					if err := p.run(ctx, task); err != nil {
						p.log.Error().Err(err).Int("worker", id).Msg("task failed")
					}
				}
			}
		}(i)
	}
	p.log.Info().Int("workers", p.n).Int("queue", cap(p.jobs)).Msg("worker pool started")
}

func (p *Pool) run(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Msg("task panicked")
			err = errors.New("task panicked")
		}
	}()
	return task(ctx)
}

// Stop cancels running tasks and waits for the workers to exit. Queued
// tasks that never started are dropped.
func (p *Pool) Stop() {
	p.stop.Do(func() {
		close(p.quit)
		if p.cancel != nil {
			p.cancel()
		}
		p.wg.Wait()
		p.log.Info().Int("dropped", len(p.jobs)).Msg("worker pool stopped")
	})
}

func (p *Pool) Submit(task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	select {
	case <-p.quit:
		return domain.ErrQueueFull
	default:
	}
	select {
	case p.jobs <- task:
		metrics.SetWorkerQueueDepth(len(p.jobs))
		return nil
	default:
		return domain.ErrQueueFull
	}
}
