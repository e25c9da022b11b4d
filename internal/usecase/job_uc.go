// File: internal/usecase/job_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/roberjo/AuraStream-sub001/internal/domain"
	"github.com/roberjo/AuraStream-sub001/internal/domain/model"
	"github.com/roberjo/AuraStream-sub001/internal/domain/ports/adapter"
	"github.com/roberjo/AuraStream-sub001/internal/domain/ports/repository"
	"github.com/roberjo/AuraStream-sub001/internal/infra/logging"
	"github.com/roberjo/AuraStream-sub001/internal/infra/metrics"
)

// Compile-time check
var _ JobUseCase = (*jobUC)(nil)

// JobScheduler hands a persisted job to the worker pool. It returns
// domain.ErrQueueFull when the pool cannot take more work.
type JobScheduler interface {
	Enqueue(ctx context.Context, jobID string) error
}

type JobUseCase interface {
	Submit(ctx context.Context, items []model.AnalysisRequest, sourceID string) (*model.Job, error)
	Status(ctx context.Context, jobID string) (*model.Job, error)
	Cancel(ctx context.Context, jobID string) (*model.Job, error)
	// Process runs a SUBMITTED job to a terminal state. Called by workers.
	Process(ctx context.Context, jobID string) error
	// ResubmitStale re-enqueues jobs left SUBMITTED past the grace period and
	// PROCESSING jobs whose lease expired.
	ResubmitStale(ctx context.Context) (int, error)
}

type JobConfig struct {
	MaxItems        int
	MaxTextLength   int
	ItemConcurrency int
	SubmittedGrace  time.Duration
	// ProcessingLease is how long a PROCESSING job may go without a write
	// before another worker may take it over. Keep it above the compute timeout.
	ProcessingLease time.Duration
	PingTimeout     time.Duration
}

const cancelledReason = "cancelled"

type jobUC struct {
	repo      repository.JobRepository
	pipe      *analysisPipeline
	cfg       JobConfig
	log       *zerolog.Logger
	now       func() time.Time
	mu        sync.RWMutex
	scheduler JobScheduler
}

func NewJobUseCase(repo repository.JobRepository, redactor Redactor, fp Fingerprinter, cache ResultCache, backend adapter.SentimentBackend, cfg JobConfig, logger *zerolog.Logger) *jobUC {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = model.MaxBatchSize
	}
	if cfg.MaxTextLength <= 0 {
		cfg.MaxTextLength = model.MaxTextLengthAsync
	}
	if cfg.ItemConcurrency <= 0 {
		cfg.ItemConcurrency = 8
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = 5 * time.Second
	}
	if cfg.ProcessingLease <= 0 {
		cfg.ProcessingLease = 2 * time.Minute
	}
	return &jobUC{
		repo: repo,
		pipe: &analysisPipeline{redactor: redactor, fp: fp, cache: cache, backend: backend},
		cfg:  cfg,
		log:  logger,
		now:  time.Now,
	}
}

// SetScheduler wires the worker pool after construction; the pool itself
// needs the use case to run jobs.
func (j *jobUC) SetScheduler(s JobScheduler) {
	j.mu.Lock()
	j.scheduler = s
	j.mu.Unlock()
}

func (j *jobUC) Submit(ctx context.Context, reqs []model.AnalysisRequest, sourceID string) (*model.Job, error) {
	if len(reqs) == 0 || len(reqs) > j.cfg.MaxItems {
		return nil, fmt.Errorf("%w: %v: got %d, allowed 1..%d", domain.ErrInput, model.ValidationBatchSize, len(reqs), j.cfg.MaxItems)
	}

	log := logging.With(ctx, j.log)
	items := make([]model.JobItem, len(reqs))
	pii := 0
	for i, r := range reqs {
		v, err := r.Validate(j.cfg.MaxTextLength)
		if err != nil {
			return nil, fmt.Errorf("%w: items[%d]: %v", domain.ErrInput, i, err)
		}
		redacted, report, err := j.pipe.redact(ctx, log, v.Text)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		if report.Detected() {
			pii++
		}
		items[i] = model.JobItem{Text: redacted, Language: v.Language, Options: v.Options}
	}

	job := model.NewJob(uuid.NewString(), sourceID, items, j.now())
	if err := j.repo.Create(ctx, job); err != nil {
		return nil, asJobStoreError(err)
	}
	metrics.IncJobSubmitted()
	log.Info().Str("job_id", job.ID).Int("items", len(items)).Int("items_with_pii", pii).Msg("job submitted")

	j.enqueue(ctx, job.ID)
	return job, nil
}

func (j *jobUC) enqueue(ctx context.Context, jobID string) bool {
	j.mu.RLock()
	s := j.scheduler
	j.mu.RUnlock()
	if s == nil {
		return false
	}
	if err := s.Enqueue(ctx, jobID); err != nil {
		// The job stays SUBMITTED and the resubmit sweeper retries it.
		logging.With(ctx, j.log).Warn().Err(err).Str("job_id", jobID).Msg("job not enqueued")
		return false
	}
	return true
}

func (j *jobUC) Status(ctx context.Context, jobID string) (*model.Job, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, fmt.Errorf("%w: malformed job id", domain.ErrInput)
	}
	job, err := j.repo.Get(ctx, jobID)
	if err != nil {
		return nil, asJobStoreError(err)
	}
	return job, nil
}

// Cancel is idempotent: a terminal job is returned unchanged.
func (j *jobUC) Cancel(ctx context.Context, jobID string) (*model.Job, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, fmt.Errorf("%w: malformed job id", domain.ErrInput)
	}
	job, err := j.repo.Update(ctx, jobID, func(job *model.Job) error {
		if job.Status.IsTerminal() {
			return domain.ErrJobTerminal
		}
		job.Cancelled = true
		job.LastError = cancelledReason
		if !job.Transition(model.JobStatusFailed, j.now()) {
			return domain.ErrInvalidTransition
		}
		return nil
	})
	if errors.Is(err, domain.ErrJobTerminal) {
		return j.Status(ctx, jobID)
	}
	if err != nil {
		return nil, asJobStoreError(err)
	}
	metrics.IncJobFinished(string(job.Status))
	logging.With(ctx, j.log).Info().Str("job_id", jobID).Msg("job cancelled")
	return job, nil
}

// Process claims a SUBMITTED job, or takes over a PROCESSING one whose lease
// ran out, and runs its pending items. When ctx ends first the job stays
// PROCESSING with the unfinished items pending so a later run resumes it.
func (j *jobUC) Process(ctx context.Context, jobID string) error {
	ctx = logging.WithJobID(ctx, jobID)
	log := logging.With(ctx, j.log)
	defer logging.TraceDuration(log, "JobUC.Process")()
	start := j.now()

	resumed := false
	job, err := j.repo.Update(ctx, jobID, func(job *model.Job) error {
		now := j.now()
		switch {
		case job.Status == model.JobStatusSubmitted:
			job.Transition(model.JobStatusProcessing, now)
		case job.Status == model.JobStatusProcessing && now.Sub(job.UpdatedAt) >= j.cfg.ProcessingLease:
			job.UpdatedAt = now
			resumed = true
		default:
			return domain.ErrJobNotClaimable
		}
		return nil
	})
	if errors.Is(err, domain.ErrJobNotClaimable) {
		log.Debug().Msg("job already claimed or finished")
		return nil
	}
	if err != nil {
		return asJobStoreError(err)
	}
	if resumed {
		log.Info().Int("progress", job.Progress()).Msg("resuming job after lease expiry")
	}
	// The claim snapshot may carry outcomes only; item text comes from Get.
	if job, err = j.repo.Get(ctx, jobID); err != nil {
		return asJobStoreError(err)
	}

	pctx, cancel := context.WithTimeout(ctx, j.cfg.PingTimeout)
	perr := j.pipe.backend.Ping(pctx)
	cancel()
	if perr != nil && ctx.Err() != nil {
		log.Info().Msg("job interrupted before preflight, left for resume")
		return nil
	}
	if perr != nil {
		log.Error().Err(perr).Msg("backend unreachable before processing items")
		reason := fmt.Sprintf("%s: %v", domain.KindBackendUnavailable, perr)
		if attempted, _, _ := job.Counts(); attempted > 0 {
			// Items already have outcomes, so the job did start: settle the rest.
			return j.finish(ctx, jobID, func(job *model.Job) error {
				now := j.now()
				for i := range job.Items {
					job.RecordFailure(i, "", string(domain.KindBackendUnavailable), reason, now)
				}
				return nil
			})
		}
		return j.finish(ctx, jobID, func(job *model.Job) error {
			job.LastError = reason
			job.Transition(model.JobStatusFailed, j.now())
			return nil
		})
	}

	var (
		stopped  atomic.Bool
		storeErr error
		errOnce  sync.Once
	)
	var g errgroup.Group
	g.SetLimit(j.cfg.ItemConcurrency)
	for i := range job.Items {
		if stopped.Load() || ctx.Err() != nil {
			break
		}
		item := job.Items[i]
		if item.Attempted() {
			continue
		}
		g.Go(func() error {
			if stopped.Load() || ctx.Err() != nil {
				return nil
			}
			err := j.processItem(ctx, log, jobID, item, &stopped)
			if err != nil {
				errOnce.Do(func() { storeErr = err })
				stopped.Store(true)
			}
			return nil
		})
	}
	_ = g.Wait()

	if storeErr != nil {
		log.Error().Err(storeErr).Msg("job store failed while recording outcomes; left for resume")
		return storeErr
	}
	if ctx.Err() != nil {
		log.Info().Msg("job interrupted, pending items left for resume")
		return nil
	}

	err = j.finish(context.WithoutCancel(ctx), jobID, nil)
	log.Info().Dur("duration", j.now().Sub(start)).Msg("job processed")
	return err
}

// processItem runs one item and persists its outcome. Only job store
// failures are returned; item errors are recorded on the job. An item cut
// short by ctx is not recorded and stays pending.
func (j *jobUC) processItem(ctx context.Context, log *zerolog.Logger, jobID string, item model.JobItem, stopped *atomic.Bool) error {
	req := model.AnalysisRequest{Text: item.Text, Language: item.Language, Options: item.Options}
	out, perr := j.pipe.runItem(ctx, log, req)
	if perr != nil && ctx.Err() != nil {
		log.Debug().Int("item", item.Index).Msg("job item interrupted")
		return nil
	}

	// A finished outcome is stored even if ctx ended meanwhile.
	job, err := j.repo.Update(context.WithoutCancel(ctx), jobID, func(job *model.Job) error {
		if perr != nil {
			job.RecordFailure(item.Index, out.Fingerprint, string(domain.KindOf(perr)), perr.Error(), j.now())
			return nil
		}
		job.RecordSuccess(item.Index, out.Fingerprint, out.Result, out.CacheHit, j.now())
		return nil
	})
	if err != nil {
		return asJobStoreError(err)
	}
	if job.Status.IsTerminal() {
		// Cancelled while running; stop dispatching.
		stopped.Store(true)
	}

	switch {
	case perr != nil:
		metrics.IncJobItem("failed")
		log.Warn().Int("item", item.Index).Str("kind", string(domain.KindOf(perr))).Msg("job item failed")
	case out.CacheHit:
		metrics.IncJobItem("cache_hit")
	default:
		metrics.IncJobItem("succeeded")
	}
	return nil
}

// finish moves a PROCESSING job to its terminal state. The state follows
// from the item outcomes after mutate, if any, has run; mutate may also set
// the terminal state itself.
func (j *jobUC) finish(ctx context.Context, jobID string, mutate repository.JobMutator) error {
	job, err := j.repo.Update(ctx, jobID, func(job *model.Job) error {
		if job.Status.IsTerminal() {
			return domain.ErrJobTerminal
		}
		if mutate != nil {
			if err := mutate(job); err != nil {
				return err
			}
			if job.Status.IsTerminal() {
				return nil
			}
		}
		st, ok := job.FinalStatus()
		if !ok {
			return domain.ErrInvalidTransition
		}
		if !job.Transition(st, j.now()) {
			return domain.ErrInvalidTransition
		}
		return nil
	})
	if errors.Is(err, domain.ErrJobTerminal) {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidTransition) {
		logging.With(ctx, j.log).Warn().Msg("job still has pending items, left for resume")
		return nil
	}
	if err != nil {
		return asJobStoreError(err)
	}
	metrics.IncJobFinished(string(job.Status))
	_, succeeded, failed := job.Counts()
	logging.With(ctx, j.log).Info().
		Str("status", string(job.Status)).
		Int("succeeded", succeeded).
		Int("failed", failed).
		Int("progress", job.Progress()).
		Msg("job finished")
	return nil
}

func (j *jobUC) ResubmitStale(ctx context.Context) (int, error) {
	now := j.now()
	ids, err := j.repo.ListResumable(ctx, now.Add(-j.cfg.SubmittedGrace), now.Add(-j.cfg.ProcessingLease), 100)
	if err != nil {
		return 0, asJobStoreError(err)
	}
	n := 0
	for _, id := range ids {
		if !j.enqueue(ctx, id) {
			break
		}
		n++
	}
	return n, nil
}

func asJobStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrJobStore),
		errors.Is(err, domain.ErrInput), errors.Is(err, domain.ErrJobTerminal):
		return err
	default:
		return fmt.Errorf("%w: %v", domain.ErrJobStore, err)
	}
}
