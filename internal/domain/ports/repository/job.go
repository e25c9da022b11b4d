package repository

import (
	"context"
	"time"

	"github.com/roberjo/AuraStream-sub001/internal/domain/model"
)

// JobMutator edits a job in place inside Update. Returning an error aborts
// the write.
type JobMutator func(job *model.Job) error

type JobRepository interface {
	Create(ctx context.Context, job *model.Job) error
	// Update is an atomic read-modify-write on one job record and returns the
	// stored snapshot. Item input is immutable after Create, so the snapshot
	// may omit item text; use Get for it. domain.ErrNotFound when the id is
	// unknown.
	Update(ctx context.Context, id string, mutate JobMutator) (*model.Job, error)
	Get(ctx context.Context, id string) (*model.Job, error)
	// ListResumable returns ids of jobs still SUBMITTED and created before
	// submittedBefore, plus PROCESSING jobs not touched since staleBefore,
	// oldest first.
	ListResumable(ctx context.Context, submittedBefore, staleBefore time.Time, limit int) ([]string, error)
	Ping(ctx context.Context) error
}
