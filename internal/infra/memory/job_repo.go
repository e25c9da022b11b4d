package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/roberjo/AuraStream-sub001/internal/domain"
	"github.com/roberjo/AuraStream-sub001/internal/domain/model"
	"github.com/roberjo/AuraStream-sub001/internal/domain/ports/repository"
)

var _ repository.JobRepository = (*JobRepo)(nil)

// JobRepo serialises all writes behind one mutex, which makes Update atomic.
type JobRepo struct {
	mu   sync.Mutex
	jobs map[string]*model.Job
}

func NewJobRepo() *JobRepo {
	return &JobRepo{jobs: make(map[string]*model.Job)}
}

func (r *JobRepo) Create(_ context.Context, job *model.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; ok {
		return domain.ErrAlreadyExists
	}
	r.jobs[job.ID] = job.Clone()
	return nil
}

func (r *JobRepo) Update(_ context.Context, id string, mutate repository.JobMutator) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	work := cur.Clone()
	if err := mutate(work); err != nil {
		return nil, err
	}
	r.jobs[id] = work
	return work.Clone(), nil
}

func (r *JobRepo) Get(_ context.Context, id string) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return j.Clone(), nil
}

func (r *JobRepo) ListResumable(_ context.Context, submittedBefore, staleBefore time.Time, limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending []*model.Job
	for _, j := range r.jobs {
		switch {
		case j.Status == model.JobStatusSubmitted && j.CreatedAt.Before(submittedBefore):
		case j.Status == model.JobStatusProcessing && j.UpdatedAt.Before(staleBefore):
		default:
			continue
		}
		pending = append(pending, j)
	}
	sort.Slice(pending, func(a, b int) bool { return pending[a].CreatedAt.Before(pending[b].CreatedAt) })
	ids := make([]string, 0, len(pending))
	for _, j := range pending {
		if limit > 0 && len(ids) >= limit {
			break
		}
		ids = append(ids, j.ID)
	}
	return ids, nil
}

func (r *JobRepo) Ping(context.Context) error { return nil }
