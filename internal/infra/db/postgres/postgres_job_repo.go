package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/roberjo/AuraStream-sub001/internal/domain"
	"github.com/roberjo/AuraStream-sub001/internal/domain/model"
	"github.com/roberjo/AuraStream-sub001/internal/domain/ports/repository"
	"github.com/roberjo/AuraStream-sub001/internal/infra/metrics"
	"github.com/roberjo/AuraStream-sub001/internal/infra/security"
)

var _ repository.JobRepository = (*JobRepo)(nil)

// JobRepo keeps lifecycle state in jobs and one row per item in job_items.
// Item input is written once by Create; Update only rewrites the jobs row
// and the outcome columns of items whose outcome changed. When a sealer is
// configured item text is encrypted and bound to its job and index.
type JobRepo struct {
	pool   *pgxpool.Pool
	tm     repository.TransactionManager
	sealer *security.Sealer
}

func NewJobRepo(pool *pgxpool.Pool, tm repository.TransactionManager, sealer *security.Sealer) *JobRepo {
	return &JobRepo{pool: pool, tm: tm, sealer: sealer}
}

const jobColumns = `id, status, source_id, cancelled, last_error, created_at, updated_at, completed_at`

const itemOutcomeColumns = `idx, language, options, status, fingerprint, result, cache_hit, error_kind, error_message`

func (r *JobRepo) Create(ctx context.Context, job *model.Job) (err error) {
	defer func(start time.Time) { metrics.ObserveJobStoreOp("create", start, err) }(time.Now())

	return r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		const q = `
INSERT INTO jobs (` + jobColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`
		_, err := execSQL(ctx, r.pool, tx, q,
			job.ID, string(job.Status), nullString(job.SourceID), job.Cancelled,
			nullString(job.LastError), job.CreatedAt, job.UpdatedAt, job.CompletedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return domain.ErrAlreadyExists
			}
			return fmt.Errorf("%w: insert job: %v", domain.ErrJobStore, err)
		}

		const qi = `
INSERT INTO job_items (job_id, idx, text, text_sealed, language, options, status, fingerprint, result, cache_hit, error_kind, error_message)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12);`
		for i := range job.Items {
			it := &job.Items[i]
			text, sealed, err := r.encodeText(job.ID, it)
			if err != nil {
				return err
			}
			options, err := json.Marshal(it.Options)
			if err != nil {
				return fmt.Errorf("%w: encode options: %v", domain.ErrJobStore, err)
			}
			result, err := encodeResult(it.Result)
			if err != nil {
				return err
			}
			if _, err := execSQL(ctx, r.pool, tx, qi,
				job.ID, it.Index, text, sealed, it.Language, options, string(it.Status),
				nullString(string(it.Fingerprint)), result, it.CacheHit,
				nullString(it.ErrorKind), nullString(it.ErrorMessage)); err != nil {
				return fmt.Errorf("%w: insert item %d: %v", domain.ErrJobStore, it.Index, err)
			}
		}
		return nil
	})
}

// Update locks the job row, applies mutate and writes back the job state and
// the changed item outcomes in one transaction. The snapshot passed to
// mutate and returned carries no item text. A mutator error aborts the write
// and is returned as is.
func (r *JobRepo) Update(ctx context.Context, id string, mutate repository.JobMutator) (_ *model.Job, err error) {
	defer func(start time.Time) { metrics.ObserveJobStoreOp("update", start, err) }(time.Now())
	var (
		out    *model.Job
		mutErr error
	)
	err = r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		job, err := r.load(ctx, tx, id, true, false)
		if err != nil {
			return err
		}
		before := job.Clone()
		if err := mutate(job); err != nil {
			mutErr = err
			return err
		}

		const q = `
UPDATE jobs SET
  status = $2, cancelled = $3, last_error = $4, updated_at = $5, completed_at = $6
WHERE id = $1;`
		if _, err := execSQL(ctx, r.pool, tx, q,
			job.ID, string(job.Status), job.Cancelled,
			nullString(job.LastError), job.UpdatedAt, job.CompletedAt); err != nil {
			return fmt.Errorf("%w: update job: %v", domain.ErrJobStore, err)
		}
		for _, idx := range changedOutcomes(before.Items, job.Items) {
			if err := r.writeOutcome(ctx, tx, job.ID, &job.Items[idx]); err != nil {
				return err
			}
		}
		out = job
		return nil
	})
	switch {
	case mutErr != nil:
		return nil, mutErr
	case err == nil:
		return out, nil
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrJobStore):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %v", domain.ErrJobStore, err)
	}
}

func (r *JobRepo) writeOutcome(ctx context.Context, tx repository.Tx, jobID string, it *model.JobItem) error {
	result, err := encodeResult(it.Result)
	if err != nil {
		return err
	}
	const q = `
UPDATE job_items SET
  status = $3, fingerprint = $4, result = $5, cache_hit = $6, error_kind = $7, error_message = $8
WHERE job_id = $1 AND idx = $2;`
	if _, err := execSQL(ctx, r.pool, tx, q,
		jobID, it.Index, string(it.Status), nullString(string(it.Fingerprint)), result,
		it.CacheHit, nullString(it.ErrorKind), nullString(it.ErrorMessage)); err != nil {
		return fmt.Errorf("%w: update item %d: %v", domain.ErrJobStore, it.Index, err)
	}
	return nil
}

// Get reads the job and its items, text included, from one snapshot.
func (r *JobRepo) Get(ctx context.Context, id string) (_ *model.Job, err error) {
	defer func(start time.Time) { metrics.ObserveJobStoreOp("get", start, err) }(time.Now())
	var job *model.Job
	err = r.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly},
		func(ctx context.Context, tx repository.Tx) error {
			var err error
			job, err = r.load(ctx, tx, id, false, true)
			return err
		})
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (r *JobRepo) load(ctx context.Context, tx repository.Tx, id string, forUpdate, withText bool) (*model.Job, error) {
	q := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	if forUpdate {
		q += ` FOR UPDATE`
	}
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	var (
		job                 model.Job
		status              string
		sourceID, lastError sql.NullString
		completedAt         *time.Time
	)
	if err := row.Scan(&job.ID, &status, &sourceID, &job.Cancelled,
		&lastError, &job.CreatedAt, &job.UpdatedAt, &completedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v: %v", domain.ErrJobStore, domain.ErrReadDatabaseRow, err)
	}
	job.Status = model.JobStatus(status)
	job.SourceID = sourceID.String
	job.LastError = lastError.String
	job.CompletedAt = completedAt

	if job.Items, err = r.loadItems(ctx, tx, job.ID, withText); err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *JobRepo) loadItems(ctx context.Context, tx repository.Tx, jobID string, withText bool) ([]model.JobItem, error) {
	q := `SELECT ` + itemOutcomeColumns
	if withText {
		q += `, text, text_sealed`
	}
	q += ` FROM job_items WHERE job_id = $1 ORDER BY idx`
	rows, err := queryRows(ctx, r.pool, tx, q, jobID)
	if err != nil {
		return nil, fmt.Errorf("%w: list items: %v", domain.ErrJobStore, err)
	}
	defer rows.Close()

	var items []model.JobItem
	for rows.Next() {
		var (
			it              model.JobItem
			options, result []byte
			status          string
			fp, kind, msg   sql.NullString
			text, sealed    sql.NullString
		)
		dest := []interface{}{&it.Index, &it.Language, &options, &status, &fp, &result, &it.CacheHit, &kind, &msg}
		if withText {
			dest = append(dest, &text, &sealed)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%w: %v: %v", domain.ErrJobStore, domain.ErrReadDatabaseRow, err)
		}
		it.Status = model.ItemStatus(status)
		it.Fingerprint = model.Fingerprint(fp.String)
		it.ErrorKind = kind.String
		it.ErrorMessage = msg.String
		if len(options) > 0 {
			if err := json.Unmarshal(options, &it.Options); err != nil {
				return nil, fmt.Errorf("%w: decode options: %v", domain.ErrJobStore, err)
			}
		}
		if len(result) > 0 {
			var c model.Classification
			if err := json.Unmarshal(result, &c); err != nil {
				return nil, fmt.Errorf("%w: decode result: %v", domain.ErrJobStore, err)
			}
			it.Result = &c
		}
		if withText {
			if it.Text, err = r.decodeText(jobID, it.Index, text, sealed); err != nil {
				return nil, err
			}
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrJobStore, err)
	}
	return items, nil
}

// ListResumable returns SUBMITTED jobs created before submittedBefore and
// PROCESSING jobs not written since staleBefore, oldest first.
func (r *JobRepo) ListResumable(ctx context.Context, submittedBefore, staleBefore time.Time, limit int) (_ []string, err error) {
	defer func(start time.Time) { metrics.ObserveJobStoreOp("list_resumable", start, err) }(time.Now())
	const q = `
SELECT id FROM jobs
WHERE (status = 'SUBMITTED' AND created_at < $1)
   OR (status = 'PROCESSING' AND updated_at < $2)
ORDER BY created_at
LIMIT $3;`
	rows, err := queryRows(ctx, r.pool, nil, q, submittedBefore, staleBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list resumable: %v", domain.ErrJobStore, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrJobStore, domain.ErrReadDatabaseRow)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrJobStore, err)
	}
	return ids, nil
}

func (r *JobRepo) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: ping: %v", domain.ErrJobStore, err)
	}
	st := r.pool.Stat()
	metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
	return nil
}

// changedOutcomes lists the indexes whose outcome differs between two
// snapshots of the same job. Item input never changes after Create.
func changedOutcomes(before, after []model.JobItem) []int {
	var idx []int
	for i := range after {
		if i >= len(before) || outcomeChanged(before[i], after[i]) {
			idx = append(idx, i)
		}
	}
	return idx
}

func outcomeChanged(a, b model.JobItem) bool {
	if a.Status != b.Status || a.Fingerprint != b.Fingerprint || a.CacheHit != b.CacheHit ||
		a.ErrorKind != b.ErrorKind || a.ErrorMessage != b.ErrorMessage {
		return true
	}
	if (a.Result == nil) != (b.Result == nil) {
		return true
	}
	return a.Result != nil && (a.Result.Label != b.Result.Label || !maps.Equal(a.Result.Scores, b.Result.Scores))
}

func itemOwner(jobID string, idx int) string { return fmt.Sprintf("%s/%d", jobID, idx) }

// encodeText returns the plain text or, with a sealer, its sealed form.
func (r *JobRepo) encodeText(jobID string, it *model.JobItem) (sql.NullString, sql.NullString, error) {
	if r.sealer == nil {
		return sql.NullString{String: it.Text, Valid: true}, sql.NullString{}, nil
	}
	s, err := r.sealer.Seal([]byte(it.Text), itemOwner(jobID, it.Index))
	if err != nil {
		return sql.NullString{}, sql.NullString{}, fmt.Errorf("%w: seal item %d: %v", domain.ErrJobStore, it.Index, err)
	}
	return sql.NullString{}, sql.NullString{String: s, Valid: true}, nil
}

func (r *JobRepo) decodeText(jobID string, idx int, text, sealed sql.NullString) (string, error) {
	if !sealed.Valid || sealed.String == "" {
		return text.String, nil
	}
	if r.sealer == nil {
		return "", fmt.Errorf("%w: job %s is sealed but no key is configured", domain.ErrJobStore, jobID)
	}
	b, err := r.sealer.Open(sealed.String, itemOwner(jobID, idx))
	if err != nil {
		return "", fmt.Errorf("%w: open item %d: %v", domain.ErrJobStore, idx, err)
	}
	return string(b), nil
}

// encodeResult yields nil (SQL NULL) for a missing result.
func encodeResult(c *model.Classification) (interface{}, error) {
	if c == nil {
		return nil, nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("%w: encode result: %v", domain.ErrJobStore, err)
	}
	return b, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
