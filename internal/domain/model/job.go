package model

import "time"

type JobStatus string

const (
	JobStatusSubmitted  JobStatus = "SUBMITTED"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
	JobStatusPartial    JobStatus = "PARTIAL"
)

// IsTerminal reports whether no further transition is allowed.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusPartial:
		return true
	}
	return false
}

// CanTransition encodes the forward-only job lifecycle.
func (s JobStatus) CanTransition(to JobStatus) bool {
	switch s {
	case JobStatusSubmitted:
		return to == JobStatusProcessing || to == JobStatusFailed
	case JobStatusProcessing:
		return to == JobStatusCompleted || to == JobStatusPartial || to == JobStatusFailed
	}
	return false
}

type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "pending"
	ItemStatusSucceeded ItemStatus = "succeeded"
	ItemStatusFailed    ItemStatus = "failed"
)

// JobItem holds redacted input only; raw text is never persisted.
type JobItem struct {
	Index        int             `json:"index"`
	Text         string          `json:"text"`
	Language     string          `json:"language"`
	Options      Options         `json:"options"`
	Fingerprint  Fingerprint     `json:"fingerprint,omitempty"`
	Status       ItemStatus      `json:"status"`
	Result       *Classification `json:"result,omitempty"`
	CacheHit     bool            `json:"cache_hit,omitempty"`
	ErrorKind    string          `json:"error_kind,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

func (i *JobItem) Attempted() bool { return i.Status != ItemStatusPending && i.Status != "" }

type Job struct {
	ID          string
	Status      JobStatus
	SourceID    string
	Items       []JobItem
	Cancelled   bool
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// NewJob builds a SUBMITTED job from already redacted items.
func NewJob(id, sourceID string, items []JobItem, now time.Time) *Job {
	for i := range items {
		items[i].Index = i
		items[i].Status = ItemStatusPending
	}
	return &Job{
		ID:        id,
		Status:    JobStatusSubmitted,
		SourceID:  sourceID,
		Items:     items,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transition moves the job forward. It returns false when the move would
// violate the lifecycle.
func (j *Job) Transition(to JobStatus, now time.Time) bool {
	if !j.Status.CanTransition(to) {
		return false
	}
	j.Status = to
	j.UpdatedAt = now
	if to.IsTerminal() {
		t := now
		j.CompletedAt = &t
	}
	return true
}

// RecordSuccess stores an item outcome. Outcomes are write-once.
func (j *Job) RecordSuccess(idx int, fp Fingerprint, res Classification, cacheHit bool, now time.Time) bool {
	it := j.item(idx)
	if it == nil || it.Attempted() || j.Status.IsTerminal() {
		return false
	}
	r := res
	it.Fingerprint = fp
	it.Status = ItemStatusSucceeded
	it.Result = &r
	it.CacheHit = cacheHit
	j.UpdatedAt = now
	return true
}

// RecordFailure stores an item error. Outcomes are write-once.
func (j *Job) RecordFailure(idx int, fp Fingerprint, kind, msg string, now time.Time) bool {
	it := j.item(idx)
	if it == nil || it.Attempted() || j.Status.IsTerminal() {
		return false
	}
	it.Fingerprint = fp
	it.Status = ItemStatusFailed
	it.ErrorKind = kind
	it.ErrorMessage = msg
	j.UpdatedAt = now
	return true
}

func (j *Job) item(idx int) *JobItem {
	if idx < 0 || idx >= len(j.Items) {
		return nil
	}
	return &j.Items[idx]
}

// Counts returns attempted, succeeded and failed item totals.
func (j *Job) Counts() (attempted, succeeded, failed int) {
	for i := range j.Items {
		switch j.Items[i].Status {
		case ItemStatusSucceeded:
			succeeded++
		case ItemStatusFailed:
			failed++
		}
	}
	return succeeded + failed, succeeded, failed
}

// Progress is the completion percentage, 100 only once every item has an outcome.
func (j *Job) Progress() int {
	if len(j.Items) == 0 {
		return 0
	}
	attempted, _, _ := j.Counts()
	if attempted == len(j.Items) {
		return 100
	}
	return attempted * 100 / len(j.Items)
}

// FinalStatus derives COMPLETED or PARTIAL once all items were attempted.
// ok is false while outcomes are still missing.
func (j *Job) FinalStatus() (JobStatus, bool) {
	attempted, _, failed := j.Counts()
	if attempted < len(j.Items) {
		return "", false
	}
	if failed > 0 {
		return JobStatusPartial, true
	}
	return JobStatusCompleted, true
}

// Clone returns a deep copy so readers never share item slices with writers.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	cp.Items = make([]JobItem, len(j.Items))
	for i, it := range j.Items {
		if it.Result != nil {
			r := *it.Result
			scores := make(map[Sentiment]float64, len(r.Scores))
			for k, v := range r.Scores {
				scores[k] = v
			}
			r.Scores = scores
			it.Result = &r
		}
		cp.Items[i] = it
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

// TextLength sums item text lengths, used for completion estimates.
func (j *Job) TextLength() int {
	n := 0
	for i := range j.Items {
		n += len(j.Items[i].Text)
	}
	return n
}

// EstimatedCompletion mirrors the service's published estimate:
// 30s plus one second per thousand bytes of text.
func (j *Job) EstimatedCompletion() time.Time {
	return j.CreatedAt.Add(30*time.Second + time.Duration(j.TextLength()/1000)*time.Second)
}
