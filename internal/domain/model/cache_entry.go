package model

import "time"

// Fingerprint identifies cache-equivalent requests. It is never exposed to callers.
type Fingerprint string

func (f Fingerprint) String() string { return string(f) }

type CacheSource string

const (
	CacheSourceComputed   CacheSource = "computed"
	CacheSourceBackfilled CacheSource = "backfilled"
)

type CacheEntry struct {
	Fingerprint Fingerprint    `json:"fingerprint"`
	Result      Classification `json:"result"`
	CreatedAt   time.Time      `json:"created_at"`
	ExpiresAt   time.Time      `json:"expires_at"`
	Source      CacheSource    `json:"source"`
}

// Expired reports whether the entry must be treated as absent at now.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}
