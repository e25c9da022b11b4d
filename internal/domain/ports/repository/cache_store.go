package repository

import (
	"context"
	"time"

	"github.com/roberjo/AuraStream-sub001/internal/domain/model"
)

// CacheStore is the key-value store behind the result cache. Every method
// returns an error wrapping domain.ErrCacheStore when the store is unreachable.
type CacheStore interface {
	// Get returns domain.ErrNotFound when no entry exists.
	Get(ctx context.Context, fp model.Fingerprint) (*model.CacheEntry, error)
	Put(ctx context.Context, entry *model.CacheEntry, ttl time.Duration) error
	Delete(ctx context.Context, fp model.Fingerprint) error

	// TryMark sets the "computing" marker for fp if absent.
	TryMark(ctx context.Context, fp model.Fingerprint, token string, ttl time.Duration) (bool, error)
	// ClearMark removes the marker only if it still holds token.
	ClearMark(ctx context.Context, fp model.Fingerprint, token string) error
	// Marked reports whether any marker is held for fp.
	Marked(ctx context.Context, fp model.Fingerprint) (bool, error)

	Ping(ctx context.Context) error
}
