// File: internal/usecase/result_cache.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/roberjo/AuraStream-sub001/internal/domain"
	"github.com/roberjo/AuraStream-sub001/internal/domain/model"
	"github.com/roberjo/AuraStream-sub001/internal/domain/ports/repository"
	"github.com/roberjo/AuraStream-sub001/internal/infra/logging"
	"github.com/roberjo/AuraStream-sub001/internal/infra/metrics"
)

// Compile-time check
var _ ResultCache = (*resultCache)(nil)

// ComputeFunc produces the classification for a fingerprint on a miss.
type ComputeFunc func(ctx context.Context) (model.Classification, error)

// CacheOutcome is what a caller of GetOrCompute receives.
type CacheOutcome struct {
	Result model.Classification
	Hit    bool // served from a stored entry
	Shared bool // joined an in-process compute started by another caller
}

type ResultCache interface {
	// Lookup never fails: store errors read as a miss.
	Lookup(ctx context.Context, fp model.Fingerprint) (*model.CacheEntry, bool)
	// GetOrCompute returns the stored result or runs compute at most once
	// across all concurrent callers for fp. Failures are never stored.
	GetOrCompute(ctx context.Context, fp model.Fingerprint, compute ComputeFunc) (CacheOutcome, error)
	// ComputeOnMiss is GetOrCompute for callers whose own Lookup just missed.
	ComputeOnMiss(ctx context.Context, fp model.Fingerprint, compute ComputeFunc) (CacheOutcome, error)
	Invalidate(ctx context.Context, fp model.Fingerprint) error
}

type ResultCacheConfig struct {
	TTL            time.Duration
	MaxTTL         time.Duration
	ComputeTimeout time.Duration
	MarkerTTL      time.Duration
	PollInterval   time.Duration
}

type resultCache struct {
	store repository.CacheStore
	cfg   ResultCacheConfig
	group singleflight.Group
	log   *zerolog.Logger
	now   func() time.Time
}

func NewResultCache(store repository.CacheStore, cfg ResultCacheConfig, logger *zerolog.Logger) *resultCache {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.MaxTTL > 0 && cfg.TTL > cfg.MaxTTL {
		cfg.TTL = cfg.MaxTTL
	}
	if cfg.ComputeTimeout <= 0 {
		cfg.ComputeTimeout = 30 * time.Second
	}
	if cfg.MarkerTTL <= 0 {
		cfg.MarkerTTL = cfg.ComputeTimeout + 5*time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 50 * time.Millisecond
	}
	return &resultCache{store: store, cfg: cfg, log: logger, now: time.Now}
}

func (c *resultCache) Lookup(ctx context.Context, fp model.Fingerprint) (*model.CacheEntry, bool) {
	e, err := c.store.Get(ctx, fp)
	switch {
	case err == nil:
		metrics.IncCacheRequest("result", "hit")
		return e, true
	case errors.Is(err, domain.ErrNotFound):
		metrics.IncCacheRequest("result", "miss")
	default:
		c.storeFailed(ctx, "lookup", err)
	}
	return nil, false
}

func (c *resultCache) GetOrCompute(ctx context.Context, fp model.Fingerprint, compute ComputeFunc) (CacheOutcome, error) {
	if e, ok := c.Lookup(ctx, fp); ok {
		return CacheOutcome{Result: e.Result, Hit: true}, nil
	}
	return c.ComputeOnMiss(ctx, fp, compute)
}

func (c *resultCache) ComputeOnMiss(ctx context.Context, fp model.Fingerprint, compute ComputeFunc) (CacheOutcome, error) {
	// The fill runs detached from any single caller so one caller giving up
	// does not fail the others sharing it.
	ch := c.group.DoChan(string(fp), func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.ComputeTimeout)
		defer cancel()
		return c.fill(fctx, fp, compute)
	})

	select {
	case r := <-ch:
		if r.Shared {
			metrics.IncSingleflightShared()
		}
		if r.Err != nil {
			return CacheOutcome{}, r.Err
		}
		out := r.Val.(CacheOutcome)
		out.Shared = r.Shared
		return out, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return CacheOutcome{}, fmt.Errorf("%w: waiting for compute", domain.ErrBackendTimeout)
		}
		return CacheOutcome{}, fmt.Errorf("%w: %v", domain.ErrComputeInterrupted, ctx.Err())
	}
}

// fill takes the cross-process marker, or waits on whoever holds it.
func (c *resultCache) fill(ctx context.Context, fp model.Fingerprint, compute ComputeFunc) (CacheOutcome, error) {
	token := uuid.NewString()
	for {
		won, err := c.store.TryMark(ctx, fp, token, c.cfg.MarkerTTL)
		if err != nil {
			c.storeFailed(ctx, "mark", err)
			return c.computeAndStore(ctx, fp, compute, model.CacheSourceBackfilled)
		}
		if won {
			defer func() {
				if err := c.store.ClearMark(context.WithoutCancel(ctx), fp, token); err != nil {
					c.storeFailed(ctx, "unmark", err)
				}
			}()
			// Another process may have stored the entry between our lookup and the mark.
			if e, err := c.store.Get(ctx, fp); err == nil {
				return CacheOutcome{Result: e.Result, Hit: true}, nil
			}
			return c.computeAndStore(ctx, fp, compute, model.CacheSourceComputed)
		}

		out, retry, err := c.awaitRemote(ctx, fp, compute)
		if !retry {
			return out, err
		}
	}
}

// awaitRemote polls until the remote compute's entry appears. retry is true
// when the marker went away without an entry, meaning that compute failed.
func (c *resultCache) awaitRemote(ctx context.Context, fp model.Fingerprint, compute ComputeFunc) (CacheOutcome, bool, error) {
	t := time.NewTicker(c.cfg.PollInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return CacheOutcome{}, false, fmt.Errorf("%w: waiting for remote compute", domain.ErrBackendTimeout)
		case <-t.C:
		}
		e, err := c.store.Get(ctx, fp)
		if err == nil {
			return CacheOutcome{Result: e.Result, Hit: true}, false, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			c.storeFailed(ctx, "poll", err)
			out, err := c.computeAndStore(ctx, fp, compute, model.CacheSourceBackfilled)
			return out, false, err
		}
		marked, err := c.store.Marked(ctx, fp)
		if err != nil {
			c.storeFailed(ctx, "poll", err)
			out, err := c.computeAndStore(ctx, fp, compute, model.CacheSourceBackfilled)
			return out, false, err
		}
		if !marked {
			return CacheOutcome{}, true, nil
		}
	}
}

func (c *resultCache) computeAndStore(ctx context.Context, fp model.Fingerprint, compute ComputeFunc, src model.CacheSource) (CacheOutcome, error) {
	res, err := compute(ctx)
	if err != nil {
		return CacheOutcome{}, err
	}
	now := c.now()
	entry := &model.CacheEntry{
		Fingerprint: fp,
		Result:      res,
		CreatedAt:   now,
		ExpiresAt:   now.Add(c.cfg.TTL),
		Source:      src,
	}
	if err := c.store.Put(ctx, entry, c.cfg.TTL); err != nil {
		c.storeFailed(ctx, "put", err)
	}
	return CacheOutcome{Result: res}, nil
}

func (c *resultCache) Invalidate(ctx context.Context, fp model.Fingerprint) error {
	if err := c.store.Delete(ctx, fp); err != nil {
		if errors.Is(err, domain.ErrCacheStore) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrCacheStore, err)
	}
	logging.With(ctx, c.log).Info().Msg("cache entry invalidated")
	return nil
}

func (c *resultCache) storeFailed(ctx context.Context, op string, err error) {
	metrics.IncCacheRequest("result", "error")
	logging.With(ctx, c.log).Warn().Err(err).Str("op", op).Msg("cache store unavailable, continuing without cache")
}
