package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweepable is a cache store that can drop its expired entries in bulk.
// Expiry is still enforced on read; sweeping only reclaims memory.
type Sweepable interface {
	Sweep(ctx context.Context) (int, error)
}

type CacheSweeper struct {
	interval time.Duration
	store    Sweepable
	log      *zerolog.Logger
}

func NewCacheSweeper(interval time.Duration, store Sweepable, logger *zerolog.Logger) *CacheSweeper {
	l := logger.With().Str("component", "CacheSweeper").Logger()
	return &CacheSweeper{interval: interval, store: store, log: &l}
}

func (w *CacheSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := w.store.Sweep(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("cache sweep error")
				continue
			}
			if n > 0 {
				w.log.Debug().Int("evicted", n).Msg("expired cache entries swept")
			}
		}
	}
}
