//go:build !integration

package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/roberjo/AuraStream-sub001/internal/domain"
	"github.com/roberjo/AuraStream-sub001/internal/domain/model"
	"github.com/roberjo/AuraStream-sub001/internal/infra/logging"
	"github.com/roberjo/AuraStream-sub001/internal/infra/memory"
)

const testFP = model.Fingerprint("fp:v1:test")

func positive() model.Classification {
	return model.Classification{Label: model.SentimentPositive, Scores: map[model.Sentiment]float64{model.SentimentPositive: 0.9}}
}

func TestResultCache_SingleFlight(t *testing.T) {
	c := NewResultCache(memory.NewCacheStore(), testCacheConfig(), logging.Nop())

	var calls int32
	release := make(chan struct{})
	compute := func(ctx context.Context) (model.Classification, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return positive(), nil
	}

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := c.GetOrCompute(context.Background(), testFP, compute)
			if err == nil && out.Result.Label != model.SentimentPositive {
				err = errors.New("unexpected label")
			}
			errs <- err
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("expected every caller to succeed, got %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("expected exactly one compute, got %d", calls)
	}
	if _, ok := c.Lookup(context.Background(), testFP); !ok {
		t.Error("expected the result to be stored")
	}
}

func TestResultCache_ComputeOnMiss(t *testing.T) {
	store := &countingStore{CacheStore: memory.NewCacheStore()}
	c := NewResultCache(store, testCacheConfig(), logging.Nop())

	t.Run("should skip the initial lookup", func(t *testing.T) {
		out, err := c.ComputeOnMiss(context.Background(), testFP, func(ctx context.Context) (model.Classification, error) {
			return positive(), nil
		})
		if err != nil || out.Hit {
			t.Fatalf("expected a computed result, got %+v, %v", out, err)
		}
		if got := store.gets.Load(); got != 1 {
			t.Errorf("expected only the post-marker read, got %d", got)
		}
	})

	t.Run("should still serve an entry stored by someone else", func(t *testing.T) {
		out, err := c.ComputeOnMiss(context.Background(), testFP, func(ctx context.Context) (model.Classification, error) {
			return model.Classification{}, errors.New("must not run")
		})
		if err != nil || !out.Hit {
			t.Errorf("expected the stored entry, got %+v, %v", out, err)
		}
	})
}

func TestResultCache_FailureNotCached(t *testing.T) {
	ctx := context.Background()
	c := NewResultCache(memory.NewCacheStore(), testCacheConfig(), logging.Nop())

	var calls int32
	failing := func(ctx context.Context) (model.Classification, error) {
		atomic.AddInt32(&calls, 1)
		return model.Classification{}, domain.ErrBackendUnavailable
	}
	if _, err := c.GetOrCompute(ctx, testFP, failing); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if _, ok := c.Lookup(ctx, testFP); ok {
		t.Fatal("expected no entry after a failed compute")
	}

	out, err := c.GetOrCompute(ctx, testFP, func(ctx context.Context) (model.Classification, error) {
		atomic.AddInt32(&calls, 1)
		return positive(), nil
	})
	if err != nil || out.Hit {
		t.Fatalf("expected a fresh compute, got %+v %v", out, err)
	}
	if calls != 2 {
		t.Errorf("expected the second call to recompute, calls=%d", calls)
	}
}

func TestResultCache_StoreDownFailsOpen(t *testing.T) {
	c := NewResultCache(brokenCacheStore{}, testCacheConfig(), logging.Nop())
	if _, ok := c.Lookup(context.Background(), testFP); ok {
		t.Fatal("expected store failure to read as a miss")
	}
	out, err := c.GetOrCompute(context.Background(), testFP, func(ctx context.Context) (model.Classification, error) {
		return positive(), nil
	})
	if err != nil {
		t.Fatalf("expected compute to proceed without the store, got %v", err)
	}
	if out.Result.Label != model.SentimentPositive || out.Hit {
		t.Errorf("unexpected outcome %+v", out)
	}
}

func TestResultCache_LazyExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := memory.NewCacheStore().WithClock(func() time.Time { return now })
	cfg := testCacheConfig()
	cfg.TTL = time.Minute
	c := NewResultCache(store, cfg, logging.Nop())
	c.now = func() time.Time { return now }

	compute := func(ctx context.Context) (model.Classification, error) { return positive(), nil }
	_, _ = c.GetOrCompute(ctx, testFP, compute)
	if out, _ := c.GetOrCompute(ctx, testFP, compute); !out.Hit {
		t.Fatal("expected a hit within ttl")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Lookup(ctx, testFP); ok {
		t.Error("expected the expired entry to be absent")
	}
}

func TestResultCache_ClampsTTL(t *testing.T) {
	cfg := testCacheConfig()
	cfg.TTL = 30 * 24 * time.Hour
	cfg.MaxTTL = 7 * 24 * time.Hour
	c := NewResultCache(memory.NewCacheStore(), cfg, logging.Nop())
	if c.cfg.TTL != cfg.MaxTTL {
		t.Errorf("expected ttl clamped to %v, got %v", cfg.MaxTTL, c.cfg.TTL)
	}
}

func TestResultCache_WaitsOnRemoteMarker(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCacheStore()
	c := NewResultCache(store, testCacheConfig(), logging.Nop())

	t.Run("should take the remote result without computing", func(t *testing.T) {
		if ok, _ := store.TryMark(ctx, testFP, "other-process", time.Second); !ok {
			t.Fatal("could not take marker")
		}
		go func() {
			time.Sleep(15 * time.Millisecond)
			_ = store.Put(ctx, &model.CacheEntry{Fingerprint: testFP, Result: positive()}, time.Hour)
			_ = store.ClearMark(ctx, testFP, "other-process")
		}()

		var calls int32
		out, err := c.GetOrCompute(ctx, testFP, func(ctx context.Context) (model.Classification, error) {
			atomic.AddInt32(&calls, 1)
			return model.Classification{Label: model.SentimentNegative}, nil
		})
		if err != nil || !out.Hit || out.Result.Label != model.SentimentPositive {
			t.Fatalf("expected the remote entry, got %+v %v", out, err)
		}
		if calls != 0 {
			t.Errorf("expected no local compute, got %d", calls)
		}
	})

	t.Run("should retry when the remote compute gives up", func(t *testing.T) {
		_ = store.Delete(ctx, testFP)
		if ok, _ := store.TryMark(ctx, testFP, "other-process", time.Second); !ok {
			t.Fatal("could not take marker")
		}
		go func() {
			time.Sleep(15 * time.Millisecond)
			_ = store.ClearMark(ctx, testFP, "other-process")
		}()

		out, err := c.GetOrCompute(ctx, testFP, func(ctx context.Context) (model.Classification, error) {
			return model.Classification{Label: model.SentimentNegative}, nil
		})
		if err != nil || out.Hit || out.Result.Label != model.SentimentNegative {
			t.Fatalf("expected a local compute after the marker cleared, got %+v %v", out, err)
		}
		if marked, _ := store.Marked(ctx, testFP); marked {
			t.Error("expected our marker to be released")
		}
	})
}

func TestResultCache_CallerDeadlineDoesNotCancelCompute(t *testing.T) {
	store := memory.NewCacheStore()
	c := NewResultCache(store, testCacheConfig(), logging.Nop())

	done := make(chan struct{})
	compute := func(ctx context.Context) (model.Classification, error) {
		defer close(done)
		select {
		case <-time.After(50 * time.Millisecond):
			return positive(), nil
		case <-ctx.Done():
			return model.Classification{}, ctx.Err()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if _, err := c.GetOrCompute(ctx, testFP, compute); !errors.Is(err, domain.ErrBackendTimeout) {
		t.Fatalf("expected BackendTimeout for the impatient caller, got %v", err)
	}

	<-done
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, ok := c.Lookup(context.Background(), testFP); ok {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Error("expected the detached compute to store its result")
}

func TestResultCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	c := NewResultCache(memory.NewCacheStore(), testCacheConfig(), logging.Nop())
	_, _ = c.GetOrCompute(ctx, testFP, func(ctx context.Context) (model.Classification, error) { return positive(), nil })

	if err := c.Invalidate(ctx, testFP); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok := c.Lookup(ctx, testFP); ok {
		t.Error("expected entry gone after invalidate")
	}
	if err := c.Invalidate(ctx, testFP); err != nil {
		t.Errorf("expected invalidate to be idempotent, got %v", err)
	}

	broken := NewResultCache(brokenCacheStore{}, testCacheConfig(), logging.Nop())
	if err := broken.Invalidate(ctx, testFP); !errors.Is(err, domain.ErrCacheStore) {
		t.Errorf("expected ErrCacheStore, got %v", err)
	}
}
