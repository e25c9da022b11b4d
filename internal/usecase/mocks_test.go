//go:build !integration

// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roberjo/AuraStream-sub001/internal/domain"
	"github.com/roberjo/AuraStream-sub001/internal/domain/model"
	"github.com/roberjo/AuraStream-sub001/internal/domain/ports/repository"
	"github.com/roberjo/AuraStream-sub001/internal/infra/fingerprint"
	"github.com/roberjo/AuraStream-sub001/internal/infra/logging"
	"github.com/roberjo/AuraStream-sub001/internal/infra/memory"
	"github.com/roberjo/AuraStream-sub001/internal/infra/security"
)

// fakeBackend labels text containing "love" POSITIVE and anything else
// NEUTRAL. errFor maps a substring to the error returned for matching text.
// Text containing hold waits until release is closed.
type fakeBackend struct {
	mu      sync.Mutex
	calls   int
	texts   []string
	errFor  map[string]error
	delay   time.Duration
	pingErr error
	hold    string
	release chan struct{}
}

func newFakeBackend() *fakeBackend { return &fakeBackend{errFor: map[string]error{}} }

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Classify(ctx context.Context, text, language string) (model.Classification, error) {
	f.mu.Lock()
	f.calls++
	f.texts = append(f.texts, text)
	delay := f.delay
	held := f.hold != "" && strings.Contains(text, f.hold)
	var err error
	for k, e := range f.errFor {
		if strings.Contains(text, k) {
			err = e
		}
	}
	f.mu.Unlock()

	if held {
		select {
		case <-f.release:
		case <-ctx.Done():
			return model.Classification{}, domain.ErrBackendTimeout
		}
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return model.Classification{}, domain.ErrBackendTimeout
		}
	}
	if err != nil {
		return model.Classification{}, err
	}
	label := model.SentimentNeutral
	if strings.Contains(strings.ToLower(text), "love") {
		label = model.SentimentPositive
	}
	return model.Classification{Label: label, Scores: map[model.Sentiment]float64{label: 0.9}}, nil
}

func (f *fakeBackend) Ping(context.Context) error { return f.pingErr }

func (f *fakeBackend) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeBackend) Texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

// brokenCacheStore fails every operation the way an unreachable Redis would.
type brokenCacheStore struct{}

var errStoreDown = errors.New("dial tcp: connection refused")

func (brokenCacheStore) Get(context.Context, model.Fingerprint) (*model.CacheEntry, error) {
	return nil, errors.Join(domain.ErrCacheStore, errStoreDown)
}
func (brokenCacheStore) Put(context.Context, *model.CacheEntry, time.Duration) error {
	return errors.Join(domain.ErrCacheStore, errStoreDown)
}
func (brokenCacheStore) Delete(context.Context, model.Fingerprint) error {
	return errors.Join(domain.ErrCacheStore, errStoreDown)
}
func (brokenCacheStore) TryMark(context.Context, model.Fingerprint, string, time.Duration) (bool, error) {
	return false, errors.Join(domain.ErrCacheStore, errStoreDown)
}
func (brokenCacheStore) ClearMark(context.Context, model.Fingerprint, string) error {
	return errors.Join(domain.ErrCacheStore, errStoreDown)
}
func (brokenCacheStore) Marked(context.Context, model.Fingerprint) (bool, error) {
	return false, errors.Join(domain.ErrCacheStore, errStoreDown)
}
func (brokenCacheStore) Ping(context.Context) error { return errors.Join(domain.ErrCacheStore, errStoreDown) }

// fakeScheduler records enqueued ids and can pretend to be full.
type fakeScheduler struct {
	mu   sync.Mutex
	ids  []string
	full bool
}

func (s *fakeScheduler) Enqueue(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full {
		return domain.ErrQueueFull
	}
	s.ids = append(s.ids, id)
	return nil
}

func (s *fakeScheduler) Enqueued() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ids...)
}

func testCacheConfig() ResultCacheConfig {
	return ResultCacheConfig{
		TTL:            time.Hour,
		MaxTTL:         24 * time.Hour,
		ComputeTimeout: 2 * time.Second,
		MarkerTTL:      3 * time.Second,
		PollInterval:   2 * time.Millisecond,
	}
}

// countingStore counts reads that reach the cache store.
type countingStore struct {
	repository.CacheStore
	gets atomic.Int32
}

func (s *countingStore) Get(ctx context.Context, fp model.Fingerprint) (*model.CacheEntry, error) {
	s.gets.Add(1)
	return s.CacheStore.Get(ctx, fp)
}

type testEnv struct {
	backend *fakeBackend
	store   *memory.CacheStore
	cache   *resultCache
	jobs    *memory.JobRepo
}

func newTestEnv() *testEnv {
	store := memory.NewCacheStore()
	return &testEnv{
		backend: newFakeBackend(),
		store:   store,
		cache:   NewResultCache(store, testCacheConfig(), logging.Nop()),
		jobs:    memory.NewJobRepo(),
	}
}

func (e *testEnv) analysis(deadline time.Duration) *analysisUC {
	return NewAnalysisUseCase(security.NewRedactor(), fingerprint.NewEngine(), e.cache, e.backend,
		AnalysisConfig{ComputeDeadline: deadline}, logging.Nop())
}

func (e *testEnv) jobUC() *jobUC {
	return NewJobUseCase(e.jobs, security.NewRedactor(), fingerprint.NewEngine(), e.cache, e.backend,
		JobConfig{ItemConcurrency: 2, SubmittedGrace: time.Minute}, logging.Nop())
}
