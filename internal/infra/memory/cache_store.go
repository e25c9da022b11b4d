// Package memory holds in-process implementations of the storage ports,
// used in development mode and in tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/roberjo/AuraStream-sub001/internal/domain"
	"github.com/roberjo/AuraStream-sub001/internal/domain/model"
	"github.com/roberjo/AuraStream-sub001/internal/domain/ports/repository"
)

var _ repository.CacheStore = (*CacheStore)(nil)

type marker struct {
	token     string
	expiresAt time.Time
}

// CacheStore keeps entries in a map with lazy expiry on read.
type CacheStore struct {
	mu      sync.RWMutex
	entries map[model.Fingerprint]model.CacheEntry
	markers map[model.Fingerprint]marker
	now     func() time.Time
}

func NewCacheStore() *CacheStore {
	return &CacheStore{
		entries: make(map[model.Fingerprint]model.CacheEntry),
		markers: make(map[model.Fingerprint]marker),
		now:     time.Now,
	}
}

// WithClock swaps the time source, for tests.
func (s *CacheStore) WithClock(now func() time.Time) *CacheStore {
	s.now = now
	return s
}

func (s *CacheStore) Get(_ context.Context, fp model.Fingerprint) (*model.CacheEntry, error) {
	s.mu.RLock()
	e, ok := s.entries[fp]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	if e.Expired(s.now()) {
		// Expired - clean up lazily
		s.mu.Lock()
		if cur, ok := s.entries[fp]; ok && cur.Expired(s.now()) {
			delete(s.entries, fp)
		}
		s.mu.Unlock()
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

// Put stores a copy of entry. TTL <= 0 means don't cache.
func (s *CacheStore) Put(_ context.Context, entry *model.CacheEntry, ttl time.Duration) error {
	if ttl <= 0 || entry == nil {
		return nil
	}
	e := *entry
	if e.ExpiresAt.IsZero() {
		e.ExpiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[e.Fingerprint] = e
	s.mu.Unlock()
	return nil
}

// Delete is idempotent.
func (s *CacheStore) Delete(_ context.Context, fp model.Fingerprint) error {
	s.mu.Lock()
	delete(s.entries, fp)
	s.mu.Unlock()
	return nil
}

func (s *CacheStore) TryMark(_ context.Context, fp model.Fingerprint, token string, ttl time.Duration) (bool, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.markers[fp]; ok && now.Before(m.expiresAt) {
		return false, nil
	}
	s.markers[fp] = marker{token: token, expiresAt: now.Add(ttl)}
	return true, nil
}

func (s *CacheStore) ClearMark(_ context.Context, fp model.Fingerprint, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.markers[fp]; ok && m.token == token {
		delete(s.markers, fp)
	}
	return nil
}

func (s *CacheStore) Marked(_ context.Context, fp model.Fingerprint) (bool, error) {
	s.mu.RLock()
	m, ok := s.markers[fp]
	s.mu.RUnlock()
	return ok && s.now().Before(m.expiresAt), nil
}

func (s *CacheStore) Ping(context.Context) error { return nil }

// Sweep drops expired entries and markers and returns how many entries went.
func (s *CacheStore) Sweep(_ context.Context) (int, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for fp, e := range s.entries {
		if e.Expired(now) {
			delete(s.entries, fp)
			n++
		}
	}
	for fp, m := range s.markers {
		if !now.Before(m.expiresAt) {
			delete(s.markers, fp)
		}
	}
	return n, nil
}

// Len reports the number of stored entries, expired or not.
func (s *CacheStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
