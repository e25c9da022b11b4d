package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/roberjo/AuraStream-sub001/internal/domain"
	"github.com/roberjo/AuraStream-sub001/internal/domain/model"
	"github.com/roberjo/AuraStream-sub001/internal/domain/ports/repository"
)

var _ repository.CacheStore = (*CacheStore)(nil)

const (
	resultPrefix = "sentiment:result:"
	markerPrefix = "sentiment:marker:"
)

func resultKey(fp model.Fingerprint) string { return resultPrefix + string(fp) }

func markerKey(fp model.Fingerprint) string { return markerPrefix + string(fp) }

// CacheStore keeps JSON-encoded entries under sentiment:result:<fp>, with
// Redis TTL doing the eviction. In-flight markers are Locker keys.
type CacheStore struct {
	client RedisClient
	locker Locker
	now    func() time.Time
}

func NewCacheStore(client *Client) *CacheStore {
	return &CacheStore{client: client, locker: NewLocker(client), now: time.Now}
}

func newCacheStore(client RedisClient, locker Locker) *CacheStore {
	return &CacheStore{client: client, locker: locker, now: time.Now}
}

func (s *CacheStore) Get(ctx context.Context, fp model.Fingerprint) (*model.CacheEntry, error) {
	raw, err := s.client.Get(ctx, resultKey(fp))
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get: %v", domain.ErrCacheStore, err)
	}
	var e model.CacheEntry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", domain.ErrCacheStore, err)
	}
	// Redis expiry is authoritative but a clock-skewed entry is still absent.
	if e.Expired(s.now()) {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

func (s *CacheStore) Put(ctx context.Context, entry *model.CacheEntry, ttl time.Duration) error {
	if ttl <= 0 || entry == nil {
		return nil
	}
	e := *entry
	if e.ExpiresAt.IsZero() {
		e.ExpiresAt = s.now().Add(ttl)
	}
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", domain.ErrCacheStore, err)
	}
	if err := s.client.Set(ctx, resultKey(e.Fingerprint), b, ttl); err != nil {
		return fmt.Errorf("%w: set: %v", domain.ErrCacheStore, err)
	}
	return nil
}

func (s *CacheStore) Delete(ctx context.Context, fp model.Fingerprint) error {
	if err := s.client.Del(ctx, resultKey(fp)); err != nil {
		return fmt.Errorf("%w: del: %v", domain.ErrCacheStore, err)
	}
	return nil
}

func (s *CacheStore) TryMark(ctx context.Context, fp model.Fingerprint, token string, ttl time.Duration) (bool, error) {
	ok, err := s.locker.TryLock(ctx, markerKey(fp), token, ttl)
	if err != nil {
		return false, fmt.Errorf("%w: mark: %v", domain.ErrCacheStore, err)
	}
	return ok, nil
}

func (s *CacheStore) ClearMark(ctx context.Context, fp model.Fingerprint, token string) error {
	if err := s.locker.Unlock(ctx, markerKey(fp), token); err != nil {
		return fmt.Errorf("%w: unmark: %v", domain.ErrCacheStore, err)
	}
	return nil
}

func (s *CacheStore) Marked(ctx context.Context, fp model.Fingerprint) (bool, error) {
	ok, err := s.locker.Held(ctx, markerKey(fp))
	if err != nil {
		return false, fmt.Errorf("%w: marked: %v", domain.ErrCacheStore, err)
	}
	return ok, nil
}

func (s *CacheStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx); err != nil {
		return fmt.Errorf("%w: ping: %v", domain.ErrCacheStore, err)
	}
	return nil
}
