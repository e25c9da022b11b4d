// File: internal/infra/redis/lock.go
package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// Locker is a token-owned SETNX lock. Only the holder's token releases it.
type Locker interface {
	TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key, token string) error
	Held(ctx context.Context, key string) (bool, error)
}

type RedisLocker struct {
	cli *redis.Client
}

func NewLocker(c *Client) *RedisLocker {
	return &RedisLocker{cli: c.cli}
}

func (l *RedisLocker) TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return l.cli.SetNX(ctx, key, token, ttl).Result()
}

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	_, err := luaUnlock.Run(ctx, l.cli, []string{key}, token).Result()
	return err
}

func (l *RedisLocker) Held(ctx context.Context, key string) (bool, error) {
	n, err := l.cli.Exists(ctx, key).Result()
	return n > 0, err
}
