package redis

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const rateLimitPrefix = "aurastream:ratelimit:"

// RateLimiter counts requests per key in fixed windows. The window starts
// with the first request and the counter expires with it.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow reports whether one more request fits under limit. A limit <= 0
// disables limiting.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			// A counter without a TTL would block the client for good.
			_ = r.client.Del(context.WithoutCancel(ctx), key)
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	return count <= int64(limit), nil
}

// ClientKey scopes a counter to one client and one operation.
func ClientKey(subject, op string) string {
	return rateLimitPrefix + strings.ToLower(op) + ":" + subject
}
