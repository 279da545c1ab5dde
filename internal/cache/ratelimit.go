package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	rateLimitPrefix = "ratelimit:"
	defaultScope    = "analyze"
)

// RateLimiter caps submissions per client key in fixed one-minute windows.
// Counters live in redis so every gateway replica shares them.
type RateLimiter struct {
	client *redis.Client
	scope  string
	limit  int64
	window time.Duration
	now    func() time.Time
}

func NewRateLimiter(client *redis.Client, perMin int) *RateLimiter {
	if perMin <= 0 {
		perMin = 30
	}
	return &RateLimiter{
		client: client,
		scope:  defaultScope,
		limit:  int64(perMin),
		window: time.Minute,
		now:    time.Now,
	}
}

// Allow counts one hit for key. With no redis client every request is allowed.
// On redis errors the request is allowed and the error returned for logging.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil || l.client == nil {
		return true, nil
	}
	if key == "" {
		key = "unknown"
	}

	windowStart := l.now().Truncate(l.window).Unix()
	redisKey := fmt.Sprintf("%s%s:%s:%d", rateLimitPrefix, l.scope, key, windowStart)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, l.window+time.Second)
		return nil
	})
	if err != nil {
		return true, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return incr.Val() <= l.limit, nil
}

// WithScope returns a copy counting under a separate key space, so surfaces sharing
// one redis do not eat each other's quota.
func (l *RateLimiter) WithScope(scope string) *RateLimiter {
	if l == nil {
		return nil
	}
	out := *l
	if scope != "" {
		out.scope = scope
	}
	return &out
}

// Limit returns the per-window cap.
func (l *RateLimiter) Limit() int64 { return l.limit }
