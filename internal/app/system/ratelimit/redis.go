package ratelimit

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisLimiter is a fixed-window limiter shared by every instance that
// points at the same redis.
type RedisLimiter struct {
	rdb      redis.Cmdable
	prefix   string
	limit    int64
	duration time.Duration
}

// NewRedis creates a limiter allowing limit requests per duration per key.
func NewRedis(rdb redis.Cmdable, prefix string, limit int, duration time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "clubbera:ratelimit:"
	}
	return &RedisLimiter{rdb: rdb, prefix: prefix, limit: int64(limit), duration: duration}
}

// Allow increments the key's counter, starting its expiry on the first hit.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.prefix + key

	n, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, k, l.duration).Err(); err != nil {
			return false, err
		}
	}
	return n <= l.limit, nil
}

// Reset deletes the key's counter.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.rdb.Del(ctx, l.prefix+key).Err()
}
