package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// RedisStore shares counters across server instances. The increment and
// the window expiry run in one transaction, so concurrent callers on one
// key each see their own count. Expiry is delegated to Redis TTLs and
// Sweep has nothing to do.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Incr(ctx context.Context, key string, now time.Time, window time.Duration) (Entry, error) {
	key = redisKeyPrefix + key

	pipe := s.client.TxPipeline()
	count := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return Entry{}, err
	}

	remaining := ttl.Val()
	if remaining < 0 {
		remaining = window
	}
	return Entry{Count: int(count.Val()), Reset: now.Add(remaining)}, nil
}

func (s *RedisStore) Sweep(context.Context, time.Time) error {
	return nil
}
