package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisAggregateCache memoizes serialized subtree aggregates in redis.
// Every redis failure degrades to computing directly; a cache outage never
// fails a read, only invalidation certainty — which is why invalidation
// errors are surfaced to the caller.
type RedisAggregateCache struct {
	client *redis.Client
}

func NewRedisAggregateCache(addr, password string, db int) *RedisAggregateCache {
	return &RedisAggregateCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (c *RedisAggregateCache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, factory func() ([]byte, error)) ([]byte, bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return payload, true, nil
	}
	if !errors.Is(err, redis.Nil) {
		slog.Error("cache read degraded", "key", key, "error", err.Error())
	}

	payload, err = factory()
	if err != nil {
		return nil, false, err
	}

	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		slog.Error("cache write degraded", "key", key, "error", err.Error())
	}

	return payload, false, nil
}

// InvalidatePrefix deletes every key under the prefix. Conservative whole-
// namespace invalidation: correctness over hit rate.
func (c *RedisAggregateCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= 500 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("invalidate prefix %s: %w", prefix, err)
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan prefix %s: %w", prefix, err)
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("invalidate prefix %s: %w", prefix, err)
		}
	}
	return nil
}

func (c *RedisAggregateCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
