package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const scanBatch = 200

// ResponseCache implements ports.ResponseCache using Redis.
// Callers work with unprefixed keys; the prefix is applied here.
type ResponseCache struct {
	client    *goredis.Client
	prefix    string
	genPrefix string
}

// NewResponseCache creates a new Redis-backed response cache.
func NewResponseCache(client *goredis.Client) *ResponseCache {
	return &ResponseCache{
		client:    client,
		prefix:    "cache:",
		genPrefix: "cachegen:",
	}
}

// Get retrieves a cached payload. Returns nil, nil on a miss.
func (c *ResponseCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis cache get: %w", err)
	}
	return val, nil
}

// Set stores a payload with TTL.
func (c *ResponseCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis cache set: %w", err)
	}
	return nil
}

// Generation returns the invalidation counter of namespace, 0 if never bumped.
// Counters live outside the cache prefix so Reset never rewinds them.
func (c *ResponseCache) Generation(ctx context.Context, namespace string) (int64, error) {
	gen, err := c.client.Get(ctx, c.genPrefix+namespace).Int64()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis cache generation: %w", err)
	}
	return gen, nil
}

// BumpGeneration advances the counter of namespace.
func (c *ResponseCache) BumpGeneration(ctx context.Context, namespace string) error {
	if err := c.client.Incr(ctx, c.genPrefix+namespace).Err(); err != nil {
		return fmt.Errorf("redis cache bump generation: %w", err)
	}
	return nil
}

// SetIfGeneration stores value only while namespace is still at gen. The
// counter is watched, so a bump racing the write aborts it.
func (c *ResponseCache) SetIfGeneration(ctx context.Context, namespace string, gen int64, key string, value []byte, ttl time.Duration) (bool, error) {
	genKey := c.genPrefix + namespace
	stored := false
	err := c.client.Watch(ctx, func(tx *goredis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, c.prefix+key, value, ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, genKey)
	if errors.Is(err, goredis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis cache set: %w", err)
	}
	return stored, nil
}

// Keys lists keys matching a glob pattern using SCAN, so large keyspaces
// never block the server the way KEYS would.
func (c *ResponseCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, c.prefix+pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), c.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis cache scan %q: %w", pattern, err)
	}
	return keys, nil
}

// DelDirect deletes the given keys. Missing keys are ignored.
func (c *ResponseCache) DelDirect(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis cache del: %w", err)
	}
	return nil
}

// Reset deletes every key matching pattern and returns how many were removed.
func (c *ResponseCache) Reset(ctx context.Context, pattern string) (int64, error) {
	keys, err := c.Keys(ctx, pattern)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	n, err := c.client.Del(ctx, full...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis cache reset %q: %w", pattern, err)
	}
	return n, nil
}
