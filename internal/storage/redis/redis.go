// Package redis is the Redis-backed calculation cache.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgredis "fabricquote/pkg/redis"
)

const keyPrefix = "calc"

// KV is the subset of the Redis client the cache needs.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// CalculationCache stores calculation results under "calc:<version>:<key>". Bumping the
// version orphans every earlier entry; TTL expiry then reclaims them.
type CalculationCache struct {
	kv      KV
	ttl     time.Duration
	version string
}

func NewCalculationCache(kv KV, ttl time.Duration, version string) *CalculationCache {
	if version == "" {
		version = "v1"
	}
	return &CalculationCache{kv: kv, ttl: ttl, version: version}
}

func (c *CalculationCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.kv.Get(ctx, c.buildKey(key))
	if errors.Is(err, pkgredis.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get calculation: %w", err)
	}
	return data, true, nil
}

func (c *CalculationCache) Upsert(ctx context.Context, key string, value []byte) error {
	if err := c.kv.Set(ctx, c.buildKey(key), value, c.ttl); err != nil {
		return fmt.Errorf("set calculation: %w", err)
	}
	return nil
}

func (c *CalculationCache) buildKey(key string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, c.version, key)
}
