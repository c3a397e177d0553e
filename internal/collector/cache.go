package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"MarketPulse/internal/logger"
	"MarketPulse/internal/model"
)

// Cache stores coordinator results keyed by (symbol, period, provider).
type Cache interface {
	Get(ctx context.Context, key string) (model.ProviderResult, bool)
	Set(ctx context.Context, key string, r model.ProviderResult, ttl time.Duration)
}

// CacheKey builds the lookup key of one request.
func CacheKey(symbol string, period model.Period, kind model.ProviderKind) string {
	return fmt.Sprintf("%s|%s|%s", symbol, period, kind)
}

type memoryEntry struct {
	result  model.ProviderResult
	expires time.Time
}

// MemoryCache is an in-process TTL cache.
type MemoryCache struct {
	mu    sync.Mutex
	items map[string]memoryEntry
	now   func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]memoryEntry), now: time.Now}
}

// WithClock replaces the cache's time source.
func (c *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	c.now = now
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) (model.ProviderResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		return model.ProviderResult{}, false
	}
	if !c.now().Before(e.expires) {
		delete(c.items, key)
		return model.ProviderResult{}, false
	}
	return e.result, true
}

func (c *MemoryCache) Set(_ context.Context, key string, r model.ProviderResult, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = memoryEntry{result: r, expires: c.now().Add(ttl)}
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// RedisCache stores results as JSON with a Redis TTL. Redis failures are
// logged and treated as misses.
type RedisCache struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisCache(rdb redis.UniversalClient, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "marketpulse:series:"
	}
	return &RedisCache{rdb: rdb, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) (model.ProviderResult, bool) {
	data, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Get().Warnf("[cache] redis get %s: %v", key, err)
		}
		return model.ProviderResult{}, false
	}
	var r model.ProviderResult
	if err := json.Unmarshal(data, &r); err != nil {
		logger.Get().Warnf("[cache] decode %s: %v", key, err)
		return model.ProviderResult{}, false
	}
	return r, true
}

func (c *RedisCache) Set(ctx context.Context, key string, r model.ProviderResult, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(r)
	if err != nil {
		logger.Get().Warnf("[cache] encode %s: %v", key, err)
		return
	}
	if err := c.rdb.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		logger.Get().Warnf("[cache] redis set %s: %v", key, err)
	}
}
