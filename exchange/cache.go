package exchange

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// PairCache memoizes native-pair → BASE-QUOTE resolutions. Kraken is the
// only adapter that needs a network lookup to normalize a pair; the
// mapping is static reference data, so cache hits save a public API call
// per order.
type PairCache interface {
	GetPair(ctx context.Context, native string) (string, bool)
	PutPair(ctx context.Context, native, normalized string)
}

// MemoryPairCache 进程内实现，未配置 Redis 时的兜底。
type MemoryPairCache struct {
	mu    sync.RWMutex
	pairs map[string]string
}

func NewMemoryPairCache() *MemoryPairCache {
	return &MemoryPairCache{pairs: make(map[string]string)}
}

func (c *MemoryPairCache) GetPair(_ context.Context, native string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.pairs[native]
	return p, ok
}

func (c *MemoryPairCache) PutPair(_ context.Context, native, normalized string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pairs[native] = normalized
}

// RedisPairCache shares resolutions across restarts and instances.
// Redis errors degrade to cache misses; the adapter falls back to the
// public lookup, never fails on the cache.
type RedisPairCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPairCache(addr string) *RedisPairCache {
	return &RedisPairCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    7 * 24 * time.Hour,
	}
}

func (c *RedisPairCache) key(native string) string {
	return "ordernotify:pair:" + native
}

func (c *RedisPairCache) GetPair(ctx context.Context, native string) (string, bool) {
	v, err := c.client.Get(ctx, c.key(native)).Result()
	if err != nil {
		return "", false
	}
	return v, true
}

func (c *RedisPairCache) PutPair(ctx context.Context, native, normalized string) {
	c.client.Set(ctx, c.key(native), normalized, c.ttl)
}
