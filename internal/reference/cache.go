package reference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"rentawheel/pkg/model"

	"github.com/go-redis/redis/v8"
)

const cacheKey = "rentawheel:reference:static_data"

// Cache stores the reference catalog. Get reports a miss with ok=false and a
// nil error.
type Cache interface {
	Get(ctx context.Context) (model.ReferenceData, bool, error)
	Set(ctx context.Context, ref model.ReferenceData, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type MemoryCache struct {
	mu        sync.RWMutex
	ref       model.ReferenceData
	expiresAt time.Time
	now       func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{now: time.Now}
}

func (c *MemoryCache) Get(context.Context) (model.ReferenceData, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.expiresAt.IsZero() || !c.now().Before(c.expiresAt) {
		return model.ReferenceData{}, false, nil
	}
	return c.ref, true, nil
}

func (c *MemoryCache) Set(_ context.Context, ref model.ReferenceData, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ref = ref
	c.expiresAt = c.now().Add(ttl)
	return nil
}

func (c *MemoryCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ref = model.ReferenceData{}
	c.expiresAt = time.Time{}
	return nil
}

// RedisCache keeps the catalog as a JSON string so every console replica
// shares one copy.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context) (model.ReferenceData, bool, error) {
	raw, err := c.client.Get(ctx, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.ReferenceData{}, false, nil
	}
	if err != nil {
		return model.ReferenceData{}, false, fmt.Errorf("redis get: %w", err)
	}
	var ref model.ReferenceData
	if err := json.Unmarshal(raw, &ref); err != nil {
		return model.ReferenceData{}, false, fmt.Errorf("decode cached reference data: %w", err)
	}
	return ref, true, nil
}

func (c *RedisCache) Set(ctx context.Context, ref model.ReferenceData, ttl time.Duration) error {
	raw, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("encode reference data: %w", err)
	}
	return c.client.Set(ctx, cacheKey, raw, ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, cacheKey).Err()
}
