package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	cacheKeyProducts = "cachedProducts"
	cacheKeyCachedAt = "cachedAt"
)

// Cache is a short-lived advisory snapshot cache. It lets a fresh process
// serve a listing before the live subscription delivers its first emission;
// live emissions always supersede it.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
	group  singleflight.Group
}

// NewCache constructs a Cache with the given freshness window.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl, now: time.Now}
}

// SetClock overrides the time source, for tests.
func (c *Cache) SetClock(now func() time.Time) {
	if now != nil {
		c.now = now
	}
}

// Load returns the cached snapshot when it is still inside the freshness
// window. Any read or decode problem is a plain miss.
func (c *Cache) Load(ctx context.Context) ([]Product, bool) {
	cachedAt, err := c.client.Get(ctx, cacheKeyCachedAt).Result()
	if err != nil {
		return nil, false
	}
	millis, err := strconv.ParseInt(cachedAt, 10, 64)
	if err != nil {
		return nil, false
	}
	if c.now().UnixMilli()-millis > c.ttl.Milliseconds() {
		return nil, false
	}

	raw, err := c.client.Get(ctx, cacheKeyProducts).Bytes()
	if err != nil {
		return nil, false
	}
	var products []Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, false
	}
	return products, true
}

// Store replaces the cached snapshot and its freshness marker.
func (c *Cache) Store(ctx context.Context, products []Product) error {
	raw, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("catalog: encode cache: %w", err)
	}
	expiry := 2 * c.ttl
	if err := c.client.Set(ctx, cacheKeyProducts, raw, expiry).Err(); err != nil {
		return fmt.Errorf("catalog: store cache: %w", err)
	}
	at := strconv.FormatInt(c.now().UnixMilli(), 10)
	if err := c.client.Set(ctx, cacheKeyCachedAt, at, expiry).Err(); err != nil {
		return fmt.Errorf("catalog: store cache marker: %w", err)
	}
	return nil
}

// Warm returns a fresh snapshot, filling the cache through fill when the
// cached copy is stale. Concurrent warms collapse into a single fill.
func (c *Cache) Warm(ctx context.Context, fill func(context.Context) ([]Product, error)) ([]Product, error) {
	result, err, _ := c.group.Do("warm", func() (any, error) {
		if products, ok := c.Load(ctx); ok {
			return products, nil
		}
		products, err := fill(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Store(ctx, products); err != nil {
			return nil, err
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Product), nil
}
