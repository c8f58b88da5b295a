// Package cache keeps the storefront product listing in Redis (cache-aside).
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"boutique-store/internal/model"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const productsKey = "products:all"

// Stats tracks cache statistics.
type Stats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Sets    uint64 `json:"sets"`
	Deletes uint64 `json:"deletes"`
	Errors  uint64 `json:"errors"`
}

// Catalog caches catalog reads. Redis failures degrade to a miss and are only logged.
type Catalog struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	stats  Stats
	log    *zap.Logger
}

func NewCatalog(client *redis.Client, prefix string, ttl time.Duration, log *zap.Logger) *Catalog {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Catalog{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		log:    log,
	}
}

func (c *Catalog) GetProducts(ctx context.Context) ([]model.Product, bool) {
	data, err := c.client.Get(ctx, c.prefix+productsKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			atomic.AddUint64(&c.stats.Errors, 1)
			c.log.Warn("Cache get failed", zap.Error(err))
		}
		atomic.AddUint64(&c.stats.Misses, 1)
		return nil, false
	}

	var products []model.Product
	if err := json.Unmarshal(data, &products); err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		atomic.AddUint64(&c.stats.Misses, 1)
		c.log.Warn("Cache entry is corrupt", zap.Error(err))
		return nil, false
	}

	atomic.AddUint64(&c.stats.Hits, 1)
	return products, true
}

func (c *Catalog) SetProducts(ctx context.Context, products []model.Product) {
	data, err := json.Marshal(products)
	if err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		c.log.Warn("Cache marshal failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.prefix+productsKey, data, c.ttl).Err(); err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		c.log.Warn("Cache set failed", zap.Error(err))
		return
	}
	atomic.AddUint64(&c.stats.Sets, 1)
}

func (c *Catalog) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, c.prefix+productsKey).Err(); err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		c.log.Warn("Cache invalidate failed", zap.Error(err))
		return
	}
	atomic.AddUint64(&c.stats.Deletes, 1)
}

// Stats returns a snapshot of the counters.
func (c *Catalog) Stats() Stats {
	return Stats{
		Hits:    atomic.LoadUint64(&c.stats.Hits),
		Misses:  atomic.LoadUint64(&c.stats.Misses),
		Sets:    atomic.LoadUint64(&c.stats.Sets),
		Deletes: atomic.LoadUint64(&c.stats.Deletes),
		Errors:  atomic.LoadUint64(&c.stats.Errors),
	}
}

// Ping checks if the Redis connection is healthy.
func (c *Catalog) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Catalog) Close() error {
	return c.client.Close()
}
