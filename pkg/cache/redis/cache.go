// Package redis provides a cache.Store backed by a Redis server, so several
// service instances share one cache.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/wayfarer-ai/wayfarer/pkg/cache"
	"github.com/wayfarer-ai/wayfarer/pkg/models"
)

const defaultPrefix = "wayfarer:cache"

// Cache stores entries as plain string keys with a native Redis expiry.
type Cache struct {
	rdb    goredis.UniversalClient
	prefix string
	hits   atomic.Int64
	misses atomic.Int64
}

// New wraps an existing client.
func New(rdb goredis.UniversalClient) *Cache {
	return &Cache{rdb: rdb, prefix: defaultPrefix}
}

// NewFromURL connects using a redis:// URL.
func NewFromURL(url string) (*Cache, error) {
	opt, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return New(goredis.NewClient(opt)), nil
}

func (c *Cache) key(namespace, key string) string {
	return c.prefix + ":" + namespace + ":" + key
}

// Get returns the value stored under (namespace, key).
func (c *Cache) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	data, err := c.rdb.Get(ctx, c.key(namespace, key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		c.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		c.misses.Add(1)
		return nil, false, fmt.Errorf("%w: cache get: %w", cache.ErrUnavailable, err)
	}
	c.hits.Add(1)
	return data, true, nil
}

// Set writes value with a Redis-side expiry of ttl.
func (c *Cache) Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	if err := cache.CheckWrite(ctx, ttl); err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, c.key(namespace, key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: cache set: %w", cache.ErrUnavailable, err)
	}
	return nil
}

func (c *Cache) pattern(namespace string) string {
	if namespace == "" {
		return c.prefix + ":*"
	}
	return c.prefix + ":" + namespace + ":*"
}

// Clear deletes matching keys using SCAN so the server is never blocked by KEYS.
func (c *Cache) Clear(ctx context.Context, namespace string) error {
	iter := c.rdb.Scan(ctx, 0, c.pattern(namespace), 200).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 200 {
			if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("cache clear: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	if len(batch) > 0 {
		if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("cache clear: %w", err)
		}
	}
	return nil
}

// PurgeExpired is a no-op: Redis expires keys itself.
func (c *Cache) PurgeExpired(context.Context) (int64, error) {
	return 0, nil
}

// Stats counts keys under the cache prefix.
func (c *Cache) Stats(ctx context.Context) (models.CacheStats, error) {
	var count int64
	iter := c.rdb.Scan(ctx, 0, c.pattern(""), 500).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return models.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}
	return models.CacheStats{
		Entries: count,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}, nil
}

// Close closes the underlying client.
func (c *Cache) Close() error {
	return c.rdb.Close()
}
