// Package memory provides an in-process cache.Store.
package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wayfarer-ai/wayfarer/pkg/cache"
	"github.com/wayfarer-ai/wayfarer/pkg/models"
)

type entryKey struct {
	namespace string
	key       string
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Cache is a mutex-guarded map with lazy expiry.
type Cache struct {
	mu      sync.RWMutex
	entries map[entryKey]entry
	now     cache.Clock
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates an empty Cache. A nil clock uses time.Now.
func New(now cache.Clock) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{entries: make(map[entryKey]entry), now: now}
}

// Get returns a copy of the stored value, or a miss if absent or expired.
func (c *Cache) Get(_ context.Context, namespace, key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[entryKey{namespace, key}]
	c.mu.RUnlock()

	if !ok || !c.now().Before(e.expiresAt) {
		c.misses.Add(1)
		return nil, false, nil
	}
	c.hits.Add(1)
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

// Set stores a copy of value until ttl elapses.
func (c *Cache) Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	if err := cache.CheckWrite(ctx, ttl); err != nil {
		return err
	}
	v := make([]byte, len(value))
	copy(v, value)

	c.mu.Lock()
	c.entries[entryKey{namespace, key}] = entry{value: v, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// Clear removes entries in namespace, or all entries if namespace is empty.
func (c *Cache) Clear(_ context.Context, namespace string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if namespace == "" {
		c.entries = make(map[entryKey]entry)
		return nil
	}
	for k := range c.entries {
		if k.namespace == namespace {
			delete(c.entries, k)
		}
	}
	return nil
}

// PurgeExpired drops expired entries.
func (c *Cache) PurgeExpired(_ context.Context) (int64, error) {
	now := c.now()
	var n int64
	c.mu.Lock()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			n++
		}
	}
	c.mu.Unlock()
	return n, nil
}

// Stats returns cache performance metrics.
func (c *Cache) Stats(_ context.Context) (models.CacheStats, error) {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	return models.CacheStats{
		Entries: int64(n),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}, nil
}

// Close is a no-op.
func (c *Cache) Close() error { return nil }
