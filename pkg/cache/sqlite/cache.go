// Package sqlite provides a cache.Store persisted in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wayfarer-ai/wayfarer/pkg/cache"
	"github.com/wayfarer-ai/wayfarer/pkg/models"
)

// Cache is a namespaced section cache backed by SQLite.
type Cache struct {
	db     *sql.DB
	now    cache.Clock
	hits   atomic.Int64
	misses atomic.Int64
}

const createCacheTable = `
CREATE TABLE IF NOT EXISTS section_cache (
	namespace TEXT NOT NULL,
	cache_key TEXT NOT NULL,
	value BLOB NOT NULL,
	expires_at INTEGER NOT NULL,
	PRIMARY KEY (namespace, cache_key)
);
CREATE INDEX IF NOT EXISTS idx_section_cache_expires ON section_cache(expires_at);
`

// New opens (or creates) the cache database at dbPath.
func New(dbPath string) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	if _, err := db.Exec(createCacheTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	return &Cache{db: db, now: time.Now}, nil
}

// Get retrieves a cached value. Expired rows are reported as misses.
func (c *Cache) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	var value []byte
	var expiresAt int64

	err := c.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM section_cache WHERE namespace = ? AND cache_key = ?`,
		namespace, key,
	).Scan(&value, &expiresAt)

	if errors.Is(err, sql.ErrNoRows) {
		c.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		c.misses.Add(1)
		return nil, false, fmt.Errorf("%w: cache get: %w", cache.ErrUnavailable, err)
	}

	if c.now().UnixMilli() >= expiresAt {
		c.misses.Add(1)
		return nil, false, nil
	}

	c.hits.Add(1)
	return value, true, nil
}

// Set stores value under (namespace, key), replacing any existing row.
func (c *Cache) Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	if err := cache.CheckWrite(ctx, ttl); err != nil {
		return err
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO section_cache (namespace, cache_key, value, expires_at)
		 VALUES (?, ?, ?, ?)`,
		namespace, key, value, c.now().Add(ttl).UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("%w: cache set: %w", cache.ErrUnavailable, err)
	}
	return nil
}

// Stats returns cache performance metrics.
func (c *Cache) Stats(ctx context.Context) (models.CacheStats, error) {
	var count int64
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM section_cache`).Scan(&count)
	if err != nil {
		return models.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}
	return models.CacheStats{
		Entries: count,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}, nil
}

// Clear removes entries in namespace, or every entry if namespace is empty.
func (c *Cache) Clear(ctx context.Context, namespace string) error {
	var err error
	if namespace == "" {
		_, err = c.db.ExecContext(ctx, `DELETE FROM section_cache`)
	} else {
		_, err = c.db.ExecContext(ctx, `DELETE FROM section_cache WHERE namespace = ?`, namespace)
	}
	if err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// PurgeExpired removes expired rows.
func (c *Cache) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM section_cache WHERE expires_at <= ?`, c.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("cache purge: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}
