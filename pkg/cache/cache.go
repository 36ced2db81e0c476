// Package cache defines the namespaced key-value store used to memoize
// provider results between generation runs.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/wayfarer-ai/wayfarer/pkg/models"
)

// ErrUnavailable wraps backend failures. Callers treat it as a miss.
var ErrUnavailable = errors.New("cache unavailable")

// DefaultTTL applies to namespaces missing from a TTLTable.
const DefaultTTL = time.Hour

// Store is a namespaced key-value cache with per-entry expiry.
// Expired entries are never returned. Set replaces the whole value.
type Store interface {
	Get(ctx context.Context, namespace, key string) ([]byte, bool, error)
	// Set rejects writes whose context is already done.
	Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error
	// Clear removes every entry in namespace, or all entries when namespace is empty.
	Clear(ctx context.Context, namespace string) error
	// PurgeExpired removes expired entries and returns how many were removed.
	PurgeExpired(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (models.CacheStats, error)
	Close() error
}

// TTLTable maps a namespace to the lifetime of its entries.
type TTLTable map[string]time.Duration

// DefaultTTLs returns the freshness window of each section's content.
func DefaultTTLs() TTLTable {
	return TTLTable{
		string(models.SectionWeather):       3 * time.Hour,
		string(models.SectionEvents):        12 * time.Hour,
		string(models.SectionItinerary):     24 * time.Hour,
		string(models.SectionRestaurants):   7 * 24 * time.Hour,
		string(models.SectionAttractions):   7 * 24 * time.Hour,
		string(models.SectionNeighborhoods): 30 * 24 * time.Hour,
		string(models.SectionPracticalInfo): 30 * 24 * time.Hour,
	}
}

// For returns the TTL for namespace.
func (t TTLTable) For(namespace string) time.Duration {
	if ttl, ok := t[namespace]; ok && ttl > 0 {
		return ttl
	}
	return DefaultTTL
}

// Clock returns the current time. Backends accept one so expiry can be tested.
type Clock func() time.Time

// CheckWrite is called by backends before a Set touches storage. Writes
// after cancellation or with a non-positive TTL are rejected.
func CheckWrite(ctx context.Context, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		return errors.New("cache set: ttl must be positive")
	}
	return nil
}
