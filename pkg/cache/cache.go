// Package cache stores analysis results keyed by snapshot content.
//
// A cached entry is only valid for the exact snapshot it was computed from:
// keys embed the snapshot hash (see category.Snapshot.Hash), so any change to
// categories or similarity links produces a new key and stale entries simply
// age out through their TTL.
//
// Three backends are provided:
//   - [FileCache] for CLI usage, stored under the user cache directory
//   - [RedisCache] for shared deployments of the API server
//   - [NullCache] when caching is disabled
//
// [BreakerCache] wraps a remote backend so an outage degrades to cache misses.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the stored value and whether it was found.
	// Expired entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default TTLs per entry type.
const (
	TTLAnalysis = 24 * time.Hour
	TTLTree     = time.Hour
)
