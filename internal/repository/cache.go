// Package repository defines data access interfaces for Biblio.
package repository

import (
	"context"
	"strconv"
	"time"
)

// =============================================================================
// Cache Interface (Redis / in-memory)
// =============================================================================

// Cache defines the interface for caching point reads.
// Implemented by Redis for distributed deployments and by an in-memory
// cache for single-node ones.
type Cache interface {
	// Get retrieves a value by key.
	// Returns ErrCacheMiss if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with an optional TTL.
	// If ttl is 0, the value doesn't expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists.
	Exists(ctx context.Context, key string) (bool, error)
}

// CacheError represents a cache error type.
type CacheError string

const (
	// ErrCacheMiss indicates the key was not found in cache.
	ErrCacheMiss CacheError = "cache miss"

	// ErrCacheUnavailable indicates the cache is unavailable.
	ErrCacheUnavailable CacheError = "cache unavailable"
)

func (e CacheError) Error() string {
	return string(e)
}

// =============================================================================
// Common Cache Keys
// =============================================================================

// CacheKey generates cache keys for common scenarios.
type CacheKey struct{}

// User returns a cache key for user metadata.
func (CacheKey) User(id int64) string {
	return "cache:user:" + strconv.FormatInt(id, 10)
}

// Book returns a cache key for book metadata.
func (CacheKey) Book(id int64) string {
	return "cache:book:" + strconv.FormatInt(id, 10)
}
