package cache

import "errors"

var (
	// ErrNotFound indicates that no cached response exists for the key.
	ErrNotFound = errors.New("cache entry not found")

	// ErrCacheClosed indicates that the cache is closed.
	ErrCacheClosed = errors.New("cache is closed")
)
