// Package cache provides key/value caching for liveness probe results.
//
// Probing a URL costs up to one network timeout, and the same dependency or
// CI badge URL tends to appear in many repositories of a batch. The [Cache]
// interface lets probe results be reused across records and across runs.
//
// # Backends
//
//   - [FileCache]: JSON files under the user cache directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the HTTP server or
//     several workers on different hosts
//   - [NullCache]: never stores anything, for --no-cache and tests
//
// # Keys
//
// Keys are produced by a [Keyer] so that every component derives the same
// key for the same probe. Use [NewScopedKeyer] to namespace keys when
// several deployments share one Redis database.
package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// Cache stores opaque byte values with an optional time-to-live.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. A ttl of zero on Set means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// DefaultDir returns the directory used by the CLI file cache:
// $XDG_CACHE_HOME/metacheck, or the platform user cache directory.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "metacheck"), nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "metacheck"), nil
}
