// Package provider defines the key-value store behind every cache family and
// the discount overlay.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key.
//
// Set with ttl <= 0 stores the value without expiry. The discount overlay depends
// on this: a provider that cannot keep a value indefinitely must say so by
// returning ErrNoExpiryUnsupported rather than silently evicting it.
package provider

import (
	"context"
	"errors"
	"path"
	"time"
)

var ErrNoExpiryUnsupported = errors.New("provider: values without expiry are not supported")

// Provider is a minimal byte store with TTLs and pattern deletes.
// Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL; ttl <= 0 means no expiry.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) (ok bool, err error)

	// Del removes keys. Missing keys are not an error.
	Del(ctx context.Context, keys ...string) error

	// DelPattern removes every key matching a glob pattern ("*", "?", "[...]")
	// and returns how many were removed.
	DelPattern(ctx context.Context, pattern string) (int, error)

	// Close releases resources.
	Close(ctx context.Context) error
}

// Match reports whether key matches the glob pattern used by DelPattern.
// Keys never contain '/', so path.Match has the same semantics as a redis MATCH.
func Match(pattern, key string) bool {
	ok, err := path.Match(pattern, key)
	return err == nil && ok
}
