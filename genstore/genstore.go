// Package genstore keeps a generation counter per cache key.
//
// Invalidating a key bumps its generation. A read-through fill snapshots the
// generation before loading from the database and writes only if it is still
// current, so a fill racing an invalidation cannot resurrect a stale view.
package genstore

import (
	"context"
	"time"
)

// GenStore abstracts where generations live. Missing keys are generation 0.
type GenStore interface {
	Snapshot(ctx context.Context, key string) (uint64, error)
	// Bump atomically increments and returns the new generations, in key order.
	Bump(ctx context.Context, keys ...string) ([]uint64, error)
	// Cleanup prunes metadata untouched for longer than retention, if applicable.
	Cleanup(retention time.Duration)
	Close(context.Context) error
}
