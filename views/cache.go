// Package views materializes read models of the catalog and caches them with
// per-key generations: a fill observes the generation before loading from the
// store and is dropped if an invalidation bumped it in the meantime.
package views

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	menusync "github.com/unkn0wn-root/menusync"
	c "github.com/unkn0wn-root/menusync/codec"
	gen "github.com/unkn0wn-root/menusync/genstore"
	"github.com/unkn0wn-root/menusync/internal/wire"
	pr "github.com/unkn0wn-root/menusync/provider"
)

const (
	DefaultTTL          = 100 * time.Second
	defaultGenRetention = 30 * 24 * time.Hour
	defaultSweep        = time.Hour
)

// Options configure a Backend. Only Provider is required.
type Options struct {
	Provider        pr.Provider
	GenStore        gen.GenStore    // nil => genstore.Local
	Logger          menusync.Logger // nil => NopLogger
	CleanupInterval time.Duration   // local gens sweep; 0 => 1h
	GenRetention    time.Duration   // 0 => 30d
	Disabled        bool
}

// Backend owns the provider and the generation store shared by every typed
// Cache. Invalidation is key-level, so it lives here rather than on Cache.
type Backend struct {
	provider pr.Provider
	gens     gen.GenStore
	log      menusync.Logger
	enabled  bool
}

func NewBackend(opts Options) (*Backend, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("views: provider is required")
	}
	b := &Backend{
		provider: opts.Provider,
		gens:     opts.GenStore,
		log:      menusync.OrNop(opts.Logger),
		enabled:  !opts.Disabled,
	}
	if b.gens == nil {
		b.gens = gen.NewLocal(
			menusync.Coalesce(opts.CleanupInterval, defaultSweep),
			menusync.Coalesce(opts.GenRetention, defaultGenRetention),
		)
	}
	return b, nil
}

func (b *Backend) Enabled() bool { return b.enabled }

// Provider exposes the underlying store for pattern deletes and the discount overlay.
func (b *Backend) Provider() pr.Provider { return b.provider }

// Invalidate bumps the generation of key and deletes its entry. Both steps
// are attempted; their errors are joined.
func (b *Backend) Invalidate(ctx context.Context, key string) error {
	if !b.enabled {
		return nil
	}
	var result *multierror.Error
	gens, err := b.gens.Bump(ctx, key)
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("bump gen: %w", err))
	}
	if err := b.provider.Del(ctx, key); err != nil {
		result = multierror.Append(result, fmt.Errorf("del: %w", err))
	}
	if len(gens) == 1 {
		b.log.Debug("invalidated key", menusync.Fields{"key": key, "gen": gens[0]})
	}
	return result.ErrorOrNil()
}

// DelPattern removes every entry matching pattern. Generations are untouched.
func (b *Backend) DelPattern(ctx context.Context, pattern string) (int, error) {
	if !b.enabled {
		return 0, nil
	}
	return b.provider.DelPattern(ctx, pattern)
}

// Close releases the generation store first, then the provider.
func (b *Backend) Close(ctx context.Context) error {
	var result *multierror.Error
	if err := b.gens.Close(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	if err := b.provider.Close(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// Cache is a typed view over a Backend.
type Cache[V any] struct {
	b     *Backend
	codec c.Codec[V]
	ttl   time.Duration
}

func NewCache[V any](b *Backend, codec c.Codec[V], ttl time.Duration) (*Cache[V], error) {
	if b == nil {
		return nil, fmt.Errorf("views: backend is required")
	}
	if codec == nil {
		return nil, fmt.Errorf("views: codec is required")
	}
	return &Cache[V]{b: b, codec: codec, ttl: menusync.Coalesce(ttl, DefaultTTL)}, nil
}

// Get returns the cached value. Corrupt, undecodable or stale entries are
// deleted and reported as a miss.
func (c *Cache[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	if !c.b.enabled {
		return zero, false, nil
	}
	raw, ok, err := c.b.provider.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	g, payload, err := wire.Decode(raw)
	if err != nil {
		c.heal(ctx, key, "corrupt frame", err)
		return zero, false, nil
	}
	cur, err := c.b.gens.Snapshot(ctx, key)
	if err != nil {
		c.b.log.Warn("gen snapshot error", menusync.Fields{"key": key, "err": err})
		return zero, false, nil
	}
	if g != cur {
		c.heal(ctx, key, "stale gen", nil)
		return zero, false, nil
	}
	v, err := c.codec.Decode(payload)
	if err != nil {
		c.heal(ctx, key, "decode", err)
		return zero, false, nil
	}
	return v, true, nil
}

// SnapshotGen returns the current generation of key. Callers must skip the
// subsequent SetWithGen when it fails.
func (c *Cache[V]) SnapshotGen(ctx context.Context, key string) (uint64, error) {
	return c.b.gens.Snapshot(ctx, key)
}

// SetWithGen writes value only if key's generation still equals observed.
func (c *Cache[V]) SetWithGen(ctx context.Context, key string, value V, observed uint64) error {
	if !c.b.enabled {
		return nil
	}
	cur, err := c.b.gens.Snapshot(ctx, key)
	if err != nil {
		return fmt.Errorf("views: snapshot %s: %w", key, err)
	}
	if cur != observed {
		c.b.log.Debug("SetWithGen skipped (gen mismatch)", menusync.Fields{"key": key, "obs": observed, "cur": cur})
		return nil
	}
	payload, err := c.codec.Encode(value)
	if err != nil {
		return err
	}
	ok, err := c.b.provider.Set(ctx, key, wire.Encode(observed, payload), c.ttl)
	if err != nil {
		return err
	}
	if !ok {
		c.b.log.Debug("SetWithGen rejected by provider (pressure)", menusync.Fields{"key": key})
	}
	return nil
}

func (c *Cache[V]) heal(ctx context.Context, key, reason string, cause error) {
	f := menusync.Fields{"key": key, "reason": reason}
	if cause != nil {
		f["err"] = cause
	}
	c.b.log.Debug("dropping cached entry", f)
	_ = c.b.provider.Del(ctx, key)
}
