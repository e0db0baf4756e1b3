// Package bigcache is a volatile in-process provider. BigCache evicts every
// entry after its global LifeWindow and has no per-entry TTL, so writes that ask
// for no expiry are refused; pair it with a durable provider through provider/split.
package bigcache

import (
	"context"
	"errors"
	"time"

	bc "github.com/allegro/bigcache/v3"

	pr "github.com/unkn0wn-root/menusync/provider"
)

type Provider struct {
	c *bc.BigCache
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	LifeWindow         time.Duration
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
}

func New(ctx context.Context, cfg Config) (*Provider, error) {
	conf := bc.DefaultConfig(cfg.LifeWindow)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.New(ctx, conf)
	if err != nil {
		return nil, err
	}
	return &Provider{c: c}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := p.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	return b, err == nil, err
}

// Set ignores ttl beyond refusing ttl <= 0; entries live for LifeWindow.
func (p *Provider) Set(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, pr.ErrNoExpiryUnsupported
	}
	return true, p.c.Set(key, value)
}

func (p *Provider) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		if err := p.c.Delete(k); err != nil && !errors.Is(err, bc.ErrEntryNotFound) {
			return err
		}
	}
	return nil
}

// DelPattern collects matches with the shard iterator first and deletes after,
// since the iterator holds shard locks while walking.
func (p *Provider) DelPattern(ctx context.Context, pattern string) (int, error) {
	var matched []string
	it := p.c.Iterator()
	for it.SetNext() {
		e, err := it.Value()
		if err != nil {
			// entry removed concurrently
			continue
		}
		if pr.Match(pattern, e.Key()) {
			matched = append(matched, e.Key())
		}
	}
	if err := p.Del(ctx, matched...); err != nil {
		return 0, err
	}
	return len(matched), nil
}

func (p *Provider) Close(_ context.Context) error {
	return p.c.Close()
}
