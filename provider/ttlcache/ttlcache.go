// Package ttlcache is an in-process provider on jellydator/ttlcache. It keeps
// values without expiry when asked to, so it can hold the discount overlay on a
// single node.
package ttlcache

import (
	"context"
	"sync"
	"time"

	tc "github.com/jellydator/ttlcache/v3"

	pr "github.com/unkn0wn-root/menusync/provider"
)

type Provider struct {
	c        *tc.Cache[string, []byte]
	stopOnce sync.Once
	started  bool
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	Capacity uint64 // 0 = unlimited
	// Start runs the background expiry loop. Expired items are never returned
	// either way; the loop only frees memory earlier.
	Start bool
}

func New(cfg Config) *Provider {
	opts := []tc.Option[string, []byte]{
		tc.WithDisableTouchOnHit[string, []byte](),
	}
	if cfg.Capacity > 0 {
		opts = append(opts, tc.WithCapacity[string, []byte](cfg.Capacity))
	}
	p := &Provider{c: tc.New[string, []byte](opts...)}
	if cfg.Start {
		p.started = true
		go p.c.Start()
	}
	return p
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	it := p.c.Get(key)
	if it == nil {
		return nil, false, nil
	}
	return it.Value(), true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = tc.NoTTL
	}
	p.c.Set(key, value, ttl)
	return true, nil
}

func (p *Provider) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		p.c.Delete(k)
	}
	return nil
}

func (p *Provider) DelPattern(_ context.Context, pattern string) (int, error) {
	n := 0
	for _, k := range p.c.Keys() {
		if pr.Match(pattern, k) {
			p.c.Delete(k)
			n++
		}
	}
	return n, nil
}

// Keys lists the live keys. Handy for tests and debugging.
func (p *Provider) Keys() []string { return p.c.Keys() }

func (p *Provider) Close(_ context.Context) error {
	p.stopOnce.Do(func() {
		if p.started {
			p.c.Stop()
		}
	})
	return nil
}
