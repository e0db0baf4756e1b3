// Package ristretto is a volatile in-process provider. Ristretto may refuse or
// evict any entry under its admission policy, so it only accepts writes with a
// TTL; pair it with a durable provider through provider/split.
package ristretto

import (
	"context"
	"errors"
	"sync"
	"time"

	rc "github.com/dgraph-io/ristretto"

	pr "github.com/unkn0wn-root/menusync/provider"
)

// Provider keeps a side index of keys, since ristretto stores only key hashes
// and cannot enumerate them for DelPattern. Index entries for evicted keys are
// harmless: deleting a missing key is a no-op.
type Provider struct {
	c          *rc.Cache
	keys       sync.Map // string -> struct{}
	syncWrites bool
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64 // bytes; entry cost is len(value)
	BufferItems int64
	Metrics     bool
	// SyncWrites waits for the set buffer after each write so an immediate Get
	// observes it.
	SyncWrites bool
}

func New(cfg Config) (*Provider, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Provider{c: c, syncWrites: cfg.SyncWrites}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// self-heal: drop unexpected entry shape
		p.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, pr.ErrNoExpiryUnsupported
	}
	ok := p.c.SetWithTTL(key, value, int64(len(value)), ttl)
	if ok {
		p.keys.Store(key, struct{}{})
		if p.syncWrites {
			p.c.Wait()
		}
	}
	return ok, nil
}

func (p *Provider) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		p.c.Del(k)
		p.keys.Delete(k)
	}
	return nil
}

func (p *Provider) DelPattern(_ context.Context, pattern string) (int, error) {
	n := 0
	p.keys.Range(func(k, _ any) bool {
		key := k.(string)
		if pr.Match(pattern, key) {
			p.c.Del(key)
			p.keys.Delete(key)
			n++
		}
		return true
	})
	return n, nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// Metrics exposes ristretto's counters when Config.Metrics is set.
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }
