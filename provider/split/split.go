// Package split routes keys between a durable and a volatile provider.
//
// Keys selected by Durable (the discount overlay by default) go to the durable
// store; everything else is disposable view data and goes to the volatile one.
// Pattern deletes fan out to both, so purging an entity's id clears its views
// and its orphaned overlay entries together.
package split

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/unkn0wn-root/menusync/cachekey"
	pr "github.com/unkn0wn-root/menusync/provider"
)

type Provider struct {
	durable  pr.Provider
	volatile pr.Provider
	isDur    func(key string) bool
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	Durable  pr.Provider
	Volatile pr.Provider
	// IsDurable selects the keys kept in Durable. Nil selects discount overlay keys.
	IsDurable func(key string) bool
}

func New(cfg Config) (*Provider, error) {
	if cfg.Durable == nil || cfg.Volatile == nil {
		return nil, errors.New("split: both providers are required")
	}
	isDur := cfg.IsDurable
	if isDur == nil {
		isDur = func(key string) bool {
			return strings.HasPrefix(key, cachekey.DiscountPrefix+":")
		}
	}
	return &Provider{durable: cfg.Durable, volatile: cfg.Volatile, isDur: isDur}, nil
}

func (p *Provider) route(key string) pr.Provider {
	if p.isDur(key) {
		return p.durable
	}
	return p.volatile
}

func (p *Provider) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return p.route(key).Get(ctx, key)
}

func (p *Provider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return p.route(key).Set(ctx, key, value, ttl)
}

func (p *Provider) Del(ctx context.Context, keys ...string) error {
	var dur, vol []string
	for _, k := range keys {
		if p.isDur(k) {
			dur = append(dur, k)
		} else {
			vol = append(vol, k)
		}
	}
	var errs *multierror.Error
	if len(dur) > 0 {
		errs = multierror.Append(errs, p.durable.Del(ctx, dur...))
	}
	if len(vol) > 0 {
		errs = multierror.Append(errs, p.volatile.Del(ctx, vol...))
	}
	return errs.ErrorOrNil()
}

func (p *Provider) DelPattern(ctx context.Context, pattern string) (int, error) {
	var errs *multierror.Error
	n1, err := p.durable.DelPattern(ctx, pattern)
	errs = multierror.Append(errs, err)
	n2, err := p.volatile.DelPattern(ctx, pattern)
	errs = multierror.Append(errs, err)
	return n1 + n2, errs.ErrorOrNil()
}

func (p *Provider) Close(ctx context.Context) error {
	var errs *multierror.Error
	errs = multierror.Append(errs, p.volatile.Close(ctx))
	errs = multierror.Append(errs, p.durable.Close(ctx))
	return errs.ErrorOrNil()
}
