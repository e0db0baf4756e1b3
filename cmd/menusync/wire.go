package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	goredis "github.com/redis/go-redis/v9"

	menusync "github.com/unkn0wn-root/menusync"
	"github.com/unkn0wn-root/menusync/catalog"
	"github.com/unkn0wn-root/menusync/catalog/memstore"
	"github.com/unkn0wn-root/menusync/catalog/pgstore"
	"github.com/unkn0wn-root/menusync/coherence"
	"github.com/unkn0wn-root/menusync/config"
	"github.com/unkn0wn-root/menusync/discount"
	gen "github.com/unkn0wn-root/menusync/genstore"
	asynchook "github.com/unkn0wn-root/menusync/hooks/async"
	logruslog "github.com/unkn0wn-root/menusync/log/logrus"
	sloglog "github.com/unkn0wn-root/menusync/log/slog"
	zaplog "github.com/unkn0wn-root/menusync/log/zap"
	pr "github.com/unkn0wn-root/menusync/provider"
	bcprov "github.com/unkn0wn-root/menusync/provider/bigcache"
	redisprov "github.com/unkn0wn-root/menusync/provider/redis"
	rprov "github.com/unkn0wn-root/menusync/provider/ristretto"
	"github.com/unkn0wn-root/menusync/provider/split"
	tcprov "github.com/unkn0wn-root/menusync/provider/ttlcache"
	"github.com/unkn0wn-root/menusync/reconcile"
	"github.com/unkn0wn-root/menusync/service"
	"github.com/unkn0wn-root/menusync/sloghooks"
	"github.com/unkn0wn-root/menusync/tablesource"
	"github.com/unkn0wn-root/menusync/views"
)

// app holds every wired component of one process.
type app struct {
	cfg     *config.Config
	log     menusync.Logger
	engine  *reconcile.Engine
	service *service.Service

	closers []func(context.Context) error
}

func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *app) onClose(f func(context.Context) error) { a.closers = append(a.closers, f) }

func build(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	a.log, err = newLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	var rdb goredis.UniversalClient
	if cfg.UsesRedis() {
		rdb = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		a.onClose(func(context.Context) error { return rdb.Close() })
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
	}

	provider, err := newProvider(ctx, cfg.Cache, rdb)
	if err != nil {
		return nil, fmt.Errorf("cache provider: %w", err)
	}

	var gens gen.GenStore
	if cfg.Cache.GenStore == "redis" {
		gens = gen.NewRedis(rdb, cfg.Cache.Namespace, false)
	}
	backend, err := views.NewBackend(views.Options{Provider: provider, GenStore: gens, Logger: a.log})
	if err != nil {
		return nil, err
	}
	a.onClose(backend.Close)

	store, err := newStore(ctx, a, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("catalog store: %w", err)
	}

	rawHooks := sloghooks.New(slog.Default(), sloghooks.Options{SkipEvery: 1, RetryEvery: 10})
	hooks := asynchook.New(rawHooks, 1, 1024)
	a.onClose(func(context.Context) error { hooks.Close(); return nil })

	overlay := discount.NewOverlay(backend.Provider())
	reader, err := views.NewReader(views.ReaderConfig{
		Store:      store,
		Overlay:    overlay,
		Backend:    backend,
		Codec:      cfg.Cache.Codec,
		TTL:        cfg.Cache.ViewTTL,
		MaxPayload: cfg.Cache.MaxPayload,
		Logger:     a.log,
	})
	if err != nil {
		return nil, err
	}

	manager := coherence.NewManager(backend, a.log, hooks)
	deferred := coherence.NewDeferred(manager, coherence.DeferredConfig{
		Workers:     cfg.Deferred.Workers,
		Queue:       cfg.Deferred.Queue,
		MaxAttempts: cfg.Deferred.MaxAttempts,
		Backoff:     cfg.Deferred.Backoff,
		Logger:      a.log,
		Hooks:       hooks,
	})
	a.onClose(deferred.Close)
	a.service = service.New(store, reader, deferred, a.log)

	src, err := newSource(ctx, cfg.Table)
	if err != nil {
		return nil, fmt.Errorf("table source: %w", err)
	}

	var locker reconcile.Locker = &reconcile.MutexLocker{}
	if cfg.Sync.Lock == "redis" {
		locker = reconcile.NewRedisLocker(rdb, cfg.Sync.LockKey, cfg.Sync.LockTTL)
	}
	a.engine, err = reconcile.New(reconcile.Config{
		Store:   store,
		Source:  src,
		Overlay: overlay,
		Cache:   manager,
		Locker:  locker,
		Logger:  a.log,
		Hooks:   hooks,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func newLogger(cfg config.LogConfig) (menusync.Logger, error) {
	switch cfg.Backend {
	case "zap":
		return zaplog.New(cfg.Level)
	case "logrus":
		return logruslog.New(os.Stderr, cfg.Level)
	default:
		l, err := sloglog.New(os.Stderr, cfg.Level)
		if err != nil {
			return nil, err
		}
		slog.SetDefault(l.L)
		return l, nil
	}
}

// newProvider builds the configured cache. Volatile providers are paired with
// the durable one so the discount overlay never lands where it could expire.
func newProvider(ctx context.Context, cfg config.CacheConfig, rdb goredis.UniversalClient) (pr.Provider, error) {
	durable := func() (pr.Provider, error) {
		if cfg.Durable == "redis" {
			return redisprov.New(redisprov.Config{Client: rdb})
		}
		return tcprov.New(tcprov.Config{Capacity: cfg.TTLCache.Capacity, Start: true}), nil
	}

	var volatile pr.Provider
	switch cfg.Provider {
	case "redis":
		return redisprov.New(redisprov.Config{Client: rdb})
	case "ttlcache":
		return tcprov.New(tcprov.Config{Capacity: cfg.TTLCache.Capacity, Start: true}), nil
	case "ristretto":
		p, err := rprov.New(rprov.Config{
			NumCounters: cfg.Ristretto.NumCounters,
			MaxCost:     cfg.Ristretto.MaxCost,
			BufferItems: cfg.Ristretto.BufferItems,
		})
		if err != nil {
			return nil, err
		}
		volatile = p
	case "bigcache":
		p, err := bcprov.New(ctx, bcprov.Config{
			LifeWindow:         cfg.Bigcache.LifeWindow,
			CleanWindow:        cfg.Bigcache.CleanWindow,
			MaxEntrySize:       cfg.Bigcache.MaxEntrySize,
			HardMaxCacheSizeMB: cfg.Bigcache.HardMaxMB,
		})
		if err != nil {
			return nil, err
		}
		volatile = p
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	d, err := durable()
	if err != nil {
		_ = volatile.Close(ctx)
		return nil, err
	}
	return split.New(split.Config{Durable: d, Volatile: volatile})
}

func newStore(ctx context.Context, a *app, cfg config.StoreConfig) (catalog.Store, error) {
	if cfg.Driver != "postgres" {
		return memstore.New(), nil
	}
	store, pool, err := pgstore.Open(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	a.onClose(func(context.Context) error { pool.Close(); return nil })
	return store, nil
}

func newSource(ctx context.Context, cfg config.TableConfig) (tablesource.Source, error) {
	if cfg.Source == "sheets" {
		return tablesource.NewSheetsSource(ctx, tablesource.SheetsConfig{
			SpreadsheetID:   cfg.SpreadsheetID,
			Range:           cfg.Range,
			CredentialsFile: cfg.CredentialsFile,
		})
	}
	return tablesource.CSVSource{Path: cfg.Path}, nil
}
