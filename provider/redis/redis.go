package redis

import (
	"context"
	"errors"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pr "github.com/unkn0wn-root/menusync/provider"
)

var ErrNilClient = errors.New("redis provider: nil client")

const (
	defaultScanCount = 500
	delBatch         = 256
)

type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
	scanCount   int64
}

var _ pr.Provider = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this provider exclusively owns the client
	ScanCount   int64
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	sc := cfg.ScanCount
	if sc <= 0 {
		sc = defaultScanCount
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient, scanCount: sc}, nil
}

func (p *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := p.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (p *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = 0 // plain SET: no expiry, and any previous expiry is dropped
	}
	if err := p.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Redis) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return p.rdb.Del(ctx, keys...).Err()
}

// DelPattern walks the key space with SCAN and deletes matches in batches.
// On a cluster client every master is scanned.
func (p *Redis) DelPattern(ctx context.Context, pattern string) (int, error) {
	if cc, ok := p.rdb.(*goredis.ClusterClient); ok {
		var (
			mu    sync.Mutex
			total int
		)
		err := cc.ForEachMaster(ctx, func(ctx context.Context, node *goredis.Client) error {
			n, err := p.scanDel(ctx, node, pattern)
			mu.Lock()
			total += n
			mu.Unlock()
			return err
		})
		return total, err
	}
	return p.scanDel(ctx, p.rdb, pattern)
}

func (p *Redis) scanDel(ctx context.Context, c goredis.Cmdable, pattern string) (int, error) {
	var (
		removed int
		batch   = make([]string, 0, delBatch)
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := c.Del(ctx, batch...).Result()
		removed += int(n)
		batch = batch[:0]
		return err
	}
	it := c.Scan(ctx, 0, pattern, p.scanCount).Iterator()
	for it.Next(ctx) {
		batch = append(batch, it.Val())
		if len(batch) == delBatch {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := it.Err(); err != nil {
		return removed, err
	}
	return removed, flush()
}

// Close releases the underlying redis client only when this provider owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (p *Redis) Close(context.Context) error {
	if p.closeClient {
		if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
