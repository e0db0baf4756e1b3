package genstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis shares generations across replicas and survives restarts.
//
// All generations of a namespace live in one hash ("gen:<ns>"), so pattern
// deletes over cache keys, which match on entity ids, never touch them.
type Redis struct {
	rdb         redis.UniversalClient
	hash        string
	closeClient bool
}

var _ GenStore = (*Redis)(nil)

func NewRedis(client redis.UniversalClient, namespace string, closeClient bool) *Redis {
	return &Redis{rdb: client, hash: "gen:" + namespace, closeClient: closeClient}
}

func (s *Redis) Snapshot(ctx context.Context, key string) (uint64, error) {
	res, err := s.rdb.HGet(ctx, s.hash, key).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	u, err := strconv.ParseUint(res, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis gen parse %s: %w", key, err)
	}
	return u, nil
}

// Bump pipelines one HINCRBY per key in a single round-trip.
func (s *Redis) Bump(ctx context.Context, keys ...string) ([]uint64, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	cmds := make([]*redis.IntCmd, len(keys))
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, k := range keys {
			cmds[i] = p.HIncrBy(ctx, s.hash, k, 1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]uint64, len(keys))
	for i, c := range cmds {
		out[i] = uint64(c.Val())
	}
	return out, nil
}

// Cleanup is not applicable; the hash holds one small counter per view key.
func (s *Redis) Cleanup(time.Duration) {}

func (s *Redis) Close(context.Context) error {
	if s.closeClient {
		return s.rdb.Close()
	}
	return nil
}
