package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"

	"github.com/aalvaropc/tether/internal/domain"
)

const defaultPrefix = "tether:resources"

// Redis keeps entries under a generation number. Invalidate bumps the
// generation so older keys are never read again and expire on their own.
type Redis struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	prefix string
}

func NewRedis(rdb redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl, prefix: defaultPrefix}
}

// DialRedis connects and pings.
func DialRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, cacheError("cache.dial", addr, err)
	}
	return rdb, nil
}

func (c *Redis) genKey() string { return c.prefix + ":gen" }

func (c *Redis) itemKey(gen int64, id string) string {
	return fmt.Sprintf("%s:%d:item:%016x", c.prefix, gen, xxhash.Sum64String(id))
}

func (c *Redis) listKey(gen int64) string {
	return fmt.Sprintf("%s:%d:list", c.prefix, gen)
}

func (c *Redis) generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, c.genKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *Redis) Get(ctx context.Context, id string) (domain.Resource, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return domain.Resource{}, false, cacheError("cache.get", id, err)
	}
	b, err := c.rdb.Get(ctx, c.itemKey(gen, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Resource{}, false, nil
	}
	if err != nil {
		return domain.Resource{}, false, cacheError("cache.get", id, err)
	}

	var r domain.Resource
	if err := json.Unmarshal(b, &r); err != nil {
		return domain.Resource{}, false, &domain.OpError{Op: "cache.get", Kind: domain.KindProcessing, Path: id, Err: err}
	}
	// xxhash collisions are possible in theory.
	if r.ID != id {
		return domain.Resource{}, false, nil
	}
	return r, true, nil
}

func (c *Redis) Snapshot(ctx context.Context) ([]domain.Resource, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, false, cacheError("cache.snapshot", "", err)
	}
	b, err := c.rdb.Get(ctx, c.listKey(gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, cacheError("cache.snapshot", "", err)
	}

	var out []domain.Resource
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, false, &domain.OpError{Op: "cache.snapshot", Kind: domain.KindProcessing, Err: err}
	}
	return out, true, nil
}

func (c *Redis) Store(ctx context.Context, items []domain.Resource, complete bool) error {
	gen, err := c.generation(ctx)
	if err != nil {
		return cacheError("cache.store", "", err)
	}

	_, err = c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, r := range items {
			b, err := json.Marshal(r)
			if err != nil {
				return err
			}
			p.Set(ctx, c.itemKey(gen, r.ID), b, c.ttl)
		}
		if complete {
			b, err := json.Marshal(items)
			if err != nil {
				return err
			}
			p.Set(ctx, c.listKey(gen), b, c.ttl)
		}
		return nil
	})
	if err != nil {
		return cacheError("cache.store", "", err)
	}
	return nil
}

func (c *Redis) Invalidate(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, c.genKey()).Err(); err != nil {
		return cacheError("cache.invalidate", "", err)
	}
	return nil
}

func cacheError(op, path string, err error) error {
	return &domain.OpError{Op: op, Kind: domain.KindExternalService, Path: path, Err: err}
}
