package cache

import (
	"context"
	"fmt"

	"github.com/aalvaropc/tether/internal/domain"
	"github.com/aalvaropc/tether/internal/ports"
)

// Open returns the cache selected by cfg and a func releasing it. The
// caching feature flag off means no cache at all.
func Open(ctx context.Context, cfg domain.CacheConfig, features domain.FeatureFlags) (ports.ResourceCache, func() error, error) {
	noop := func() error { return nil }
	if !features.Caching {
		return None{}, noop, nil
	}

	switch cfg.Driver {
	case domain.CacheMemory, "":
		return NewMemory(cfg.TTL), noop, nil
	case domain.CacheNone:
		return None{}, noop, nil
	case domain.CacheRedis:
		rdb, err := DialRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return NewRedis(rdb, cfg.TTL), rdb.Close, nil
	default:
		return nil, nil, &domain.OpError{
			Op:   "cache.open",
			Kind: domain.KindInvalidConfig,
			Err:  fmt.Errorf("unknown cache driver %q", cfg.Driver),
		}
	}
}
