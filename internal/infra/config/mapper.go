package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aalvaropc/tether/internal/domain"
)

// Map applies parsed YAML values on top of base.
func Map(path string, base domain.Config, y YAMLConfig) (domain.Config, error) {
	cfg := base
	t := y.Tether

	if s := strings.TrimSpace(t.API.URL); s != "" {
		u, err := url.Parse(s)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return base, invalidField(path, "api.url", fmt.Sprintf("invalid url %q", s))
		}
		cfg.API.URL = s
	}
	if t.API.Key != "" {
		cfg.API.Key = t.API.Key
	}
	if t.API.Timeout != "" {
		d, err := parseDuration(t.API.Timeout)
		if err != nil {
			return base, invalidField(path, "api.timeout", err.Error())
		}
		cfg.API.Timeout = d
	}
	if t.API.MaxRetries != nil {
		if *t.API.MaxRetries < 0 {
			return base, invalidField(path, "api.max_retries", "must be >= 0")
		}
		cfg.API.MaxRetries = *t.API.MaxRetries
	}
	if t.API.RateLimit != nil {
		if *t.API.RateLimit <= 0 {
			return base, invalidField(path, "api.rate_limit", "must be > 0")
		}
		cfg.API.RateLimit = *t.API.RateLimit
	}

	if t.Store.Driver != "" {
		d := domain.StoreDriver(strings.ToLower(t.Store.Driver))
		switch d {
		case domain.StoreMemory, domain.StoreSQLite, domain.StoreBadger:
			cfg.Store.Driver = d
		default:
			return base, invalidField(path, "store.driver", fmt.Sprintf("unsupported driver %q", t.Store.Driver))
		}
	}
	if t.Store.Path != "" {
		cfg.Store.Path = t.Store.Path
	}

	if t.Cache.Driver != "" {
		d := domain.CacheDriver(strings.ToLower(t.Cache.Driver))
		switch d {
		case domain.CacheMemory, domain.CacheRedis, domain.CacheNone:
			cfg.Cache.Driver = d
		default:
			return base, invalidField(path, "cache.driver", fmt.Sprintf("unsupported driver %q", t.Cache.Driver))
		}
	}
	if t.Cache.TTL != "" {
		d, err := parseDuration(t.Cache.TTL)
		if err != nil {
			return base, invalidField(path, "cache.ttl", err.Error())
		}
		cfg.Cache.TTL = d
	}
	if t.Cache.RedisAddr != "" {
		cfg.Cache.RedisAddr = t.Cache.RedisAddr
	}
	if t.Cache.RedisDB != nil {
		cfg.Cache.RedisDB = *t.Cache.RedisDB
	}
	if cfg.Cache.Driver == domain.CacheRedis && cfg.Cache.RedisAddr == "" {
		return base, invalidField(path, "cache.redis_addr", "required when cache.driver is redis")
	}

	if err := mapDB(path, &cfg.DB, t.DB); err != nil {
		return base, err
	}

	for name, on := range t.Features {
		if err := setFeature(&cfg.Features, name, on); err != nil {
			return base, invalidField(path, "features."+name, err.Error())
		}
	}

	if t.Log.Debug != nil {
		cfg.Log.Debug = *t.Log.Debug
	}
	if t.Log.Dir != "" {
		cfg.Log.Dir = t.Log.Dir
	}

	return cfg, nil
}

func mapDB(path string, db *domain.DBConfig, y YAMLDB) error {
	if y.Host != "" {
		db.Host = y.Host
	}
	if y.Port != nil {
		if *y.Port <= 0 || *y.Port > 65535 {
			return invalidField(path, "db.port", "must be between 1 and 65535")
		}
		db.Port = *y.Port
	}
	if y.Username != "" {
		db.Username = y.Username
	}
	if y.Password != "" {
		db.Password = y.Password
	}
	if y.Database != "" {
		db.Database = y.Database
	}
	if y.MaxConnections != nil {
		db.MaxConnections = *y.MaxConnections
	}
	if y.ConnectionTimeout != "" {
		d, err := parseDuration(y.ConnectionTimeout)
		if err != nil {
			return invalidField(path, "db.connection_timeout", err.Error())
		}
		db.ConnectionTimeout = d
	}
	return nil
}

func setFeature(f *domain.FeatureFlags, name string, on bool) error {
	switch name {
	case domain.FeatureAdvancedSearch:
		f.AdvancedSearch = on
	case domain.FeatureCaching:
		f.Caching = on
	case domain.FeatureMetrics:
		f.Metrics = on
	case domain.FeatureRateLimiting:
		f.RateLimiting = on
	case domain.FeatureExperimental:
		f.Experimental = on
	default:
		return fmt.Errorf("unknown feature")
	}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive")
	}
	return d, nil
}

func invalidField(path, field, msg string) error {
	return &domain.OpError{
		Op:   "config.map",
		Kind: domain.KindInvalidConfig,
		Path: path,
		Err:  fmt.Errorf("field %s: %s: %w", field, msg, domain.ErrInvalidConfig),
	}
}
