package domain

import (
	"fmt"
	"time"
)

// Config is the full tether configuration, normally loaded from tether.yaml.
type Config struct {
	API      APIConfig
	Store    StoreConfig
	Cache    CacheConfig
	DB       DBConfig
	Features FeatureFlags
	Log      LogConfig
}

type APIConfig struct {
	URL        string
	Key        string // empty means no Authorization header
	Timeout    time.Duration
	MaxRetries int
	// RateLimit is the client-side budget in requests per minute.
	RateLimit int
}

type StoreDriver string

const (
	StoreMemory StoreDriver = "memory"
	StoreSQLite StoreDriver = "sqlite"
	StoreBadger StoreDriver = "badger"
)

type StoreConfig struct {
	Driver StoreDriver
	// Path is the sqlite file or badger directory, relative to the workspace root.
	Path string
}

type CacheDriver string

const (
	CacheMemory CacheDriver = "memory"
	CacheRedis  CacheDriver = "redis"
	CacheNone   CacheDriver = "none"
)

type CacheConfig struct {
	Driver    CacheDriver
	TTL       time.Duration
	RedisAddr string
	RedisDB   int
}

type LogConfig struct {
	Debug bool
	Dir   string
}

// DBConfig describes an external SQL database. Only the connection string is
// consumed; the local stores use StoreConfig.
type DBConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	Database          string
	MaxConnections    int
	ConnectionTimeout time.Duration
}

func (c DBConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", c.Username, c.Password, c.Host, c.Port, c.Database)
}

const (
	DefaultAPIURL     = "https://api.example.com"
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRateLimit  = 100
	DefaultCacheTTL   = 5 * time.Minute
)

// DefaultConfig provides sane defaults if tether.yaml is partially missing.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			URL:        DefaultAPIURL,
			Timeout:    DefaultTimeout,
			MaxRetries: DefaultMaxRetries,
			RateLimit:  DefaultRateLimit,
		},
		Store: StoreConfig{
			Driver: StoreMemory,
			Path:   "data",
		},
		Cache: CacheConfig{
			Driver: CacheMemory,
			TTL:    DefaultCacheTTL,
		},
		DB:       DefaultDBConfig(),
		Features: DefaultFeatureFlags(),
		Log: LogConfig{
			Dir: ".tether/logs",
		},
	}
}

func DefaultDBConfig() DBConfig {
	return DBConfig{
		Host:              "localhost",
		Port:              5432,
		Username:          "postgres",
		Password:          "password",
		Database:          "app_db",
		MaxConnections:    10,
		ConnectionTimeout: 5 * time.Second,
	}
}

// NewConfig returns the defaults with the given API URL and key applied.
// Nil arguments keep the default.
func NewConfig(apiURL, apiKey *string) Config {
	cfg := DefaultConfig()
	if apiURL != nil {
		cfg.API.URL = *apiURL
	}
	if apiKey != nil {
		cfg.API.Key = *apiKey
	}
	return cfg
}
