package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aalvaropc/tether/internal/domain"
)

func TestLoad(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvAPIKey, "")

	cfg, err := Load(filepath.Join("testdata", "tether.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://api.internal.example.com", cfg.API.URL)
	assert.Equal(t, "secret-key", cfg.API.Key)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, 5, cfg.API.MaxRetries)
	assert.Equal(t, 60, cfg.API.RateLimit)
	assert.Equal(t, domain.StoreSQLite, cfg.Store.Driver)
	assert.Equal(t, "data/tether.db", cfg.Store.Path)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 6432, cfg.DB.Port)
	assert.Equal(t, "postgres", cfg.DB.Username, "unset fields keep defaults")
	assert.True(t, cfg.Features.Experimental)
	assert.False(t, cfg.Features.Caching)
	assert.True(t, cfg.Features.Metrics)
	assert.True(t, cfg.Log.Debug)
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join("testdata", "tether_invalid.yaml")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInvalidConfig))
	assert.Contains(t, err.Error(), "store.driver")
	assert.Contains(t, err.Error(), path)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvAPIKey, "")

	cfg, err := LoadRoot(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConfig(), cfg)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("tether: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInvalidConfig))
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv(EnvAPIURL, "https://env.example.com")
	t.Setenv(EnvAPIKey, "env-key")

	cfg, err := Load(filepath.Join("testdata", "tether.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.API.URL)
	assert.Equal(t, "env-key", cfg.API.Key)
}
