package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/aalvaropc/tether/internal/domain"
)

// FileName is the workspace configuration file.
const FileName = "tether.yaml"

// Environment variables that override the file.
const (
	EnvAPIURL = "TETHER_API_URL"
	EnvAPIKey = "TETHER_API_KEY"
)

// Load reads path and applies it over domain.DefaultConfig. A missing file
// is not an error: defaults (plus env overrides) are returned.
func Load(path string) (domain.Config, error) {
	cfg := domain.DefaultConfig()

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ApplyEnv(cfg, os.LookupEnv), nil
		}
		return cfg, &domain.OpError{
			Op:   "config.load",
			Kind: domain.KindNotFound,
			Path: path,
			Err:  err,
		}
	}

	var y YAMLConfig
	if err := yaml.Unmarshal(b, &y); err != nil {
		return cfg, &domain.OpError{
			Op:   "config.load",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}

	cfg, err = Map(path, cfg, y)
	if err != nil {
		return cfg, err
	}
	return ApplyEnv(cfg, os.LookupEnv), nil
}

// LoadRoot loads tether.yaml from a workspace root.
func LoadRoot(root string) (domain.Config, error) {
	return Load(filepath.Join(root, FileName))
}

// ApplyEnv overlays TETHER_API_URL and TETHER_API_KEY.
func ApplyEnv(cfg domain.Config, lookup func(string) (string, bool)) domain.Config {
	if v, ok := lookup(EnvAPIURL); ok && v != "" {
		cfg.API.URL = v
	}
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		cfg.API.Key = v
	}
	return cfg
}
