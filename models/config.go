package models

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds client configuration loaded from config.yaml, overridable by
// CLI flags and environment variables.
type Config struct {
	ServerURL   string `yaml:"server_url"`
	CacheDir    string `yaml:"cache_dir"`
	SyncWorkers int    `yaml:"sync_workers"`
}

const (
	DefaultServerURL   = "http://localhost:8000"
	DefaultSyncWorkers = 4
)

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() Config {
	return Config{
		ServerURL:   DefaultServerURL,
		CacheDir:    defaultCacheDir(),
		SyncWorkers: DefaultSyncWorkers,
	}
}

// LoadConfig reads a YAML config file, filling unset fields with defaults.
// A missing file is not an error; the defaults are returned.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = defaultCacheDir()
	}
	if cfg.SyncWorkers <= 0 {
		cfg.SyncWorkers = DefaultSyncWorkers
	}
	return cfg, nil
}

// TokenPath returns where the session token is persisted between runs.
func (c Config) TokenPath() string {
	return filepath.Join(c.CacheDir, "session-token")
}

// CachePath returns the SQLite database path for the offline cache.
func (c Config) CachePath() string {
	return filepath.Join(c.CacheDir, "recipesmd.db")
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "recipesmd")
	}
	return ".recipesmd"
}
