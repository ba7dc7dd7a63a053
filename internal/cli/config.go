package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds user-level settings read from the config file. All fields
// are optional; zero values fall back to built-in defaults.
type Config struct {
	// CacheBackend selects the cache implementation: "file" (default),
	// "redis", "mongo", or "none".
	CacheBackend string `toml:"cache_backend"`

	// Redis settings, used when CacheBackend is "redis".
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	// MongoURI is the connection string, used when CacheBackend is "mongo".
	MongoURI string `toml:"mongo_uri"`

	// Addr is the default listen address for the serve command.
	Addr string `toml:"addr"`

	// Formats is the default output format list for analyze.
	Formats []string `toml:"formats"`
}

// LoadConfig reads the config file from the XDG config directory
// (~/.config/critlens/config.toml). A missing file yields an empty config
// and no error; a malformed file yields an empty config and the parse
// error so callers can warn without failing.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	path, err := configPath()
	if err != nil {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return &Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// configPath returns the config file path using XDG standard.
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}
