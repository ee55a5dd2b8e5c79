package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	c := &Config{Version: "v1"}
	applyDefaults(c)
	return c
}

// Load reads the YAML file at path and applies defaults.
// A missing file is not an error: the defaults are returned.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = "v1"
	}
	if cfg.Topology.Path == "" {
		cfg.Topology.Path = "data/raw_subway_info.json"
	}
	if cfg.Index.Backend == "" {
		cfg.Index.Backend = BackendFile
	}
	if cfg.Index.Path == "" {
		cfg.Index.Path = "data/subway_info.json"
	}
	if cfg.Index.Badger.Path == "" {
		cfg.Index.Badger.Path = "data/index.badger"
	}
	if cfg.Engine.QueryWorkers == 0 {
		cfg.Engine.QueryWorkers = 8
	}
	if cfg.Engine.QueueDepth == 0 {
		cfg.Engine.QueueDepth = 1000
	}
	if cfg.Engine.QueryTimeoutMs == 0 {
		cfg.Engine.QueryTimeoutMs = 2000
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
