package config

import (
	"fmt"
	"strings"
)

// Validate checks the config for:
//   - A known index backend and topology format
//   - Non-negative engine settings and change budget
//   - A recognised log level and format
func Validate(cfg *Config) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	switch cfg.Index.Backend {
	case BackendFile:
		if cfg.Index.Path == "" {
			errs = append(errs, "index.path is required for the file backend")
		}
	case BackendBadger:
		if !cfg.Index.Badger.InMemory && cfg.Index.Badger.Path == "" {
			errs = append(errs, "index.badger.path is required unless in_memory is set")
		}
	default:
		errs = append(errs, fmt.Sprintf("index.backend: unknown backend %q (want file or badger)", cfg.Index.Backend))
	}

	switch strings.ToLower(cfg.Topology.Format) {
	case "", "json", "yaml", "yml":
	default:
		errs = append(errs, fmt.Sprintf("topology.format: unknown format %q", cfg.Topology.Format))
	}

	if cfg.Engine.QueryWorkers < 0 {
		errs = append(errs, "engine.query_workers must not be negative")
	}
	if cfg.Engine.QueueDepth < 0 {
		errs = append(errs, "engine.queue_depth must not be negative")
	}
	if cfg.Engine.QueryTimeoutMs < 0 {
		errs = append(errs, "engine.query_timeout_ms must not be negative")
	}
	if c := cfg.Search.DefaultMaxChanges; c != nil && *c < 0 {
		errs = append(errs, "search.default_max_changes must not be negative")
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level: unknown level %q", cfg.Log.Level))
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format: unknown format %q", cfg.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
