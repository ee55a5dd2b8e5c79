// Package store persists a built station index so queries can run without
// rebuilding it from raw topology.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gyaneshwarpardhi/metroreach/internal/config"
	"github.com/gyaneshwarpardhi/metroreach/internal/graph"
)

// Store saves and loads an index.
// Load returns an error wrapping graph.ErrIndexUnavailable when nothing has
// been persisted or the persisted form cannot be read.
type Store interface {
	Save(ctx context.Context, idx *graph.Index) error
	Load(ctx context.Context) (*graph.Index, error)
	Close() error
}

// Open returns the backend selected by cfg.
func Open(cfg config.IndexConf, logger *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFile(cfg.Path), nil
	case config.BackendBadger:
		return OpenBadger(BadgerConfig{
			Path:       cfg.Badger.Path,
			InMemory:   cfg.Badger.InMemory,
			SyncWrites: cfg.Badger.SyncWrites,
			Logger:     logger,
		})
	}
	return nil, fmt.Errorf("unknown index backend %q", cfg.Backend)
}

func unavailable(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", graph.ErrIndexUnavailable, what, err)
}
