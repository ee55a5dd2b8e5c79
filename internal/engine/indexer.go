package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gyaneshwarpardhi/metroreach/internal/graph"
	"github.com/gyaneshwarpardhi/metroreach/internal/store"
	"github.com/gyaneshwarpardhi/metroreach/internal/topology"
)

// Rebuild builds a fresh index from t, persists it when st is non-nil and
// installs it. A failed build leaves the current index in place; a failed
// save is returned but the new index is still installed.
func (e *Engine) Rebuild(ctx context.Context, t *topology.Topology, st store.Store, source string) (*graph.Index, error) {
	start := time.Now()
	idx, err := graph.Build(t)
	if err != nil {
		return nil, err
	}
	e.Swap(idx, source)
	slog.Info("index built",
		"source", source,
		"lines", len(idx.Lines()),
		"stations", idx.StationCount(),
		"records", idx.RecordCount(),
		"took", time.Since(start))

	if st != nil {
		if err := st.Save(ctx, idx); err != nil {
			return idx, fmt.Errorf("persist index: %w", err)
		}
	}
	return idx, nil
}

// LoadStored installs the index persisted in st.
func (e *Engine) LoadStored(ctx context.Context, st store.Store) (*graph.Index, error) {
	idx, err := st.Load(ctx)
	if err != nil {
		return nil, err
	}
	e.Swap(idx, "store")
	return idx, nil
}
