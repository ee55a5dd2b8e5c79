package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/metroreach/internal/api"
	"github.com/gyaneshwarpardhi/metroreach/internal/engine"
	"github.com/gyaneshwarpardhi/metroreach/internal/graph"
	"github.com/gyaneshwarpardhi/metroreach/internal/store"
	"github.com/gyaneshwarpardhi/metroreach/internal/topology"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve reachability queries over HTTP",
	Long: `Serve reachability queries over HTTP.

On start the persisted index is loaded. If none is stored (or
--rebuild is given) the index is built from topology.path and persisted.
With topology.watch enabled, edits to the topology file rebuild and swap
the index without a restart.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveRebuild bool

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (overrides http.addr)")
	serveCmd.Flags().BoolVar(&serveRebuild, "rebuild", false, "Rebuild the index from topology on start")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.HTTP.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	// ── Index store ───────────────────────────────────────────────────────────
	st, err := store.Open(cfg.Index, slog.Default().With("component", "badger"))
	if err != nil {
		return err
	}
	defer st.Close()

	// ── Engine ────────────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eng := engine.New(ctx, nil, cfg)

	// ── Topology + initial index ──────────────────────────────────────────────
	format, err := topologyFormat("")
	if err != nil {
		return err
	}
	loader, lerr := topology.NewLoader(cfg.Topology.Path, format)
	if lerr != nil {
		slog.Warn("topology unavailable (rebuilds disabled)", "path", cfg.Topology.Path, "err", lerr)
		loader = nil
	}

	if !serveRebuild {
		if idx, err := eng.LoadStored(ctx, st); err == nil {
			slog.Info("index loaded", "backend", cfg.Index.Backend, "stations", idx.StationCount(), "records", idx.RecordCount())
			if b, ok := st.(*store.Badger); ok {
				if at, err := b.SavedAt(); err == nil {
					slog.Info("stored index age", "saved_at", at, "age", time.Since(at).Round(time.Second))
				}
			}
		} else if !errors.Is(err, graph.ErrIndexUnavailable) {
			return err
		}
	}
	if _, err := eng.Index(); err != nil && loader != nil {
		if _, err := eng.Rebuild(ctx, loader.Topology(), st, "topology"); err != nil {
			// The index is installed even if persisting it failed.
			slog.Error("index rebuild", "err", err)
		}
	}
	if _, err := eng.Index(); err != nil {
		slog.Warn("serving without an index; queries return 503 until one is built", "err", err)
	}

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	if loader != nil {
		loader.OnChange(func(t *topology.Topology) error {
			if _, err := eng.Rebuild(ctx, t, st, "reload"); err != nil {
				slog.Warn("index reload", "err", err)
				return err
			}
			return nil
		})
		if cfg.Topology.Watch {
			stopWatch, err := loader.Watch()
			if err != nil {
				slog.Warn("topology watcher unavailable (hot-reload disabled)", "err", err)
			} else {
				defer stopWatch()
			}
		}
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.New(eng, loader),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	select {
	case <-cmd.Context().Done():
	case err := <-errC:
		return err
	}
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	cancel() // stop worker pool
	eng.Shutdown()
	slog.Info("goodbye")
	return nil
}
