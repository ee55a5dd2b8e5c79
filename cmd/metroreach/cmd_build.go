package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/metroreach/internal/engine"
	"github.com/gyaneshwarpardhi/metroreach/internal/store"
	"github.com/gyaneshwarpardhi/metroreach/internal/topology"
)

var (
	buildTopology string
	buildFormat   string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the station index from raw line data and persist it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Topology.Path
		if buildTopology != "" {
			path = buildTopology
		}
		format, err := topologyFormat(buildFormat)
		if err != nil {
			return err
		}
		t, err := topology.ReadFile(path, format)
		if err != nil {
			return err
		}

		st, err := store.Open(cfg.Index, nil)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		eng := engine.New(ctx, nil, cfg)
		defer eng.Shutdown()

		idx, err := eng.Rebuild(ctx, t, st, "topology")
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "indexed %d lines, %d stations, %d records (%s backend)\n",
			len(idx.Lines()), idx.StationCount(), idx.RecordCount(), cfg.Index.Backend)
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVarP(&buildTopology, "topology", "t", "", "Raw topology file (overrides topology.path)")
	buildCmd.Flags().StringVar(&buildFormat, "format", "", "Topology format: json or yaml (default: from extension)")
}
