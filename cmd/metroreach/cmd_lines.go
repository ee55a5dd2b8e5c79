package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/metroreach/internal/engine"
	"github.com/gyaneshwarpardhi/metroreach/internal/render"
)

var linesCmd = &cobra.Command{
	Use:   "lines",
	Short: "List the lines in the stored index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		eng := engine.New(ctx, nil, cfg)
		defer eng.Shutdown()
		if err := loadForQuery(ctx, eng); err != nil {
			return err
		}
		idx, err := eng.Index()
		if err != nil {
			return err
		}
		return render.Lines(cmd.OutOrStdout(), idx)
	},
}

var stationCmd = &cobra.Command{
	Use:   "station NAME",
	Short: "Show the lines serving a station and its neighbours on each",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		eng := engine.New(ctx, nil, cfg)
		defer eng.Shutdown()
		if err := loadForQuery(ctx, eng); err != nil {
			return err
		}
		idx, err := eng.Index()
		if err != nil {
			return err
		}
		recs := idx.Records(args[0])
		if len(recs) == 0 {
			return fmt.Errorf("station %q not found", args[0])
		}
		w := cmd.OutOrStdout()
		for _, r := range recs {
			fmt.Fprintf(w, "%s: %s <- %s -> %s\n", r.Line, orEnd(r.Prev), r.Name, orEnd(r.Next))
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{linesCmd, stationCmd} {
		c.Flags().BoolVar(&queryFromTopology, "from-topology", false, "Build the index from topology.path instead of loading it")
	}
}

func orEnd(s string) string {
	if s == "" {
		return "(end)"
	}
	return s
}
