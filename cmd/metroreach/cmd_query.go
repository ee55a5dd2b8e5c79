package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/metroreach/internal/engine"
	"github.com/gyaneshwarpardhi/metroreach/internal/graph"
	"github.com/gyaneshwarpardhi/metroreach/internal/render"
	"github.com/gyaneshwarpardhi/metroreach/internal/store"
	"github.com/gyaneshwarpardhi/metroreach/internal/topology"
)

var (
	queryHops         int
	queryMaxChanges   int
	queryUnlimited    bool
	queryBanStations  []string
	queryBanLines     []string
	queryHideLines    []string
	queryOutput       string
	queryFromTopology bool
)

var queryCmd = &cobra.Command{
	Use:   "query STATION",
	Short: "List every (station, line) reachable from STATION",
	Long: `List every (station, line) pair reachable from STATION within --hops
inter-station hops, grouped by line.

Staying on a line is free; switching lines at an interchange spends one
change from --max-changes. Without --max-changes the configured default
applies (unlimited unless search.default_max_changes is set).

Line names are matched loosely: "2", "２" and "2号线" all name 2号线.

Examples:
  metroreach query 龙华中路 --hops 4
  metroreach query 人民广场 --hops 5 --max-changes 1 --ban-station 南京东路
  metroreach query 徐家汇 --hops 3 --ban-line 9 --hide-line 浦江线 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		eng := engine.New(ctx, nil, cfg)
		defer eng.Shutdown()
		if err := loadForQuery(ctx, eng); err != nil {
			return err
		}

		req := engine.Request{
			Query: graph.Query{
				Origin:         strings.TrimSpace(args[0]),
				MaxHops:        queryHops,
				BannedStations: queryBanStations,
				BannedLines:    queryBanLines,
			},
			Unlimited: queryUnlimited,
			HideLines: queryHideLines,
		}
		if cmd.Flags().Changed("max-changes") {
			req.Query.MaxChanges = graph.Changes(queryMaxChanges)
		}

		out, err := eng.Execute(ctx, req)
		if err != nil {
			return err
		}
		idx, _ := eng.Index()
		if !idx.HasStation(req.Query.Origin) {
			slog.Warn("origin station not in index", "station", req.Query.Origin)
		}
		switch queryOutput {
		case "json":
			return render.JSON(cmd.OutOrStdout(), out.Lines)
		default:
			return render.Text(cmd.OutOrStdout(), out.Lines)
		}
	},
}

func init() {
	f := queryCmd.Flags()
	f.IntVarP(&queryHops, "hops", "n", 0, "Maximum number of inter-station hops (required)")
	f.IntVar(&queryMaxChanges, "max-changes", 0, "Maximum number of line changes")
	f.BoolVar(&queryUnlimited, "unlimited", false, "Ignore any configured change limit")
	f.StringSliceVarP(&queryBanStations, "ban-station", "s", nil, "Station that may not be visited (repeatable)")
	f.StringSliceVarP(&queryBanLines, "ban-line", "l", nil, "Line that may not be used (repeatable)")
	f.StringSliceVar(&queryHideLines, "hide-line", nil, "Line to leave out of the output (still traversed)")
	f.StringVarP(&queryOutput, "output", "o", "text", "Output format: text or json")
	f.BoolVar(&queryFromTopology, "from-topology", false, "Build the index from topology.path instead of loading it")
	_ = queryCmd.MarkFlagRequired("hops")
	queryCmd.MarkFlagsMutuallyExclusive("max-changes", "unlimited")
}

// loadForQuery installs either the persisted index or, with
// --from-topology, one built in memory from the raw topology.
func loadForQuery(ctx context.Context, eng *engine.Engine) error {
	if queryFromTopology {
		format, err := topologyFormat("")
		if err != nil {
			return err
		}
		t, err := topology.ReadFile(cfg.Topology.Path, format)
		if err != nil {
			return err
		}
		_, err = eng.Rebuild(ctx, t, nil, "topology")
		return err
	}

	st, err := store.Open(cfg.Index, nil)
	if err != nil {
		return err
	}
	defer st.Close()
	if _, err := eng.LoadStored(ctx, st); err != nil {
		if errors.Is(err, graph.ErrIndexUnavailable) {
			return fmt.Errorf("%w (run 'metroreach build' first)", err)
		}
		return err
	}
	return nil
}
