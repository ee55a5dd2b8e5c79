package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/metroreach/internal/config"
	"github.com/gyaneshwarpardhi/metroreach/internal/topology"
)

var (
	cfgPath   string
	logLevel  string
	logFormat string

	// cfg is loaded once in PersistentPreRunE and shared by subcommands.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "metroreach",
	Short: "Answer station reachability queries over a transit network",
	Long: `metroreach builds a station index from raw line data and lists every
(station, line) pair reachable from an origin within a hop limit, an
optional line-change limit and sets of banned stations and lines.

Examples:
  metroreach build --topology data/raw_subway_info.json
  metroreach query 龙华中路 --hops 4
  metroreach query 人民广场 --hops 3 --max-changes 1 --ban-line 2
  metroreach serve --addr :8080`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			c.Log.Level = logLevel
		}
		if logFormat != "" {
			c.Log.Format = logFormat
		}
		if err := config.Validate(c); err != nil {
			return err
		}
		cfg = c
		slog.SetDefault(newLogger(cfg.Log, cmd.ErrOrStderr()))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "configs/metroreach.yaml", "Path to service YAML config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format override (text, json)")

	rootCmd.AddCommand(buildCmd, queryCmd, serveCmd, linesCmd, stationCmd)
}

func newLogger(c config.LogConf, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// topologyFormat resolves the flag, then the config; empty means infer
// from the file extension.
func topologyFormat(flagValue string) (topology.Format, error) {
	v := flagValue
	if v == "" {
		v = cfg.Topology.Format
	}
	if v == "" {
		return "", nil
	}
	return topology.ParseFormat(v)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
