package engine_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/metroreach/internal/config"
	"github.com/gyaneshwarpardhi/metroreach/internal/engine"
	"github.com/gyaneshwarpardhi/metroreach/internal/graph"
	"github.com/gyaneshwarpardhi/metroreach/internal/store"
	"github.com/gyaneshwarpardhi/metroreach/internal/topology"
)

func testIndex(t *testing.T) *graph.Index {
	t.Helper()
	idx, err := graph.Build(&topology.Topology{Lines: []topology.Line{
		{ID: "L1", Stations: []string{"X", "Y"}},
		{ID: "L2", Stations: []string{"X", "Z"}},
		{ID: "浦江线", Stations: []string{"Z", "W"}},
	}})
	require.NoError(t, err)
	return idx
}

func newEngine(t *testing.T, idx *graph.Index, mutate func(*config.Config)) *engine.Engine {
	t.Helper()
	cfg := config.Default()
	cfg.Engine.QueryWorkers = 2
	cfg.Engine.QueueDepth = 16
	if mutate != nil {
		mutate(cfg)
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := engine.New(ctx, idx, cfg)
	t.Cleanup(func() {
		cancel()
		e.Shutdown()
	})
	return e
}

func TestReach_GroupsResult(t *testing.T) {
	e := newEngine(t, testIndex(t), nil)
	out, err := e.Reach(context.Background(), engine.Request{
		Query: graph.Query{Origin: "Y", MaxHops: 2, MaxChanges: graph.Changes(1)},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out.QueryID)
	assert.Equal(t, "Y", out.Origin)
	assert.Equal(t, 4, out.Count)
	assert.True(t, out.Result().Contains("Z", "L2"))

	stations, ok := out.Lines.Lookup("L1")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"Y", "X"}, stations)
}

func TestReach_NoIndex(t *testing.T) {
	e := newEngine(t, nil, nil)
	_, err := e.Reach(context.Background(), engine.Request{Query: graph.Query{Origin: "Y", MaxHops: 1}})
	assert.ErrorIs(t, err, graph.ErrIndexUnavailable)

	_, err = e.Index()
	assert.ErrorIs(t, err, graph.ErrIndexUnavailable)

	e.Swap(testIndex(t), "test")
	out, err := e.Reach(context.Background(), engine.Request{Query: graph.Query{Origin: "Y", MaxHops: 1}})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Count)
}

func TestReach_InvalidQuery(t *testing.T) {
	e := newEngine(t, testIndex(t), nil)
	_, err := e.Reach(context.Background(), engine.Request{Query: graph.Query{Origin: "Y", MaxHops: -1}})
	assert.ErrorIs(t, err, graph.ErrInvalidQuery)
}

func TestReach_DefaultChangeBudget(t *testing.T) {
	e := newEngine(t, testIndex(t), func(c *config.Config) {
		c.Search.DefaultMaxChanges = graph.Changes(0)
	})
	out, err := e.Reach(context.Background(), engine.Request{Query: graph.Query{Origin: "Y", MaxHops: 3}})
	require.NoError(t, err)
	assert.False(t, out.Result().Contains("Z", "L2"), "default cap of 0 forbids the change at X")

	out, err = e.Reach(context.Background(), engine.Request{Query: graph.Query{Origin: "Y", MaxHops: 3}, Unlimited: true})
	require.NoError(t, err)
	assert.True(t, out.Result().Contains("Z", "L2"))
}

func TestReach_ReportExclusions(t *testing.T) {
	e := newEngine(t, testIndex(t), func(c *config.Config) {
		c.Report.ExcludeLines = []string{"浦江线"}
	})
	out, err := e.Reach(context.Background(), engine.Request{
		Query:     graph.Query{Origin: "Y", MaxHops: 4},
		HideLines: []string{"l1"},
	})
	require.NoError(t, err)

	_, ok := out.Lines.Lookup("浦江线")
	assert.False(t, ok, "configured exclusion hides the line")
	// Hidden lines are still traversed.
	assert.True(t, out.Result().Contains("W", "浦江线"))
	_, ok = out.Lines.Lookup("L1")
	assert.False(t, ok, "per-request hide matches case-insensitively")
	_, ok = out.Lines.Lookup("L2")
	assert.True(t, ok)
}

func TestReachBatch(t *testing.T) {
	e := newEngine(t, testIndex(t), nil)
	outs := e.ReachBatch(context.Background(), []engine.Request{
		{Query: graph.Query{Origin: "Y", MaxHops: 1}},
		{Query: graph.Query{Origin: "Y", MaxHops: -3}},
		{ID: "fixed", Query: graph.Query{Origin: "Nowhere", MaxHops: 2}},
	})
	require.Len(t, outs, 3)

	assert.Empty(t, outs[0].Error)
	assert.Equal(t, 3, outs[0].Count)

	assert.Contains(t, outs[1].Error, "invalid query")
	assert.NotEmpty(t, outs[1].QueryID)

	assert.Equal(t, "fixed", outs[2].QueryID)
	assert.Empty(t, outs[2].Error)
	assert.Zero(t, outs[2].Count)
}

func TestReach_CancelledContext(t *testing.T) {
	e := newEngine(t, testIndex(t), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Reach(ctx, engine.Request{Query: graph.Query{Origin: "Y", MaxHops: 2}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecute_Inline(t *testing.T) {
	e := newEngine(t, testIndex(t), nil)
	out, err := e.Execute(context.Background(), engine.Request{Query: graph.Query{Origin: "X", MaxHops: 0}})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)
	assert.Zero(t, e.QueueUtilization())
}

func TestRebuild_PersistsAndSwaps(t *testing.T) {
	e := newEngine(t, nil, nil)
	st := store.NewFile(filepath.Join(t.TempDir(), "subway_info.json"))

	_, err := e.LoadStored(context.Background(), st)
	assert.ErrorIs(t, err, graph.ErrIndexUnavailable)

	tp := &topology.Topology{Lines: []topology.Line{{ID: "L1", Stations: []string{"A", "B"}}}}
	idx, err := e.Rebuild(context.Background(), tp, st, "test")
	require.NoError(t, err)
	assert.Equal(t, 2, idx.StationCount())

	current, err := e.Index()
	require.NoError(t, err)
	assert.Same(t, idx, current)

	other := newEngine(t, nil, nil)
	loaded, err := other.LoadStored(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, idx.Snapshot(), loaded.Snapshot())
}

func TestRebuild_MalformedKeepsCurrent(t *testing.T) {
	e := newEngine(t, testIndex(t), nil)
	before, _ := e.Index()

	_, err := e.Rebuild(context.Background(), &topology.Topology{Lines: []topology.Line{{ID: ""}}}, nil, "test")
	assert.ErrorIs(t, err, graph.ErrMalformedTopology)

	after, _ := e.Index()
	assert.Same(t, before, after)
}
