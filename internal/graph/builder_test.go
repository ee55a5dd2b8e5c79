package graph_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/gyaneshwarpardhi/metroreach/internal/graph"
	"github.com/gyaneshwarpardhi/metroreach/internal/topology"
)

func topo(lines ...topology.Line) *topology.Topology {
	return &topology.Topology{Lines: lines}
}

func line(id string, stations ...string) topology.Line {
	return topology.Line{ID: id, Stations: stations}
}

func mustBuild(t *testing.T, tp *topology.Topology) *graph.Index {
	t.Helper()
	idx, err := graph.Build(tp)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	return idx
}

func recordOn(t *testing.T, idx *graph.Index, station, lineID string) graph.StationRecord {
	t.Helper()
	for _, r := range idx.Records(station) {
		if r.Line == lineID {
			return r
		}
	}
	t.Fatalf("no record for %s on %s", station, lineID)
	return graph.StationRecord{}
}

func TestBuild_PrevNextLinks(t *testing.T) {
	tp := topo(
		line("2号线", "凌空路", "远东大道", "海天三路", "浦东国际机场"),
		line("10号线", "虹桥火车站", "虹桥2号航站楼", "虹桥1号航站楼"),
	)
	idx := mustBuild(t, tp)

	for _, l := range tp.Lines {
		n := len(l.Stations)
		for i, st := range l.Stations {
			r := recordOn(t, idx, st, l.ID)
			wantPrev, wantNext := "", ""
			if i > 0 {
				wantPrev = l.Stations[i-1]
			}
			if i < n-1 {
				wantNext = l.Stations[i+1]
			}
			if r.Prev != wantPrev || r.Next != wantNext {
				t.Errorf("%s on %s: got prev=%q next=%q, want prev=%q next=%q",
					st, l.ID, r.Prev, r.Next, wantPrev, wantNext)
			}
		}
		if got := idx.LineStations(l.ID); len(got) != n {
			t.Errorf("LineStations(%s) = %v, want %d stations", l.ID, got, n)
		}
	}
}

func TestBuild_InterchangeHasOneRecordPerLine(t *testing.T) {
	idx := mustBuild(t, topo(
		line("L1", "A", "X", "B"),
		line("L2", "C", "X"),
		line("L3", "X", "D"),
	))
	recs := idx.Records("X")
	if len(recs) != 3 {
		t.Fatalf("expected 3 records for X, got %d", len(recs))
	}
	// Insertion order follows line order.
	for i, want := range []string{"L1", "L2", "L3"} {
		if recs[i].Line != want {
			t.Errorf("record %d: line %s, want %s", i, recs[i].Line, want)
		}
	}
	if idx.StationCount() != 5 {
		t.Errorf("StationCount = %d, want 5", idx.StationCount())
	}
	if idx.RecordCount() != 7 {
		t.Errorf("RecordCount = %d, want 7", idx.RecordCount())
	}
}

func TestBuild_FreshIndexPerCall(t *testing.T) {
	tp := topo(line("L1", "A", "B"))
	first := mustBuild(t, tp)
	second := mustBuild(t, tp)
	if len(first.Records("A")) != 1 || len(second.Records("A")) != 1 {
		t.Errorf("rebuilding must not accumulate records: %v / %v", first.Records("A"), second.Records("A"))
	}
}

func TestBuild_SingleStationLine(t *testing.T) {
	idx := mustBuild(t, topo(line("APM", "Solo")))
	r := recordOn(t, idx, "Solo", "APM")
	if r.Prev != "" || r.Next != "" {
		t.Errorf("single station line should have no neighbours, got %+v", r)
	}
}

func TestBuild_Malformed(t *testing.T) {
	cases := []struct {
		name string
		tp   *topology.Topology
	}{
		{"nil topology", nil},
		{"missing line id", topo(line("", "A", "B"))},
		{"no stations", topo(line("L1"))},
		{"blank station", topo(line("L1", "A", " ", "B"))},
		{"repeated station", topo(line("L1", "A", "B", "A"))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			idx, err := graph.Build(tc.tp)
			if !errors.Is(err, graph.ErrMalformedTopology) {
				t.Fatalf("expected ErrMalformedTopology, got %v", err)
			}
			if idx != nil {
				t.Errorf("no partial index may be returned")
			}
		})
	}
}

func TestFromRecords_RoundTrip(t *testing.T) {
	built := mustBuild(t, topo(
		line("L1", "A", "B", "C", "D"),
		line("L2", "X", "B", "Y"),
	))
	loaded, err := graph.FromRecords(built.Snapshot())
	if err != nil {
		t.Fatalf("FromRecords error: %v", err)
	}
	for _, l := range built.Lines() {
		want, got := built.LineStations(l), loaded.LineStations(l)
		if len(want) != len(got) {
			t.Fatalf("line %s: got %v, want %v", l, got, want)
		}
		for i := range want {
			if want[i] != got[i] {
				t.Errorf("line %s position %d: got %s, want %s", l, i, got[i], want[i])
			}
		}
	}
	if loaded.RecordCount() != built.RecordCount() {
		t.Errorf("RecordCount %d, want %d", loaded.RecordCount(), built.RecordCount())
	}
}

func TestLines_Order(t *testing.T) {
	built := mustBuild(t, topo(
		line("10号线", "A", "B"),
		line("浦江线", "C", "D"),
		line("2号线", "B", "C"),
		line("1号线", "D", "E"),
	))
	if got, want := built.Lines(), []string{"10号线", "浦江线", "2号线", "1号线"}; !slices.Equal(got, want) {
		t.Errorf("built Lines() = %v, want topology order %v", got, want)
	}

	loaded, err := graph.FromRecords(built.Snapshot())
	if err != nil {
		t.Fatalf("FromRecords error: %v", err)
	}
	if got, want := loaded.Lines(), []string{"1号线", "2号线", "10号线", "浦江线"}; !slices.Equal(got, want) {
		t.Errorf("loaded Lines() = %v, want natural order %v", got, want)
	}
}

func TestFromRecords_Malformed(t *testing.T) {
	_, err := graph.FromRecords(map[string][]graph.StationRecord{
		"A": {{Name: "A", Line: ""}},
	})
	if !errors.Is(err, graph.ErrMalformedTopology) {
		t.Errorf("expected ErrMalformedTopology for missing line, got %v", err)
	}
	_, err = graph.FromRecords(map[string][]graph.StationRecord{
		"A": {{Name: "B", Line: "L1"}},
	})
	if !errors.Is(err, graph.ErrMalformedTopology) {
		t.Errorf("expected ErrMalformedTopology for mis-keyed record, got %v", err)
	}
}
