// Package graph builds the station adjacency index from raw line data and
// answers constrained reachability queries over it.
package graph

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/gyaneshwarpardhi/metroreach/internal/topology"
)

var (
	// ErrMalformedTopology aliases the topology validation error so callers
	// of Build and FromRecords can test for it without importing topology.
	ErrMalformedTopology = topology.ErrMalformedTopology

	// ErrIndexUnavailable means no index has been built or loaded. It is
	// distinct from a query that legitimately reaches nothing.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrInvalidQuery is returned for negative hop limits or change budgets
	// and for an empty origin.
	ErrInvalidQuery = errors.New("invalid query")
)

// StationRecord describes one line's local topology at one station.
// Prev and Next are empty at the ends of the line.
type StationRecord struct {
	Name string `json:"name"`
	Line string `json:"line"`
	Prev string `json:"prev,omitempty"`
	Next string `json:"next,omitempty"`
}

// Index maps a station name to one record per line serving it.
// It is immutable once built; rebuilds produce a new Index.
type Index struct {
	stations map[string][]StationRecord // name → records, line processing order
	lines    []string                   // line ids, see Lines
	route    map[string][]string        // line id → stations in travel order
	lineKeys map[string]string          // line id → NormalizeLine(id)
}

func newIndex() *Index {
	return &Index{
		stations: make(map[string][]StationRecord),
		route:    make(map[string][]string),
		lineKeys: make(map[string]string),
	}
}

func (idx *Index) addLine(id string) {
	if _, ok := idx.lineKeys[id]; ok {
		return
	}
	idx.lines = append(idx.lines, id)
	idx.lineKeys[id] = NormalizeLine(id)
}

// FromRecords rebuilds an Index from its persisted form. Record order per
// station is kept. Line routes are recovered by walking next links from
// each line's head station.
func FromRecords(records map[string][]StationRecord) (*Index, error) {
	idx := newIndex()
	var errs []error
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		recs := records[name]
		for i, r := range recs {
			switch {
			case r.Name == "":
				errs = append(errs, fmt.Errorf("station %q record %d: name is required", name, i))
				continue
			case r.Name != name:
				errs = append(errs, fmt.Errorf("station %q record %d: keyed under a different name (%q)", name, i, r.Name))
				continue
			case r.Line == "":
				errs = append(errs, fmt.Errorf("station %q record %d: line is required", name, i))
				continue
			}
			idx.addLine(r.Line)
		}
		idx.stations[name] = slices.Clone(recs)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTopology, errors.Join(errs...))
	}
	sort.Slice(idx.lines, func(i, j int) bool { return lineLess(idx.lines[i], idx.lines[j]) })
	for _, line := range idx.lines {
		idx.route[line] = idx.walkLine(line)
	}
	return idx, nil
}

// walkLine lists a line's stations by following Next from every head
// record (Prev empty). Records not reachable from a head are appended in
// name order so nothing is lost from the listing.
func (idx *Index) walkLine(line string) []string {
	var heads []string
	members := make(map[string]StationRecord)
	for name, recs := range idx.stations {
		for _, r := range recs {
			if r.Line != line {
				continue
			}
			members[name] = r
			if r.Prev == "" {
				heads = append(heads, name)
			}
		}
	}
	sort.Strings(heads)

	out := make([]string, 0, len(members))
	seen := make(map[string]bool, len(members))
	for _, h := range heads {
		for cur := h; cur != "" && !seen[cur]; {
			r, ok := members[cur]
			if !ok {
				break
			}
			seen[cur] = true
			out = append(out, cur)
			cur = r.Next
		}
	}
	if len(out) < len(members) {
		var rest []string
		for name := range members {
			if !seen[name] {
				rest = append(rest, name)
			}
		}
		sort.Strings(rest)
		out = append(out, rest...)
	}
	return out
}

// Records returns a copy of the records for a station, nil if unknown.
func (idx *Index) Records(station string) []StationRecord {
	return slices.Clone(idx.stations[station])
}

// HasStation reports whether any line serves the station.
func (idx *Index) HasStation(station string) bool {
	return len(idx.stations[station]) > 0
}

// StationCount returns the number of distinct station names.
func (idx *Index) StationCount() int { return len(idx.stations) }

// RecordCount returns the number of (station, line) records.
func (idx *Index) RecordCount() int {
	n := 0
	for _, recs := range idx.stations {
		n += len(recs)
	}
	return n
}

// Lines returns line identifiers. A built index keeps topology order; an
// index restored by FromRecords has none to keep and lists lines in
// natural order, so "2号线" comes before "10号线".
func (idx *Index) Lines() []string { return slices.Clone(idx.lines) }

// LineStations returns the stations of a line in travel order.
func (idx *Index) LineStations(line string) []string {
	return slices.Clone(idx.route[line])
}

// Snapshot returns a deep copy of the station → records mapping, the form
// stores persist.
func (idx *Index) Snapshot() map[string][]StationRecord {
	out := make(map[string][]StationRecord, len(idx.stations))
	for name, recs := range idx.stations {
		out[name] = slices.Clone(recs)
	}
	return out
}

func (idx *Index) lineKey(line string) string {
	if k, ok := idx.lineKeys[line]; ok {
		return k
	}
	return NormalizeLine(line)
}

// lineLess orders line ids naturally, falling back to byte order for ids
// that only differ in leading zeros.
func lineLess(a, b string) bool {
	if naturalLess(a, b) {
		return true
	}
	return !naturalLess(b, a) && a < b
}

// naturalLess compares strings with embedded digit runs by numeric value.
func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		da, db := digitPrefix(a), digitPrefix(b)
		if da != "" && db != "" {
			na, nb := strings.TrimLeft(da, "0"), strings.TrimLeft(db, "0")
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
			if na != nb {
				return na < nb
			}
			a, b = a[len(da):], b[len(db):]
			continue
		}
		ra, sa := utf8.DecodeRuneInString(a)
		rb, sb := utf8.DecodeRuneInString(b)
		if ra != rb {
			return ra < rb
		}
		a, b = a[sa:], b[sb:]
	}
	return len(a) < len(b)
}

func digitPrefix(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i]
}
