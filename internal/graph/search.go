package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Query describes one reachability request.
type Query struct {
	Origin         string
	MaxHops        int
	MaxChanges     *int // nil = unlimited line changes
	BannedStations []string
	BannedLines    []string
}

// Changes is a convenience for building a capped Query.MaxChanges.
func Changes(n int) *int { return &n }

// Validate rejects queries whose traversal would be undefined.
func (q Query) Validate() error {
	var errs []string
	if strings.TrimSpace(q.Origin) == "" {
		errs = append(errs, "origin is required")
	}
	if q.MaxHops < 0 {
		errs = append(errs, fmt.Sprintf("max hops must be non-negative, got %d", q.MaxHops))
	}
	if q.MaxChanges != nil && *q.MaxChanges < 0 {
		errs = append(errs, fmt.Sprintf("max changes must be non-negative, got %d", *q.MaxChanges))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidQuery, strings.Join(errs, "; "))
	}
	return nil
}

// Reach is one reachable (station, line) pair.
type Reach struct {
	Station string `json:"station"`
	Line    string `json:"line"`
}

// Result is the set of reached pairs, remembering discovery order.
type Result struct {
	order []Reach
	set   map[Reach]struct{}
}

func newResult() *Result {
	return &Result{set: make(map[Reach]struct{})}
}

func (r *Result) add(p Reach) {
	r.set[p] = struct{}{}
	r.order = append(r.order, p)
}

// Len returns the number of distinct pairs.
func (r *Result) Len() int { return len(r.order) }

// Contains reports whether station was reached on line.
func (r *Result) Contains(station, line string) bool {
	_, ok := r.set[Reach{Station: station, Line: line}]
	return ok
}

// Pairs returns the pairs in discovery (BFS level) order.
func (r *Result) Pairs() []Reach {
	out := make([]Reach, len(r.order))
	copy(out, r.order)
	return out
}

// Sorted returns the pairs ordered by line, then station.
func (r *Result) Sorted() []Reach {
	out := r.Pairs()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Station < out[j].Station
	})
	return out
}

// budget is the remaining number of line changes on one branch.
type budget struct {
	left   int
	capped bool
}

func (b budget) spend() budget {
	if b.capped {
		b.left--
	}
	return b
}

func (b budget) exhausted() bool { return b.capped && b.left < 0 }

// beats reports whether b leaves strictly more room than o.
func (b budget) beats(o budget) bool {
	if !b.capped || !o.capped {
		return !b.capped && o.capped
	}
	return b.left > o.left
}

type state struct {
	rec    StationRecord
	budget budget
}

// Search returns every (station, line) pair reachable from q.Origin within
// q.MaxHops hops. Moving along a line is free; stepping onto a record of a
// different line spends one change. An unknown origin yields an empty
// result, not an error. ctx is checked between levels.
//
// A pair is reported the first time any branch reaches it. It is expanded
// again only when a later branch arrives with strictly more change budget,
// so a short path that spent its changes never hides a longer one that did
// not.
func Search(ctx context.Context, idx *Index, q Query) (*Result, error) {
	if idx == nil {
		return nil, ErrIndexUnavailable
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	q.Origin = strings.TrimSpace(q.Origin)
	bannedStations := NewStationSet(q.BannedStations...)
	bannedLines := NewLineSet(q.BannedLines...)
	lineBanned := func(line string) bool {
		return len(bannedLines) > 0 && bannedLines.hasKey(idx.lineKey(line))
	}

	start := budget{}
	if q.MaxChanges != nil {
		start = budget{left: *q.MaxChanges, capped: true}
	}

	var frontier []state
	if !bannedStations.Has(q.Origin) {
		for _, rec := range idx.stations[q.Origin] {
			if !lineBanned(rec.Line) {
				frontier = append(frontier, state{rec: rec, budget: start})
			}
		}
	}

	res := newResult()
	best := make(map[Reach]budget)
	hops := q.MaxHops
	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("search from %s: %w", q.Origin, err)
		}
		// The last level is only collected, never expanded.
		expand := hops > 0
		var next []state
		for _, st := range frontier {
			key := Reach{Station: st.rec.Name, Line: st.rec.Line}
			if bannedStations.Has(st.rec.Name) || lineBanned(st.rec.Line) || st.budget.exhausted() {
				continue
			}
			prev, seen := best[key]
			if seen && !st.budget.beats(prev) {
				continue
			}
			best[key] = st.budget
			if !seen {
				res.add(key)
			}
			if !expand {
				continue
			}
			for _, nb := range [2]string{st.rec.Prev, st.rec.Next} {
				if nb == "" || bannedStations.Has(nb) {
					continue
				}
				for _, cand := range idx.stations[nb] {
					if lineBanned(cand.Line) {
						continue
					}
					b := st.budget
					if cand.Line != st.rec.Line {
						b = b.spend()
					}
					if prev, seen := best[Reach{Station: cand.Name, Line: cand.Line}]; seen && !b.beats(prev) {
						continue
					}
					next = append(next, state{rec: cand, budget: b})
				}
			}
		}
		hops--
		if hops < 0 {
			break
		}
		frontier = next
	}
	return res, nil
}
