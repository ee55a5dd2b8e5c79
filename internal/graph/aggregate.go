package graph

// Group is the set of stations reached on one line.
type Group struct {
	Line     string   `json:"line"`
	Stations []string `json:"stations"`
}

// Groups is a per-line view of a Result. Lines appear in the order they
// were first reached, stations in discovery order.
type Groups []Group

// Aggregate groups a result by line.
func Aggregate(res *Result) Groups {
	if res == nil {
		return Groups{}
	}
	pos := make(map[string]int)
	out := Groups{}
	for _, p := range res.order {
		i, ok := pos[p.Line]
		if !ok {
			i = len(out)
			pos[p.Line] = i
			out = append(out, Group{Line: p.Line})
		}
		out[i].Stations = append(out[i].Stations, p.Station)
	}
	return out
}

// Exclude drops groups whose line matches any of lines, using the same
// normalization as traversal bans.
func (g Groups) Exclude(lines ...string) Groups {
	hidden := NewLineSet(lines...)
	if len(hidden) == 0 {
		return g
	}
	out := make(Groups, 0, len(g))
	for _, grp := range g {
		if !hidden.Has(grp.Line) {
			out = append(out, grp)
		}
	}
	return out
}

// Lookup returns the stations reached on line.
func (g Groups) Lookup(line string) ([]string, bool) {
	for _, grp := range g {
		if grp.Line == line {
			return grp.Stations, true
		}
	}
	return nil, false
}

// Count returns the total number of (station, line) pairs across groups.
func (g Groups) Count() int {
	n := 0
	for _, grp := range g {
		n += len(grp.Stations)
	}
	return n
}
