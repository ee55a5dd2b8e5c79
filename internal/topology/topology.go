// Package topology holds the raw line data a reachability index is built from.
package topology

// Line is one physical route: an identifier and its stations in travel order.
type Line struct {
	ID       string   `yaml:"id" json:"id"`
	Stations []string `yaml:"stations" json:"stations"`
}

// Topology is the ordered list of lines as supplied by the data source.
// Line order matters: it fixes the order of records per station in the index.
type Topology struct {
	Lines []Line `yaml:"lines" json:"lines"`
}

// StationCount returns the number of station entries across all lines,
// counting interchange stations once per line.
func (t *Topology) StationCount() int {
	n := 0
	for _, l := range t.Lines {
		n += len(l.Stations)
	}
	return n
}
