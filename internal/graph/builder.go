package graph

import (
	"fmt"

	"github.com/gyaneshwarpardhi/metroreach/internal/topology"
)

// Build constructs a fresh Index from raw lines.
// The input is validated first; a malformed topology yields no index at all.
func Build(t *topology.Topology) (*Index, error) {
	if err := topology.Validate(t); err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	idx := newIndex()
	for _, line := range t.Lines {
		idx.addLine(line.ID)
		idx.route[line.ID] = append(idx.route[line.ID], line.Stations...)

		// prevName/prevPos locate the previous station's record so its Next
		// can be filled once the following station is known.
		prevName, prevPos := "", -1
		for _, name := range line.Stations {
			idx.stations[name] = append(idx.stations[name], StationRecord{
				Name: name,
				Line: line.ID,
				Prev: prevName,
			})
			if prevPos >= 0 {
				idx.stations[prevName][prevPos].Next = name
			}
			prevName, prevPos = name, len(idx.stations[name])-1
		}
	}
	return idx, nil
}
