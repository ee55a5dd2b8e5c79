package topology

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedTopology is returned when raw line data is missing a line
// identifier or a station name, or repeats a station within one line.
var ErrMalformedTopology = errors.New("malformed topology")

// Validate checks every line for:
//   - At least one line
//   - A non-empty identifier
//   - At least one station
//   - Non-empty station names, each appearing once within the line
func Validate(t *Topology) error {
	if t == nil {
		return fmt.Errorf("%w: no topology", ErrMalformedTopology)
	}
	if len(t.Lines) == 0 {
		return fmt.Errorf("%w: at least one line is required", ErrMalformedTopology)
	}
	var errs []string
	for i, l := range t.Lines {
		loc := fmt.Sprintf("lines[%d]", i)
		if strings.TrimSpace(l.ID) == "" {
			errs = append(errs, loc+": line id is required")
		} else {
			loc = fmt.Sprintf("line %s", l.ID)
		}
		if len(l.Stations) == 0 {
			errs = append(errs, loc+": stations must not be empty")
			continue
		}
		seen := make(map[string]int, len(l.Stations))
		for j, st := range l.Stations {
			if strings.TrimSpace(st) == "" {
				errs = append(errs, fmt.Sprintf("%s.stations[%d]: station name is required", loc, j))
				continue
			}
			if prev, ok := seen[st]; ok {
				errs = append(errs, fmt.Sprintf("%s: station %q repeated at positions %d and %d", loc, st, prev, j))
				continue
			}
			seen[st] = j
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrMalformedTopology, strings.Join(errs, "\n  - "))
	}
	return nil
}
