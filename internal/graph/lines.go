package graph

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// LineSuffix is appended to bare line numbers during normalization, so a
// user typing "2" matches the record line "2号线".
const LineSuffix = "号线"

// NormalizeLine maps a line identifier to the form used for every line
// comparison: bans during traversal and report-time exclusions alike.
// Full-width characters are folded, whitespace is removed, Latin letters are
// lower-cased and a purely numeric id gets LineSuffix.
func NormalizeLine(s string) string {
	s = width.Fold.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
	if s != "" && strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) < 0 {
		s += LineSuffix
	}
	return s
}

// LineSet is a set of normalized line identifiers.
type LineSet map[string]struct{}

// NewLineSet normalizes and collects the given ids, skipping blanks.
func NewLineSet(lines ...string) LineSet {
	s := make(LineSet, len(lines))
	for _, l := range lines {
		if k := NormalizeLine(l); k != "" {
			s[k] = struct{}{}
		}
	}
	return s
}

// Has reports whether line, after normalization, is in the set.
func (s LineSet) Has(line string) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[NormalizeLine(line)]
	return ok
}

func (s LineSet) hasKey(key string) bool {
	_, ok := s[key]
	return ok
}

// StationSet is a set of station names, compared after trimming spaces.
type StationSet map[string]struct{}

// NewStationSet collects the given names, skipping blanks.
func NewStationSet(names ...string) StationSet {
	s := make(StationSet, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}

// Has reports whether name is in the set.
func (s StationSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}
