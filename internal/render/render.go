// Package render formats query results and index listings for people.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/gyaneshwarpardhi/metroreach/internal/graph"
)

// Text writes one line per group: "<line>: st st st".
func Text(w io.Writer, groups graph.Groups) error {
	for _, g := range groups {
		if _, err := fmt.Fprintf(w, "%s: %s\n", g.Line, strings.Join(g.Stations, " ")); err != nil {
			return err
		}
	}
	return nil
}

// JSON writes the groups as an indented JSON array.
func JSON(w io.Writer, groups graph.Groups) error {
	if groups == nil {
		groups = graph.Groups{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(groups)
}

// Lines writes a table of every line in idx with its station count and
// terminal stations.
func Lines(w io.Writer, idx *graph.Index) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tSTATIONS\tFROM\tTO")
	for _, l := range idx.Lines() {
		st := idx.LineStations(l)
		from, to := "", ""
		if len(st) > 0 {
			from, to = st[0], st[len(st)-1]
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", l, len(st), from, to)
	}
	return tw.Flush()
}
