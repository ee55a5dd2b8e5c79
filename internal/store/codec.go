package store

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gyaneshwarpardhi/metroreach/internal/graph"
)

// wireRecord is the persisted record shape. Line ends are an explicit null.
type wireRecord struct {
	Name string  `json:"name"`
	Line string  `json:"line"`
	Prev *string `json:"prev"`
	Next *string `json:"next"`
}

func toWire(recs []graph.StationRecord) []wireRecord {
	out := make([]wireRecord, len(recs))
	for i, r := range recs {
		out[i] = wireRecord{Name: r.Name, Line: r.Line, Prev: optional(r.Prev), Next: optional(r.Next)}
	}
	return out
}

func fromWire(recs []wireRecord) []graph.StationRecord {
	out := make([]graph.StationRecord, len(recs))
	for i, r := range recs {
		out[i] = graph.StationRecord{Name: r.Name, Line: r.Line}
		if r.Prev != nil {
			out[i].Prev = *r.Prev
		}
		if r.Next != nil {
			out[i].Next = *r.Next
		}
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Encode writes the index as a JSON object mapping station name to its
// ordered records.
func Encode(w io.Writer, idx *graph.Index) error {
	snap := idx.Snapshot()
	doc := make(map[string][]wireRecord, len(snap))
	for name, recs := range snap {
		doc[name] = toWire(recs)
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	return nil
}

// Decode reads the form written by Encode.
func Decode(r io.Reader) (*graph.Index, error) {
	var doc map[string][]wireRecord
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	records := make(map[string][]graph.StationRecord, len(doc))
	for name, recs := range doc {
		records[name] = fromWire(recs)
	}
	return graph.FromRecords(records)
}
