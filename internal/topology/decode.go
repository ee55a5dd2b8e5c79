package topology

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format names an on-disk topology encoding.
type Format string

const (
	// FormatJSON is the map-provider export: {"l":[{"ln":"2号线","st":[{"n":"凌空路"}]}]}.
	FormatJSON Format = "json"
	// FormatYAML is the hand-maintained form: lines: [{id: ..., stations: [...]}].
	FormatYAML Format = "yaml"
)

// FormatFor infers the format from a file extension, defaulting to JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseFormat accepts "", "json", "yaml" and "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown topology format %q", s)
}

type rawFile struct {
	Lines []rawLine `json:"l"`
}

type rawLine struct {
	Name     *string      `json:"ln"`
	Stations []rawStation `json:"st"`
}

type rawStation struct {
	Name *string `json:"n"`
}

// Decode reads a topology in the given format and validates it.
// A topology that fails validation is never returned.
func Decode(r io.Reader, f Format) (*Topology, error) {
	var t *Topology
	var err error
	switch f {
	case FormatYAML:
		t, err = decodeYAML(r)
	case FormatJSON, "":
		t, err = decodeJSON(r)
	default:
		return nil, fmt.Errorf("unknown topology format %q", f)
	}
	if err != nil {
		return nil, err
	}
	if err := Validate(t); err != nil {
		return nil, err
	}
	return t, nil
}

// ReadFile decodes the topology stored at path. When f is empty the format
// is inferred from the extension.
func ReadFile(path string, f Format) (*Topology, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read topology %s: %w", path, err)
	}
	defer fh.Close()
	if f == "" {
		f = FormatFor(path)
	}
	t, err := Decode(fh, f)
	if err != nil {
		return nil, fmt.Errorf("topology %s: %w", path, err)
	}
	return t, nil
}

func decodeJSON(r io.Reader) (*Topology, error) {
	var raw rawFile
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	t := &Topology{Lines: make([]Line, 0, len(raw.Lines))}
	for _, rl := range raw.Lines {
		l := Line{Stations: make([]string, 0, len(rl.Stations))}
		if rl.Name != nil {
			l.ID = *rl.Name
		}
		for _, rs := range rl.Stations {
			// Missing names survive as "" so Validate can point at them.
			name := ""
			if rs.Name != nil {
				name = *rs.Name
			}
			l.Stations = append(l.Stations, name)
		}
		t.Lines = append(t.Lines, l)
	}
	return t, nil
}

func decodeYAML(r io.Reader) (*Topology, error) {
	var t Topology
	if err := yaml.NewDecoder(r).Decode(&t); err != nil {
		if err == io.EOF {
			return &t, nil
		}
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &t, nil
}
