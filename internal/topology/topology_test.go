package topology_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/metroreach/internal/topology"
)

const rawJSON = `{"l":[
  {"ln":"2号线","st":[{"n":"凌空路"},{"n":"远东大道"},{"n":"海天三路"}]},
  {"ln":"10号线","st":[{"n":"虹桥火车站"},{"n":"虹桥2号航站楼"}]}
]}`

const rawYAML = `lines:
  - id: L1
    stations: [A, B, C]
  - id: L2
    stations:
      - C
      - D
`

func TestDecode_ProviderJSON(t *testing.T) {
	tp, err := topology.Decode(strings.NewReader(rawJSON), topology.FormatJSON)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if len(tp.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(tp.Lines))
	}
	if tp.Lines[0].ID != "2号线" || tp.Lines[0].Stations[2] != "海天三路" {
		t.Errorf("unexpected first line %+v", tp.Lines[0])
	}
	if tp.StationCount() != 5 {
		t.Errorf("StationCount = %d, want 5", tp.StationCount())
	}
}

func TestDecode_YAML(t *testing.T) {
	tp, err := topology.Decode(strings.NewReader(rawYAML), topology.FormatYAML)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if len(tp.Lines) != 2 || tp.Lines[1].Stations[1] != "D" {
		t.Errorf("unexpected topology %+v", tp)
	}
}

func TestDecode_MissingFields(t *testing.T) {
	cases := map[string]string{
		"missing ln": `{"l":[{"st":[{"n":"A"}]}]}`,
		"missing n":  `{"l":[{"ln":"L1","st":[{"n":"A"},{}]}]}`,
		"empty st":   `{"l":[{"ln":"L1","st":[]}]}`,
		"repeated":   `{"l":[{"ln":"L1","st":[{"n":"A"},{"n":"A"}]}]}`,
		"no lines":   `{"l":[]}`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := topology.Decode(strings.NewReader(in), topology.FormatJSON)
			if !errors.Is(err, topology.ErrMalformedTopology) {
				t.Errorf("expected ErrMalformedTopology, got %v", err)
			}
		})
	}
}

func TestDecode_BadSyntax(t *testing.T) {
	_, err := topology.Decode(strings.NewReader(`{"l":`), topology.FormatJSON)
	if err == nil || errors.Is(err, topology.ErrMalformedTopology) {
		t.Errorf("syntax errors should be parse errors, got %v", err)
	}
}

func TestFormatFor(t *testing.T) {
	if topology.FormatFor("x/lines.yml") != topology.FormatYAML {
		t.Errorf("yml should map to yaml")
	}
	if topology.FormatFor("raw_subway_info.json") != topology.FormatJSON {
		t.Errorf("json should map to json")
	}
	if _, err := topology.ParseFormat("xml"); err == nil {
		t.Errorf("xml should be rejected")
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoader_ReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.yaml")
	writeFile(t, path, rawYAML)

	l, err := topology.NewLoader(path, "")
	if err != nil {
		t.Fatalf("NewLoader error: %v", err)
	}
	var notified int
	l.OnChange(func(*topology.Topology) error { notified++; return nil })

	writeFile(t, path, "lines:\n  - id: L9\n    stations: [Z]\n")
	tp, err := l.Reload()
	if err != nil {
		t.Fatalf("Reload error: %v", err)
	}
	if tp.Lines[0].ID != "L9" || l.Topology().Lines[0].ID != "L9" {
		t.Errorf("reload did not take effect: %+v", l.Topology())
	}

	writeFile(t, path, "lines:\n  - id: \"\"\n    stations: [Z]\n")
	if _, err := l.Reload(); !errors.Is(err, topology.ErrMalformedTopology) {
		t.Errorf("expected ErrMalformedTopology, got %v", err)
	}
	if l.Topology().Lines[0].ID != "L9" {
		t.Errorf("failed reload must keep the previous topology")
	}
	if notified != 1 {
		t.Errorf("OnChange called %d times, want 1", notified)
	}
}

func TestLoader_ReloadReportsCallbackErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.yaml")
	writeFile(t, path, rawYAML)

	l, err := topology.NewLoader(path, "")
	if err != nil {
		t.Fatalf("NewLoader error: %v", err)
	}
	errSave := errors.New("disk full")
	l.OnChange(func(*topology.Topology) error { return errSave })

	writeFile(t, path, "lines:\n  - id: L9\n    stations: [Z]\n")
	tp, err := l.Reload()
	if !errors.Is(err, errSave) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if tp == nil || l.Topology().Lines[0].ID != "L9" {
		t.Errorf("valid topology must become current even when a callback fails")
	}
}

func TestLoader_WatchPicksUpWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.yaml")
	writeFile(t, path, rawYAML)

	l, err := topology.NewLoader(path, topology.FormatYAML)
	if err != nil {
		t.Fatalf("NewLoader error: %v", err)
	}
	changed := make(chan *topology.Topology, 4)
	l.OnChange(func(tp *topology.Topology) error {
		select {
		case changed <- tp:
		default:
		}
		return nil
	})

	stop, err := l.Watch()
	if err != nil {
		t.Skipf("watcher unavailable: %v", err)
	}
	defer stop()

	writeFile(t, path, "lines:\n  - id: L7\n    stations: [P, Q]\n")
	deadline := time.After(5 * time.Second)
	for {
		select {
		case tp := <-changed:
			if tp.Lines[0].ID == "L7" {
				return
			}
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
}

func TestNewLoader_MissingFile(t *testing.T) {
	if _, err := topology.NewLoader(filepath.Join(t.TempDir(), "absent.json"), ""); err == nil {
		t.Error("expected error for missing file")
	}
}
