package topology

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Loader reads a topology file and watches it for changes.
type Loader struct {
	path     string
	format   Format
	mu       sync.RWMutex
	current  *Topology
	onChange []func(*Topology) error
}

// NewLoader creates a Loader and performs the initial load.
// An empty format is inferred from the file extension.
func NewLoader(path string, format Format) (*Loader, error) {
	if format == "" {
		format = FormatFor(path)
	}
	l := &Loader{path: path, format: format}
	t, err := ReadFile(path, format)
	if err != nil {
		return nil, err
	}
	l.current = t
	return l, nil
}

// Path returns the watched file.
func (l *Loader) Path() string { return l.path }

// Topology returns the latest successfully loaded topology.
func (l *Loader) Topology() *Topology {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked after every successful reload.
// Callback errors are returned from Reload.
func (l *Loader) OnChange(fn func(*Topology) error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that reloads the topology whenever the
// file is written or replaced. The parent directory is watched so that
// editors which save via rename are picked up too.
// Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("topology watcher: %w", err)
	}
	dir := filepath.Dir(l.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("topology watcher add %s: %w", dir, err)
	}
	target := filepath.Clean(l.path)

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := l.Reload(); err != nil {
						// Keep serving the previous topology.
						slog.Warn("topology reload failed", "path", l.path, "err", err)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("topology watcher error", "err", err)
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

// Reload forces an immediate re-read of the topology file.
// On a read failure the previous topology stays current. If the file is
// valid but a callback fails, the new topology is current and returned
// together with the joined callback errors.
func (l *Loader) Reload() (*Topology, error) {
	t, err := ReadFile(l.path, l.format)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.current = t
	callbacks := make([]func(*Topology) error, len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	var errs []error
	for _, fn := range callbacks {
		if err := fn(t); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return t, fmt.Errorf("apply topology %s: %w", l.path, errors.Join(errs...))
	}
	return t, nil
}
