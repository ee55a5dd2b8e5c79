package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/gyaneshwarpardhi/metroreach/internal/graph"
)

var (
	stationPrefix = []byte("station/")
	metaStations  = []byte("meta/stations")
	metaSavedAt   = []byte("meta/saved_at")
)

// BadgerConfig holds configuration for the Badger-backed store.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in RAM; useful for tests.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// Logger receives Badger's internal log lines. Nil disables them.
	Logger *slog.Logger
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Badger stores one key per station ("station/<name>") holding that
// station's records as JSON, plus a station count under "meta/stations".
type Badger struct {
	db *badger.DB
}

// OpenBadger opens (creating if needed) a Badger-backed store.
func OpenBadger(cfg BadgerConfig) (*Badger, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger store: path is required for a persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &Badger{db: db}, nil
}

// Save replaces any previously stored index.
func (b *Badger) Save(ctx context.Context, idx *graph.Index) error {
	if idx == nil {
		return graph.ErrIndexUnavailable
	}
	// Without the meta key a half-written index reads as unavailable.
	err := b.db.Update(func(txn *badger.Txn) error { return txn.Delete(metaStations) })
	if err != nil {
		return fmt.Errorf("clear stored index: %w", err)
	}
	if err := b.db.DropPrefix(stationPrefix); err != nil {
		return fmt.Errorf("clear stored index: %w", err)
	}

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	snap := idx.Snapshot()
	for name, recs := range snap {
		if err := ctx.Err(); err != nil {
			return err
		}
		val, err := json.Marshal(toWire(recs))
		if err != nil {
			return fmt.Errorf("encode station %s: %w", name, err)
		}
		if err := wb.Set(stationKey(name), val); err != nil {
			return fmt.Errorf("write station %s: %w", name, err)
		}
	}
	if err := wb.Set(metaStations, []byte(strconv.Itoa(len(snap)))); err != nil {
		return fmt.Errorf("write index meta: %w", err)
	}
	if err := wb.Set(metaSavedAt, []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
		return fmt.Errorf("write index meta: %w", err)
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("commit index: %w", err)
	}
	return nil
}

// Load reads every station key back into an index.
func (b *Badger) Load(ctx context.Context) (*graph.Index, error) {
	records := make(map[string][]graph.StationRecord)
	err := b.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get(metaStations); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return unavailable("no index stored", err)
			}
			return err
		}
		opts := badger.DefaultIteratorOptions
		opts.Prefix = stationPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			name := string(item.Key()[len(stationPrefix):])
			err := item.Value(func(val []byte) error {
				var recs []wireRecord
				if err := json.Unmarshal(val, &recs); err != nil {
					return fmt.Errorf("decode station %s: %w", name, err)
				}
				records[name] = fromWire(recs)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, graph.ErrIndexUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, unavailable("read badger index", err)
	}
	idx, err := graph.FromRecords(records)
	if err != nil {
		return nil, unavailable("rebuild badger index", err)
	}
	return idx, nil
}

// SavedAt reports when the stored index was last written.
func (b *Badger) SavedAt() (time.Time, error) {
	var ts time.Time
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaSavedAt)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			ts, err = time.Parse(time.RFC3339, string(val))
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return time.Time{}, unavailable("no index stored", err)
	}
	return ts, err
}

// Close closes the database.
func (b *Badger) Close() error {
	return b.db.Close()
}

func stationKey(name string) []byte {
	return append(append([]byte{}, stationPrefix...), name...)
}
