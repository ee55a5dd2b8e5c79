package config

// Config is the top-level YAML structure.
type Config struct {
	Version  string       `yaml:"version"`
	Topology TopologyConf `yaml:"topology"`
	Index    IndexConf    `yaml:"index"`
	Engine   EngineConf   `yaml:"engine"`
	Search   SearchConf   `yaml:"search"`
	Report   ReportConf   `yaml:"report"`
	HTTP     HTTPConf     `yaml:"http"`
	Log      LogConf      `yaml:"log"`
}

// TopologyConf points at the raw line data.
type TopologyConf struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"` // json | yaml; empty = from extension
	Watch  bool   `yaml:"watch"`
}

// IndexConf selects where the built index is persisted.
type IndexConf struct {
	Backend string     `yaml:"backend"` // file | badger
	Path    string     `yaml:"path"`    // file backend
	Badger  BadgerConf `yaml:"badger"`
}

// BadgerConf holds settings for the embedded KV backend.
type BadgerConf struct {
	Path       string `yaml:"path"`
	InMemory   bool   `yaml:"in_memory"`
	SyncWrites bool   `yaml:"sync_writes"`
}

// EngineConf holds tunable concurrency settings.
type EngineConf struct {
	QueryWorkers   int `yaml:"query_workers"`
	QueueDepth     int `yaml:"queue_depth"`
	QueryTimeoutMs int `yaml:"query_timeout_ms"`
}

// SearchConf holds query defaults applied when a request leaves them out.
type SearchConf struct {
	DefaultMaxChanges *int `yaml:"default_max_changes"` // nil = unlimited
}

// ReportConf holds output-time filters.
type ReportConf struct {
	ExcludeLines []string `yaml:"exclude_lines"`
}

// HTTPConf configures the query server.
type HTTPConf struct {
	Addr string `yaml:"addr"`
}

// LogConf configures the process logger.
type LogConf struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

const (
	BackendFile   = "file"
	BackendBadger = "badger"
)
