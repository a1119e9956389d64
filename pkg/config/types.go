package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent phasor configuration stored as config.toml
// in the .phasor/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Owner       OwnerConfig       `toml:"owner"`
	Storage     StorageConfig     `toml:"storage"`
	Log         LogConfig         `toml:"log"`
	Ingest      IngestConfig      `toml:"ingest"`
	Extract     ExtractConfig     `toml:"extract"`
	EventStream EventStreamConfig `toml:"event_stream"`
}

// OwnerConfig identifies the default owner for sessions and memory items.
type OwnerConfig struct {
	ID   string `toml:"id,omitempty"`
	Name string `toml:"name,omitempty"`
}

// StorageConfig holds memory store settings.
type StorageConfig struct {
	// Backend selects the memory store: auto, postgres, sqlite or inmemory.
	Backend      string `toml:"backend,omitempty"`
	SQLitePath   string `toml:"sqlite_path,omitempty"`
	PostgresConn string `toml:"postgres_conn,omitempty"`
}

// LogConfig holds session event log settings.
type LogConfig struct {
	// Dir is where session frame logs are written. Empty means the
	// sessions/ subdirectory of the resolved .phasor/ directory.
	Dir string `toml:"dir,omitempty"`
}

// IngestConfig holds batch ingestion settings.
type IngestConfig struct {
	MaxItems      int  `toml:"max_items,omitempty"`
	MaxItemBytes  int  `toml:"max_item_bytes,omitempty"`
	MaxBatchBytes int  `toml:"max_batch_bytes,omitempty"`
	Workers       uint `toml:"workers,omitempty"`
}

// ExtractConfig holds concept extraction settings.
type ExtractConfig struct {
	// Provider selects the extractor: keywords (local) or remote.
	Provider    string `toml:"provider,omitempty"`
	Target      string `toml:"target,omitempty"`
	MaxConcepts int    `toml:"max_concepts,omitempty"`
}

// EventStreamConfig holds event publishing settings.
type EventStreamConfig struct {
	// Provider selects the publisher: nop or kafka.
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"owner.id": {
		get: func(c *Config) string { return c.Owner.ID },
		set: func(c *Config, v string) error { c.Owner.ID = v; return nil },
	},
	"owner.name": {
		get: func(c *Config) string { return c.Owner.Name },
		set: func(c *Config, v string) error { c.Owner.Name = v; return nil },
	},
	"storage.backend": {
		get: func(c *Config) string { return c.Storage.Backend },
		set: func(c *Config, v string) error { c.Storage.Backend = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_conn": {
		get: func(c *Config) string { return c.Storage.PostgresConn },
		set: func(c *Config, v string) error { c.Storage.PostgresConn = v; return nil },
	},
	"log.dir": {
		get: func(c *Config) string { return c.Log.Dir },
		set: func(c *Config, v string) error { c.Log.Dir = v; return nil },
	},
	"ingest.max_items": {
		get: func(c *Config) string { return formatInt(c.Ingest.MaxItems) },
		set: func(c *Config, v string) error { return parseInt(v, "ingest.max_items", &c.Ingest.MaxItems) },
	},
	"ingest.max_item_bytes": {
		get: func(c *Config) string { return formatInt(c.Ingest.MaxItemBytes) },
		set: func(c *Config, v string) error { return parseInt(v, "ingest.max_item_bytes", &c.Ingest.MaxItemBytes) },
	},
	"ingest.max_batch_bytes": {
		get: func(c *Config) string { return formatInt(c.Ingest.MaxBatchBytes) },
		set: func(c *Config, v string) error { return parseInt(v, "ingest.max_batch_bytes", &c.Ingest.MaxBatchBytes) },
	},
	"ingest.workers": {
		get: func(c *Config) string {
			if c.Ingest.Workers == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Ingest.Workers), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for ingest.workers: %w", err)
			}
			c.Ingest.Workers = uint(n)
			return nil
		},
	},
	"extract.provider": {
		get: func(c *Config) string { return c.Extract.Provider },
		set: func(c *Config, v string) error { c.Extract.Provider = v; return nil },
	},
	"extract.target": {
		get: func(c *Config) string { return c.Extract.Target },
		set: func(c *Config, v string) error { c.Extract.Target = v; return nil },
	},
	"extract.max_concepts": {
		get: func(c *Config) string { return formatInt(c.Extract.MaxConcepts) },
		set: func(c *Config, v string) error { return parseInt(v, "extract.max_concepts", &c.Extract.MaxConcepts) },
	},
	"event_stream.provider": {
		get: func(c *Config) string { return c.EventStream.Provider },
		set: func(c *Config, v string) error { c.EventStream.Provider = v; return nil },
	},
	"event_stream.brokers": {
		get: func(c *Config) string { return c.EventStream.Brokers },
		set: func(c *Config, v string) error { c.EventStream.Brokers = v; return nil },
	},
	"event_stream.topic": {
		get: func(c *Config) string { return c.EventStream.Topic },
		set: func(c *Config, v string) error { c.EventStream.Topic = v; return nil },
	},
}

func formatInt(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func parseInt(v, key string, target *int) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*target = n
	return nil
}
