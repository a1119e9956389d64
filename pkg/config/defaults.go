package config

const (
	defaultStorageBackend = "auto"
	defaultSQLitePath     = "memory.db"

	defaultIngestMaxItems      = 10
	defaultIngestMaxItemBytes  = 1 << 20
	defaultIngestMaxBatchBytes = 5 << 20
	defaultIngestWorkers       = 3

	defaultExtractProvider    = "keywords"
	defaultExtractMaxConcepts = 10

	defaultEventStreamProvider = "nop"
	defaultEventStreamTopic    = "phasor.events"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Backend:    defaultStorageBackend,
			SQLitePath: defaultSQLitePath,
		},
		Ingest: IngestConfig{
			MaxItems:      defaultIngestMaxItems,
			MaxItemBytes:  defaultIngestMaxItemBytes,
			MaxBatchBytes: defaultIngestMaxBatchBytes,
			Workers:       defaultIngestWorkers,
		},
		Extract: ExtractConfig{
			Provider:    defaultExtractProvider,
			MaxConcepts: defaultExtractMaxConcepts,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Topic:    defaultEventStreamTopic,
		},
	}
}
