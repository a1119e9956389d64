package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/phasorlabs/phasor/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the PHASOR_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (PHASOR_STORAGE_BACKEND, PHASOR_LOG_DIR, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: PHASOR_STORAGE_BACKEND, PHASOR_INGEST_WORKERS, etc.
	v.SetEnvPrefix("PHASOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Owner
	v.SetDefault("owner.id", d.Owner.ID)
	v.SetDefault("owner.name", d.Owner.Name)

	// Storage
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_conn", d.Storage.PostgresConn)

	// Log
	v.SetDefault("log.dir", d.Log.Dir)

	// Ingest
	v.SetDefault("ingest.max_items", d.Ingest.MaxItems)
	v.SetDefault("ingest.max_item_bytes", d.Ingest.MaxItemBytes)
	v.SetDefault("ingest.max_batch_bytes", d.Ingest.MaxBatchBytes)
	v.SetDefault("ingest.workers", d.Ingest.Workers)

	// Extract
	v.SetDefault("extract.provider", d.Extract.Provider)
	v.SetDefault("extract.target", d.Extract.Target)
	v.SetDefault("extract.max_concepts", d.Extract.MaxConcepts)

	// Event stream
	v.SetDefault("event_stream.provider", d.EventStream.Provider)
	v.SetDefault("event_stream.brokers", d.EventStream.Brokers)
	v.SetDefault("event_stream.topic", d.EventStream.Topic)
}
