// Package setup wires configured backends for phasor CLI commands: the
// memory store driver, the session event log, the concept extractor and the
// event publisher, all resolved through the viper precedence chain.
package setup

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/phasorlabs/phasor/pkg/dotdir"
	"github.com/phasorlabs/phasor/pkg/eventlog"
	"github.com/phasorlabs/phasor/pkg/eventstream"
	"github.com/phasorlabs/phasor/pkg/eventstream/kafka"
	"github.com/phasorlabs/phasor/pkg/eventstream/nop"
	"github.com/phasorlabs/phasor/pkg/extract"
	"github.com/phasorlabs/phasor/pkg/extract/keywords"
	"github.com/phasorlabs/phasor/pkg/extract/remote"
	"github.com/phasorlabs/phasor/pkg/memstore"
	memstoreutils "github.com/phasorlabs/phasor/pkg/memstore/utils"
)

// OpenStore builds the memory store driver selected by storage.backend.
// Relative sqlite paths resolve under the .phasor/ directory.
func OpenStore(ctx context.Context, v *viper.Viper, configDir string, logger *zap.Logger) (memstore.Driver, error) {
	sqlitePath := v.GetString("storage.sqlite_path")
	if sqlitePath != "" && sqlitePath != ":memory:" && !filepath.IsAbs(sqlitePath) {
		target, err := dotdir.NewManager().Target(configDir)
		if err != nil {
			return nil, fmt.Errorf("resolving sqlite path: %w", err)
		}
		sqlitePath = filepath.Join(target, sqlitePath)
	}

	return memstoreutils.NewDriver(ctx, &memstoreutils.NewDriverOpts{
		Backend:      v.GetString("storage.backend"),
		PostgresConn: v.GetString("storage.postgres_conn"),
		SQLitePath:   sqlitePath,
		Logger:       logger,
	})
}

// OpenLog builds the session event log. An empty log.dir resolves to the
// sessions/ subdirectory of the .phasor/ directory.
func OpenLog(v *viper.Viper, configDir string, logger *zap.Logger) (*eventlog.Log, error) {
	dir := v.GetString("log.dir")
	if dir == "" {
		target, err := dotdir.NewManager().Target(configDir)
		if err != nil {
			return nil, fmt.Errorf("resolving log dir: %w", err)
		}
		dir = filepath.Join(target, "sessions")
	}

	return eventlog.NewLog(dir, logger)
}

// NewExtractor builds the concept extractor selected by extract.provider.
func NewExtractor(v *viper.Viper) (extract.Extractor, error) {
	switch provider := v.GetString("extract.provider"); provider {
	case "keywords", "":
		return keywords.NewExtractor(keywords.Config{
			MaxConcepts: v.GetInt("extract.max_concepts"),
		}), nil

	case "remote":
		return remote.NewExtractor(remote.Config{
			BaseURL: v.GetString("extract.target"),
		})

	default:
		return nil, fmt.Errorf("unknown extract provider: %q (available: keywords, remote)", provider)
	}
}

// NewPublisher builds the event publisher selected by event_stream.provider.
func NewPublisher(v *viper.Viper, logger *zap.Logger) (eventstream.Publisher, error) {
	switch provider := v.GetString("event_stream.provider"); provider {
	case "nop", "":
		return nop.NewPublisher(), nil

	case "kafka":
		brokers := strings.Split(v.GetString("event_stream.brokers"), ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		return kafka.NewPublisher(kafka.Config{
			Brokers: brokers,
			Topic:   v.GetString("event_stream.topic"),
		}, logger)

	default:
		return nil, fmt.Errorf("unknown event stream provider: %q (available: nop, kafka)", provider)
	}
}
