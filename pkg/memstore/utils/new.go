// Package memstoreutils constructs a memstore.Driver from configuration,
// probing backend availability once at construction time.
//
// Backend selection never changes after the probe: if a primary backend later
// fails, in-flight calls surface StorageError rather than silently degrading
// to the fallback mid-operation, so a single logical operation never mixes
// fidelity guarantees.
package memstoreutils

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/phasorlabs/phasor/pkg/memstore"
	"github.com/phasorlabs/phasor/pkg/memstore/inmemory"
	"github.com/phasorlabs/phasor/pkg/memstore/postgres"
	"github.com/phasorlabs/phasor/pkg/memstore/sqlite"
)

// NewDriverOpts selects and configures the backend.
type NewDriverOpts struct {
	// Backend is "postgres", "sqlite", "inmemory" or "auto".
	// "auto" probes postgres (if configured), then sqlite, then falls back
	// to inmemory.
	Backend string

	// PostgresConn is the PostgreSQL connection string.
	PostgresConn string

	// SQLitePath is the SQLite database path (":memory:" allowed).
	SQLitePath string

	Logger *zap.Logger
}

// NewDriver builds the configured backend. With "auto", the first primary
// backend that probes healthy wins; the selected engine is logged and fixed
// for the driver's lifetime.
func NewDriver(ctx context.Context, o *NewDriverOpts) (memstore.Driver, error) {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}

	switch o.Backend {
	case "postgres":
		return postgres.NewDriver(ctx, o.PostgresConn, o.Logger)

	case "sqlite":
		return sqlite.NewDriver(sqlite.Config{DBPath: o.SQLitePath}, o.Logger)

	case "inmemory":
		return inmemory.NewDriver(o.Logger), nil

	case "auto", "":
		return probe(ctx, o)

	default:
		return nil, fmt.Errorf("unsupported memstore backend: %s", o.Backend)
	}
}

func probe(ctx context.Context, o *NewDriverOpts) (memstore.Driver, error) {
	if o.PostgresConn != "" {
		driver, err := postgres.NewDriver(ctx, o.PostgresConn, o.Logger)
		if err == nil {
			o.Logger.Info("memstore engine selected",
				zap.String("engine", string(driver.Engine())),
				zap.String("backend", "postgres"),
			)
			return driver, nil
		}
		o.Logger.Warn("postgres backend unavailable", zap.Error(err))
	}

	if o.SQLitePath != "" {
		driver, err := sqlite.NewDriver(sqlite.Config{DBPath: o.SQLitePath}, o.Logger)
		if err == nil {
			o.Logger.Info("memstore engine selected",
				zap.String("engine", string(driver.Engine())),
				zap.String("backend", "sqlite"),
			)
			return driver, nil
		}
		o.Logger.Warn("sqlite backend unavailable", zap.Error(err))
	}

	o.Logger.Warn("no primary backend available, using fallback engine",
		zap.String("backend", "inmemory"),
		zap.Float64("fidelity", inmemory.FallbackFidelity),
	)

	return inmemory.NewDriver(o.Logger), nil
}
