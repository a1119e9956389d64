// Package sqlite provides the SQLite-backed primary memstore backend.
//
// It supports the full capability set: exact retrieval, phase-proximity
// queries and vaulting. Circular distance is computed directly in SQL so
// proximity queries sort and truncate inside the database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/phasorlabs/phasor/pkg/memstore"
	"github.com/phasorlabs/phasor/pkg/phase"
)

// Driver implements memstore.Driver backed by SQLite.
type Driver struct {
	db     *sql.DB
	logger *zap.Logger

	mu     sync.Mutex
	owners map[string]struct{} // memoized InitializeOwner calls
}

// Config holds configuration for the SQLite backend.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string
}

// NewDriver opens (or creates) the SQLite database and runs migrations.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	if c.DBPath == "" {
		return nil, errors.New("database path is required")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	logger.Info("sqlite memstore backend initialized",
		zap.String("db_path", c.DBPath),
	)

	return &Driver{
		db:     db,
		logger: logger,
		owners: make(map[string]struct{}),
	}, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS owners (
		owner_id       TEXT PRIMARY KEY,
		initialized_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS memory_items (
		owner_id     TEXT NOT NULL,
		item_id      TEXT NOT NULL,
		content      TEXT NOT NULL,
		importance   REAL NOT NULL,
		phase        REAL NOT NULL,
		amplitude    REAL NOT NULL,
		vault_level  TEXT NOT NULL DEFAULT 'none',
		access_count INTEGER NOT NULL DEFAULT 0,
		created_at   TIMESTAMP NOT NULL,
		updated_at   TIMESTAMP NOT NULL,
		PRIMARY KEY (owner_id, item_id)
	);

	CREATE INDEX IF NOT EXISTS idx_memory_items_owner_phase
		ON memory_items(owner_id, phase);
	`
	_, err := db.Exec(schema)
	return err
}

// Engine reports the primary backend class.
func (d *Driver) Engine() memstore.Engine {
	return memstore.EnginePrimary
}

// InitializeOwner records the owner row once; repeated calls are memoized
// in-process and idempotent in the database.
func (d *Driver) InitializeOwner(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return errors.New("owner id is required")
	}

	d.mu.Lock()
	_, done := d.owners[ownerID]
	d.mu.Unlock()
	if done {
		return nil
	}

	_, err := d.db.ExecContext(ctx,
		`INSERT INTO owners(owner_id, initialized_at) VALUES (?, ?)
		 ON CONFLICT(owner_id) DO NOTHING`,
		ownerID, time.Now().UTC(),
	)
	if err != nil {
		return memstore.StorageError{Op: "initialize_owner", Err: err}
	}

	d.mu.Lock()
	d.owners[ownerID] = struct{}{}
	d.mu.Unlock()

	return nil
}

// Store upserts an item by (owner, item) identity. The phase is assigned
// deterministically; a rewrite keeps the original created_at, access count
// and vault level.
func (d *Driver) Store(ctx context.Context, ownerID, itemID, content string, importance float64) (*memstore.MemoryItem, error) {
	if importance < 0 || importance > memstore.MaxImportance {
		return nil, memstore.ErrInvalidImportance
	}

	if err := d.InitializeOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	item := &memstore.MemoryItem{
		OwnerID:    ownerID,
		ItemID:     itemID,
		Content:    content,
		Importance: importance,
		Phase:      phase.Of(ownerID, itemID),
		Amplitude:  memstore.AmplitudeOf(importance),
		VaultLevel: memstore.VaultNone,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO memory_items
			(owner_id, item_id, content, importance, phase, amplitude, vault_level, access_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(owner_id, item_id) DO UPDATE SET
			content    = excluded.content,
			importance = excluded.importance,
			phase      = excluded.phase,
			amplitude  = excluded.amplitude,
			updated_at = excluded.updated_at
	`, ownerID, itemID, content, importance, item.Phase, item.Amplitude, string(item.VaultLevel), now, now)
	if err != nil {
		return nil, memstore.StorageError{Op: "store", Err: err}
	}

	d.logger.Debug("memory item stored",
		zap.String("owner_id", ownerID),
		zap.String("item_id", itemID),
		zap.Float64("phase", item.Phase),
	)

	return d.get(ctx, ownerID, itemID)
}

// RecallByID fetches an item exactly, incrementing its access count.
func (d *Driver) RecallByID(ctx context.Context, ownerID, itemID string) (*memstore.MemoryItem, error) {
	res, err := d.db.ExecContext(ctx,
		`UPDATE memory_items SET access_count = access_count + 1
		 WHERE owner_id = ? AND item_id = ?`,
		ownerID, itemID,
	)
	if err != nil {
		return nil, memstore.StorageError{Op: "recall_by_id", Err: err}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, memstore.StorageError{Op: "recall_by_id", Err: err}
	}
	if affected == 0 {
		return nil, memstore.NotFoundError{OwnerID: ownerID, ItemID: itemID}
	}

	return d.get(ctx, ownerID, itemID)
}

// circularDistanceExpr computes min(|phase-?|, 2π-|phase-?|) in SQL.
// Bind order: target, target.
const circularDistanceExpr = `MIN(ABS(phase - ?), ` + twoPiLit + ` - ABS(phase - ?))`

const twoPiLit = "6.283185307179586"

// RecallByPhase returns non-vaulted items within tolerance of the target
// phase, closest first.
func (d *Driver) RecallByPhase(ctx context.Context, ownerID string, targetPhase, tolerance float64, maxResults int) ([]memstore.ScoredItem, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	target := phase.Normalize(targetPhase)

	rows, err := d.db.QueryContext(ctx, `
		SELECT owner_id, item_id, content, importance, phase, amplitude,
		       vault_level, access_count, created_at, updated_at,
		       `+circularDistanceExpr+` AS dist
		FROM memory_items
		WHERE owner_id = ?
		  AND vault_level = 'none'
		  AND `+circularDistanceExpr+` <= ?
		ORDER BY dist ASC
		LIMIT ?
	`, target, target, ownerID, target, target, tolerance, maxResults)
	if err != nil {
		return nil, memstore.StorageError{Op: "recall_by_phase", Err: err}
	}
	defer rows.Close()

	return scanScored(rows)
}

// Correlate ranks the owner's other non-vaulted items by circular proximity
// to the source item's phase. A vaulted source is refused with VaultedError.
func (d *Driver) Correlate(ctx context.Context, ownerID, itemID string, maxResults int) ([]memstore.ScoredItem, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	source, err := d.get(ctx, ownerID, itemID)
	if err != nil {
		return nil, err
	}
	if source.VaultLevel != memstore.VaultNone {
		return nil, memstore.VaultedError{OwnerID: ownerID, ItemID: itemID, Level: source.VaultLevel}
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT owner_id, item_id, content, importance, phase, amplitude,
		       vault_level, access_count, created_at, updated_at,
		       `+circularDistanceExpr+` AS dist
		FROM memory_items
		WHERE owner_id = ?
		  AND item_id != ?
		  AND vault_level = 'none'
		ORDER BY dist ASC
		LIMIT ?
	`, source.Phase, source.Phase, ownerID, itemID, maxResults)
	if err != nil {
		return nil, memstore.StorageError{Op: "correlate", Err: err}
	}
	defer rows.Close()

	return scanScored(rows)
}

// Vault marks an item protected (or unprotected with VaultNone).
func (d *Driver) Vault(ctx context.Context, ownerID, itemID string, level memstore.VaultLevel) error {
	if !level.Valid() {
		return fmt.Errorf("invalid vault level: %q", level)
	}

	res, err := d.db.ExecContext(ctx,
		`UPDATE memory_items SET vault_level = ?, updated_at = ?
		 WHERE owner_id = ? AND item_id = ?`,
		string(level), time.Now().UTC(), ownerID, itemID,
	)
	if err != nil {
		return memstore.StorageError{Op: "vault", Err: err}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return memstore.StorageError{Op: "vault", Err: err}
	}
	if affected == 0 {
		return memstore.NotFoundError{OwnerID: ownerID, ItemID: itemID}
	}

	return nil
}

// Stats reports the owner's item count with exact-retrieval fidelity.
func (d *Driver) Stats(ctx context.Context, ownerID string) (*memstore.Stats, error) {
	var count int
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memory_items WHERE owner_id = ?`, ownerID,
	).Scan(&count)
	if err != nil {
		return nil, memstore.StorageError{Op: "stats", Err: err}
	}

	return &memstore.Stats{
		OwnerID:  ownerID,
		Count:    count,
		Engine:   memstore.EnginePrimary,
		Backend:  "sqlite",
		Fidelity: 1.0,
	}, nil
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.db.Close()
}

func (d *Driver) get(ctx context.Context, ownerID, itemID string) (*memstore.MemoryItem, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT owner_id, item_id, content, importance, phase, amplitude,
		       vault_level, access_count, created_at, updated_at
		FROM memory_items
		WHERE owner_id = ? AND item_id = ?
	`, ownerID, itemID)

	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, memstore.NotFoundError{OwnerID: ownerID, ItemID: itemID}
		}
		return nil, memstore.StorageError{Op: "get", Err: err}
	}

	return item, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*memstore.MemoryItem, error) {
	var item memstore.MemoryItem
	var level string
	err := row.Scan(
		&item.OwnerID, &item.ItemID, &item.Content, &item.Importance,
		&item.Phase, &item.Amplitude, &level, &item.AccessCount,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.VaultLevel = memstore.VaultLevel(level)
	return &item, nil
}

func scanScored(rows *sql.Rows) ([]memstore.ScoredItem, error) {
	var results []memstore.ScoredItem
	for rows.Next() {
		var item memstore.MemoryItem
		var level string
		var dist float64
		err := rows.Scan(
			&item.OwnerID, &item.ItemID, &item.Content, &item.Importance,
			&item.Phase, &item.Amplitude, &level, &item.AccessCount,
			&item.CreatedAt, &item.UpdatedAt, &dist,
		)
		if err != nil {
			return nil, memstore.StorageError{Op: "scan", Err: err}
		}
		item.VaultLevel = memstore.VaultLevel(level)
		results = append(results, memstore.ScoredItem{MemoryItem: item, Score: dist})
	}

	if err := rows.Err(); err != nil {
		return nil, memstore.StorageError{Op: "scan", Err: err}
	}

	return results, nil
}
