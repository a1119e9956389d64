// Package memstore provides interfaces and implementations for phase-indexed
// per-owner memory storage.
//
// Two classes of backend share one capability-checked interface: primary
// backends (SQLite, PostgreSQL) support exact retrieval, phase-proximity
// queries and vaulting; the fallback in-memory backend supports approximate
// retrieval only. Which class served a call is always observable via
// Engine/Stats; unsupported operations return ErrCapabilityUnsupported
// rather than a silently approximated result.
package memstore

import "context"

// Engine classifies a backend's retrieval guarantees.
type Engine string

const (
	// EnginePrimary backends provide exact retrieval with proximity queries
	// and vaulting.
	EnginePrimary Engine = "primary"

	// EngineFallback backends provide approximate retrieval only.
	EngineFallback Engine = "fallback"
)

// Driver handles storage and retrieval of phase-indexed memory items for
// multiple owners.
type Driver interface {
	// InitializeOwner prepares per-owner storage. Idempotent; Store calls it
	// implicitly, so explicit calls are an optimization, not a requirement.
	InitializeOwner(ctx context.Context, ownerID string) error

	// Store writes a memory item, assigning its phase deterministically from
	// (ownerID, itemID). Overwrites any prior record with the same identity:
	// store is idempotent by identity, not append-only.
	Store(ctx context.Context, ownerID, itemID, content string, importance float64) (*MemoryItem, error)

	// RecallByID fetches one item exactly and increments its access count.
	// Returns NotFoundError if the identity has never been stored.
	RecallByID(ctx context.Context, ownerID, itemID string) (*MemoryItem, error)

	// RecallByPhase returns items within the circular-distance tolerance of
	// the target phase, sorted ascending by that distance and truncated to
	// maxResults. Vaulted items are excluded. Returns
	// ErrCapabilityUnsupported on fallback backends.
	RecallByPhase(ctx context.Context, ownerID string, targetPhase, tolerance float64, maxResults int) ([]ScoredItem, error)

	// Correlate ranks other items against the source item. Primary backends
	// rank by phase proximity; the fallback backend ranks by token overlap,
	// a deliberately different, documented algorithm. Vaulted items are
	// excluded from the results, and a vaulted source is refused with
	// VaultedError.
	Correlate(ctx context.Context, ownerID, itemID string, maxResults int) ([]ScoredItem, error)

	// Vault marks an item protected, excluding it from proximity and
	// correlation queries. Returns ErrCapabilityUnsupported on fallback
	// backends.
	Vault(ctx context.Context, ownerID, itemID string, level VaultLevel) error

	// Stats reports the owner's item count, the serving engine and its
	// retrieval fidelity.
	Stats(ctx context.Context, ownerID string) (*Stats, error)

	// Engine reports which backend class serves this driver's calls.
	Engine() Engine

	// Close releases backend resources.
	Close() error
}
