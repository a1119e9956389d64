package memstore

import "time"

// VaultLevel marks how strongly an item is protected. Vaulted items are
// excluded from proximity and correlation queries until un-vaulted.
type VaultLevel string

const (
	// VaultNone leaves the item fully queryable.
	VaultNone VaultLevel = "none"

	// VaultUserSealed protects an item at the owner's request.
	VaultUserSealed VaultLevel = "user_sealed"

	// VaultSystemSealed protects an item by policy.
	VaultSystemSealed VaultLevel = "system_sealed"
)

// Valid reports whether the level is one of the defined vault levels.
func (v VaultLevel) Valid() bool {
	switch v {
	case VaultNone, VaultUserSealed, VaultSystemSealed:
		return true
	}
	return false
}

// MemoryItem is one stored record, keyed by (OwnerID, ItemID).
type MemoryItem struct {
	OwnerID string `json:"owner_id"`
	ItemID  string `json:"item_id"`
	Content string `json:"content"`

	// Importance is the caller-assigned weight in [0, 2].
	Importance float64 `json:"importance"`

	// Phase is the deterministic circular coordinate in [0, 2π).
	Phase float64 `json:"phase"`

	// Amplitude is Importance normalized to [0, 1].
	Amplitude float64 `json:"amplitude"`

	VaultLevel  VaultLevel `json:"vault_level"`
	AccessCount int        `json:"access_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ScoredItem pairs an item with the score that ranked it in a query result.
// For phase queries the score is the circular distance (lower is closer);
// for fallback correlation it is the token-overlap ratio (higher is closer).
type ScoredItem struct {
	MemoryItem
	Score float64 `json:"score"`
}

// Stats summarizes an owner's store.
type Stats struct {
	OwnerID string `json:"owner_id"`
	Count   int    `json:"count"`

	// Engine is the backend class serving this owner (primary|fallback).
	Engine Engine `json:"engine"`

	// Backend names the concrete implementation (sqlite, postgres, inmemory).
	Backend string `json:"backend"`

	// Fidelity is 1.0 for primary backends (exact retrieval). For the
	// fallback backend it is a documented estimate constant, not a measured
	// quantity.
	Fidelity float64 `json:"fidelity"`
}

// MaxImportance is the upper bound of the importance scale.
const MaxImportance = 2.0

// AmplitudeOf maps an importance value onto [0, 1].
func AmplitudeOf(importance float64) float64 {
	if importance < 0 {
		return 0
	}
	if importance > MaxImportance {
		return 1
	}
	return importance / MaxImportance
}
