// Package inmemory provides the fallback memstore backend.
//
// It supports exact-identity store/recall only: phase-proximity queries and
// vaulting return memstore.ErrCapabilityUnsupported. Correlation ranks by
// token overlap between item contents, a deliberately different algorithm
// from the primary backends' phase proximity, not an approximation of it.
package inmemory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/phasorlabs/phasor/pkg/memstore"
	"github.com/phasorlabs/phasor/pkg/phase"
)

// FallbackFidelity is the documented retrieval-fidelity estimate reported by
// this backend. It is a constant, not a measured quantity.
const FallbackFidelity = 0.85

// Driver implements memstore.Driver using in-process maps.
type Driver struct {
	logger *zap.Logger

	mu sync.RWMutex

	// items maps owner id -> item id -> item.
	items map[string]map[string]*memstore.MemoryItem
}

// NewDriver creates an empty fallback backend.
func NewDriver(logger *zap.Logger) *Driver {
	return &Driver{
		logger: logger,
		items:  make(map[string]map[string]*memstore.MemoryItem),
	}
}

// Engine reports the fallback backend class.
func (d *Driver) Engine() memstore.Engine {
	return memstore.EngineFallback
}

// InitializeOwner allocates the owner's map; idempotent.
func (d *Driver) InitializeOwner(_ context.Context, ownerID string) error {
	if ownerID == "" {
		return errors.New("owner id is required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.items[ownerID]; !ok {
		d.items[ownerID] = make(map[string]*memstore.MemoryItem)
	}
	return nil
}

// Store upserts an item by (owner, item) identity.
func (d *Driver) Store(ctx context.Context, ownerID, itemID, content string, importance float64) (*memstore.MemoryItem, error) {
	if importance < 0 || importance > memstore.MaxImportance {
		return nil, memstore.ErrInvalidImportance
	}

	if err := d.InitializeOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

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

	if prev, ok := d.items[ownerID][itemID]; ok {
		item.CreatedAt = prev.CreatedAt
		item.AccessCount = prev.AccessCount
		item.VaultLevel = prev.VaultLevel
	}

	d.items[ownerID][itemID] = item

	cp := *item
	return &cp, nil
}

// RecallByID fetches an item exactly, incrementing its access count.
func (d *Driver) RecallByID(_ context.Context, ownerID, itemID string) (*memstore.MemoryItem, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	item, ok := d.items[ownerID][itemID]
	if !ok {
		return nil, memstore.NotFoundError{OwnerID: ownerID, ItemID: itemID}
	}

	item.AccessCount++

	cp := *item
	return &cp, nil
}

// RecallByPhase is not supported by the fallback backend.
func (d *Driver) RecallByPhase(_ context.Context, _ string, _, _ float64, _ int) ([]memstore.ScoredItem, error) {
	return nil, memstore.ErrCapabilityUnsupported
}

// Correlate ranks the owner's other items by token overlap with the source
// item: |intersection of lowercase word sets| / |source word set|.
func (d *Driver) Correlate(_ context.Context, ownerID, itemID string, maxResults int) ([]memstore.ScoredItem, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	source, ok := d.items[ownerID][itemID]
	if !ok {
		return nil, memstore.NotFoundError{OwnerID: ownerID, ItemID: itemID}
	}

	sourceTokens := tokenSet(source.Content)
	if len(sourceTokens) == 0 {
		return nil, nil
	}

	var results []memstore.ScoredItem
	for id, item := range d.items[ownerID] {
		if id == itemID {
			continue
		}

		overlap := 0
		for tok := range tokenSet(item.Content) {
			if _, ok := sourceTokens[tok]; ok {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}

		results = append(results, memstore.ScoredItem{
			MemoryItem: *item,
			Score:      float64(overlap) / float64(len(sourceTokens)),
		})
	}

	// Highest overlap first; item id breaks ties for stable output.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ItemID < results[j].ItemID
	})

	if len(results) > maxResults {
		results = results[:maxResults]
	}

	return results, nil
}

// Vault is not supported by the fallback backend.
func (d *Driver) Vault(_ context.Context, _, _ string, _ memstore.VaultLevel) error {
	return memstore.ErrCapabilityUnsupported
}

// Stats reports the owner's item count with the documented fallback fidelity.
func (d *Driver) Stats(_ context.Context, ownerID string) (*memstore.Stats, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return &memstore.Stats{
		OwnerID:  ownerID,
		Count:    len(d.items[ownerID]),
		Engine:   memstore.EngineFallback,
		Backend:  "inmemory",
		Fidelity: FallbackFidelity,
	}, nil
}

// Close is a no-op for the in-memory backend.
func (d *Driver) Close() error {
	return nil
}

// tokenSet returns the lowercase word set of a string.
func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		set[tok] = struct{}{}
	}
	return set
}
