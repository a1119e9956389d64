package ingest

import "fmt"

// Batch status values, assigned once processing finishes. A batch that
// recorded errors but stored at least one concept completed with errors; a
// batch that recorded errors and stored nothing failed.
const (
	BatchComplete           = "complete"
	BatchCompleteWithErrors = "complete_with_errors"
	BatchFailed             = "failed"
)

// ItemResult records the per-item outcome of a batch.
type ItemResult struct {
	Name     string `json:"name"`
	Concepts int    `json:"concepts"`
	Error    string `json:"error,omitempty"`
}

// Result summarizes a processed batch.
type Result struct {
	BatchID   string `json:"batch_id"`
	OwnerID   string `json:"owner_id"`
	SessionID string `json:"session_id"`
	FrameID   int64  `json:"frame_id"`

	// Status is the batch outcome: BatchComplete, BatchCompleteWithErrors
	// or BatchFailed.
	Status string `json:"status"`

	// Concepts holds the deduplicated, phase-tagged concepts in
	// deterministic order.
	Concepts []*Concept `json:"concepts"`

	// Stored counts concepts successfully written to the memory store.
	Stored int `json:"stored"`

	// Coherence is the pairwise phase coherence of the batch's concepts.
	Coherence float64 `json:"coherence"`

	// Strength is the classified synchronization level.
	Strength string `json:"strength"`

	// Items records the per-item extraction outcomes in batch order.
	Items []ItemResult `json:"items"`

	// Errors holds non-fatal failures (extraction, storage) encountered
	// while the batch continued.
	Errors []string `json:"errors,omitempty"`
}

// Summary renders a one-line human-readable account of the batch.
func (r *Result) Summary() string {
	return fmt.Sprintf("batch %s %s: %d items, %d concepts, %d stored, %s synchronization (%.3f), %d errors",
		r.BatchID, r.Status, len(r.Items), len(r.Concepts), r.Stored, r.Strength, r.Coherence, len(r.Errors))
}
