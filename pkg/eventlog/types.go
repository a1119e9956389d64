package eventlog

import "time"

// SessionStatus tracks the lifecycle of a session.
// Sessions move Active -> Saved exactly once; Saved is terminal.
type SessionStatus string

const (
	// StatusActive means the session accepts frame appends.
	StatusActive SessionStatus = "active"

	// StatusSaved means the session has been persisted and is immutable.
	StatusSaved SessionStatus = "saved"
)

// OpKind identifies the variant of a concept operation within a frame.
type OpKind string

const (
	// OpCreate records a concept's first reference in a session, carrying its
	// deterministic phase seed.
	OpCreate OpKind = "create"

	// OpUpdate records a repeat reference to an already-created concept.
	OpUpdate OpKind = "update"

	// OpLink records an association between concepts.
	OpLink OpKind = "link"

	// OpPhaseShift carries a pairwise alignment summary for the concepts
	// referenced together in a single frame.
	OpPhaseShift OpKind = "phase_shift"

	// OpBatchAlign carries the batch-level phase distribution summary emitted
	// by the ingestion pipeline.
	OpBatchAlign OpKind = "batch_align"
)

// Alignment summarizes how a set of concept phases relate to each other.
type Alignment struct {
	// Coherence is the average of cos(circular distance) over all phase pairs.
	Coherence float64 `json:"coherence"`

	// Coupling is the mean resultant length of the phase set (1 = all
	// coincident, 0 = fully dispersed).
	Coupling float64 `json:"coupling"`

	// Strength classifies Coherence as "high", "medium" or "low".
	Strength string `json:"strength"`

	// MeanPhase is the circular mean of the phases (batch alignment only).
	MeanPhase float64 `json:"mean_phase,omitempty"`

	// Variance is the circular variance of the phases (batch alignment only).
	Variance float64 `json:"variance,omitempty"`

	// Coverage is the fraction of angular bins touched by at least one phase
	// (batch alignment only).
	Coverage float64 `json:"coverage,omitempty"`
}

// Op is a structured record of a concept being created, updated, linked or
// phase-aligned within a frame. Kind selects the variant; unused fields are
// omitted from the serialized record.
type Op struct {
	Kind OpKind `json:"kind"`

	// ConceptID is set for create/update ops.
	ConceptID string `json:"concept_id,omitempty"`

	// Label is the display form of the concept (create ops).
	Label string `json:"label,omitempty"`

	// PhaseSeed is the deterministic phase assigned at creation.
	PhaseSeed float64 `json:"phase_seed,omitempty"`

	// OwnerID scopes the concept (create ops).
	OwnerID string `json:"owner_id,omitempty"`

	// Namespace groups concepts created by batch ingestion (create ops).
	Namespace string `json:"namespace,omitempty"`

	// Delta is the reference-count bump for update ops.
	Delta int `json:"delta,omitempty"`

	// ConceptIDs lists the concepts involved in link/phase_shift/batch_align.
	ConceptIDs []string `json:"concept_ids,omitempty"`

	// Distribution lists the phases behind a batch_align op, in concept order.
	Distribution []float64 `json:"distribution,omitempty"`

	// Alignment carries the summary for phase_shift/batch_align ops.
	Alignment *Alignment `json:"alignment,omitempty"`
}

// Frame is one logged exchange within a session. Frames are immutable once
// appended; frame IDs are gapless and start at 1 within a session.
type Frame struct {
	FrameID   int64          `json:"frame_id"`
	Timestamp time.Time      `json:"timestamp"`
	Input     string         `json:"user_message"`
	Output    string         `json:"assistant_response"`
	Ops       []Op           `json:"ops"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// SessionMeta is the sidecar metadata record written alongside a persisted
// frame log.
type SessionMeta struct {
	SessionID       string    `json:"session_id"`
	OwnerID         string    `json:"owner_id"`
	OwnerName       string    `json:"owner_name"`
	Tag             string    `json:"tag"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	FrameCount      int       `json:"frame_count"`
	ConceptsCreated int       `json:"concepts_created"`
	ConceptsList    []string  `json:"concepts_list"`
}

// SessionRef is a lightweight pointer to a persisted session, returned by
// Search.
type SessionRef struct {
	SessionID  string    `json:"session_id"`
	OwnerID    string    `json:"owner_id"`
	OwnerName  string    `json:"owner_name"`
	Tag        string    `json:"tag"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	FrameCount int       `json:"frame_count"`
}

// SavedPaths reports where a persisted session's records were written.
type SavedPaths struct {
	LogPath  string `json:"log_path"`
	MetaPath string `json:"meta_path"`
}

// ExportPackage is a self-contained, checksummed bundle of a session's full
// frame history and metadata.
type ExportPackage struct {
	Version    int         `json:"version"`
	Type       string      `json:"type"`
	SessionID  string      `json:"session_id"`
	Metadata   SessionMeta `json:"metadata"`
	Frames     []Frame     `json:"frames"`
	ExportTime time.Time   `json:"export_time"`
	Checksum   string      `json:"checksum"`
}

// ExportVersion is the current export package schema version.
const ExportVersion = 1

// ExportType is the package type emitted for session exports.
const ExportType = "conversation"
