package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeBatchIngested is emitted after a batch finishes processing.
	EventTypeBatchIngested = "phasor.batch.ingested"

	// EventTypeSessionPersisted is emitted after a session is persisted.
	EventTypeSessionPersisted = "phasor.session.persisted"
)

// BatchIngestedEvent is a transport-neutral event payload for a completed
// batch ingestion.
type BatchIngestedEvent struct {
	SchemaVersion int        `json:"schema_version"`
	EventType     string     `json:"event_type"`
	EventID       string     `json:"event_id"`
	EmittedAt     time.Time  `json:"emitted_at"`
	Batch         BatchMeta  `json:"batch"`
	Phases        PhasesMeta `json:"phases"`
}

// BatchMeta identifies the batch and summarizes its outcome.
type BatchMeta struct {
	BatchID      string `json:"batch_id"`
	OwnerID      string `json:"owner_id"`
	SessionID    string `json:"session_id"`
	ItemCount    int    `json:"item_count"`
	ConceptCount int    `json:"concept_count"`
	StoredCount  int    `json:"stored_count"`
	ErrorCount   int    `json:"error_count"`
}

// PhasesMeta summarizes the phase distribution of the batch's concepts.
type PhasesMeta struct {
	Coherence float64 `json:"coherence"`
	MeanPhase float64 `json:"mean_phase"`
	Variance  float64 `json:"variance"`
	Coverage  float64 `json:"coverage"`
}

// SessionPersistedEvent is a transport-neutral event payload for a session
// written to disk.
type SessionPersistedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	SessionID     string    `json:"session_id"`
	OwnerID       string    `json:"owner_id"`
	FrameCount    int       `json:"frame_count"`
	ConceptCount  int       `json:"concept_count"`
}
