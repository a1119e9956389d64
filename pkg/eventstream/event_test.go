package eventstream_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/phasorlabs/phasor/pkg/eventstream"
)

var _ = Describe("Event", func() {
	It("marshals BatchIngestedEvent with expected top-level keys", func() {
		now := time.Unix(1735689600, 0).UTC()
		event := eventstream.BatchIngestedEvent{
			SchemaVersion: eventstream.SchemaVersionV1,
			EventType:     eventstream.EventTypeBatchIngested,
			EventID:       "evt_123",
			EmittedAt:     now,
			Batch: eventstream.BatchMeta{
				BatchID:      "batch-1",
				OwnerID:      "owner-1",
				SessionID:    "sess-1",
				ItemCount:    3,
				ConceptCount: 7,
				StoredCount:  7,
			},
			Phases: eventstream.PhasesMeta{
				Coherence: 0.92,
				MeanPhase: 1.5,
				Variance:  0.08,
				Coverage:  0.25,
			},
		}

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("batch"))
		Expect(got).To(HaveKey("phases"))
	})

	It("marshals SessionPersistedEvent with expected top-level keys", func() {
		event := eventstream.SessionPersistedEvent{
			SchemaVersion: eventstream.SchemaVersionV1,
			EventType:     eventstream.EventTypeSessionPersisted,
			EventID:       "evt_456",
			EmittedAt:     time.Now().UTC(),
			SessionID:     "sess-1",
			OwnerID:       "owner-1",
			FrameCount:    4,
			ConceptCount:  9,
		}

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKey("session_id"))
		Expect(got).To(HaveKey("owner_id"))
		Expect(got).To(HaveKey("frame_count"))
		Expect(got).To(HaveKey("concept_count"))
	})

	It("defines stable event constants", func() {
		Expect(eventstream.SchemaVersionV1).To(BeNumerically(">", 0))
		Expect(eventstream.EventTypeBatchIngested).To(Equal("phasor.batch.ingested"))
		Expect(eventstream.EventTypeSessionPersisted).To(Equal("phasor.session.persisted"))
	})

	It("provides ErrNilEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilEvent).NotTo(BeNil())
		Expect(eventstream.ErrNilEvent).To(MatchError("nil event"))
	})
})
