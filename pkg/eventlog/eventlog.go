// Package eventlog is an append-only log of conversation and ingestion
// sessions. Each session is an ordered sequence of frames annotated with
// structured concept operations; persisted sessions are line-oriented JSONL
// logs with a metadata sidecar, replayable and exportable with integrity
// checks.
//
// Sessions are single-writer: frame appends and persistence on the same
// session serialize on a per-session lock, which keeps frame IDs gapless and
// makes the Active -> Saved transition atomic with respect to concurrent
// appends. Sessions for distinct owners are fully independent.
package eventlog

import (
	"errors"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/phasorlabs/phasor/pkg/phase"
)

// Session is a live recording of one conversation or ingestion run.
// Mutable only while Active; immutable once persisted.
type Session struct {
	ID        string        `json:"session_id"`
	OwnerID   string        `json:"owner_id"`
	OwnerName string        `json:"owner_name"`
	Tag       string        `json:"tag"`
	StartTime time.Time     `json:"start_time"`
	Status    SessionStatus `json:"status"`
	Frames    []Frame       `json:"frames"`

	// mu serializes appends and the persist transition for this session.
	mu sync.Mutex

	// concepts maps concept ID -> reference count within this session.
	// A concept's first reference emits a Create op, later ones Update ops.
	concepts map[string]int
}

// ConceptsCreated returns the set of concept IDs referenced in this session,
// in first-created order.
func (s *Session) ConceptsCreated() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conceptOrderLocked()
}

// conceptOrderLocked reconstructs first-created order from the frame sequence.
// Callers must hold s.mu.
func (s *Session) conceptOrderLocked() []string {
	var ordered []string
	seen := make(map[string]struct{}, len(s.concepts))
	for _, f := range s.Frames {
		for _, op := range f.Ops {
			if op.Kind != OpCreate {
				continue
			}
			if _, ok := seen[op.ConceptID]; ok {
				continue
			}
			seen[op.ConceptID] = struct{}{}
			ordered = append(ordered, op.ConceptID)
		}
	}
	return ordered
}

// Log manages session lifecycle and the on-disk frame logs under a single
// directory.
type Log struct {
	dir     string
	logger  *zap.Logger
	entropy *ulid.MonotonicEntropy
	mu      sync.Mutex // guards entropy
}

// NewLog creates a Log rooted at dir, creating the directory if needed.
func NewLog(dir string, logger *zap.Logger) (*Log, error) {
	if dir == "" {
		return nil, errors.New("event log directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	return &Log{
		dir:     dir,
		logger:  logger,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}, nil
}

// Dir returns the directory holding persisted session logs.
func (l *Log) Dir() string {
	return l.dir
}

// CreateSession allocates a fresh active session for the given owner.
func (l *Log) CreateSession(ownerID, ownerName, tag string) (*Session, error) {
	if ownerID == "" {
		return nil, errors.New("owner id is required")
	}
	if ownerName == "" {
		return nil, errors.New("owner name is required")
	}

	now := time.Now().UTC()

	l.mu.Lock()
	id := ulid.MustNew(ulid.Timestamp(now), l.entropy).String()
	l.mu.Unlock()

	s := &Session{
		ID:        id,
		OwnerID:   ownerID,
		OwnerName: ownerName,
		Tag:       tag,
		StartTime: now,
		Status:    StatusActive,
		concepts:  make(map[string]int),
	}

	l.logger.Debug("session created",
		zap.String("session_id", id),
		zap.String("owner_id", ownerID),
		zap.String("tag", tag),
	)

	return s, nil
}

// AppendFrame appends one exchange to the session, emitting concept
// operations for every referenced concept: a Create op (with a deterministic
// phase seed) on first reference, an Update op afterwards. When two or more
// concepts are referenced together, a PhaseShift op with their pairwise
// alignment summary is added.
//
// Returns ErrSessionClosed once the session has been persisted.
func (l *Log) AppendFrame(s *Session, input, output string, conceptIDs []string) (*Frame, error) {
	return l.AppendFrameOps(s, input, output, conceptIDs, nil)
}

// AppendFrameOps is AppendFrame with extra caller-supplied ops appended after
// the generated ones. The ingestion pipeline uses this to attach its
// batch_align summary.
func (l *Log) AppendFrameOps(s *Session, input, output string, conceptIDs []string, extra []Op) (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != StatusActive {
		return nil, ErrSessionClosed
	}

	frame := Frame{
		FrameID:   int64(len(s.Frames)) + 1,
		Timestamp: time.Now().UTC(),
		Input:     input,
		Output:    output,
	}

	referenced := make([]string, 0, len(conceptIDs))
	seeds := make([]float64, 0, len(conceptIDs))
	seenInFrame := make(map[string]struct{}, len(conceptIDs))

	for _, id := range conceptIDs {
		if id == "" {
			continue
		}
		// Exactly one create-or-update per concept per frame.
		if _, dup := seenInFrame[id]; dup {
			continue
		}
		seenInFrame[id] = struct{}{}

		seed := phase.Of(s.OwnerID, id)
		referenced = append(referenced, id)
		seeds = append(seeds, seed)

		if _, known := s.concepts[id]; !known {
			s.concepts[id] = 1
			frame.Ops = append(frame.Ops, Op{
				Kind:      OpCreate,
				ConceptID: id,
				Label:     id,
				PhaseSeed: seed,
				OwnerID:   s.OwnerID,
			})
			continue
		}

		s.concepts[id]++
		frame.Ops = append(frame.Ops, Op{
			Kind:      OpUpdate,
			ConceptID: id,
			Delta:     1,
		})
	}

	if len(referenced) >= 2 {
		coherence := phase.Coherence(seeds)
		frame.Ops = append(frame.Ops, Op{
			Kind:       OpPhaseShift,
			ConceptIDs: referenced,
			Alignment: &Alignment{
				Coherence: coherence,
				Coupling:  1 - phase.Variance(seeds),
				Strength:  phase.ClassifyCoherence(coherence),
			},
		})
	}

	frame.Ops = append(frame.Ops, extra...)

	s.Frames = append(s.Frames, frame)

	l.logger.Debug("frame appended",
		zap.String("session_id", s.ID),
		zap.Int64("frame_id", frame.FrameID),
		zap.Int("concepts", len(referenced)),
	)

	return &s.Frames[len(s.Frames)-1], nil
}
