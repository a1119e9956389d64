// Package ingest implements batch concept ingestion: validate a batch of
// uploaded items, extract concepts from each, deduplicate them with full
// provenance, phase-tag and store them, and record the whole batch as a
// single session frame.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/phasorlabs/phasor/pkg/eventlog"
	"github.com/phasorlabs/phasor/pkg/eventstream"
	"github.com/phasorlabs/phasor/pkg/extract"
	"github.com/phasorlabs/phasor/pkg/memstore"
	"github.com/phasorlabs/phasor/pkg/phase"
)

const (
	defaultMaxAttempts    uint = 3
	defaultInitialBackoff      = 200 * time.Millisecond
)

// Config is the configuration options for the ingestion pipeline.
type Config struct {
	// Log records each batch as a one-frame session.
	Log *eventlog.Log

	// Store persists the extracted concepts.
	Store memstore.Driver

	// Extractor produces concept names from item content.
	Extractor extract.Extractor

	// Publisher receives a batch event after processing (optional).
	Publisher eventstream.Publisher

	// Limits bounds accepted batches (zero value means DefaultLimits).
	Limits Limits

	// MaxAttempts caps extraction attempts per item (defaults to 3).
	MaxAttempts uint

	// InitialBackoff seeds the exponential backoff between extraction
	// attempts (defaults to 200ms).
	InitialBackoff time.Duration

	// Logger is the provided zap logger.
	Logger *zap.Logger
}

// BatchRequest describes one batch to process.
type BatchRequest struct {
	OwnerID   string
	OwnerName string
	Items     []Item
}

// Pipeline processes batches of uploaded items into stored, phase-tagged
// concepts plus one session frame per batch.
type Pipeline struct {
	log       *eventlog.Log
	store     memstore.Driver
	extractor extract.Extractor
	publisher eventstream.Publisher
	limits    Limits
	attempts  uint
	backoff   time.Duration
	logger    *zap.Logger
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(c *Config) (*Pipeline, error) {
	if c.Log == nil {
		return nil, fmt.Errorf("ingestion pipeline requires an event log")
	}
	if c.Store == nil {
		return nil, fmt.Errorf("ingestion pipeline requires a memory store")
	}
	if c.Extractor == nil {
		return nil, fmt.Errorf("ingestion pipeline requires an extractor")
	}

	limits := c.Limits
	if limits.MaxItems == 0 && limits.MaxItemBytes == 0 && limits.MaxBatchBytes == 0 && len(limits.Kinds) == 0 {
		limits = DefaultLimits()
	}
	if len(limits.Kinds) == 0 {
		limits.Kinds = DefaultLimits().Kinds
	}
	attempts := c.MaxAttempts
	if attempts == 0 {
		attempts = defaultMaxAttempts
	}
	initial := c.InitialBackoff
	if initial == 0 {
		initial = defaultInitialBackoff
	}
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pipeline{
		log:       c.Log,
		store:     c.Store,
		extractor: c.Extractor,
		publisher: c.Publisher,
		limits:    limits,
		attempts:  attempts,
		backoff:   initial,
		logger:    logger,
	}, nil
}

// ProcessBatch runs the full pipeline for one batch. Item Release hooks are
// invoked exactly once on every exit path. Validation failure rejects the
// batch whole with no side effects; extraction and storage failures are
// per-item and per-concept, recorded in the result while the batch
// continues.
func (p *Pipeline) ProcessBatch(ctx context.Context, req BatchRequest) (*Result, error) {
	defer releaseAll(req.Items)

	var violations []string
	if req.OwnerID == "" {
		violations = append(violations, "missing owner id")
	}
	if req.OwnerName == "" {
		violations = append(violations, "missing owner name")
	}
	if err := validate(req.Items, p.limits); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			violations = append(violations, verr.Violations...)
		} else {
			violations = append(violations, err.Error())
		}
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	result := &Result{
		BatchID: uuid.NewString(),
		OwnerID: req.OwnerID,
	}

	p.logger.Info("processing batch",
		zap.String("batch_id", result.BatchID),
		zap.String("owner_id", req.OwnerID),
		zap.Int("items", len(req.Items)),
	)

	// Extraction runs per item with retry; a failed item is recorded and
	// skipped, never fatal to the batch.
	cs := newConceptSet()
	for i := range req.Items {
		it := &req.Items[i]
		names, err := p.extractWithRetry(ctx, it)
		if err != nil {
			extErr := &ExtractionError{ItemName: it.Name, Attempts: int(p.attempts), Err: err}
			result.Items = append(result.Items, ItemResult{Name: it.Name, Error: extErr.Error()})
			result.Errors = append(result.Errors, extErr.Error())
			p.logger.Warn("item extraction failed",
				zap.String("batch_id", result.BatchID),
				zap.String("item", it.Name),
				zap.Error(err),
			)
			continue
		}
		for _, raw := range names {
			cs.add(raw, it.Name, p.extractor.Method())
		}
		result.Items = append(result.Items, ItemResult{Name: it.Name, Concepts: len(names)})
	}

	// Phase-tag: deterministic base phase per concept identity, perturbed
	// by the number of contributing source items.
	result.Concepts = cs.concepts()
	phases := make([]float64, 0, len(result.Concepts))
	for _, c := range result.Concepts {
		c.Phase = phase.Perturb(phase.Of(req.OwnerID, c.ID), len(c.SourceItems))
		c.Importance = importanceOf(len(c.SourceItems), len(c.RawForms), len(c.Methods))
		phases = append(phases, c.Phase)
	}

	if err := p.store.InitializeOwner(ctx, req.OwnerID); err != nil {
		return nil, fmt.Errorf("initializing owner %s: %w", req.OwnerID, err)
	}
	for _, c := range result.Concepts {
		content := c.ID
		if len(c.RawForms) > 0 {
			content = c.RawForms[0]
		}
		if _, err := p.store.Store(ctx, req.OwnerID, c.ID, content, c.Importance); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("storing concept %q: %v", c.ID, err))
			p.logger.Warn("concept store failed",
				zap.String("batch_id", result.BatchID),
				zap.String("concept", c.ID),
				zap.Error(err),
			)
			continue
		}
		result.Stored++
	}

	result.Coherence = phase.Coherence(phases)
	result.Strength = phase.ClassifyCoherence(result.Coherence)

	switch {
	case len(result.Errors) > 0 && result.Stored == 0:
		result.Status = BatchFailed
	case len(result.Errors) > 0:
		result.Status = BatchCompleteWithErrors
	default:
		result.Status = BatchComplete
	}

	frame, sessionID, err := p.logBatch(ctx, req, result, phases)
	if err != nil {
		return nil, err
	}
	result.SessionID = sessionID
	result.FrameID = frame.FrameID

	p.publishBatch(ctx, req, result, phases)

	p.logger.Info("batch complete",
		zap.String("batch_id", result.BatchID),
		zap.String("session_id", result.SessionID),
		zap.String("status", result.Status),
		zap.Int("concepts", len(result.Concepts)),
		zap.Int("stored", result.Stored),
		zap.Int("errors", len(result.Errors)),
	)

	return result, nil
}

// extractWithRetry runs the extractor with exponential backoff, up to the
// configured attempt cap.
func (p *Pipeline) extractWithRetry(ctx context.Context, it *Item) ([]string, error) {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = p.backoff

	return backoff.Retry(ctx, func() ([]string, error) {
		return p.extractor.Extract(ctx, it.Name, it.Data)
	}, backoff.WithBackOff(expo), backoff.WithMaxTries(p.attempts))
}

// logBatch records the batch as a fresh single-frame session: one create op
// per concept plus one batch_align op carrying the phase distribution.
func (p *Pipeline) logBatch(ctx context.Context, req BatchRequest, result *Result, phases []float64) (*eventlog.Frame, string, error) {
	session, err := p.log.CreateSession(req.OwnerID, req.OwnerName, "batch:"+result.BatchID)
	if err != nil {
		return nil, "", fmt.Errorf("creating batch session: %w", err)
	}

	namespace := "batch:" + result.BatchID
	ops := make([]eventlog.Op, 0, len(result.Concepts)+1)
	conceptIDs := make([]string, 0, len(result.Concepts))
	for _, c := range result.Concepts {
		label := c.ID
		if len(c.RawForms) > 0 {
			label = c.RawForms[0]
		}
		ops = append(ops, eventlog.Op{
			Kind:      eventlog.OpCreate,
			ConceptID: c.ID,
			Label:     label,
			PhaseSeed: c.Phase,
			OwnerID:   req.OwnerID,
			Namespace: namespace,
		})
		conceptIDs = append(conceptIDs, c.ID)
	}
	ops = append(ops, eventlog.Op{
		Kind:         eventlog.OpBatchAlign,
		ConceptIDs:   conceptIDs,
		Distribution: phases,
		Alignment: &eventlog.Alignment{
			Coherence: result.Coherence,
			Coupling:  1 - phase.Variance(phases),
			Strength:  result.Strength,
			MeanPhase: phase.Mean(phases),
			Variance:  phase.Variance(phases),
			Coverage:  phase.Coverage(phases, phase.DefaultCoverageBins),
		},
	})

	input := fmt.Sprintf("batch ingest %s: %d items", result.BatchID, len(req.Items))
	frame, err := p.log.AppendFrameOps(session, input, result.Summary(), nil, ops)
	if err != nil {
		return nil, "", fmt.Errorf("logging batch frame: %w", err)
	}

	if _, err := p.log.Persist(ctx, session); err != nil {
		return nil, "", fmt.Errorf("persisting batch session: %w", err)
	}

	return frame, session.ID, nil
}

// publishBatch emits the batch event and the session persistence event.
// Publishing is best-effort: failures are logged, never surfaced to the
// caller.
func (p *Pipeline) publishBatch(ctx context.Context, req BatchRequest, result *Result, phases []float64) {
	if p.publisher == nil {
		return
	}

	event := &eventstream.BatchIngestedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeBatchIngested,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Batch: eventstream.BatchMeta{
			BatchID:      result.BatchID,
			OwnerID:      req.OwnerID,
			SessionID:    result.SessionID,
			ItemCount:    len(req.Items),
			ConceptCount: len(result.Concepts),
			StoredCount:  result.Stored,
			ErrorCount:   len(result.Errors),
		},
		Phases: eventstream.PhasesMeta{
			Coherence: result.Coherence,
			MeanPhase: phase.Mean(phases),
			Variance:  phase.Variance(phases),
			Coverage:  phase.Coverage(phases, phase.DefaultCoverageBins),
		},
	}

	if err := p.publisher.PublishBatch(ctx, event); err != nil {
		p.logger.Warn("batch event publish failed",
			zap.String("batch_id", result.BatchID),
			zap.Error(err),
		)
	}

	persisted := &eventstream.SessionPersistedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeSessionPersisted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		SessionID:     result.SessionID,
		OwnerID:       req.OwnerID,
		FrameCount:    1,
		ConceptCount:  len(result.Concepts),
	}
	if err := p.publisher.PublishSession(ctx, persisted); err != nil {
		p.logger.Warn("session event publish failed",
			zap.String("session_id", result.SessionID),
			zap.Error(err),
		)
	}
}
