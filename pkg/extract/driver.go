// Package extract defines the contract with the concept extraction service.
//
// An Extractor turns raw item bytes into concept-name strings. Any failure is
// treated as retryable by the ingestion pipeline: the pipeline owns retry
// policy, extractors just report errors.
package extract

import (
	"context"
	"errors"
)

// ErrExtraction is returned (possibly wrapped) when an extractor cannot
// produce concepts for an item.
var ErrExtraction = errors.New("concept extraction failed")

// Extractor turns raw item bytes into a list of concept-name strings.
type Extractor interface {
	// Extract returns the concept names found in the item's content.
	// name identifies the item for diagnostics only.
	Extract(ctx context.Context, name string, data []byte) ([]string, error)

	// Method names the extraction method for provenance records.
	Method() string
}
