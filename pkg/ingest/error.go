package ingest

import (
	"fmt"
	"strings"
)

// ValidationError reports every limit violation found in a batch. A batch
// failing validation is rejected whole; no extraction or storage happens.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("batch validation failed: %s", strings.Join(e.Violations, "; "))
}

// ExtractionError records a per-item extraction failure after all retry
// attempts were exhausted. It does not abort the batch.
type ExtractionError struct {
	ItemName string
	Attempts int
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for item %q after %d attempts: %v", e.ItemName, e.Attempts, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
