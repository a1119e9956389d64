package ingest

import "fmt"

// Limits bounds the size and shape of an accepted batch.
type Limits struct {
	MaxItems      int
	MaxItemBytes  int
	MaxBatchBytes int

	// Kinds lists the item kinds the batch may carry. Empty means the
	// default kinds.
	Kinds []Kind
}

// DefaultLimits match the service-side upload caps.
func DefaultLimits() Limits {
	return Limits{
		MaxItems:      10,
		MaxItemBytes:  1 << 20, // 1 MiB per item
		MaxBatchBytes: 5 << 20, // 5 MiB per batch
		Kinds:         []Kind{KindText, KindMarkdown, KindTranscript},
	}
}

// validate checks the whole batch against the limits and collects every
// violation. Validation is all-or-nothing: one bad item rejects the batch.
func validate(items []Item, limits Limits) error {
	var violations []string

	kinds := limits.Kinds
	if len(kinds) == 0 {
		kinds = DefaultLimits().Kinds
	}
	allowed := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		allowed[k] = true
	}

	if len(items) == 0 {
		violations = append(violations, "batch contains no items")
	}
	if limits.MaxItems > 0 && len(items) > limits.MaxItems {
		violations = append(violations, fmt.Sprintf("batch has %d items, limit is %d", len(items), limits.MaxItems))
	}

	total := 0
	for i := range items {
		it := &items[i]
		name := it.Name
		if name == "" {
			name = fmt.Sprintf("item[%d]", i)
			violations = append(violations, fmt.Sprintf("%s: missing name", name))
		}
		if !allowed[it.Kind] {
			violations = append(violations, fmt.Sprintf("%s: unsupported kind %q", name, it.Kind))
		}
		if len(it.Data) == 0 {
			violations = append(violations, fmt.Sprintf("%s: empty content", name))
		}
		if limits.MaxItemBytes > 0 && len(it.Data) > limits.MaxItemBytes {
			violations = append(violations, fmt.Sprintf("%s: %d bytes exceeds per-item limit of %d", name, len(it.Data), limits.MaxItemBytes))
		}
		total += len(it.Data)
	}
	if limits.MaxBatchBytes > 0 && total > limits.MaxBatchBytes {
		violations = append(violations, fmt.Sprintf("batch totals %d bytes, limit is %d", total, limits.MaxBatchBytes))
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}
