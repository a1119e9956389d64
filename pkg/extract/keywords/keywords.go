// Package keywords implements a local, deterministic extract.Extractor.
//
// It ranks words by frequency after stopword filtering: no network, no
// model. Useful offline and as the default when no extraction service is
// configured. Ties break alphabetically so results are reproducible.
package keywords

import (
	"context"
	"sort"
	"strings"
	"unicode"
)

// DefaultMaxConcepts bounds the concepts returned per item.
const DefaultMaxConcepts = 10

// minWordLen filters out short function words the stopword list misses.
const minWordLen = 3

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "had": {}, "her": {}, "was": {},
	"one": {}, "our": {}, "out": {}, "has": {}, "have": {}, "this": {},
	"that": {}, "with": {}, "from": {}, "they": {}, "will": {}, "what": {},
	"when": {}, "where": {}, "which": {}, "their": {}, "there": {},
	"these": {}, "those": {}, "been": {}, "were": {}, "than": {}, "then": {},
	"them": {}, "some": {}, "such": {}, "into": {}, "more": {}, "also": {},
	"each": {}, "other": {}, "about": {}, "would": {}, "could": {},
	"should": {}, "because": {}, "between": {}, "through": {}, "during": {},
	"before": {}, "after": {}, "above": {}, "below": {}, "over": {},
	"under": {}, "very": {}, "just": {}, "only": {}, "same": {}, "both": {},
}

// Extractor is a frequency-based keyword extractor.
type Extractor struct {
	maxConcepts int
}

// Config holds configuration for the keyword extractor.
type Config struct {
	// MaxConcepts bounds the concepts returned per item.
	// Defaults to DefaultMaxConcepts if zero.
	MaxConcepts int
}

// NewExtractor creates a keyword extractor.
func NewExtractor(cfg Config) *Extractor {
	maxConcepts := cfg.MaxConcepts
	if maxConcepts <= 0 {
		maxConcepts = DefaultMaxConcepts
	}
	return &Extractor{maxConcepts: maxConcepts}
}

// Method names this extractor for provenance records.
func (e *Extractor) Method() string {
	return "keywords"
}

// Extract returns the most frequent non-stopword words in the item, most
// frequent first, alphabetical within equal frequency.
func (e *Extractor) Extract(_ context.Context, _ string, data []byte) ([]string, error) {
	counts := make(map[string]int)

	words := strings.FieldsFunc(string(data), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	for _, w := range words {
		w = strings.ToLower(w)
		if len(w) < minWordLen {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		counts[w]++
	}

	ranked := make([]string, 0, len(counts))
	for w := range counts {
		ranked = append(ranked, w)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})

	if len(ranked) > e.maxConcepts {
		ranked = ranked[:e.maxConcepts]
	}

	return ranked, nil
}
