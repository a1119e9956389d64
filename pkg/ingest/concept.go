package ingest

import (
	"strings"
	"unicode"

	"github.com/phasorlabs/phasor/pkg/memstore"
)

// Concept is a deduplicated extraction result with its provenance.
type Concept struct {
	// ID is the normalized form, used as the memory item id and as the
	// concept id in the session frame.
	ID string `json:"id"`

	// RawForms holds every distinct surface form that normalized to this
	// concept, in first-seen order.
	RawForms []string `json:"raw_forms"`

	// SourceItems names the batch items that produced the concept, in
	// batch order.
	SourceItems []string `json:"source_items"`

	// Methods names the extraction methods that produced the concept, in
	// first-seen order.
	Methods []string `json:"methods"`

	// Phase is the concept's phase after source-count perturbation.
	Phase float64 `json:"phase"`

	// Importance is the derived storage importance in [0, 2].
	Importance float64 `json:"importance"`
}

const (
	baseImportance      = 0.6
	perSourceImportance = 0.2
	multiFormImportance = 0.1
	perMethodImportance = 0.1
)

// importanceOf derives storage importance from provenance: a base for any
// extracted concept, a bonus per additional source item, a bonus per
// additional extraction method, and a small bonus when multiple surface
// forms converged on it.
func importanceOf(sources, rawForms, methods int) float64 {
	v := baseImportance + perSourceImportance*float64(sources-1)
	if methods > 1 {
		v += perMethodImportance * float64(methods-1)
	}
	if rawForms > 1 {
		v += multiFormImportance
	}
	if v > memstore.MaxImportance {
		v = memstore.MaxImportance
	}
	return v
}

// normalizeConcept canonicalizes a raw extracted concept: case folding,
// punctuation stripping and whitespace collapsing. Two raw forms with the
// same normalization are the same concept.
func normalizeConcept(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	lastSpace := true
	for _, r := range strings.ToLower(raw) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		default:
			// punctuation and symbols are dropped
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// conceptSet accumulates concepts across items, deduplicating by normalized
// form while preserving deterministic order: source item order first, then
// first-seen order within an item.
type conceptSet struct {
	byID  map[string]*Concept
	order []string
}

func newConceptSet() *conceptSet {
	return &conceptSet{byID: make(map[string]*Concept)}
}

func (cs *conceptSet) add(raw, sourceItem, method string) {
	id := normalizeConcept(raw)
	if id == "" {
		return
	}
	c, ok := cs.byID[id]
	if !ok {
		c = &Concept{ID: id}
		cs.byID[id] = c
		cs.order = append(cs.order, id)
	}
	if !containsString(c.RawForms, raw) {
		c.RawForms = append(c.RawForms, raw)
	}
	if !containsString(c.SourceItems, sourceItem) {
		c.SourceItems = append(c.SourceItems, sourceItem)
	}
	if method != "" && !containsString(c.Methods, method) {
		c.Methods = append(c.Methods, method)
	}
}

func (cs *conceptSet) concepts() []*Concept {
	out := make([]*Concept, 0, len(cs.order))
	for _, id := range cs.order {
		out = append(out, cs.byID[id])
	}
	return out
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
