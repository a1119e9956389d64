// Package phase maps (owner, identity) pairs onto a circular coordinate in
// [0, 2π) and provides the circular statistics used for proximity retrieval
// and batch alignment.
//
// The mapping is a pure function: the same inputs yield the same phase across
// calls and across process restarts. Anything that needs a phase (memory
// items, extracted concepts, frame seeds) goes through Of so that identical
// identities always land on the same coordinate.
package phase

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
)

const (
	// TwoPi is the full circle. Phases live in [0, TwoPi).
	TwoPi = 2 * math.Pi

	// domain prefixes the hash input so phase values can never collide with
	// other SHA-256 derived identifiers in the system. The null separators
	// prevent owner/identity boundary ambiguity.
	domain = "phasor/phase/v1"

	// perturbEpsilon is the per-source angular step applied by Perturb.
	perturbEpsilon = 0.01

	// perturbCap bounds the total perturbation so the base phase stays
	// recoverable within a known tolerance.
	perturbCap = 0.1

	// DefaultCoverageBins is the bin count used for phase coverage when the
	// caller does not specify one.
	DefaultCoverageBins = 16
)

// Coherence classification thresholds.
const (
	highCoherence   = 0.7
	mediumCoherence = 0.3
)

// Of returns the deterministic phase for the given owner and identity.
// The result is always in [0, TwoPi).
func Of(ownerID, identity string) float64 {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write([]byte(ownerID))
	h.Write([]byte{0x00})
	h.Write([]byte(identity))
	sum := h.Sum(nil)

	// First 8 bytes as an unsigned integer, scaled onto the circle.
	v := binary.BigEndian.Uint64(sum[:8])
	return float64(v) / float64(math.MaxUint64) * TwoPi
}

// Perturb applies a small deterministic offset to a base phase derived from
// the number of contributing sources. It spreads otherwise-identical phases
// apart without breaking reproducibility: the offset is (sources-1)·ε capped
// at perturbCap, and the result wraps back into [0, TwoPi).
func Perturb(base float64, sources int) float64 {
	if sources <= 1 {
		return Normalize(base)
	}

	offset := float64(sources-1) * perturbEpsilon
	if offset > perturbCap {
		offset = perturbCap
	}

	return Normalize(base + offset)
}

// Normalize wraps an angle into [0, TwoPi).
func Normalize(p float64) float64 {
	p = math.Mod(p, TwoPi)
	if p < 0 {
		p += TwoPi
	}
	return p
}

// Distance returns the circular distance between two phases:
// min(|a-b|, 2π-|a-b|). The result is in [0, π].
func Distance(a, b float64) float64 {
	d := math.Abs(Normalize(a) - Normalize(b))
	if d > math.Pi {
		d = TwoPi - d
	}
	return d
}

// Coherence returns the average of cos(Distance(p_i, p_j)) over all pairs of
// phases. Identical phases contribute cos(0)=1, opposed phases cos(π)=-1.
// With fewer than two phases there are no pairs and the set is trivially
// coherent, so 1.0 is returned.
//
// This is O(n²) in the number of phases.
func Coherence(phases []float64) float64 {
	n := len(phases)
	if n < 2 {
		return 1.0
	}

	var sum float64
	var pairs int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sum += math.Cos(Distance(phases[i], phases[j]))
			pairs++
		}
	}

	return sum / float64(pairs)
}

// ClassifyCoherence buckets a coherence value into a synchronization label.
func ClassifyCoherence(c float64) string {
	switch {
	case c >= highCoherence:
		return "high"
	case c >= mediumCoherence:
		return "medium"
	default:
		return "low"
	}
}

// Mean returns the circular mean of the given phases, computed from the
// resultant vector. Returns 0 for an empty set.
func Mean(phases []float64) float64 {
	if len(phases) == 0 {
		return 0
	}

	var sinSum, cosSum float64
	for _, p := range phases {
		sinSum += math.Sin(p)
		cosSum += math.Cos(p)
	}

	return Normalize(math.Atan2(sinSum, cosSum))
}

// Variance returns the circular variance of the given phases: 1 - R, where R
// is the mean resultant length. 0 means all phases coincide, values toward 1
// mean the phases are spread around the circle. Returns 0 for fewer than two
// phases.
func Variance(phases []float64) float64 {
	n := len(phases)
	if n < 2 {
		return 0
	}

	var sinSum, cosSum float64
	for _, p := range phases {
		sinSum += math.Sin(p)
		cosSum += math.Cos(p)
	}

	r := math.Sqrt(sinSum*sinSum+cosSum*cosSum) / float64(n)
	return 1 - r
}

// Coverage returns the fraction of angular bins touched by at least one
// phase. bins <= 0 falls back to DefaultCoverageBins.
func Coverage(phases []float64, bins int) float64 {
	if bins <= 0 {
		bins = DefaultCoverageBins
	}
	if len(phases) == 0 {
		return 0
	}

	touched := make(map[int]struct{}, bins)
	width := TwoPi / float64(bins)
	for _, p := range phases {
		bin := int(Normalize(p) / width)
		if bin >= bins {
			bin = bins - 1
		}
		touched[bin] = struct{}{}
	}

	return float64(len(touched)) / float64(bins)
}
