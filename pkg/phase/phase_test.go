package phase_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/phasorlabs/phasor/pkg/phase"
)

var _ = Describe("Of", func() {
	It("is deterministic across repeated calls", func() {
		first := phase.Of("owner-1", "neural networks")
		for range 10 {
			Expect(phase.Of("owner-1", "neural networks")).To(Equal(first))
		}
	})

	It("always returns a value in [0, 2π)", func() {
		inputs := [][2]string{
			{"owner-1", "a"},
			{"owner-1", ""},
			{"", "concept"},
			{"owner-2", "some much longer identity string with spaces"},
			{"owner-3", "unicode: ∂φ/∂t"},
		}
		for _, in := range inputs {
			p := phase.Of(in[0], in[1])
			Expect(p).To(BeNumerically(">=", 0))
			Expect(p).To(BeNumerically("<", phase.TwoPi))
		}
	})

	It("separates owner and identity boundaries", func() {
		// "ab"+"c" must not collide with "a"+"bc".
		Expect(phase.Of("ab", "c")).NotTo(Equal(phase.Of("a", "bc")))
	})

	It("assigns different phases to different identities", func() {
		Expect(phase.Of("owner-1", "alpha")).NotTo(Equal(phase.Of("owner-1", "beta")))
	})
})

var _ = Describe("Perturb", func() {
	It("leaves single-source phases untouched", func() {
		base := phase.Of("o", "c")
		Expect(phase.Perturb(base, 1)).To(Equal(base))
		Expect(phase.Perturb(base, 0)).To(Equal(base))
	})

	It("applies a bounded offset", func() {
		base := 1.0
		Expect(phase.Perturb(base, 3)).To(BeNumerically("~", 1.02, 1e-9))
		// 100 sources would exceed the cap; offset clamps at 0.1.
		Expect(phase.Perturb(base, 100)).To(BeNumerically("~", 1.1, 1e-9))
	})

	It("wraps back into [0, 2π)", func() {
		p := phase.Perturb(phase.TwoPi-0.001, 50)
		Expect(p).To(BeNumerically(">=", 0))
		Expect(p).To(BeNumerically("<", phase.TwoPi))
	})
})

var _ = Describe("Distance", func() {
	It("is zero for identical phases", func() {
		Expect(phase.Distance(1.5, 1.5)).To(BeZero())
	})

	It("takes the short way around the circle", func() {
		Expect(phase.Distance(0.1, phase.TwoPi-0.1)).To(BeNumerically("~", 0.2, 1e-9))
	})

	It("is symmetric", func() {
		Expect(phase.Distance(0.3, 2.8)).To(Equal(phase.Distance(2.8, 0.3)))
	})
})

var _ = Describe("Coherence", func() {
	It("returns 1.0 for identical phases", func() {
		Expect(phase.Coherence([]float64{1.2, 1.2})).To(BeNumerically("~", 1.0, 1e-9))
	})

	It("returns -1.0 for phases exactly π apart", func() {
		Expect(phase.Coherence([]float64{0, math.Pi})).To(BeNumerically("~", -1.0, 1e-9))
	})

	It("is trivially coherent for fewer than two phases", func() {
		Expect(phase.Coherence(nil)).To(Equal(1.0))
		Expect(phase.Coherence([]float64{2.0})).To(Equal(1.0))
	})
})

var _ = Describe("ClassifyCoherence", func() {
	It("buckets by fixed thresholds", func() {
		Expect(phase.ClassifyCoherence(0.9)).To(Equal("high"))
		Expect(phase.ClassifyCoherence(0.7)).To(Equal("high"))
		Expect(phase.ClassifyCoherence(0.5)).To(Equal("medium"))
		Expect(phase.ClassifyCoherence(0.1)).To(Equal("low"))
		Expect(phase.ClassifyCoherence(-1.0)).To(Equal("low"))
	})
})

var _ = Describe("Circular statistics", func() {
	It("computes a circular mean near the cluster", func() {
		// Phases clustered around 0 on both sides of the wrap point.
		m := phase.Mean([]float64{0.1, phase.TwoPi - 0.1})
		Expect(phase.Distance(m, 0)).To(BeNumerically("<", 1e-9))
	})

	It("reports zero variance for coincident phases", func() {
		Expect(phase.Variance([]float64{2.2, 2.2, 2.2})).To(BeNumerically("~", 0, 1e-9))
	})

	It("reports high variance for opposed phases", func() {
		Expect(phase.Variance([]float64{0, math.Pi})).To(BeNumerically("~", 1.0, 1e-9))
	})

	It("measures bin coverage", func() {
		// Two phases in distinct bins of 16.
		Expect(phase.Coverage([]float64{0.01, math.Pi}, 16)).To(BeNumerically("~", 2.0/16.0, 1e-9))
		// Same bin counted once.
		Expect(phase.Coverage([]float64{0.01, 0.02}, 16)).To(BeNumerically("~", 1.0/16.0, 1e-9))
		Expect(phase.Coverage(nil, 16)).To(BeZero())
	})
})
