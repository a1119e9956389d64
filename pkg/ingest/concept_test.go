package ingest

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("importanceOf", func() {
	It("starts at the base for a single-source, single-method concept", func() {
		Expect(importanceOf(1, 1, 1)).To(BeNumerically("~", 0.6, 1e-9))
	})

	It("adds a bonus per additional extraction method", func() {
		Expect(importanceOf(1, 1, 2)).To(BeNumerically("~", 0.7, 1e-9))
		Expect(importanceOf(2, 2, 2)).To(BeNumerically("~", 1.0, 1e-9))
	})

	It("caps at the maximum storable importance", func() {
		Expect(importanceOf(10, 5, 4)).To(BeNumerically("~", 2.0, 1e-9))
	})
})

var _ = Describe("conceptSet", func() {
	It("deduplicates extraction methods per concept", func() {
		cs := newConceptSet()
		cs.add("Neural Networks", "a.txt", "keywords")
		cs.add("neural networks!", "b.txt", "keywords")
		cs.add("neural networks", "c.txt", "remote")

		concepts := cs.concepts()
		Expect(concepts).To(HaveLen(1))
		Expect(concepts[0].Methods).To(Equal([]string{"keywords", "remote"}))
		Expect(concepts[0].SourceItems).To(Equal([]string{"a.txt", "b.txt", "c.txt"}))
	})
})
