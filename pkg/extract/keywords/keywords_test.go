package keywords_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/phasorlabs/phasor/pkg/extract/keywords"
)

var _ = Describe("Extractor", func() {
	var e *keywords.Extractor

	BeforeEach(func() {
		e = keywords.NewExtractor(keywords.Config{})
	})

	It("reports its method as keywords", func() {
		Expect(e.Method()).To(Equal("keywords"))
	})

	Describe("Extract", func() {
		It("ranks words by frequency, most frequent first", func() {
			data := []byte("gradient gradient gradient descent descent momentum")

			concepts, err := e.Extract(context.Background(), "notes.txt", data)
			Expect(err).NotTo(HaveOccurred())
			Expect(concepts).To(Equal([]string{"gradient", "descent", "momentum"}))
		})

		It("breaks frequency ties alphabetically", func() {
			data := []byte("zebra apple zebra apple")

			concepts, err := e.Extract(context.Background(), "notes.txt", data)
			Expect(err).NotTo(HaveOccurred())
			Expect(concepts).To(Equal([]string{"apple", "zebra"}))
		})

		It("lowercases and ignores punctuation", func() {
			data := []byte("Backpropagation! backpropagation, BACKPROPAGATION.")

			concepts, err := e.Extract(context.Background(), "notes.txt", data)
			Expect(err).NotTo(HaveOccurred())
			Expect(concepts).To(Equal([]string{"backpropagation"}))
		})

		It("filters stopwords and short words", func() {
			data := []byte("the and for a an is neural networks because through")

			concepts, err := e.Extract(context.Background(), "notes.txt", data)
			Expect(err).NotTo(HaveOccurred())
			Expect(concepts).To(Equal([]string{"networks", "neural"}))
		})

		It("caps results at the configured maximum", func() {
			e = keywords.NewExtractor(keywords.Config{MaxConcepts: 2})
			data := []byte("alpha alpha alpha beta beta gamma")

			concepts, err := e.Extract(context.Background(), "notes.txt", data)
			Expect(err).NotTo(HaveOccurred())
			Expect(concepts).To(Equal([]string{"alpha", "beta"}))
		})

		It("defaults the cap when the config is zero", func() {
			data := []byte("alpha beta gamma delta epsilon zeta eta theta iota kappa lambda omicron")

			concepts, err := e.Extract(context.Background(), "notes.txt", data)
			Expect(err).NotTo(HaveOccurred())
			Expect(concepts).To(HaveLen(keywords.DefaultMaxConcepts))
		})

		It("returns no concepts for empty content", func() {
			concepts, err := e.Extract(context.Background(), "empty.txt", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(concepts).To(BeEmpty())
		})
	})
})
