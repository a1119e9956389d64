package inmemory_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/phasorlabs/phasor/pkg/memstore"
	"github.com/phasorlabs/phasor/pkg/memstore/inmemory"
)

var _ = Describe("Driver", func() {
	var (
		driver *inmemory.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		logger, _ := zap.NewDevelopment()
		driver = inmemory.NewDriver(logger)
		ctx = context.Background()
	})

	It("reports the fallback engine", func() {
		Expect(driver.Engine()).To(Equal(memstore.EngineFallback))
	})

	Describe("Store and RecallByID", func() {
		It("stores and recalls by identity", func() {
			_, err := driver.Store(ctx, "owner-1", "note-1", "hello", 1)
			Expect(err).NotTo(HaveOccurred())

			item, err := driver.RecallByID(ctx, "owner-1", "note-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(item.Content).To(Equal("hello"))
			Expect(item.AccessCount).To(Equal(1))
		})

		It("preserves access count and vault level across overwrites", func() {
			_, err := driver.Store(ctx, "owner-1", "note-1", "first", 1)
			Expect(err).NotTo(HaveOccurred())
			_, err = driver.RecallByID(ctx, "owner-1", "note-1")
			Expect(err).NotTo(HaveOccurred())

			item, err := driver.Store(ctx, "owner-1", "note-1", "second", 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(item.AccessCount).To(Equal(1))
		})
	})

	Describe("capability gating", func() {
		It("rejects proximity queries with a typed error", func() {
			_, err := driver.RecallByPhase(ctx, "owner-1", 0, 1, 10)
			Expect(err).To(MatchError(memstore.ErrCapabilityUnsupported))
		})

		It("rejects vaulting with a typed error", func() {
			err := driver.Vault(ctx, "owner-1", "note-1", memstore.VaultUserSealed)
			Expect(err).To(MatchError(memstore.ErrCapabilityUnsupported))
		})
	})

	Describe("Correlate", func() {
		BeforeEach(func() {
			_, err := driver.Store(ctx, "owner-1", "src", "neural networks learn representations", 1)
			Expect(err).NotTo(HaveOccurred())
			_, err = driver.Store(ctx, "owner-1", "close", "neural networks are universal", 1)
			Expect(err).NotTo(HaveOccurred())
			_, err = driver.Store(ctx, "owner-1", "far", "networks", 1)
			Expect(err).NotTo(HaveOccurred())
			_, err = driver.Store(ctx, "owner-1", "unrelated", "completely different topic", 1)
			Expect(err).NotTo(HaveOccurred())
		})

		It("ranks by token overlap ratio over the source word set", func() {
			results, err := driver.Correlate(ctx, "owner-1", "src", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))

			// Source has 4 distinct tokens; "close" shares 2, "far" shares 1.
			Expect(results[0].ItemID).To(Equal("close"))
			Expect(results[0].Score).To(BeNumerically("~", 0.5, 1e-9))
			Expect(results[1].ItemID).To(Equal("far"))
			Expect(results[1].Score).To(BeNumerically("~", 0.25, 1e-9))
		})

		It("is case-insensitive", func() {
			_, err := driver.Store(ctx, "owner-1", "caps", "NEURAL NETWORKS", 1)
			Expect(err).NotTo(HaveOccurred())

			results, err := driver.Correlate(ctx, "owner-1", "caps", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(results[0].Score).To(BeNumerically(">", 0))
		})

		It("returns NotFoundError for an unknown source", func() {
			_, err := driver.Correlate(ctx, "owner-1", "missing", 10)
			var notFound memstore.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})
	})

	Describe("Stats", func() {
		It("reports the fallback engine and its documented fidelity estimate", func() {
			_, err := driver.Store(ctx, "owner-1", "a", "x", 1)
			Expect(err).NotTo(HaveOccurred())

			stats, err := driver.Stats(ctx, "owner-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Count).To(Equal(1))
			Expect(stats.Engine).To(Equal(memstore.EngineFallback))
			Expect(stats.Backend).To(Equal("inmemory"))
			Expect(stats.Fidelity).To(Equal(inmemory.FallbackFidelity))
		})
	})
})
