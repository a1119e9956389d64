package sqlite_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/phasorlabs/phasor/pkg/memstore"
	"github.com/phasorlabs/phasor/pkg/memstore/sqlite"
	"github.com/phasorlabs/phasor/pkg/phase"
)

var _ = Describe("Driver", func() {
	var (
		driver *sqlite.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger, _ := zap.NewDevelopment()
		var err error
		driver, err = sqlite.NewDriver(sqlite.Config{DBPath: ":memory:"}, logger)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if driver != nil {
			driver.Close()
		}
	})

	Describe("NewDriver", func() {
		It("creates a driver with a file database", func() {
			dbPath := filepath.Join(GinkgoT().TempDir(), "test.db")
			logger, _ := zap.NewDevelopment()

			d, err := sqlite.NewDriver(sqlite.Config{DBPath: dbPath}, logger)
			Expect(err).NotTo(HaveOccurred())
			defer d.Close()

			_, err = os.Stat(dbPath)
			Expect(err).NotTo(HaveOccurred())
		})

		It("requires a database path", func() {
			logger, _ := zap.NewDevelopment()
			_, err := sqlite.NewDriver(sqlite.Config{}, logger)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Store", func() {
		It("assigns the deterministic phase and derived amplitude", func() {
			item, err := driver.Store(ctx, "owner-1", "note-1", "hello world", 1.0)
			Expect(err).NotTo(HaveOccurred())

			Expect(item.Phase).To(Equal(phase.Of("owner-1", "note-1")))
			Expect(item.Amplitude).To(Equal(0.5))
			Expect(item.VaultLevel).To(Equal(memstore.VaultNone))
			Expect(item.AccessCount).To(BeZero())
		})

		It("overwrites by identity instead of appending", func() {
			_, err := driver.Store(ctx, "owner-1", "note-1", "first", 0.5)
			Expect(err).NotTo(HaveOccurred())

			item, err := driver.Store(ctx, "owner-1", "note-1", "second", 1.5)
			Expect(err).NotTo(HaveOccurred())
			Expect(item.Content).To(Equal("second"))
			Expect(item.Importance).To(Equal(1.5))

			stats, err := driver.Stats(ctx, "owner-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Count).To(Equal(1))
		})

		It("rejects out-of-range importance", func() {
			_, err := driver.Store(ctx, "owner-1", "note-1", "x", 2.5)
			Expect(err).To(MatchError(memstore.ErrInvalidImportance))

			_, err = driver.Store(ctx, "owner-1", "note-1", "x", -0.1)
			Expect(err).To(MatchError(memstore.ErrInvalidImportance))
		})

		It("isolates owners", func() {
			_, err := driver.Store(ctx, "owner-1", "note-1", "a", 1)
			Expect(err).NotTo(HaveOccurred())
			_, err = driver.Store(ctx, "owner-2", "note-1", "b", 1)
			Expect(err).NotTo(HaveOccurred())

			item, err := driver.RecallByID(ctx, "owner-1", "note-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(item.Content).To(Equal("a"))
		})
	})

	Describe("RecallByID", func() {
		It("increments the access count on each recall", func() {
			_, err := driver.Store(ctx, "owner-1", "note-1", "x", 1)
			Expect(err).NotTo(HaveOccurred())

			for i := 1; i <= 3; i++ {
				item, err := driver.RecallByID(ctx, "owner-1", "note-1")
				Expect(err).NotTo(HaveOccurred())
				Expect(item.AccessCount).To(Equal(i))
			}
		})

		It("returns NotFoundError for unknown identities", func() {
			_, err := driver.RecallByID(ctx, "owner-1", "missing")
			var notFound memstore.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})
	})

	Describe("RecallByPhase", func() {
		BeforeEach(func() {
			for _, id := range []string{"a", "b", "c", "d", "e"} {
				_, err := driver.Store(ctx, "owner-1", id, "content "+id, 1)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("returns items sorted by non-decreasing circular distance", func() {
			target := phase.Of("owner-1", "a")
			results, err := driver.RecallByPhase(ctx, "owner-1", target, phase.TwoPi, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(5))

			Expect(results[0].ItemID).To(Equal("a"))
			Expect(results[0].Score).To(BeNumerically("~", 0, 1e-9))
			for i := 1; i < len(results); i++ {
				Expect(results[i].Score).To(BeNumerically(">=", results[i-1].Score))
			}
		})

		It("filters by tolerance", func() {
			target := phase.Of("owner-1", "a")
			results, err := driver.RecallByPhase(ctx, "owner-1", target, 1e-6, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].ItemID).To(Equal("a"))
		})

		It("truncates to maxResults", func() {
			results, err := driver.RecallByPhase(ctx, "owner-1", 0, phase.TwoPi, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
		})

		It("measures distance the short way around the circle", func() {
			// An item phased just below 2π is close to target 0.
			results, err := driver.RecallByPhase(ctx, "owner-1", 0, phase.TwoPi, 10)
			Expect(err).NotTo(HaveOccurred())
			for _, r := range results {
				d := phase.Distance(r.Phase, 0)
				Expect(r.Score).To(BeNumerically("~", d, 1e-9))
			}
		})

		It("never returns vaulted items", func() {
			Expect(driver.Vault(ctx, "owner-1", "a", memstore.VaultUserSealed)).To(Succeed())

			results, err := driver.RecallByPhase(ctx, "owner-1", phase.Of("owner-1", "a"), phase.TwoPi, 10)
			Expect(err).NotTo(HaveOccurred())
			for _, r := range results {
				Expect(r.ItemID).NotTo(Equal("a"))
			}
		})
	})

	Describe("Correlate", func() {
		BeforeEach(func() {
			for _, id := range []string{"src", "x", "y", "z"} {
				_, err := driver.Store(ctx, "owner-1", id, "content "+id, 1)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("ranks other items by phase proximity to the source", func() {
			results, err := driver.Correlate(ctx, "owner-1", "src", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))

			src := phase.Of("owner-1", "src")
			for i, r := range results {
				Expect(r.ItemID).NotTo(Equal("src"))
				Expect(r.Score).To(BeNumerically("~", phase.Distance(r.Phase, src), 1e-9))
				if i > 0 {
					Expect(r.Score).To(BeNumerically(">=", results[i-1].Score))
				}
			}
		})

		It("excludes vaulted items", func() {
			Expect(driver.Vault(ctx, "owner-1", "x", memstore.VaultSystemSealed)).To(Succeed())

			results, err := driver.Correlate(ctx, "owner-1", "src", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
		})

		It("refuses a vaulted source", func() {
			Expect(driver.Vault(ctx, "owner-1", "src", memstore.VaultUserSealed)).To(Succeed())

			_, err := driver.Correlate(ctx, "owner-1", "src", 10)
			var vaulted memstore.VaultedError
			Expect(errors.As(err, &vaulted)).To(BeTrue())
			Expect(vaulted.ItemID).To(Equal("src"))
			Expect(vaulted.Level).To(Equal(memstore.VaultUserSealed))
		})

		It("returns NotFoundError for an unknown source", func() {
			_, err := driver.Correlate(ctx, "owner-1", "missing", 10)
			var notFound memstore.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})
	})

	Describe("Vault", func() {
		It("round-trips vault levels", func() {
			_, err := driver.Store(ctx, "owner-1", "secret", "x", 1)
			Expect(err).NotTo(HaveOccurred())

			Expect(driver.Vault(ctx, "owner-1", "secret", memstore.VaultUserSealed)).To(Succeed())

			item, err := driver.RecallByID(ctx, "owner-1", "secret")
			Expect(err).NotTo(HaveOccurred())
			Expect(item.VaultLevel).To(Equal(memstore.VaultUserSealed))

			// Un-vaulting restores queryability.
			Expect(driver.Vault(ctx, "owner-1", "secret", memstore.VaultNone)).To(Succeed())
			results, err := driver.RecallByPhase(ctx, "owner-1", item.Phase, 0.01, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).NotTo(BeEmpty())
		})

		It("rejects undefined levels", func() {
			_, err := driver.Store(ctx, "owner-1", "secret", "x", 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver.Vault(ctx, "owner-1", "secret", "bogus")).To(HaveOccurred())
		})

		It("returns NotFoundError for unknown items", func() {
			err := driver.Vault(ctx, "owner-1", "missing", memstore.VaultUserSealed)
			var notFound memstore.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})
	})

	Describe("Stats", func() {
		It("reports the primary engine with fidelity 1.0", func() {
			_, err := driver.Store(ctx, "owner-1", "a", "x", 1)
			Expect(err).NotTo(HaveOccurred())

			stats, err := driver.Stats(ctx, "owner-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Count).To(Equal(1))
			Expect(stats.Engine).To(Equal(memstore.EnginePrimary))
			Expect(stats.Backend).To(Equal("sqlite"))
			Expect(stats.Fidelity).To(Equal(1.0))
		})
	})

	Describe("InitializeOwner", func() {
		It("is idempotent", func() {
			Expect(driver.InitializeOwner(ctx, "owner-1")).To(Succeed())
			Expect(driver.InitializeOwner(ctx, "owner-1")).To(Succeed())
		})
	})
})
