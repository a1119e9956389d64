package eventlog_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/phasorlabs/phasor/pkg/eventlog"
	"github.com/phasorlabs/phasor/pkg/phase"
)

func newTestLog() *eventlog.Log {
	logger, _ := zap.NewDevelopment()
	log, err := eventlog.NewLog(GinkgoT().TempDir(), logger)
	Expect(err).NotTo(HaveOccurred())
	return log
}

var _ = Describe("Log", func() {
	var (
		log *eventlog.Log
		ctx context.Context
	)

	BeforeEach(func() {
		log = newTestLog()
		ctx = context.Background()
	})

	Describe("CreateSession", func() {
		It("allocates a fresh active session", func() {
			s, err := log.CreateSession("owner-1", "Ada", "research")
			Expect(err).NotTo(HaveOccurred())
			Expect(s.ID).NotTo(BeEmpty())
			Expect(s.Status).To(Equal(eventlog.StatusActive))
			Expect(s.Frames).To(BeEmpty())
		})

		It("allocates distinct session ids", func() {
			a, err := log.CreateSession("owner-1", "Ada", "")
			Expect(err).NotTo(HaveOccurred())
			b, err := log.CreateSession("owner-1", "Ada", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(a.ID).NotTo(Equal(b.ID))
		})

		It("rejects missing owner fields", func() {
			_, err := log.CreateSession("", "Ada", "")
			Expect(err).To(HaveOccurred())
			_, err = log.CreateSession("owner-1", "", "")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("AppendFrame", func() {
		var s *eventlog.Session

		BeforeEach(func() {
			var err error
			s, err = log.CreateSession("owner-1", "Ada", "research")
			Expect(err).NotTo(HaveOccurred())
		})

		It("assigns gapless frame ids starting at 1", func() {
			for range 5 {
				_, err := log.AppendFrame(s, "in", "out", nil)
				Expect(err).NotTo(HaveOccurred())
			}

			Expect(s.Frames).To(HaveLen(5))
			for i, f := range s.Frames {
				Expect(f.FrameID).To(Equal(int64(i + 1)))
			}
		})

		It("keeps frame ids gapless under concurrent appends", func() {
			var wg sync.WaitGroup
			for range 20 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					_, err := log.AppendFrame(s, "in", "out", nil)
					Expect(err).NotTo(HaveOccurred())
				}()
			}
			wg.Wait()

			Expect(s.Frames).To(HaveLen(20))
			for i, f := range s.Frames {
				Expect(f.FrameID).To(Equal(int64(i + 1)))
			}
		})

		It("emits a create op with a deterministic phase seed on first reference", func() {
			f, err := log.AppendFrame(s, "q", "a", []string{"gradient descent"})
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Ops).To(HaveLen(1))

			op := f.Ops[0]
			Expect(op.Kind).To(Equal(eventlog.OpCreate))
			Expect(op.ConceptID).To(Equal("gradient descent"))
			Expect(op.OwnerID).To(Equal("owner-1"))
			Expect(op.PhaseSeed).To(Equal(phase.Of("owner-1", "gradient descent")))
		})

		It("emits an update op on repeat references", func() {
			_, err := log.AppendFrame(s, "q1", "a1", []string{"gradient descent"})
			Expect(err).NotTo(HaveOccurred())

			f, err := log.AppendFrame(s, "q2", "a2", []string{"gradient descent"})
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Ops).To(HaveLen(1))
			Expect(f.Ops[0].Kind).To(Equal(eventlog.OpUpdate))
			Expect(f.Ops[0].Delta).To(Equal(1))
		})

		It("adds a phase shift op when two or more concepts are referenced", func() {
			f, err := log.AppendFrame(s, "q", "a", []string{"alpha", "beta"})
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Ops).To(HaveLen(3))

			shift := f.Ops[2]
			Expect(shift.Kind).To(Equal(eventlog.OpPhaseShift))
			Expect(shift.ConceptIDs).To(ConsistOf("alpha", "beta"))
			Expect(shift.Alignment).NotTo(BeNil())
			Expect(shift.Alignment.Strength).NotTo(BeEmpty())
		})

		It("does not add a phase shift op for a single concept", func() {
			f, err := log.AppendFrame(s, "q", "a", []string{"alpha"})
			Expect(err).NotTo(HaveOccurred())
			for _, op := range f.Ops {
				Expect(op.Kind).NotTo(Equal(eventlog.OpPhaseShift))
			}
		})

		It("collapses duplicate references within one frame", func() {
			f, err := log.AppendFrame(s, "q", "a", []string{"alpha", "alpha"})
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Ops).To(HaveLen(1))
			Expect(f.Ops[0].Kind).To(Equal(eventlog.OpCreate))
		})

		It("tracks concepts created in first-seen order", func() {
			_, err := log.AppendFrame(s, "q", "a", []string{"beta", "alpha"})
			Expect(err).NotTo(HaveOccurred())
			_, err = log.AppendFrame(s, "q", "a", []string{"gamma", "alpha"})
			Expect(err).NotTo(HaveOccurred())

			Expect(s.ConceptsCreated()).To(Equal([]string{"beta", "alpha", "gamma"}))
		})
	})

	Describe("Persist", func() {
		var s *eventlog.Session

		BeforeEach(func() {
			var err error
			s, err = log.CreateSession("owner-1", "Ada", "research")
			Expect(err).NotTo(HaveOccurred())
			_, err = log.AppendFrame(s, "q", "a", []string{"alpha"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("writes the frame log and metadata sidecar", func() {
			paths, err := log.Persist(ctx, s)
			Expect(err).NotTo(HaveOccurred())

			Expect(paths.LogPath).To(BeAnExistingFile())
			Expect(paths.MetaPath).To(BeAnExistingFile())
			Expect(s.Status).To(Equal(eventlog.StatusSaved))
		})

		It("closes the session to further appends", func() {
			_, err := log.Persist(ctx, s)
			Expect(err).NotTo(HaveOccurred())

			_, err = log.AppendFrame(s, "q", "a", nil)
			Expect(err).To(MatchError(eventlog.ErrSessionClosed))
		})

		It("persists exactly once", func() {
			_, err := log.Persist(ctx, s)
			Expect(err).NotTo(HaveOccurred())

			_, err = log.Persist(ctx, s)
			Expect(err).To(MatchError(eventlog.ErrSessionClosed))
		})

		It("records the concept list in the sidecar", func() {
			_, err := log.AppendFrame(s, "q", "a", []string{"beta"})
			Expect(err).NotTo(HaveOccurred())

			_, err = log.Persist(ctx, s)
			Expect(err).NotTo(HaveOccurred())

			meta, err := log.Meta(s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(meta.FrameCount).To(Equal(2))
			Expect(meta.ConceptsCreated).To(Equal(2))
			Expect(meta.ConceptsList).To(Equal([]string{"alpha", "beta"}))
		})
	})

	Describe("Replay", func() {
		It("reconstructs the persisted frame sequence", func() {
			s, err := log.CreateSession("owner-1", "Ada", "research")
			Expect(err).NotTo(HaveOccurred())
			for range 3 {
				_, err := log.AppendFrame(s, "q", "a", []string{"alpha"})
				Expect(err).NotTo(HaveOccurred())
			}
			_, err = log.Persist(ctx, s)
			Expect(err).NotTo(HaveOccurred())

			frames, err := log.Replay(ctx, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(frames).To(HaveLen(3))
			Expect(frames[0].FrameID).To(Equal(int64(1)))
			Expect(frames[2].FrameID).To(Equal(int64(3)))
			Expect(frames[0].Ops[0].Kind).To(Equal(eventlog.OpCreate))
		})

		It("returns NotFoundError for an unknown session", func() {
			_, err := log.Replay(ctx, "01XXXXXXXXXXXXXXXXXXXXXXXX")
			var notFound eventlog.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})

		It("aborts the whole replay on a corrupt record", func() {
			s, err := log.CreateSession("owner-1", "Ada", "research")
			Expect(err).NotTo(HaveOccurred())
			_, err = log.AppendFrame(s, "q", "a", nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = log.AppendFrame(s, "q", "a", nil)
			Expect(err).NotTo(HaveOccurred())
			paths, err := log.Persist(ctx, s)
			Expect(err).NotTo(HaveOccurred())

			// Corrupt the second record.
			data, err := os.ReadFile(paths.LogPath)
			Expect(err).NotTo(HaveOccurred())
			lines := splitLines(data)
			lines[1] = []byte(`{"frame_id": not json`)
			Expect(os.WriteFile(paths.LogPath, joinLines(lines), 0o644)).To(Succeed())

			frames, err := log.Replay(ctx, s.ID)
			Expect(frames).To(BeNil())

			var corrupt eventlog.CorruptLogError
			Expect(errors.As(err, &corrupt)).To(BeTrue())
			Expect(corrupt.Line).To(Equal(2))
		})
	})

	Describe("Search", func() {
		It("finds sessions whose concept set contains the id", func() {
			a, err := log.CreateSession("owner-1", "Ada", "t1")
			Expect(err).NotTo(HaveOccurred())
			_, err = log.AppendFrame(a, "q", "a", []string{"alpha"})
			Expect(err).NotTo(HaveOccurred())
			_, err = log.Persist(ctx, a)
			Expect(err).NotTo(HaveOccurred())

			b, err := log.CreateSession("owner-1", "Ada", "t2")
			Expect(err).NotTo(HaveOccurred())
			_, err = log.AppendFrame(b, "q", "a", []string{"beta"})
			Expect(err).NotTo(HaveOccurred())
			_, err = log.Persist(ctx, b)
			Expect(err).NotTo(HaveOccurred())

			refs, err := log.Search(ctx, "alpha")
			Expect(err).NotTo(HaveOccurred())
			Expect(refs).To(HaveLen(1))
			Expect(refs[0].SessionID).To(Equal(a.ID))
			Expect(refs[0].Tag).To(Equal("t1"))
		})

		It("returns nothing for an unknown concept", func() {
			refs, err := log.Search(ctx, "nope")
			Expect(err).NotTo(HaveOccurred())
			Expect(refs).To(BeEmpty())
		})
	})

	Describe("Export and verify", func() {
		var sessionID string

		BeforeEach(func() {
			s, err := log.CreateSession("owner-1", "Ada", "research")
			Expect(err).NotTo(HaveOccurred())
			_, err = log.AppendFrame(s, "q1", "a1", []string{"alpha", "beta"})
			Expect(err).NotTo(HaveOccurred())
			_, err = log.AppendFrame(s, "q2", "a2", []string{"alpha"})
			Expect(err).NotTo(HaveOccurred())
			_, err = log.Persist(ctx, s)
			Expect(err).NotTo(HaveOccurred())
			sessionID = s.ID
		})

		It("round-trips the checksum", func() {
			pkg, err := log.Export(ctx, sessionID)
			Expect(err).NotTo(HaveOccurred())
			Expect(pkg.Version).To(Equal(eventlog.ExportVersion))
			Expect(pkg.Type).To(Equal("conversation"))
			Expect(pkg.Frames).To(HaveLen(2))

			Expect(eventlog.ImportAndVerify(pkg)).To(Succeed())
		})

		It("detects tampered frames", func() {
			pkg, err := log.Export(ctx, sessionID)
			Expect(err).NotTo(HaveOccurred())

			pkg.Frames[0].Output = "rewritten history"

			err = eventlog.ImportAndVerify(pkg)
			var mismatch eventlog.ChecksumMismatchError
			Expect(errors.As(err, &mismatch)).To(BeTrue())
		})

		It("fails with NotFoundError for an unknown session", func() {
			_, err := log.Export(ctx, "01XXXXXXXXXXXXXXXXXXXXXXXX")
			var notFound eventlog.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})
	})
})

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, append([]byte(nil), data[start:i]...))
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, append([]byte(nil), data[start:]...))
	}
	return lines
}

func joinLines(lines [][]byte) []byte {
	var out []byte
	for _, l := range lines {
		out = append(out, l...)
		out = append(out, '\n')
	}
	return out
}

var _ = Describe("Checksum", func() {
	It("is stable for identical frame sequences", func() {
		frames := []eventlog.Frame{{FrameID: 1, Input: "a", Output: "b"}}
		c1, err := eventlog.Checksum(frames)
		Expect(err).NotTo(HaveOccurred())
		c2, err := eventlog.Checksum(frames)
		Expect(err).NotTo(HaveOccurred())
		Expect(c1).To(Equal(c2))
	})

	It("changes when any frame changes", func() {
		c1, err := eventlog.Checksum([]eventlog.Frame{{FrameID: 1, Input: "a"}})
		Expect(err).NotTo(HaveOccurred())
		c2, err := eventlog.Checksum([]eventlog.Frame{{FrameID: 1, Input: "b"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(c1).NotTo(Equal(c2))
	})

	It("is order sensitive", func() {
		a := eventlog.Frame{FrameID: 1, Input: "a"}
		b := eventlog.Frame{FrameID: 2, Input: "b"}
		c1, err := eventlog.Checksum([]eventlog.Frame{a, b})
		Expect(err).NotTo(HaveOccurred())
		c2, err := eventlog.Checksum([]eventlog.Frame{b, a})
		Expect(err).NotTo(HaveOccurred())
		Expect(c1).NotTo(Equal(c2))
	})
})

var _ = Describe("filepath layout", func() {
	It("keeps logs and sidecars side by side in the log dir", func() {
		log := newTestLog()
		s, err := log.CreateSession("owner-1", "Ada", "")
		Expect(err).NotTo(HaveOccurred())
		paths, err := log.Persist(context.Background(), s)
		Expect(err).NotTo(HaveOccurred())

		Expect(filepath.Dir(paths.LogPath)).To(Equal(filepath.Dir(paths.MetaPath)))
		Expect(filepath.Base(paths.LogPath)).To(Equal(s.ID + ".jsonl"))
		Expect(filepath.Base(paths.MetaPath)).To(Equal(s.ID + ".meta.json"))
	})
})
