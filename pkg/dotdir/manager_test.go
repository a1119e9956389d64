package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/phasorlabs/phasor/pkg/dotdir"
)

var _ = Describe("dotdir", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())

		// Resolve symlinks so paths match filepath.Abs results
		// (e.g. on macOS /var -> /private/var).
		tmpDir, err = filepath.EvalSymlinks(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("NewManager", func() {
		It("creates a new manager", func() {
			Expect(m).ToNot(BeNil())
		})
	})

	Describe("Target", func() {
		It("creates the directory if it doesn't exist", func() {
			dir := filepath.Join(tmpDir, "newdir")
			result, err := m.Target(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(dir))

			info, err := os.Stat(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})

		It("returns the override dir when provided", func() {
			result, err := m.Target(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(tmpDir))
		})
	})

	Describe("ActiveSession", func() {
		It("returns nil when no active session exists", func() {
			state, err := m.LoadActiveSession(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(BeNil())
		})

		It("round-trips an active session pointer", func() {
			in := &dotdir.ActiveSession{
				SessionID: "01JQ0000000000000000000000",
				OwnerID:   "owner-1",
				OwnerName: "Owner",
				Tag:       "research",
			}
			Expect(m.SaveActiveSession(in, tmpDir)).To(Succeed())

			out, err := m.LoadActiveSession(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(in))
		})

		It("rejects saving a nil pointer", func() {
			Expect(m.SaveActiveSession(nil, tmpDir)).To(HaveOccurred())
		})

		It("clears the active session", func() {
			in := &dotdir.ActiveSession{SessionID: "s", OwnerID: "o", OwnerName: "n"}
			Expect(m.SaveActiveSession(in, tmpDir)).To(Succeed())
			Expect(m.ClearActiveSession(tmpDir)).To(Succeed())

			state, err := m.LoadActiveSession(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(BeNil())
		})

		It("clearing twice is not an error", func() {
			Expect(m.ClearActiveSession(tmpDir)).To(Succeed())
			Expect(m.ClearActiveSession(tmpDir)).To(Succeed())
		})
	})
})
