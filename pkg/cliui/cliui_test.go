package cliui_test

import (
	"bytes"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/phasorlabs/phasor/pkg/cliui"
)

var _ = Describe("Step", func() {
	It("runs the function and finishes the line with a success mark", func() {
		var buf bytes.Buffer
		ran := false

		err := cliui.Step(&buf, "opening store", func() error {
			ran = true
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(ran).To(BeTrue())

		out := buf.String()
		Expect(out).To(ContainSubstring("opening store"))
		Expect(out).To(ContainSubstring(cliui.SuccessMark))
	})

	It("returns the function's error and finishes with a fail mark", func() {
		var buf bytes.Buffer
		boom := fmt.Errorf("disk full")

		err := cliui.Step(&buf, "storing concepts", func() error { return boom })
		Expect(err).To(MatchError(boom))
		Expect(buf.String()).To(ContainSubstring(cliui.FailMark))
	})
})

var _ = Describe("Mark", func() {
	It("maps nil to the success mark and errors to the fail mark", func() {
		Expect(cliui.Mark(nil)).To(Equal(cliui.SuccessMark))
		Expect(cliui.Mark(fmt.Errorf("nope"))).To(Equal(cliui.FailMark))
	})
})

var _ = Describe("FormatDuration", func() {
	It("renders sub-second durations in milliseconds", func() {
		Expect(cliui.FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
	})

	It("renders longer durations in seconds", func() {
		Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
	})
})
