// Package verifycmder provides the verify command for checking the
// integrity of an exported session package.
package verifycmder

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phasorlabs/phasor/pkg/cliui"
	"github.com/phasorlabs/phasor/pkg/eventlog"
)

const verifyLongDesc string = `Verify an exported session package.

Recomputes the checksum over the package's frames and compares it to the
embedded checksum. A mismatch means the frames were modified after export.

Examples:
  phasor verify session.json`

const verifyShortDesc string = "Verify an exported session package"

func NewVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <package-file>",
		Short: verifyShortDesc,
		Long:  verifyLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runVerify(args[0])
		},
	}

	return cmd
}

func runVerify(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading package: %w", err)
	}

	pkg := &eventlog.ExportPackage{}
	if err := json.Unmarshal(data, pkg); err != nil {
		return fmt.Errorf("parsing package: %w", err)
	}

	if err := eventlog.ImportAndVerify(pkg); err != nil {
		var mismatch eventlog.ChecksumMismatchError
		if errors.As(err, &mismatch) {
			fmt.Printf("  %s Checksum mismatch for %s\n", cliui.FailMark, cliui.KeyStyle.Render(pkg.SessionID))
			fmt.Printf("    %s\n", cliui.DimStyle.Render("want "+mismatch.Want))
			fmt.Printf("    %s\n", cliui.DimStyle.Render("got  "+mismatch.Got))
		}
		return err
	}

	fmt.Printf("  %s %s verified %s\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(pkg.SessionID),
		cliui.DimStyle.Render(fmt.Sprintf("(%d frames)", len(pkg.Frames))),
	)
	return nil
}
