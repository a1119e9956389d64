// Package exportcmder provides the export command for packaging a session
// into a portable, checksummed JSON document.
package exportcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/phasorlabs/phasor/cmd/phasor/setup"
	"github.com/phasorlabs/phasor/pkg/cliui"
	"github.com/phasorlabs/phasor/pkg/config"
	"github.com/phasorlabs/phasor/pkg/logger"
)

const exportLongDesc string = `Export a persisted session as a portable JSON package.

The package carries the session metadata, every frame, and a checksum over
the frame content. "phasor verify" checks an exported package's integrity.

Writes to stdout unless --output is given.

Examples:
  phasor export 01JQX2R8Z9V4N8W1T5M3K7B2C6
  phasor export 01JQX2R8Z9V4N8W1T5M3K7B2C6 --output session.json`

const exportShortDesc string = "Export a session as a checksummed package"

type exportCommander struct {
	sessionID string
	output    string

	configDir string
	debug     bool
	logDir    string

	v      *viper.Viper
	logger *zap.Logger
}

func NewExportCmd() *cobra.Command {
	cmder := &exportCommander{}

	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: exportShortDesc,
		Long:  exportLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.debug, _ = cmd.Flags().GetBool("debug")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.DefaultFlagSet, []string{config.FlagLogDir})
			cmder.v = v
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.sessionID = args[0]
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.output, "output", "f", "", "Write the package to a file instead of stdout")
	config.AddStringFlag(cmd, config.DefaultFlagSet, config.FlagLogDir, &cmder.logDir)

	return cmd
}

func (c *exportCommander) run(ctx context.Context) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	log, err := setup.OpenLog(c.v, c.configDir, c.logger)
	if err != nil {
		return fmt.Errorf("opening session log: %w", err)
	}

	pkg, err := log.Export(ctx, c.sessionID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding export package: %w", err)
	}

	if c.output == "" {
		fmt.Println(string(data))
		return nil
	}

	if err := os.WriteFile(c.output, data, 0o600); err != nil {
		return fmt.Errorf("writing export package: %w", err)
	}

	fmt.Printf("  %s Exported %s %s\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(c.sessionID),
		cliui.DimStyle.Render(fmt.Sprintf("(%d frames, checksum %s)", len(pkg.Frames), pkg.Checksum[:16])),
	)
	return nil
}
