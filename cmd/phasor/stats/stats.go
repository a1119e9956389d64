// Package statscmder provides the stats command reporting an owner's
// memory-store summary.
package statscmder

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/phasorlabs/phasor/cmd/phasor/setup"
	"github.com/phasorlabs/phasor/pkg/cliui"
	"github.com/phasorlabs/phasor/pkg/config"
	"github.com/phasorlabs/phasor/pkg/logger"
)

const statsLongDesc string = `Report an owner's memory-store summary: item count, the
backend serving the owner, its engine class (primary or fallback) and its
retrieval fidelity.

Fidelity is 1.0 on primary backends. On the in-memory fallback it is a
documented estimate, which is your signal that results are approximate.

Examples:
  phasor stats
  phasor stats --owner lab-7 --backend sqlite`

const statsShortDesc string = "Show memory-store statistics for an owner"

type statsCommander struct {
	ownerID  string
	backend  string
	sqlite   string
	postgres string

	configDir string

	v      *viper.Viper
	logger *zap.Logger
}

var statsFlagKeys = []string{
	config.FlagOwnerID,
	config.FlagStorageBackend,
	config.FlagSQLite,
	config.FlagPostgres,
}

func NewStatsCmd() *cobra.Command {
	cmder := &statsCommander{}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: statsShortDesc,
		Long:  statsLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(c *cobra.Command, _ []string) error {
			cmder.configDir, _ = c.Flags().GetString("config-dir")
			debug, _ := c.Flags().GetBool("debug")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, c, config.DefaultFlagSet, statsFlagKeys)
			cmder.v = v
			cmder.logger = logger.NewLogger(debug)
			return nil
		},
		RunE: func(c *cobra.Command, _ []string) error {
			return cmder.run(c)
		},
	}

	fs := config.DefaultFlagSet
	config.AddStringFlag(cmd, fs, config.FlagOwnerID, &cmder.ownerID)
	config.AddStringFlag(cmd, fs, config.FlagStorageBackend, &cmder.backend)
	config.AddStringFlag(cmd, fs, config.FlagSQLite, &cmder.sqlite)
	config.AddStringFlag(cmd, fs, config.FlagPostgres, &cmder.postgres)

	return cmd
}

func (c *statsCommander) run(cmd *cobra.Command) error {
	defer func() { _ = c.logger.Sync() }()
	ctx := cmd.Context()

	ownerID := c.v.GetString("owner.id")
	if ownerID == "" {
		return fmt.Errorf("no owner configured: pass --owner or set owner.id in config")
	}

	store, err := setup.OpenStore(ctx, c.v, c.configDir, c.logger)
	if err != nil {
		return fmt.Errorf("opening memory store: %w", err)
	}
	defer func() { _ = store.Close() }()

	stats, err := store.Stats(ctx, ownerID)
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s\n\n", cliui.HeaderStyle.Render("Memory store"))
	rows := []struct{ key, val string }{
		{"owner", stats.OwnerID},
		{"items", fmt.Sprintf("%d", stats.Count)},
		{"backend", stats.Backend},
		{"engine", string(stats.Engine)},
		{"fidelity", fmt.Sprintf("%.2f", stats.Fidelity)},
	}
	for _, r := range rows {
		fmt.Printf("  %s %s\n",
			cliui.KeyStyle.Render(fmt.Sprintf("%-10s", r.key)),
			cliui.ValueStyle.Render(r.val),
		)
	}
	fmt.Println()
	return nil
}
