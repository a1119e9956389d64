// Package vaultcmder provides the vault command for sealing memory items
// against proximity and correlation queries.
package vaultcmder

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/phasorlabs/phasor/cmd/phasor/setup"
	"github.com/phasorlabs/phasor/pkg/cliui"
	"github.com/phasorlabs/phasor/pkg/config"
	"github.com/phasorlabs/phasor/pkg/logger"
	"github.com/phasorlabs/phasor/pkg/memstore"
)

const vaultLongDesc string = `Seal a memory item, excluding it from phase-proximity
and correlation queries until un-sealed.

Levels:
  user_sealed    Sealed at the owner's request
  system_sealed  Sealed by policy
  none           Un-seal a previously sealed item

Vaulting needs a primary storage backend; the in-memory fallback
rejects it.

Examples:
  phasor vault "neural networks" --level user_sealed
  phasor vault "neural networks" --level none`

const vaultShortDesc string = "Seal or un-seal a memory item"

type vaultCommander struct {
	ownerID  string
	backend  string
	sqlite   string
	postgres string
	level    string

	configDir string

	v      *viper.Viper
	logger *zap.Logger
}

var vaultFlagKeys = []string{
	config.FlagOwnerID,
	config.FlagStorageBackend,
	config.FlagSQLite,
	config.FlagPostgres,
}

func NewVaultCmd() *cobra.Command {
	cmder := &vaultCommander{}

	cmd := &cobra.Command{
		Use:   "vault <item-id>",
		Short: vaultShortDesc,
		Long:  vaultLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(c *cobra.Command, _ []string) error {
			cmder.configDir, _ = c.Flags().GetString("config-dir")
			debug, _ := c.Flags().GetBool("debug")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, c, config.DefaultFlagSet, vaultFlagKeys)
			cmder.v = v
			cmder.logger = logger.NewLogger(debug)
			return nil
		},
		RunE: func(c *cobra.Command, args []string) error {
			return cmder.run(c, args[0])
		},
	}

	fs := config.DefaultFlagSet
	config.AddStringFlag(cmd, fs, config.FlagOwnerID, &cmder.ownerID)
	config.AddStringFlag(cmd, fs, config.FlagStorageBackend, &cmder.backend)
	config.AddStringFlag(cmd, fs, config.FlagSQLite, &cmder.sqlite)
	config.AddStringFlag(cmd, fs, config.FlagPostgres, &cmder.postgres)
	cmd.Flags().StringVarP(&cmder.level, "level", "l", string(memstore.VaultUserSealed), "Vault level (none, user_sealed, system_sealed)")

	return cmd
}

func (c *vaultCommander) run(cmd *cobra.Command, itemID string) error {
	defer func() { _ = c.logger.Sync() }()
	ctx := cmd.Context()

	ownerID := c.v.GetString("owner.id")
	if ownerID == "" {
		return fmt.Errorf("no owner configured: pass --owner or set owner.id in config")
	}

	level := memstore.VaultLevel(c.level)
	if !level.Valid() {
		return fmt.Errorf("invalid vault level %q (want none, user_sealed or system_sealed)", c.level)
	}

	store, err := setup.OpenStore(ctx, c.v, c.configDir, c.logger)
	if err != nil {
		return fmt.Errorf("opening memory store: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Vault(ctx, ownerID, itemID, level); err != nil {
		if errors.Is(err, memstore.ErrCapabilityUnsupported) {
			return fmt.Errorf("vaulting needs a primary backend (serving engine is %s): %w", store.Engine(), err)
		}
		return err
	}

	verb := "Sealed"
	if level == memstore.VaultNone {
		verb = "Un-sealed"
	}
	fmt.Printf("%s %s %s %s\n",
		cliui.SuccessMark,
		verb,
		cliui.KeyStyle.Render(itemID),
		cliui.DimStyle.Render(fmt.Sprintf("(level %s)", level)),
	)
	return nil
}
