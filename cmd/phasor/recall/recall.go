// Package recallcmder provides the recall command group for retrieving
// memory items by identity, phase proximity or correlation.
package recallcmder

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/phasorlabs/phasor/cmd/phasor/setup"
	"github.com/phasorlabs/phasor/pkg/cliui"
	"github.com/phasorlabs/phasor/pkg/config"
	"github.com/phasorlabs/phasor/pkg/logger"
	"github.com/phasorlabs/phasor/pkg/memstore"
	"github.com/phasorlabs/phasor/pkg/utils"
)

const recallLongDesc string = `Recall memory items for an owner.

Three retrieval modes:
  phasor recall get <item-id>         Exact recall by identity
  phasor recall phase <target>        Items near a phase angle
  phasor recall correlate <item-id>   Items correlated with a source item

Phase recall and correlation are capability-gated: the in-memory fallback
backend rejects phase recall and answers correlation by token overlap
instead of phase proximity (check "phasor stats" for the serving engine).

Examples:
  phasor recall get "neural networks" --owner lab-7
  phasor recall phase 1.57 --tolerance 0.5 --max 10
  phasor recall correlate "neural networks"`

const recallShortDesc string = "Recall memory items"

type recallCommander struct {
	ownerID   string
	backend   string
	sqlite    string
	postgres  string
	tolerance float64
	max       int

	configDir string

	v      *viper.Viper
	logger *zap.Logger
}

var recallFlagKeys = []string{
	config.FlagOwnerID,
	config.FlagStorageBackend,
	config.FlagSQLite,
	config.FlagPostgres,
}

func NewRecallCmd() *cobra.Command {
	cmder := &recallCommander{}

	cmd := &cobra.Command{
		Use:   "recall",
		Short: recallShortDesc,
		Long:  recallLongDesc,
	}

	get := &cobra.Command{
		Use:   "get <item-id>",
		Short: "Recall one item by identity",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(c *cobra.Command, _ []string) error {
			return cmder.setup(c)
		},
		RunE: func(c *cobra.Command, args []string) error {
			return cmder.runGet(c.Context(), args[0])
		},
	}
	cmder.addStoreFlags(get)

	phaseCmd := &cobra.Command{
		Use:   "phase <target-radians>",
		Short: "Recall items near a phase angle",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(c *cobra.Command, _ []string) error {
			return cmder.setup(c)
		},
		RunE: func(c *cobra.Command, args []string) error {
			target, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid target phase %q: %w", args[0], err)
			}
			return cmder.runPhase(c.Context(), target)
		},
	}
	cmder.addStoreFlags(phaseCmd)
	phaseCmd.Flags().Float64VarP(&cmder.tolerance, "tolerance", "t", 0.5, "Phase distance tolerance in radians")
	phaseCmd.Flags().IntVarP(&cmder.max, "max", "m", 10, "Maximum results to return")

	correlate := &cobra.Command{
		Use:   "correlate <item-id>",
		Short: "Rank items correlated with a source item",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(c *cobra.Command, _ []string) error {
			return cmder.setup(c)
		},
		RunE: func(c *cobra.Command, args []string) error {
			return cmder.runCorrelate(c.Context(), args[0])
		},
	}
	cmder.addStoreFlags(correlate)
	correlate.Flags().IntVarP(&cmder.max, "max", "m", 10, "Maximum results to return")

	cmd.AddCommand(get)
	cmd.AddCommand(phaseCmd)
	cmd.AddCommand(correlate)

	return cmd
}

// addStoreFlags registers the shared owner/storage flags on a subcommand.
// All three retrieval modes open the same store, so they share one set of
// registry-defined flags bound into the same commander fields.
func (c *recallCommander) addStoreFlags(cmd *cobra.Command) {
	fs := config.DefaultFlagSet
	config.AddStringFlag(cmd, fs, config.FlagOwnerID, &c.ownerID)
	config.AddStringFlag(cmd, fs, config.FlagStorageBackend, &c.backend)
	config.AddStringFlag(cmd, fs, config.FlagSQLite, &c.sqlite)
	config.AddStringFlag(cmd, fs, config.FlagPostgres, &c.postgres)
}

func (c *recallCommander) setup(cmd *cobra.Command) error {
	c.configDir, _ = cmd.Flags().GetString("config-dir")
	debug, _ := cmd.Flags().GetBool("debug")

	v, err := config.InitViper(c.configDir)
	if err != nil {
		return err
	}
	config.BindRegisteredFlags(v, cmd, config.DefaultFlagSet, recallFlagKeys)
	c.v = v
	c.logger = logger.NewLogger(debug)
	return nil
}

func (c *recallCommander) owner() (string, error) {
	ownerID := c.v.GetString("owner.id")
	if ownerID == "" {
		return "", fmt.Errorf("no owner configured: pass --owner or set owner.id in config")
	}
	return ownerID, nil
}

func (c *recallCommander) runGet(ctx context.Context, itemID string) error {
	defer func() { _ = c.logger.Sync() }()

	ownerID, err := c.owner()
	if err != nil {
		return err
	}

	store, err := setup.OpenStore(ctx, c.v, c.configDir, c.logger)
	if err != nil {
		return fmt.Errorf("opening memory store: %w", err)
	}
	defer func() { _ = store.Close() }()

	item, err := store.RecallByID(ctx, ownerID, itemID)
	if err != nil {
		return err
	}

	printItem(item, -1)
	return nil
}

func (c *recallCommander) runPhase(ctx context.Context, target float64) error {
	defer func() { _ = c.logger.Sync() }()

	ownerID, err := c.owner()
	if err != nil {
		return err
	}

	store, err := setup.OpenStore(ctx, c.v, c.configDir, c.logger)
	if err != nil {
		return fmt.Errorf("opening memory store: %w", err)
	}
	defer func() { _ = store.Close() }()

	scored, err := store.RecallByPhase(ctx, ownerID, target, c.tolerance, c.max)
	if err != nil {
		if errors.Is(err, memstore.ErrCapabilityUnsupported) {
			return fmt.Errorf("phase recall needs a primary backend (serving engine is %s): %w", store.Engine(), err)
		}
		return err
	}

	if len(scored) == 0 {
		fmt.Printf("No items within %.2f rad of phase %.4f.\n", c.tolerance, target)
		return nil
	}

	fmt.Printf("\n  %s %s\n\n",
		cliui.HeaderStyle.Render("Items near phase"),
		cliui.ValueStyle.Render(fmt.Sprintf("%.4f", target)),
	)
	for _, s := range scored {
		printItem(&s.MemoryItem, s.Score)
	}
	return nil
}

func (c *recallCommander) runCorrelate(ctx context.Context, itemID string) error {
	defer func() { _ = c.logger.Sync() }()

	ownerID, err := c.owner()
	if err != nil {
		return err
	}

	store, err := setup.OpenStore(ctx, c.v, c.configDir, c.logger)
	if err != nil {
		return fmt.Errorf("opening memory store: %w", err)
	}
	defer func() { _ = store.Close() }()

	scored, err := store.Correlate(ctx, ownerID, itemID, c.max)
	if err != nil {
		return err
	}

	if len(scored) == 0 {
		fmt.Printf("No items correlated with %q.\n", itemID)
		return nil
	}

	fmt.Printf("\n  %s %s %s\n\n",
		cliui.HeaderStyle.Render("Items correlated with"),
		cliui.KeyStyle.Render(itemID),
		cliui.DimStyle.Render(fmt.Sprintf("(%s engine)", store.Engine())),
	)
	for _, s := range scored {
		printItem(&s.MemoryItem, s.Score)
	}
	return nil
}

func printItem(item *memstore.MemoryItem, score float64) {
	fmt.Printf("  %s  %s\n",
		cliui.KeyStyle.Render(item.ItemID),
		cliui.ValueStyle.Render(utils.Truncate(item.Content, 60)),
	)

	detail := fmt.Sprintf("phase %.4f, importance %.2f, accessed %d times", item.Phase, item.Importance, item.AccessCount)
	if score >= 0 {
		detail = fmt.Sprintf("score %.4f, %s", score, detail)
	}
	fmt.Printf("    %s\n", cliui.DimStyle.Render(detail))
}
