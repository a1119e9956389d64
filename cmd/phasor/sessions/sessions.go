// Package sessionscmder provides the sessions command for listing persisted
// sessions and finding sessions by concept.
package sessionscmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/phasorlabs/phasor/cmd/phasor/setup"
	"github.com/phasorlabs/phasor/pkg/cliui"
	"github.com/phasorlabs/phasor/pkg/config"
	"github.com/phasorlabs/phasor/pkg/dotdir"
	"github.com/phasorlabs/phasor/pkg/eventlog"
	"github.com/phasorlabs/phasor/pkg/logger"
	"github.com/phasorlabs/phasor/pkg/utils"
)

const sessionsLongDesc string = `List persisted sessions.

Shows every saved session with its owner, tag, frame count and the concepts
it created. Use "phasor sessions find <concept>" to list only the sessions
that reference a given concept, and "phasor sessions checkout <session-id>"
to make a session the default target for replay.

Examples:
  phasor sessions
  phasor sessions find "neural networks"
  phasor sessions checkout 01JQX2R8Z9V4N8W1T5M3K7B2C6`

const sessionsShortDesc string = "List persisted sessions"

type sessionsCommander struct {
	configDir string
	debug     bool

	logDir string

	v      *viper.Viper
	logger *zap.Logger
}

func NewSessionsCmd() *cobra.Command {
	cmder := &sessionsCommander{}

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: sessionsShortDesc,
		Long:  sessionsLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.runList(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.DefaultFlagSet, config.FlagLogDir, &cmder.logDir)

	find := &cobra.Command{
		Use:   "find <concept>",
		Short: "Find sessions referencing a concept",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.runFind(cmd.Context(), args[0])
		},
	}
	checkout := &cobra.Command{
		Use:   "checkout <session-id>",
		Short: "Make a session the default replay target",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.runCheckout(args[0])
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the checked-out session",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.setup(cmd)
		},
		RunE: func(*cobra.Command, []string) error {
			return cmder.runClear()
		},
	}

	cmd.AddCommand(find)
	cmd.AddCommand(checkout)
	cmd.AddCommand(clearCmd)

	return cmd
}

func (c *sessionsCommander) setup(cmd *cobra.Command) error {
	c.configDir, _ = cmd.Flags().GetString("config-dir")
	c.debug, _ = cmd.Flags().GetBool("debug")

	v, err := config.InitViper(c.configDir)
	if err != nil {
		return err
	}
	config.BindRegisteredFlags(v, cmd, config.DefaultFlagSet, []string{config.FlagLogDir})
	c.v = v
	c.logger = logger.NewLogger(c.debug)
	return nil
}

func (c *sessionsCommander) runList(ctx context.Context) error {
	defer func() { _ = c.logger.Sync() }()

	log, err := setup.OpenLog(c.v, c.configDir, c.logger)
	if err != nil {
		return fmt.Errorf("opening session log: %w", err)
	}

	metas, err := log.Sessions(ctx)
	if err != nil {
		return err
	}

	if len(metas) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	fmt.Printf("\n  %s\n\n", cliui.HeaderStyle.Render(fmt.Sprintf("%d sessions", len(metas))))
	for _, meta := range metas {
		printMeta(meta)
	}

	return nil
}

func (c *sessionsCommander) runFind(ctx context.Context, concept string) error {
	defer func() { _ = c.logger.Sync() }()

	log, err := setup.OpenLog(c.v, c.configDir, c.logger)
	if err != nil {
		return fmt.Errorf("opening session log: %w", err)
	}

	refs, err := log.Search(ctx, concept)
	if err != nil {
		return err
	}

	if len(refs) == 0 {
		fmt.Printf("No sessions reference %q.\n", concept)
		return nil
	}

	fmt.Printf("\n  %s %s\n\n",
		cliui.HeaderStyle.Render("Sessions referencing"),
		cliui.KeyStyle.Render(concept),
	)
	for _, ref := range refs {
		fmt.Printf("  %s  %s %s\n",
			cliui.KeyStyle.Render(ref.SessionID),
			cliui.ValueStyle.Render(ref.OwnerName),
			cliui.DimStyle.Render(fmt.Sprintf("%d frames, %s", ref.FrameCount, ref.EndTime.Format("2006-01-02 15:04"))),
		)
	}
	fmt.Println()

	return nil
}

func (c *sessionsCommander) runCheckout(sessionID string) error {
	defer func() { _ = c.logger.Sync() }()

	log, err := setup.OpenLog(c.v, c.configDir, c.logger)
	if err != nil {
		return fmt.Errorf("opening session log: %w", err)
	}

	meta, err := log.Meta(sessionID)
	if err != nil {
		return err
	}

	state := &dotdir.ActiveSession{
		SessionID: meta.SessionID,
		OwnerID:   meta.OwnerID,
		OwnerName: meta.OwnerName,
		Tag:       meta.Tag,
	}
	if err := dotdir.NewManager().SaveActiveSession(state, c.configDir); err != nil {
		return err
	}

	fmt.Printf("%s Checked out %s %s\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(meta.SessionID),
		cliui.DimStyle.Render(fmt.Sprintf("(%d frames)", meta.FrameCount)),
	)
	return nil
}

func (c *sessionsCommander) runClear() error {
	defer func() { _ = c.logger.Sync() }()

	if err := dotdir.NewManager().ClearActiveSession(c.configDir); err != nil {
		return err
	}
	fmt.Printf("%s Cleared checked-out session\n", cliui.SuccessMark)
	return nil
}

func printMeta(meta eventlog.SessionMeta) {
	tag := ""
	if meta.Tag != "" {
		tag = "  " + utils.Truncate(meta.Tag, 30)
	}
	fmt.Printf("  %s  %s%s\n",
		cliui.KeyStyle.Render(meta.SessionID),
		cliui.ValueStyle.Render(meta.OwnerName),
		cliui.DimStyle.Render(tag),
	)
	fmt.Printf("    %s\n",
		cliui.DimStyle.Render(fmt.Sprintf("%d frames, %d concepts, saved %s",
			meta.FrameCount, meta.ConceptsCreated, meta.EndTime.Format("2006-01-02 15:04"))),
	)
}
