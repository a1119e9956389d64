// Package replaycmder provides the replay command for reconstructing a
// persisted session frame by frame.
package replaycmder

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/phasorlabs/phasor/cmd/phasor/setup"
	"github.com/phasorlabs/phasor/pkg/cliui"
	"github.com/phasorlabs/phasor/pkg/config"
	"github.com/phasorlabs/phasor/pkg/dotdir"
	"github.com/phasorlabs/phasor/pkg/eventlog"
	"github.com/phasorlabs/phasor/pkg/logger"
)

const replayLongDesc string = `Replay a persisted session.

Reads the session's frame log and prints every frame in order with its
concept operations. Replay is all-or-nothing: a corrupt line anywhere in
the log fails the whole replay with the offending line number.

With --markdown, frames are rendered as markdown in the terminal. With no
session id, replays the session checked out via "phasor sessions checkout".

Examples:
  phasor replay 01JQX2R8Z9V4N8W1T5M3K7B2C6
  phasor replay 01JQX2R8Z9V4N8W1T5M3K7B2C6 --markdown
  phasor replay`

const replayShortDesc string = "Replay a persisted session"

type replayCommander struct {
	sessionID string
	markdown  bool

	configDir string
	debug     bool
	logDir    string

	v      *viper.Viper
	logger *zap.Logger
}

func NewReplayCmd() *cobra.Command {
	cmder := &replayCommander{}

	cmd := &cobra.Command{
		Use:   "replay [session-id]",
		Short: replayShortDesc,
		Long:  replayLongDesc,
		Args:  cobra.MaximumNArgs(1),
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
			if len(args) > 0 {
				cmder.sessionID = args[0]
			}
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&cmder.markdown, "markdown", false, "Render frames as markdown")
	config.AddStringFlag(cmd, config.DefaultFlagSet, config.FlagLogDir, &cmder.logDir)

	return cmd
}

func (c *replayCommander) run(ctx context.Context) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	if c.sessionID == "" {
		active, err := dotdir.NewManager().LoadActiveSession(c.configDir)
		if err != nil {
			return err
		}
		if active == nil {
			return fmt.Errorf("no session id given and none checked out: run \"phasor sessions checkout <session-id>\" first")
		}
		c.sessionID = active.SessionID
	}

	log, err := setup.OpenLog(c.v, c.configDir, c.logger)
	if err != nil {
		return fmt.Errorf("opening session log: %w", err)
	}

	frames, err := log.Replay(ctx, c.sessionID)
	if err != nil {
		return err
	}

	meta, err := log.Meta(c.sessionID)
	if err != nil {
		return err
	}

	if c.markdown {
		return renderMarkdown(meta, frames)
	}

	fmt.Printf("\n  %s %s  %s\n\n",
		cliui.HeaderStyle.Render("Session"),
		cliui.KeyStyle.Render(meta.SessionID),
		cliui.DimStyle.Render(fmt.Sprintf("%s, %d frames", meta.OwnerName, len(frames))),
	)

	for _, frame := range frames {
		printFrame(frame)
	}

	return nil
}

func printFrame(frame eventlog.Frame) {
	fmt.Printf("  %s %s\n",
		cliui.AccentStyle.Render(fmt.Sprintf("#%d", frame.FrameID)),
		cliui.DimStyle.Render(frame.Timestamp.Format("2006-01-02 15:04:05")),
	)
	if frame.Input != "" {
		fmt.Printf("    %s %s\n", cliui.KeyStyle.Render("in:"), cliui.ValueStyle.Render(frame.Input))
	}
	if frame.Output != "" {
		fmt.Printf("    %s %s\n", cliui.KeyStyle.Render("out:"), cliui.ValueStyle.Render(frame.Output))
	}

	for _, op := range frame.Ops {
		switch op.Kind {
		case eventlog.OpCreate:
			fmt.Printf("    %s %s %s\n",
				cliui.DimStyle.Render("create"),
				cliui.ValueStyle.Render(op.ConceptID),
				cliui.DimStyle.Render(fmt.Sprintf("phase %.4f", op.PhaseSeed)),
			)
		case eventlog.OpUpdate:
			fmt.Printf("    %s %s\n",
				cliui.DimStyle.Render("update"),
				cliui.ValueStyle.Render(op.ConceptID),
			)
		case eventlog.OpLink:
			fmt.Printf("    %s %s\n",
				cliui.DimStyle.Render("link"),
				cliui.ValueStyle.Render(strings.Join(op.ConceptIDs, " <-> ")),
			)
		case eventlog.OpPhaseShift, eventlog.OpBatchAlign:
			if op.Alignment == nil {
				continue
			}
			fmt.Printf("    %s %s %s\n",
				cliui.DimStyle.Render(string(op.Kind)),
				cliui.AccentStyle.Render(op.Alignment.Strength),
				cliui.DimStyle.Render(fmt.Sprintf("coherence %.3f over %d concepts",
					op.Alignment.Coherence, len(op.ConceptIDs))),
			)
		}
	}
	fmt.Println()
}

func renderMarkdown(meta eventlog.SessionMeta, frames []eventlog.Frame) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Session %s\n\n", meta.SessionID)
	fmt.Fprintf(&b, "Owner: **%s** (%d frames, %d concepts)\n\n",
		meta.OwnerName, meta.FrameCount, meta.ConceptsCreated)

	for _, frame := range frames {
		fmt.Fprintf(&b, "## Frame %d\n\n", frame.FrameID)
		if frame.Input != "" {
			fmt.Fprintf(&b, "> %s\n\n", frame.Input)
		}
		if frame.Output != "" {
			fmt.Fprintf(&b, "%s\n\n", frame.Output)
		}
		for _, op := range frame.Ops {
			if op.Kind == eventlog.OpCreate {
				fmt.Fprintf(&b, "- `%s` (phase %.4f)\n", op.ConceptID, op.PhaseSeed)
			}
		}
		b.WriteString("\n")
	}

	rendered, err := cliui.RenderMarkdown(b.String())
	if err != nil {
		return err
	}
	fmt.Print(rendered)
	return nil
}
