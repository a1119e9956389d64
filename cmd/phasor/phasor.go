// Package phasorcmder
package phasorcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/phasorlabs/phasor/cmd/phasor/config"
	exportcmder "github.com/phasorlabs/phasor/cmd/phasor/export"
	ingestcmder "github.com/phasorlabs/phasor/cmd/phasor/ingest"
	initcmder "github.com/phasorlabs/phasor/cmd/phasor/initialize"
	recallcmder "github.com/phasorlabs/phasor/cmd/phasor/recall"
	replaycmder "github.com/phasorlabs/phasor/cmd/phasor/replay"
	sessionscmder "github.com/phasorlabs/phasor/cmd/phasor/sessions"
	statscmder "github.com/phasorlabs/phasor/cmd/phasor/stats"
	vaultcmder "github.com/phasorlabs/phasor/cmd/phasor/vault"
	verifycmder "github.com/phasorlabs/phasor/cmd/phasor/verify"
	versioncmder "github.com/phasorlabs/phasor/cmd/version"
)

const phasorLongDesc string = `Phasor is phase-indexed session memory for your agents.

Every concept an owner touches gets a deterministic phase angle on the unit
circle. Sessions record concept activity as append-only frame logs; the
memory store retrieves items by phase proximity; batch ingestion distills
uploaded documents into stored, phase-tagged concepts.

Common workflows:
  phasor ingest a.md b.md     Distill documents into concepts
  phasor sessions             List persisted sessions
  phasor recall phase 1.57    Recall memory items near a phase
  phasor stats                Show memory store stats for the owner`

const phasorShortDesc string = "Phasor - Phase-Indexed Session Memory"

func NewPhasorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phasor",
		Short: phasorShortDesc,
		Long:  phasorLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .phasor/ directory location")

	// Add subcommands
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(sessionscmder.NewSessionsCmd())
	cmd.AddCommand(replaycmder.NewReplayCmd())
	cmd.AddCommand(exportcmder.NewExportCmd())
	cmd.AddCommand(verifycmder.NewVerifyCmd())
	cmd.AddCommand(recallcmder.NewRecallCmd())
	cmd.AddCommand(vaultcmder.NewVaultCmd())
	cmd.AddCommand(statscmder.NewStatsCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
