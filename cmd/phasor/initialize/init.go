// Package initcmder provides the init command for initializing a local
// .phasor directory in the current working directory.
package initcmder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phasorlabs/phasor/pkg/config"
)

const (
	dirName = ".phasor"
)

const initLongDesc string = `Initialize a new .phasor/ directory in the current working directory.

Creates a local .phasor/ directory that takes precedence over the default
~/.phasor/ directory for session logs, memory storage, configuration,
and other phasor operations.

With --preset, also writes a config.toml seeded for a deployment shape:
  local    sqlite memory store, local keyword extraction, no event stream
  server   postgres memory store, remote extraction service, kafka events

Examples:
  phasor init
  phasor init --preset local
  phasor init --preset server`

const initShortDesc string = "Initialize a local .phasor/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit(preset)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "", "Seed config.toml from a preset (local, server)")

	return cmd
}

func runInit(preset string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		fmt.Printf("Already initialized: %s\n", dir)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .phasor directory: %w", err)
		}
		fmt.Printf("Initialized .phasor directory: %s\n", dir)
	}

	if preset == "" {
		return nil
	}

	cfg, err := config.PresetConfig(preset)
	if err != nil {
		return err
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Printf("Wrote %s preset config: %s\n", preset, cfger.GetTarget())
	return nil
}
