// Package configcmder provides the config command for managing persistent
// phasor configuration stored in the .phasor/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent phasor configuration.

Configuration is stored as config.toml in the .phasor/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  owner.id, owner.name,
  storage.backend, storage.sqlite_path, storage.postgres_conn,
  log.dir,
  ingest.max_items, ingest.max_item_bytes, ingest.max_batch_bytes, ingest.workers,
  extract.provider, extract.target, extract.max_concepts,
  event_stream.provider, event_stream.brokers, event_stream.topic

Use subcommands to get, set, or list configuration values:
  phasor config set <key> <value>    Set a configuration value
  phasor config get <key>            Get a configuration value
  phasor config list                 List all configuration values

Examples:
  phasor config set storage.backend sqlite
  phasor config set extract.provider remote
  phasor config get storage.backend
  phasor config list`

const configShortDesc string = "Manage persistent phasor configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
