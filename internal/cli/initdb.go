package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ledgertrace/custodia/internal/config"
	"github.com/ledgertrace/custodia/internal/mirror"
)

// NewInitDBCommand creates the initdb command.
func NewInitDBCommand(opts *RootOptions) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "initdb",
		Short: "Create or migrate the mirror database",
		Long: "Opens the mirror database at the configured path, applying the\n" +
			"schema and any pending migrations. With --reset, drops all mirrored\n" +
			"state first; the ledger remains authoritative and untouched.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "load config", err)
			}

			store, err := mirror.Open(cfg.Database)
			if err != nil {
				return WrapExitError(ExitCommandError, "open mirror database", err)
			}
			defer store.Close()

			if reset {
				if err := store.Reset(cmd.Context()); err != nil {
					return WrapExitError(ExitFailure, "reset mirror database", err)
				}
				slog.Info("mirror database reset", "path", cfg.Database)
				return nil
			}

			slog.Info("mirror database ready", "path", cfg.Database)
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "drop all mirrored state before reapplying the schema")
	return cmd
}
