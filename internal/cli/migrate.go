package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/grepug/xcodebuilder/internal/store"
)

// MigrateOptions holds flags for the migrate command.
type MigrateOptions struct {
	*RootOptions
	Database string
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Long: `Open the database, apply any pending schema migrations and ensure
auxiliary indexes. Running against an up-to-date database is a no-op.

A migration failure aborts the failing step only; prior steps stay
committed and the command exits non-zero.

Example:
  xcbuilder migrate --db ./builds.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runMigrate(opts *MigrateOptions, cmd *cobra.Command) error {
	slog.Info("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		// Open runs migrations; a failure here is fatal at startup by design.
		return WrapExitError(ExitCommandError, "migration failed", err)
	}
	defer st.Close()

	applied, err := st.AppliedMigrations()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read migration ledger", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if out.JSON() {
		return out.Success(map[string]any{"applied": applied})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Database ready. %d migration(s) applied:\n", len(applied))
	for _, name := range applied {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
	}
	return nil
}
