package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/grepug/xcodebuilder/internal/backend"
	"github.com/grepug/xcodebuilder/internal/model"
	"github.com/grepug/xcodebuilder/internal/store"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	Database string

	// IDs allows overriding id generation (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs model.IDGenerator
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed <fixture.yaml>",
		Short: "Populate a database from a YAML fixture",
		Long: `Load projects, schemes, builds and logs from a YAML fixture and write
them through the backend interface. Missing ids are generated; parent keys
are wired automatically.

Example:
  xcbuilder seed --db ./builds.db testdata/fixture.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runSeed(opts *SeedOptions, fixturePath string, cmd *cobra.Command) error {
	fixture, err := LoadFixture(fixturePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load fixture", err)
	}

	slog.Info("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ids := opts.IDs
	if ids == nil {
		ids = model.UUIDv7Generator{}
	}

	counts, err := ApplyFixture(cmd.Context(), backend.NewLocal(st), fixture, ids)
	if err != nil {
		return WrapExitError(ExitCommandError, "seed failed", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if out.JSON() {
		return out.Success(counts)
	}

	fmt.Fprintf(cmd.OutOrStdout(),
		"Seeded %d project(s), %d scheme(s), %d build(s), %d log(s), %d crash(es)\n",
		counts.Projects, counts.Schemes, counts.Builds, counts.BuildLogs, counts.CrashLogs)
	return nil
}
