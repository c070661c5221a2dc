package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grepug/xcodebuilder/internal/query"
	"github.com/grepug/xcodebuilder/internal/store"
)

// VersionsOptions holds flags for the versions command.
type VersionsOptions struct {
	*RootOptions
	Database string
}

// NewVersionsCommand creates the versions command.
func NewVersionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VersionsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Show each project's version history",
		Long: `For every project, show the distinct version strings across all of
its builds, most recent first.

Example:
  xcbuilder versions --db ./builds.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersions(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runVersions(opts *VersionsOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	versions, err := query.New(st).LatestVersionsPerProject(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "query failed", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if out.JSON() {
		return out.Success(versions)
	}

	w := cmd.OutOrStdout()
	for _, pv := range versions {
		fmt.Fprintf(w, "%s: %s\n", pv.BundleIdentifier, strings.Join(pv.Versions, ", "))
	}
	return nil
}
