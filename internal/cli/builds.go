package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grepug/xcodebuilder/internal/query"
	"github.com/grepug/xcodebuilder/internal/store"
)

// BuildsOptions holds flags for the builds command.
type BuildsOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// NewBuildsCommand creates the builds command.
func NewBuildsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "builds <bundle-identifier>",
		Short: "List a project's most recent builds",
		Long: `List builds across all of a project's schemes, most recent first,
truncated to --limit.

Example:
  xcbuilder builds --db ./builds.db com.example.app --limit 10`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuilds(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of builds")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runBuilds(opts *BuildsOptions, bundleID string, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	builds, err := query.New(st).LatestBuilds(cmd.Context(), bundleID, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "query failed", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if out.JSON() {
		return out.Success(builds)
	}

	w := cmd.OutOrStdout()
	for _, b := range builds {
		fmt.Fprintf(w, "%s  %s (%d)  %s  %.0f%%  %s\n",
			b.CreatedAt.Format("2006-01-02 15:04:05"),
			b.VersionString, b.BuildNumber, b.Status, b.Progress*100, b.CommitHash)
	}
	return nil
}
