package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grepug/xcodebuilder/internal/query"
	"github.com/grepug/xcodebuilder/internal/store"
)

// DetailOptions holds flags for the detail command.
type DetailOptions struct {
	*RootOptions
	Database string
}

// NewDetailCommand creates the detail command.
func NewDetailCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DetailOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "detail <bundle-identifier>",
		Short: "Show one project with schemes and builds",
		Long: `Show a project, its schemes in display order and every build under
any of those schemes, most recent first. An unknown identifier exits with
status 1.

Example:
  xcbuilder detail --db ./builds.db com.example.app`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetail(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runDetail(opts *DetailOptions, bundleID string, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	detail, ok, err := query.New(st).ProjectDetail(cmd.Context(), bundleID)
	if err != nil {
		return WrapExitError(ExitCommandError, "query failed", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if !ok {
		// Absent is a valid query outcome; for the CLI it is still exit 1.
		_ = out.Errorf(fmt.Sprintf("project %s not found", bundleID), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("project %s not found", bundleID))
	}

	if out.JSON() {
		return out.Success(detail)
	}

	w := cmd.OutOrStdout()
	p := detail.Project
	fmt.Fprintf(w, "%s  (%s)\n", p.BundleIdentifier, p.DisplayName)
	fmt.Fprintf(w, "repo: %s\n", p.GitRepoURL)
	fmt.Fprintf(w, "schemes:\n")
	for _, sc := range detail.Schemes {
		fmt.Fprintf(w, "  [%d] %s %v\n", sc.DisplayOrder, sc.Name, sc.Platforms)
	}
	fmt.Fprintf(w, "builds:\n")
	for _, b := range detail.Builds {
		fmt.Fprintf(w, "  %s  %s (%d)  %s  %.0f%%\n",
			b.CreatedAt.Format("2006-01-02 15:04:05"),
			b.VersionString, b.BuildNumber, b.Status, b.Progress*100)
	}
	return nil
}
