package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grepug/xcodebuilder/internal/query"
	"github.com/grepug/xcodebuilder/internal/store"
)

// ProjectsOptions holds flags for the projects command.
type ProjectsOptions struct {
	*RootOptions
	Database string
}

// NewProjectsCommand creates the projects command.
func NewProjectsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProjectsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List all projects with their schemes",
		Long: `List every project in creation order with its schemes in display
order. Projects without schemes are listed too.

Example:
  xcbuilder projects --db ./builds.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjects(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runProjects(opts *ProjectsOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	list, err := query.New(st).AllProjects(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "query failed", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if out.JSON() {
		return out.Success(list)
	}

	w := cmd.OutOrStdout()
	for _, p := range list.Projects {
		fmt.Fprintf(w, "%s  (%s)\n", p.BundleIdentifier, p.DisplayName)
		for _, sc := range list.Schemes[p.BundleIdentifier] {
			fmt.Fprintf(w, "  [%d] %s %v\n", sc.DisplayOrder, sc.Name, sc.Platforms)
		}
	}
	return nil
}
