package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command. Commit and date stay
// "unknown" unless overridden through -ldflags at build time.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display vitrine version and build information.`,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "vitrine v%s\n", version)
			_, _ = fmt.Fprintln(out, "E-commerce analytics built with Go, DuckDB and dbt")
			_, _ = fmt.Fprintf(out, "commit %s, built %s, %s\n", commit, date, runtime.Version())
		},
	}
}
