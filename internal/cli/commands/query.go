package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vitrine-labs/vitrine/internal/warehouse"
)

// openWarehouseReadOnly opens a read-only session against the warehouse,
// failing with a hint when the file has not been created yet.
func openWarehouseReadOnly(cmd *cobra.Command, cc *CommandContext) (warehouse.Session, error) {
	if _, err := os.Stat(cc.Cfg.DatabasePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("warehouse not found at %s (run 'vitrine pipeline run' first)", cc.Cfg.DatabasePath)
	}

	store, err := newWarehouseStore(cc.Cfg, cc.Logger)
	if err != nil {
		return nil, err
	}

	sess, err := store.ConnectReadOnly(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse: %w", err)
	}
	return sess, nil
}

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
	Input  string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Query the warehouse",
		Long: `Query the analytics warehouse directly.

Execute SQL against the DuckDB warehouse to inspect raw tables and built
models. The connection is read-only; pipeline stages are the only writers.
Supports multiple output formats for scripting and integration.

When invoked without arguments, enters interactive REPL mode.`,
		Example: `  # Execute SQL directly
  vitrine query "SELECT * FROM marts.fct_orders LIMIT 10"

  # List available tables
  vitrine query tables

  # Show schema for a table
  vitrine query schema marts.fct_orders

  # Output as JSON
  vitrine query "SELECT * FROM marts.dim_customers LIMIT 5" --format json

  # Interactive mode
  vitrine query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	// Flags
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	// Subcommands
	cmd.AddCommand(newQueryTablesCommand(opts))
	cmd.AddCommand(newQueryViewsCommand(opts))
	cmd.AddCommand(newQuerySchemaCommand(opts))

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cc := NewCommandContextWithoutDriver(cmd)

	// Determine SQL source
	var sqlQuery string

	switch {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !stdinIsTerminal():
		// Read from stdin (piped input)
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	default:
		// No input, TTY detected - enter REPL mode
		return runQueryREPL(cmd, cc, opts)
	}

	return executeAndRender(cmd, cc, sqlQuery, opts.Format)
}

func executeAndRender(cmd *cobra.Command, cc *CommandContext, sqlQuery, format string) error {
	sess, err := openWarehouseReadOnly(cmd, cc)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	rows, err := sess.Query(cmd.Context(), sqlQuery)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return renderResults(cmd.OutOrStdout(), rows, format)
}

// newQueryTablesCommand creates the tables subcommand.
func newQueryTablesCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List all tables and views in the warehouse",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContextWithoutDriver(cmd)
			sess, err := openWarehouseReadOnly(cmd, cc)
			if err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()
			return listTablesFromSession(cmd.Context(), cmd.OutOrStdout(), sess, opts.Format, false)
		},
	}
}

// newQueryViewsCommand creates the views subcommand.
func newQueryViewsCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "views",
		Short: "List views only",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContextWithoutDriver(cmd)
			sess, err := openWarehouseReadOnly(cmd, cc)
			if err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()
			return listTablesFromSession(cmd.Context(), cmd.OutOrStdout(), sess, opts.Format, true)
		},
	}
}

// newQuerySchemaCommand creates the schema subcommand.
func newQuerySchemaCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <table>",
		Short: "Show schema for a table or view",
		Long: `Show column metadata and the row count for a table or view.

Accepts either a qualified name like marts.fct_orders or a bare name, which
is looked up across namespaces in pipeline order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContextWithoutDriver(cmd)
			sess, err := openWarehouseReadOnly(cmd, cc)
			if err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()
			return showSchemaFromSession(cmd.Context(), cmd.OutOrStdout(), sess, args[0], opts.Format)
		},
	}
}

func stdinIsTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
