package commands

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/vitrine-labs/vitrine/internal/warehouse"
)

func renderResults(w io.Writer, rows *sql.Rows, format string) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	// Collect all rows
	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return err
		}

		row := make(map[string]any)
		for i, col := range cols {
			val := values[i]
			// Convert []byte to string for readability
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
			row[col] = val
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return err
	}

	switch format {
	case "json":
		return renderJSON(w, results)
	case "csv":
		return renderCSV(w, cols, results)
	case "md", "markdown":
		return renderMarkdown(w, cols, results)
	default:
		return renderTable(w, cols, results)
	}
}

func renderTable(w io.Writer, cols []string, results []map[string]any) error {
	if len(results) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	// Header
	headerRow := make(table.Row, len(cols))
	for i, col := range cols {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	// Rows
	for _, result := range results {
		row := make(table.Row, len(cols))
		for i, col := range cols {
			row[i] = formatValue(result[col])
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(results))
	return nil
}

func renderJSON(w io.Writer, results []map[string]any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func renderCSV(w io.Writer, cols []string, results []map[string]any) error {
	// Header
	_, _ = fmt.Fprintln(w, strings.Join(cols, ","))

	// Rows
	for _, result := range results {
		values := make([]string, len(cols))
		for i, col := range cols {
			values[i] = escapeCSV(formatValue(result[col]))
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

func renderMarkdown(w io.Writer, cols []string, results []map[string]any) error {
	if len(results) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	// Header
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cols, " | "))
	// Separator
	seps := make([]string, len(cols))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	// Rows
	for _, result := range results {
		values := make([]string, len(cols))
		for i, col := range cols {
			values[i] = formatValue(result[col])
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(values, " | "))
	}
	return nil
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// Helper functions for subcommands

func listTablesFromSession(ctx context.Context, w io.Writer, sess warehouse.Session, format string, viewsOnly bool) error {
	query := `
		SELECT table_schema, table_name, table_type
		FROM information_schema.tables
		WHERE table_schema NOT IN ('information_schema', 'pg_catalog')
	`
	if viewsOnly {
		query += ` AND table_type = 'VIEW'`
	}
	query += ` ORDER BY table_schema, table_name`

	rows, err := sess.Query(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	return renderResults(w, rows, format)
}

func showSchemaFromSession(ctx context.Context, w io.Writer, sess warehouse.Session, name, format string) error {
	schema, tbl, err := resolveTableName(ctx, sess, name)
	if err != nil {
		return err
	}

	meta, err := sess.TableMetadata(ctx, schema, tbl)
	if err != nil {
		return err
	}

	if format == "json" {
		return renderSchemaJSON(w, meta)
	}

	_, _ = fmt.Fprintf(w, "Table: %s.%s\n", meta.Schema, meta.Name)
	_, _ = fmt.Fprintln(w, strings.Repeat("-", 60))

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Column", "Type", "Nullable"})

	for _, col := range meta.Columns {
		nullable := "YES"
		if !col.Nullable {
			nullable = "NO"
		}
		t.AppendRow(table.Row{col.Name, col.Type, nullable})
	}
	t.Render()

	_, _ = fmt.Fprintf(w, "(%d rows)\n", meta.RowCount)
	return nil
}

// resolveTableName splits a qualified name, or looks a bare name up across
// namespaces. When several namespaces hold the name, pipeline order wins.
func resolveTableName(ctx context.Context, sess warehouse.Session, name string) (string, string, error) {
	if schema, tbl, ok := strings.Cut(name, "."); ok {
		return schema, tbl, nil
	}

	rows, err := sess.Query(ctx, `
		SELECT table_schema
		FROM information_schema.tables
		WHERE table_name = ?
	`, name)
	if err != nil {
		return "", "", err
	}
	defer func() { _ = rows.Close() }()

	var schemas []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return "", "", err
		}
		schemas = append(schemas, s)
	}
	if err := rows.Err(); err != nil {
		return "", "", err
	}
	if len(schemas) == 0 {
		return "", "", fmt.Errorf("table or view '%s' not found", name)
	}

	for _, canonical := range warehouse.Schemas {
		for _, s := range schemas {
			if s == canonical {
				return s, name, nil
			}
		}
	}
	sort.Strings(schemas)
	return schemas[0], name, nil
}

type schemaOutput struct {
	Schema   string         `json:"schema"`
	Name     string         `json:"name"`
	Columns  []columnOutput `json:"columns"`
	RowCount int64          `json:"row_count"`
}

type columnOutput struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

func renderSchemaJSON(w io.Writer, meta *warehouse.Metadata) error {
	out := schemaOutput{
		Schema:   meta.Schema,
		Name:     meta.Name,
		Columns:  make([]columnOutput, 0, len(meta.Columns)),
		RowCount: meta.RowCount,
	}
	for _, col := range meta.Columns {
		out.Columns = append(out.Columns, columnOutput{Name: col.Name, Type: col.Type, Nullable: col.Nullable})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
