package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// DuckDB implements Store over a file-backed DuckDB database.
type DuckDB struct {
	path   string
	params Params
	log    *slog.Logger
}

// NewDuckDB creates a DuckDB store for the given file path. Use ":memory:"
// for an in-memory database (tests only; probes rely on the file existing).
func NewDuckDB(path string, params Params, log *slog.Logger) *DuckDB {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &DuckDB{path: path, params: params, log: log}
}

// Path returns the database file path.
func (d *DuckDB) Path() string {
	return d.path
}

// Connect opens a read-write session, creating the file if needed.
func (d *DuckDB) Connect(ctx context.Context) (Session, error) {
	return d.connect(ctx, false)
}

// ConnectReadOnly opens a read-only session against an existing file.
func (d *DuckDB) ConnectReadOnly(ctx context.Context) (Session, error) {
	return d.connect(ctx, true)
}

func (d *DuckDB) connect(ctx context.Context, readOnly bool) (Session, error) {
	dsn := d.path
	if readOnly {
		dsn += "?access_mode=read_only"
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}

	s := &duckSession{db: db, log: d.log}

	if !readOnly {
		if err := s.applyParams(ctx, d.params); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return s, nil
}

var _ Store = (*DuckDB)(nil)

type duckSession struct {
	db  *sql.DB
	log *slog.Logger
}

func (s *duckSession) applyParams(ctx context.Context, p Params) error {
	for _, ext := range p.Extensions {
		if err := s.Exec(ctx, fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext)); err != nil {
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}

	keys := make([]string, 0, len(p.Settings))
	for k := range p.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		stmt := fmt.Sprintf("SET %s = '%s'", k, escapeString(p.Settings[k]))
		if err := s.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", k, err)
		}
	}

	return nil
}

func (s *duckSession) Exec(ctx context.Context, query string, args ...any) error {
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to execute statement: %w", err)
	}
	return nil
}

func (s *duckSession) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return rows, nil
}

func (s *duckSession) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, query, args...)
}

// LoadCSV loads a CSV file into schema.table with automatic schema
// inference. The target table is replaced if it already exists.
func (s *duckSession) LoadCSV(ctx context.Context, schema, table, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	if err := s.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", quoteIdent(schema))); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", schema, err)
	}

	query := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s.%s AS SELECT * FROM read_csv_auto('%s', header=true)",
		quoteIdent(schema),
		quoteIdent(table),
		escapeString(absPath),
	)
	if err := s.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to load CSV into %s.%s: %w", schema, table, err)
	}

	return nil
}

func (s *duckSession) SchemaTableCount(ctx context.Context, schema string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = ?",
		schema,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tables in %s: %w", schema, err)
	}
	return count, nil
}

// SchemaNames returns the non-empty namespaces, canonical ones first in
// pipeline order, anything else alphabetically after.
func (s *duckSession) SchemaNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT table_schema FROM information_schema.tables ORDER BY table_schema",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan schema name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schemas: %w", err)
	}

	sort.SliceStable(names, func(i, j int) bool {
		return schemaRank(names[i]) < schemaRank(names[j])
	})
	return names, nil
}

func schemaRank(name string) int {
	for i, s := range Schemas {
		if s == name {
			return i
		}
	}
	return len(Schemas)
}

func (s *duckSession) Tables(ctx context.Context, schema string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT table_name FROM information_schema.tables WHERE table_schema = ? ORDER BY table_name",
		schema,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables in %s: %w", schema, err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}

// TableMetadata retrieves column metadata and the row count for a table.
func (s *duckSession) TableMetadata(ctx context.Context, schema, table string) (*Metadata, error) {
	query := `
		SELECT
			column_name,
			data_type,
			is_nullable,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position
	`
	rows, err := s.db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var col Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s.%s not found", schema, table)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s.%s", quoteIdent(schema), quoteIdent(table))
	var rowCount int64
	if err := s.db.QueryRowContext(ctx, countQuery).Scan(&rowCount); err != nil {
		// Non-fatal, leave the count at zero.
		rowCount = 0
	}

	return &Metadata{
		Schema:   schema,
		Name:     table,
		Columns:  columns,
		RowCount: rowCount,
	}, nil
}

func (s *duckSession) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close duckdb: %w", err)
	}
	return nil
}

// quoteIdent quotes an identifier so file-derived table names with unusual
// characters stay plain identifiers.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func escapeString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
