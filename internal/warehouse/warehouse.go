// Package warehouse wraps the embedded analytical database that backs the
// pipeline and the dashboard. Connections are short-lived: callers open a
// Session, use it for one logical operation, and close it on every path.
package warehouse

import (
	"context"
	"database/sql"
)

// Warehouse namespaces in dependency order. The load stage writes into raw;
// the transform tool builds the remaining namespaces from it.
const (
	SchemaRaw          = "raw"
	SchemaStaging      = "staging"
	SchemaIntermediate = "intermediate"
	SchemaMarts        = "marts"
)

// Schemas lists the namespaces in their canonical order.
var Schemas = []string{SchemaRaw, SchemaStaging, SchemaIntermediate, SchemaMarts}

// Store opens sessions against the persisted analytical database.
type Store interface {
	// Path returns the database file path.
	Path() string

	// Connect opens a read-write session, creating the database file if it
	// does not exist yet.
	Connect(ctx context.Context) (Session, error)

	// ConnectReadOnly opens a read-only session. It fails if the database
	// file does not exist; callers should check Path first.
	ConnectReadOnly(ctx context.Context) (Session, error)
}

// Session is a single scoped connection to the store.
type Session interface {
	// Exec executes a statement that returns no rows.
	Exec(ctx context.Context, query string, args ...any) error

	// Query executes a query and returns the rows. The caller must close
	// the returned rows.
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)

	// QueryRow executes a query expected to return at most one row.
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row

	// LoadCSV bulk-loads a CSV file into schema.table, inferring column
	// types from the file. An existing table with the same name is
	// replaced, never appended to.
	LoadCSV(ctx context.Context, schema, table, path string) error

	// SchemaTableCount returns the number of tables and views in a
	// namespace. Zero means the namespace is absent or empty.
	SchemaTableCount(ctx context.Context, schema string) (int, error)

	// SchemaNames returns the namespaces that currently hold tables, in
	// canonical order.
	SchemaNames(ctx context.Context) ([]string, error)

	// Tables returns the table and view names in a namespace.
	Tables(ctx context.Context, schema string) ([]string, error)

	// TableMetadata returns column metadata and the row count for a table.
	TableMetadata(ctx context.Context, schema, table string) (*Metadata, error)

	// Close releases the connection.
	Close() error
}

// Column describes one column of a table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Position int
}

// Metadata describes a table's structure and size.
type Metadata struct {
	Schema   string
	Name     string
	Columns  []Column
	RowCount int64
}
