package warehouse

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine-labs/vitrine/internal/testutil"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func openMemorySession(t *testing.T) Session {
	t.Helper()
	store := NewDuckDB(":memory:", Params{}, testutil.NewTestLogger(t))
	sess, err := store.Connect(testutil.Context(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

func TestDuckDB_LoadCSV_InfersSchema(t *testing.T) {
	sess := openMemorySession(t)
	ctx := testutil.Context(t)

	path := writeCSV(t, "orders.csv", "order_id,amount,ordered_at\no1,12.5,2017-09-01\no2,30.0,2017-09-02\n")
	require.NoError(t, sess.LoadCSV(ctx, SchemaRaw, "orders", path))

	meta, err := sess.TableMetadata(ctx, SchemaRaw, "orders")
	require.NoError(t, err)
	assert.Equal(t, SchemaRaw, meta.Schema)
	assert.Equal(t, "orders", meta.Name)
	assert.EqualValues(t, 2, meta.RowCount)

	require.Len(t, meta.Columns, 3)
	assert.Equal(t, "order_id", meta.Columns[0].Name)
	assert.Equal(t, "amount", meta.Columns[1].Name)
	assert.Equal(t, "ordered_at", meta.Columns[2].Name)
	assert.Equal(t, 1, meta.Columns[0].Position)
}

func TestDuckDB_LoadCSV_ReplacesExisting(t *testing.T) {
	sess := openMemorySession(t)
	ctx := testutil.Context(t)

	first := writeCSV(t, "orders.csv", "order_id\no1\no2\n")
	require.NoError(t, sess.LoadCSV(ctx, SchemaRaw, "orders", first))

	// Loading again must replace the table, not append or duplicate it.
	second := writeCSV(t, "orders.csv", "order_id\no1\no2\no3\n")
	require.NoError(t, sess.LoadCSV(ctx, SchemaRaw, "orders", second))

	count, err := sess.SchemaTableCount(ctx, SchemaRaw)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	meta, err := sess.TableMetadata(ctx, SchemaRaw, "orders")
	require.NoError(t, err)
	assert.EqualValues(t, 3, meta.RowCount)
}

func TestDuckDB_LoadCSV_QuotesUnusualTableNames(t *testing.T) {
	sess := openMemorySession(t)
	ctx := testutil.Context(t)

	path := writeCSV(t, "items.csv", "id\n1\n")
	require.NoError(t, sess.LoadCSV(ctx, SchemaRaw, "Order Items", path))

	tables, err := sess.Tables(ctx, SchemaRaw)
	require.NoError(t, err)
	assert.Equal(t, []string{"Order Items"}, tables)
}

func TestDuckDB_SchemaTableCount_AbsentSchema(t *testing.T) {
	sess := openMemorySession(t)

	count, err := sess.SchemaTableCount(testutil.Context(t), SchemaMarts)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDuckDB_SchemaNames_CanonicalOrder(t *testing.T) {
	sess := openMemorySession(t)
	ctx := testutil.Context(t)

	require.NoError(t, sess.Exec(ctx, `CREATE SCHEMA marts`))
	require.NoError(t, sess.Exec(ctx, `CREATE TABLE marts.fct_orders (id VARCHAR)`))
	require.NoError(t, sess.Exec(ctx, `CREATE SCHEMA audit`))
	require.NoError(t, sess.Exec(ctx, `CREATE TABLE audit.log (id VARCHAR)`))

	path := writeCSV(t, "orders.csv", "id\n1\n")
	require.NoError(t, sess.LoadCSV(ctx, SchemaRaw, "orders", path))

	names, err := sess.SchemaNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"raw", "marts", "audit"}, names)
}

func TestDuckDB_Tables_Sorted(t *testing.T) {
	sess := openMemorySession(t)
	ctx := testutil.Context(t)

	for _, name := range []string{"sellers", "customers", "orders"} {
		path := writeCSV(t, name+".csv", "id\n1\n")
		require.NoError(t, sess.LoadCSV(ctx, SchemaRaw, name, path))
	}

	tables, err := sess.Tables(ctx, SchemaRaw)
	require.NoError(t, err)
	assert.Equal(t, []string{"customers", "orders", "sellers"}, tables)
}

func TestDuckDB_TableMetadata_NotFound(t *testing.T) {
	sess := openMemorySession(t)

	_, err := sess.TableMetadata(testutil.Context(t), SchemaRaw, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestDuckDB_SettingsAppliedOnConnect(t *testing.T) {
	store := NewDuckDB(":memory:", Params{
		Settings: map[string]string{"threads": "1"},
	}, testutil.NewTestLogger(t))

	sess, err := store.Connect(testutil.Context(t))
	require.NoError(t, err)
	defer func() { _ = sess.Close() }()

	var threads int64
	row := sess.QueryRow(testutil.Context(t), "SELECT current_setting('threads')")
	require.NoError(t, row.Scan(&threads))
	assert.EqualValues(t, 1, threads)
}

func TestDuckDB_ConnectReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warehouse.duckdb")
	store := NewDuckDB(path, Params{}, testutil.NewTestLogger(t))
	ctx := testutil.Context(t)

	rw, err := store.Connect(ctx)
	require.NoError(t, err)
	csv := writeCSV(t, "orders.csv", "id\n1\n")
	require.NoError(t, rw.LoadCSV(ctx, SchemaRaw, "orders", csv))
	require.NoError(t, rw.Close())

	ro, err := store.ConnectReadOnly(ctx)
	require.NoError(t, err)
	defer func() { _ = ro.Close() }()

	count, err := ro.SchemaTableCount(ctx, SchemaRaw)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	err = ro.Exec(ctx, `CREATE TABLE raw.nope (id VARCHAR)`)
	require.Error(t, err, "writes must fail on a read-only session")
}

func TestDuckDB_ConnectReadOnly_MissingFile(t *testing.T) {
	store := NewDuckDB(filepath.Join(t.TempDir(), "absent.duckdb"), Params{}, testutil.NewTestLogger(t))

	_, err := store.ConnectReadOnly(testutil.Context(t))
	require.Error(t, err)
}
