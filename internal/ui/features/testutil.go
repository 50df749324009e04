// Package features provides shared test utilities for UI feature tests.
package features

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/vitrine-labs/vitrine/internal/dbt"
	"github.com/vitrine-labs/vitrine/internal/pipeline"
	"github.com/vitrine-labs/vitrine/internal/state"
	"github.com/vitrine-labs/vitrine/internal/testutil"
	"github.com/vitrine-labs/vitrine/internal/ui/notifier"
	"github.com/vitrine-labs/vitrine/internal/warehouse"
)

// StubDownloader drops canned CSV files into the input directory instead
// of talking to Kaggle.
type StubDownloader struct {
	Files map[string]string // filename -> content
	Err   error

	mu    sync.Mutex
	calls int
}

// Download writes the canned files to destDir.
func (d *StubDownloader) Download(_ context.Context, destDir string) error {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()

	if d.Err != nil {
		return d.Err
	}
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return err
	}
	for name, content := range d.Files {
		if err := os.WriteFile(filepath.Join(destDir, name), []byte(content), 0o600); err != nil {
			return err
		}
	}
	return nil
}

// Calls reports how many downloads were attempted.
func (d *StubDownloader) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// StubRunner stands in for the dbt CLI. OnRun, when set, executes before
// the result is returned so tests can materialize marts tables the way a
// real build would.
type StubRunner struct {
	Result dbt.Result
	Err    error
	OnRun  func(command string)

	mu       sync.Mutex
	commands []string
}

// Run records the command and returns the canned result.
func (r *StubRunner) Run(_ context.Context, command string) (dbt.Result, error) {
	r.mu.Lock()
	r.commands = append(r.commands, command)
	r.mu.Unlock()

	if r.OnRun != nil {
		r.OnRun(command)
	}
	return r.Result, r.Err
}

// Commands returns the recorded invocations.
func (r *StubRunner) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.commands...)
}

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Driver       *pipeline.Driver
	Warehouse    warehouse.Store
	History      state.Store
	Notifier     *notifier.Notifier
	SessionStore *sessions.CookieStore
	Downloader   *StubDownloader
	Runner       *StubRunner
	InputDir     string

	t *testing.T
}

// SetupTestFixture creates a file-backed warehouse, in-memory run history,
// and a driver wired to stub collaborators.
func SetupTestFixture(t *testing.T) *TestFixture {
	t.Helper()

	logger := testutil.NewTestLogger(t)
	tmpDir := t.TempDir()

	store := warehouse.NewDuckDB(filepath.Join(tmpDir, "warehouse.duckdb"), warehouse.Params{}, logger)

	history, err := state.NewSQLiteStore(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = history.Close() })

	downloader := &StubDownloader{
		Files: map[string]string{
			"olist_orders_dataset.csv": "order_id,order_status\no1,delivered\no2,shipped\n",
		},
	}
	runner := &StubRunner{}

	driver, err := pipeline.New(testutil.Context(t), pipeline.Config{
		Warehouse:  store,
		Downloader: downloader,
		Runner:     runner,
		History:    history,
		InputDir:   filepath.Join(tmpDir, "raw"),
		Logger:     logger,
	})
	require.NoError(t, err)

	return &TestFixture{
		Driver:       driver,
		Warehouse:    store,
		History:      history,
		Notifier:     notifier.New(),
		SessionStore: NewTestSessionStore(),
		Downloader:   downloader,
		Runner:       runner,
		InputDir:     filepath.Join(tmpDir, "raw"),
		t:            t,
	}
}

// Seed executes statements against a writable warehouse session and
// reconciles the driver so its status reflects the new layout.
func (f *TestFixture) Seed(stmts ...string) {
	f.t.Helper()
	ctx := context.Background()

	sess, err := f.Warehouse.Connect(ctx)
	require.NoError(f.t, err)
	for _, stmt := range stmts {
		require.NoError(f.t, sess.Exec(ctx, stmt))
	}
	require.NoError(f.t, sess.Close())

	_, err = f.Driver.Reconcile(ctx)
	require.NoError(f.t, err)
}

// SeedMarts creates a minimal marts layer so Status reads dbt_built and
// the dashboard has something to chart.
func (f *TestFixture) SeedMarts() {
	f.t.Helper()
	f.Seed(
		`CREATE SCHEMA IF NOT EXISTS marts`,
		`CREATE TABLE marts.fct_orders (
			order_id VARCHAR,
			customer_id VARCHAR,
			customer_state VARCHAR,
			order_month VARCHAR,
			order_total DOUBLE,
			review_score INTEGER
		)`,
		`INSERT INTO marts.fct_orders VALUES
			('o1', 'c1', 'SP', '2018-07', 120.50, 5),
			('o2', 'c2', 'RJ', '2018-08', 80.00, 4),
			('o3', 'c1', 'SP', '2018-08', 35.90, NULL)`,
		`CREATE TABLE marts.fct_order_items (
			order_id VARCHAR,
			product_category VARCHAR,
			price DOUBLE
		)`,
		`INSERT INTO marts.fct_order_items VALUES
			('o1', 'beleza_saude', 120.50),
			('o2', 'esporte_lazer', 80.00),
			('o3', NULL, 35.90)`,
		`CREATE TABLE marts.dim_customers (
			customer_id VARCHAR,
			segment VARCHAR,
			monetary DOUBLE
		)`,
		`INSERT INTO marts.dim_customers VALUES
			('c1', 'champions', 156.40),
			('c2', 'new_customers', 80.00)`,
	)
}

// SeedRaw creates one raw table so Status reads data_loaded.
func (f *TestFixture) SeedRaw() {
	f.t.Helper()
	f.Seed(
		`CREATE SCHEMA IF NOT EXISTS raw`,
		`CREATE TABLE raw.olist_orders_dataset (order_id VARCHAR, order_status VARCHAR)`,
		`INSERT INTO raw.olist_orders_dataset VALUES ('o1', 'delivered')`,
	)
}

// RequestWithPathParam wraps a request with a chi URL param. Chained
// calls accumulate params on the same route context.
func RequestWithPathParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// NewTestNotifier creates a notifier for testing.
func NewTestNotifier() *notifier.Notifier {
	return notifier.New()
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}
