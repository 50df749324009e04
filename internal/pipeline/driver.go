package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vitrine-labs/vitrine/internal/dbt"
	"github.com/vitrine-labs/vitrine/internal/state"
	"github.com/vitrine-labs/vitrine/internal/warehouse"
)

// Stage names recorded in run history.
const (
	StageLoad      = "load"
	StageTransform = "transform"
	StageTest      = "test"
	StageRefresh   = "refresh"
)

// Downloader fetches the dataset archive and extracts its data files into
// destDir. Implementations resolve credentials per attempt and return
// ErrCredentialsMissing (wrapped) when none can be resolved.
type Downloader interface {
	Download(ctx context.Context, destDir string) error
}

// Driver sequences the pipeline stages and owns the process-wide status.
// Operations serialize through an internal mutex: a call that arrives while
// another run is in flight fails fast with ErrRunInProgress instead of
// queueing, since concurrent runs would race on file deletion and table
// creation. Status reads are safe at any time.
type Driver struct {
	warehouse  warehouse.Store
	downloader Downloader
	runner     dbt.Runner
	history    state.Store
	inputDir   string
	log        *slog.Logger

	runMu sync.Mutex // serializes pipeline operations

	mu     sync.RWMutex // guards status
	status Status
}

// Config assembles a Driver's collaborators.
type Config struct {
	Warehouse  warehouse.Store
	Downloader Downloader
	Runner     dbt.Runner
	History    state.Store
	InputDir   string
	Logger     *slog.Logger
}

// New builds a Driver and reconciles its status from persisted storage.
// A failing probe is logged and leaves the driver usable at
// StatusNotStarted; storage is trusted over memory, never the reverse.
func New(ctx context.Context, cfg Config) (*Driver, error) {
	if cfg.Warehouse == nil {
		return nil, fmt.Errorf("warehouse is required")
	}
	if cfg.InputDir == "" {
		return nil, fmt.Errorf("input directory is required")
	}
	if cfg.History == nil {
		cfg.History = state.NopStore{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	d := &Driver{
		warehouse:  cfg.Warehouse,
		downloader: cfg.Downloader,
		runner:     cfg.Runner,
		history:    cfg.History,
		inputDir:   cfg.InputDir,
		log:        cfg.Logger,
		status:     StatusNotStarted,
	}

	if _, err := d.Reconcile(ctx); err != nil {
		d.log.Warn("startup probe failed, assuming empty warehouse",
			slog.String("error", err.Error()),
		)
	}

	return d, nil
}

// Status returns the current pipeline status.
func (d *Driver) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

// Actions returns the actions legal in the current status.
func (d *Driver) Actions() []Action {
	return ActionsFor(d.Status())
}

// InputDir returns the directory the load stage reads from.
func (d *Driver) InputDir() string {
	return d.inputDir
}

func (d *Driver) setStatus(s Status) {
	d.mu.Lock()
	d.status = s
	d.mu.Unlock()
}

// Reconcile re-derives status from storage, replacing the in-memory value.
// When a run is in flight the in-memory status is returned untouched: the
// run is mutating storage and a probe would observe a half-written state.
// A probe failure downgrades status to StatusNotStarted and is returned for
// display; it never panics or propagates beyond the caller.
func (d *Driver) Reconcile(ctx context.Context) (Status, error) {
	if !d.runMu.TryLock() {
		return d.Status(), nil
	}
	defer d.runMu.Unlock()

	res, err := Probe(ctx, d.warehouse)
	if err != nil {
		d.setStatus(StatusNotStarted)
		return StatusNotStarted, err
	}

	next := res.Classify()
	d.setStatus(next)
	return next, nil
}

// Load runs the download and load stages: fetch the dataset archive, then
// bulk-load every CSV in the input directory into the raw schema. On any
// failure the status rolls back to StatusNotStarted and the error is
// surfaced verbatim; nothing is retried.
func (d *Driver) Load(ctx context.Context) error {
	if !d.runMu.TryLock() {
		return ErrRunInProgress
	}
	defer d.runMu.Unlock()

	return d.runLoad(ctx, StageLoad)
}

// Refresh deletes the warehouse file unconditionally and re-runs download
// and load. This is irreversible: there is no backup. Any failure leaves
// the status at StatusNotStarted.
func (d *Driver) Refresh(ctx context.Context) error {
	if !d.runMu.TryLock() {
		return ErrRunInProgress
	}
	defer d.runMu.Unlock()

	d.log.Warn("refresh: deleting warehouse", slog.String("path", d.warehouse.Path()))
	if err := os.Remove(d.warehouse.Path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		d.setStatus(StatusNotStarted)
		return &StorageAccessError{Op: "delete store", Err: err}
	}

	return d.runLoad(ctx, StageRefresh)
}

func (d *Driver) runLoad(ctx context.Context, stage string) error {
	if d.downloader == nil {
		return fmt.Errorf("no downloader configured")
	}

	d.setStatus(StatusLoading)
	rec := d.beginRun(ctx, stage)

	loaded, err := d.downloadAndLoad(ctx)
	if err != nil {
		d.setStatus(StatusNotStarted)
		d.endRun(ctx, rec, state.RunStatusFailed, err, "")
		return err
	}

	d.setStatus(StatusDataLoaded)
	d.endRun(ctx, rec, state.RunStatusCompleted, nil,
		fmt.Sprintf("loaded %d files into %s", loaded, warehouse.SchemaRaw))
	return nil
}

func (d *Driver) downloadAndLoad(ctx context.Context) (int, error) {
	if err := d.downloader.Download(ctx, d.inputDir); err != nil {
		if errors.Is(err, ErrCredentialsMissing) {
			return 0, err
		}
		return 0, &DownloadError{Err: err}
	}

	sess, err := d.warehouse.Connect(ctx)
	if err != nil {
		return 0, &StorageAccessError{Op: "open store", Err: err}
	}
	defer func() { _ = sess.Close() }()

	return d.loadInputFiles(ctx, sess)
}

// loadInputFiles bulk-loads every CSV in the input directory, one file per
// table named by the file's stem. A repeated stem silently replaces the
// earlier table. Zero matching files is fatal for the stage.
func (d *Driver) loadInputFiles(ctx context.Context, sess warehouse.Session) (int, error) {
	entries, err := os.ReadDir(d.inputDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, ErrNoInputFound
		}
		return 0, &StorageAccessError{Op: "read input directory", Err: err}
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		table := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		path := filepath.Join(d.inputDir, entry.Name())

		if err := sess.LoadCSV(ctx, warehouse.SchemaRaw, table, path); err != nil {
			return loaded, &StorageAccessError{Op: "load " + entry.Name(), Err: err}
		}
		d.log.Info("loaded input file",
			slog.String("file", entry.Name()),
			slog.String("table", warehouse.SchemaRaw+"."+table),
		)
		loaded++
	}

	if loaded == 0 {
		return 0, ErrNoInputFound
	}
	return loaded, nil
}

// Transform runs the external build command. Legal only when data is
// loaded. On success the status advances to StatusDbtBuilt; on failure the
// status is unchanged and the tool's combined output is preserved in run
// history for display.
func (d *Driver) Transform(ctx context.Context) error {
	return d.runTool(ctx, StageTransform, dbt.CommandBuild)
}

// Test runs the external validation command. It never changes status,
// regardless of outcome.
func (d *Driver) Test(ctx context.Context) error {
	return d.runTool(ctx, StageTest, dbt.CommandTest)
}

func (d *Driver) runTool(ctx context.Context, stage, command string) error {
	if !d.runMu.TryLock() {
		return ErrRunInProgress
	}
	defer d.runMu.Unlock()

	if d.runner == nil {
		return fmt.Errorf("no transform runner configured")
	}
	if cur := d.Status(); !cur.Allows(ActionTransform) {
		return fmt.Errorf("%w: %s requires loaded data (status %s)", ErrActionNotAllowed, stage, cur)
	}

	rec := d.beginRun(ctx, stage)

	res, err := d.runner.Run(ctx, command)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s", ErrTransformTimeout, res.Duration.Round(time.Second))
		}
		d.endRun(ctx, rec, state.RunStatusFailed, err, res.Output)
		return err
	}
	if res.ExitCode != 0 {
		terr := &TransformError{ExitCode: res.ExitCode, Output: res.Output}
		d.endRun(ctx, rec, state.RunStatusFailed, terr, res.Output)
		return terr
	}

	if stage == StageTransform {
		d.setStatus(StatusDbtBuilt)
	}
	d.endRun(ctx, rec, state.RunStatusCompleted, nil, res.Output)
	return nil
}

func (d *Driver) beginRun(ctx context.Context, stage string) *state.Run {
	rec, err := d.history.CreateRun(ctx, stage)
	if err != nil {
		d.log.Warn("failed to record run start",
			slog.String("stage", stage),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return rec
}

func (d *Driver) endRun(ctx context.Context, rec *state.Run, status state.RunStatus, runErr error, output string) {
	if rec == nil || rec.ID == "" {
		return
	}
	// The run context may already be expired (timeouts); history writes
	// must still land.
	ctx = context.WithoutCancel(ctx)

	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	if err := d.history.CompleteRun(ctx, rec.ID, status, msg, output); err != nil {
		d.log.Warn("failed to record run completion",
			slog.String("run_id", rec.ID),
			slog.String("error", err.Error()),
		)
	}
}
