// Package state records pipeline run history in SQLite. Run records are
// observational: pipeline status is always re-derived from the warehouse
// probe, never from run rows.
package state

import (
	"context"
	"time"
)

// RunStatus tracks a recorded stage invocation's outcome.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded pipeline stage invocation.
type Run struct {
	ID          string
	Stage       string
	Status      RunStatus
	Error       string
	Output      string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// Duration returns how long the run took, or how long it has been running.
func (r *Run) Duration() time.Duration {
	if r.CompletedAt != nil {
		return r.CompletedAt.Sub(r.StartedAt)
	}
	return time.Since(r.StartedAt)
}

// Store persists pipeline run records. Implementations must be safe for
// concurrent use.
type Store interface {
	// CreateRun inserts a new running record for a stage.
	CreateRun(ctx context.Context, stage string) (*Run, error)

	// CompleteRun marks a run finished with the given status, error
	// message, and captured output.
	CompleteRun(ctx context.Context, id string, status RunStatus, errMsg, output string) error

	// GetRun retrieves a run by ID.
	GetRun(ctx context.Context, id string) (*Run, error)

	// GetLatestRun returns the most recent run, or nil when none exist.
	GetLatestRun(ctx context.Context) (*Run, error)

	// ListRuns returns the most recent runs, newest first, up to limit.
	ListRuns(ctx context.Context, limit int) ([]*Run, error)

	// Close releases the store.
	Close() error
}

// NopStore is a Store that records nothing. Used when run history is
// disabled and as a default in tests.
type NopStore struct{}

func (NopStore) CreateRun(_ context.Context, stage string) (*Run, error) {
	return &Run{Stage: stage, Status: RunStatusRunning, StartedAt: time.Now().UTC()}, nil
}

func (NopStore) CompleteRun(context.Context, string, RunStatus, string, string) error {
	return nil
}

func (NopStore) GetRun(context.Context, string) (*Run, error) {
	return nil, nil
}

func (NopStore) GetLatestRun(context.Context) (*Run, error) {
	return nil, nil
}

func (NopStore) ListRuns(context.Context, int) ([]*Run, error) {
	return nil, nil
}

func (NopStore) Close() error {
	return nil
}

var _ Store = NopStore{}
