package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine-labs/vitrine/internal/testutil"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:", testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_CreateAndGetRun(t *testing.T) {
	s := newTestStore(t)
	ctx := testutil.Context(t)

	run, err := s.CreateRun(ctx, "load")
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, "load", run.Stage)
	assert.Equal(t, RunStatusRunning, run.Status)
	assert.Nil(t, run.CompletedAt)

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "load", got.Stage)
	assert.Equal(t, RunStatusRunning, got.Status)
	assert.Empty(t, got.Error)
	assert.Empty(t, got.Output)
}

func TestSQLiteStore_CompleteRun(t *testing.T) {
	s := newTestStore(t)
	ctx := testutil.Context(t)

	run, err := s.CreateRun(ctx, "transform")
	require.NoError(t, err)

	err = s.CompleteRun(ctx, run.ID, RunStatusFailed, "transform failed with exit code 2", "Completed with 1 error")
	require.NoError(t, err)

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, got.Status)
	assert.Equal(t, "transform failed with exit code 2", got.Error)
	assert.Equal(t, "Completed with 1 error", got.Output)
	require.NotNil(t, got.CompletedAt)
	assert.False(t, got.CompletedAt.Before(got.StartedAt))
}

func TestSQLiteStore_GetRun_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRun(testutil.Context(t), "no-such-id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestSQLiteStore_GetLatestRun(t *testing.T) {
	s := newTestStore(t)
	ctx := testutil.Context(t)

	latest, err := s.GetLatestRun(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest, "empty store has no latest run")

	first, err := s.CreateRun(ctx, "load")
	require.NoError(t, err)

	// started_at has sub-second precision; keep the two rows apart.
	time.Sleep(5 * time.Millisecond)

	second, err := s.CreateRun(ctx, "transform")
	require.NoError(t, err)

	latest, err = s.GetLatestRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)
	assert.NotEqual(t, first.ID, latest.ID)
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := testutil.Context(t)

	stages := []string{"load", "transform", "test", "refresh"}
	for _, stage := range stages {
		_, err := s.CreateRun(ctx, stage)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 4)
	assert.Equal(t, "refresh", runs[0].Stage, "newest first")
	assert.Equal(t, "load", runs[3].Stage)

	limited, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "refresh", limited[0].Stage)
	assert.Equal(t, "test", limited[1].Stage)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	log := testutil.NewTestLogger(t)

	s, err := NewSQLiteStore(path, log)
	require.NoError(t, err)

	run, err := s.CreateRun(context.Background(), "load")
	require.NoError(t, err)
	require.NoError(t, s.CompleteRun(context.Background(), run.ID, RunStatusCompleted, "", "loaded 9 files"))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path, log)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, got.Status)
	assert.Equal(t, "loaded 9 files", got.Output)
}

func TestSQLiteStore_MigrationVersion(t *testing.T) {
	s := newTestStore(t)

	version, err := s.MigrationVersion()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, version, int64(1))
}

func TestRun_Duration(t *testing.T) {
	started := time.Now().Add(-2 * time.Second)

	completed := started.Add(1500 * time.Millisecond)
	done := &Run{StartedAt: started, CompletedAt: &completed}
	assert.Equal(t, 1500*time.Millisecond, done.Duration())

	running := &Run{StartedAt: started}
	assert.GreaterOrEqual(t, running.Duration(), 2*time.Second)
}
