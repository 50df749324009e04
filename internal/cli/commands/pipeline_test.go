package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine-labs/vitrine/internal/cli/output"
	"github.com/vitrine-labs/vitrine/internal/pipeline"
	"github.com/vitrine-labs/vitrine/internal/state"
)

// setPipelineEnv points the environment-fallback config at temp paths so
// commands run against a throwaway warehouse.
func setPipelineEnv(t *testing.T, dbPath string) {
	t.Helper()
	dir := filepath.Dir(dbPath)
	t.Setenv("VITRINE_DATABASE", dbPath)
	t.Setenv("VITRINE_INPUT_DIR", filepath.Join(dir, "raw"))
	t.Setenv("VITRINE_STATE_PATH", filepath.Join(dir, "state.db"))
	t.Setenv("VITRINE_OUTPUT", "json")

	// Keep ambient Kaggle credentials out of the resolution chain.
	t.Setenv("KAGGLE_API_TOKEN", "")
	t.Setenv("KAGGLE_USERNAME", "")
	t.Setenv("KAGGLE_KEY", "")
	t.Setenv("HOME", dir)
}

func execPipeline(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewPipelineCommand()
	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestPipelineStatus_EmptyWarehouse(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ecommerce.duckdb")
	setPipelineEnv(t, dbPath)

	stdout, _, err := execPipeline(t, "status")
	require.NoError(t, err)

	var report statusReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))

	assert.Equal(t, "not_started", report.Status)
	assert.False(t, report.Ready)
	assert.False(t, report.Probe.DatabaseExists)
	assert.False(t, report.Probe.HasRawSchema)

	var actions []string
	for _, a := range report.Actions {
		actions = append(actions, a.Name)
	}
	assert.Equal(t, []string{"download", "refresh"}, actions)
	assert.Nil(t, report.LatestRun)
}

func TestPipelineStatus_LoadedWarehouse(t *testing.T) {
	store := setupTestWarehouse(t)
	setPipelineEnv(t, store.Path())

	stdout, _, err := execPipeline(t, "status")
	require.NoError(t, err)

	var report statusReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))

	// The fixture has marts tables, so the transform counts as complete.
	assert.Equal(t, "dbt_built", report.Status)
	assert.True(t, report.Ready)
	assert.True(t, report.Probe.DatabaseExists)
	assert.True(t, report.Probe.HasRawSchema)
	assert.True(t, report.Probe.HasMartsSchema)

	var actions []string
	for _, a := range report.Actions {
		actions = append(actions, a.Name)
	}
	assert.Equal(t, []string{"transform", "refresh"}, actions)
}

func TestPipelineStatus_IncludesLatestRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ecommerce.duckdb")
	setPipelineEnv(t, dbPath)

	// Seed run history the way a finished load would.
	history, err := state.NewSQLiteStore(filepath.Join(filepath.Dir(dbPath), "state.db"), nil)
	require.NoError(t, err)
	rec, err := history.CreateRun(context.Background(), pipeline.StageLoad)
	require.NoError(t, err)
	require.NoError(t, history.CompleteRun(context.Background(), rec.ID, state.RunStatusCompleted, "", "loaded 9 files"))
	require.NoError(t, history.Close())

	stdout, _, err := execPipeline(t, "status")
	require.NoError(t, err)

	var report statusReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))

	require.NotNil(t, report.LatestRun)
	assert.Equal(t, pipeline.StageLoad, report.LatestRun.Stage)
	assert.Equal(t, "completed", report.LatestRun.Status)
	assert.NotEmpty(t, report.LatestRun.CompletedAt)
}

func TestPipelineLoad_NoCredentials(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ecommerce.duckdb")
	setPipelineEnv(t, dbPath)

	_, _, err := execPipeline(t, "load")
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrCredentialsMissing)
	assert.Contains(t, err.Error(), "KAGGLE_API_TOKEN")
}

func TestPipelineBuild_RequiresLoadedData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ecommerce.duckdb")
	setPipelineEnv(t, dbPath)

	_, _, err := execPipeline(t, "build")
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrActionNotAllowed)
}

func TestPipelineRefresh_RequiresYesWithoutTerminal(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ecommerce.duckdb")
	setPipelineEnv(t, dbPath)

	cmd := NewPipelineCommand()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)

	// A regular file is not a terminal, so the prompt must refuse.
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	cmd.SetIn(f)

	cmd.SetArgs([]string{"refresh"})
	err = cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}

func TestConfirmRefresh_PromptAnswers(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect bool
	}{
		{"yes", "y\n", true},
		{"yes full word", "yes\n", true},
		{"no", "n\n", false},
		{"empty defaults to no", "\n", false},
		{"eof defaults to no", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{}
			out := new(bytes.Buffer)
			cmd.SetOut(out)
			cmd.SetErr(out)
			cmd.SetIn(strings.NewReader(tt.input))

			r := output.NewRenderer(out, out, output.ModeText)
			ok, err := confirmRefresh(cmd, r, "data/ecommerce.duckdb")
			require.NoError(t, err)
			assert.Equal(t, tt.expect, ok)
			assert.Contains(t, out.String(), "Continue? [y/N]")
		})
	}
}

func TestDescribePipelineError_TransformOutput(t *testing.T) {
	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	cc := &CommandContext{Renderer: output.NewRenderer(out, errOut, output.ModeText)}

	terr := &pipeline.TransformError{ExitCode: 2, Output: "Compilation Error in model fct_orders\n"}
	err := describePipelineError(cc, terr)

	assert.Same(t, terr, err)
	assert.Contains(t, errOut.String(), "Compilation Error in model fct_orders")
}

func TestBuildStatusReport_ProbeError(t *testing.T) {
	res := pipeline.ProbeResult{DatabaseExists: true}
	probeErr := &pipeline.StorageAccessError{Op: "open store", Err: os.ErrPermission}

	report := buildStatusReport("data/ecommerce.duckdb", pipeline.StatusNotStarted, res, probeErr, nil)

	assert.Equal(t, "not_started", report.Status)
	assert.Contains(t, report.ProbeErr, "open store")
	assert.True(t, report.Probe.DatabaseExists)
}

func TestBuildStatusReport_RunDuration(t *testing.T) {
	started := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	completed := started.Add(90 * time.Second)
	rec := &state.Run{
		ID:          "run-1",
		Stage:       pipeline.StageTransform,
		Status:      state.RunStatusCompleted,
		StartedAt:   started,
		CompletedAt: &completed,
	}

	report := buildStatusReport("db", pipeline.StatusDbtBuilt, pipeline.ProbeResult{}, nil, rec)

	require.NotNil(t, report.LatestRun)
	assert.Equal(t, "1m30s", report.LatestRun.Duration)
	assert.Equal(t, completed.Format(time.RFC3339), report.LatestRun.CompletedAt)
}

func TestPresenceStatus(t *testing.T) {
	assert.Equal(t, "ok", presenceStatus(true))
	assert.Equal(t, "missing", presenceStatus(false))
}

func TestNewPipelineCommand(t *testing.T) {
	cmd := NewPipelineCommand()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "run")
	assert.Contains(t, names, "load")
	assert.Contains(t, names, "build")
	assert.Contains(t, names, "test")
	assert.Contains(t, names, "refresh")
	assert.Contains(t, names, "status")
}
