package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitrine-labs/vitrine/internal/cli/output"
	"github.com/vitrine-labs/vitrine/internal/pipeline"
	"github.com/vitrine-labs/vitrine/internal/state"
)

// NewPipelineCommand creates the pipeline command group.
func NewPipelineCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run and inspect the data pipeline",
		Long: `Run and inspect the dataset pipeline.

The pipeline moves data through three stages:
1. download - fetch the dataset archive from Kaggle and extract its CSV files
2. load     - bulk-load each CSV file into the warehouse's raw schema
3. build    - run dbt to build the staging and marts models`,
	}

	cmd.AddCommand(newPipelineRunCommand())
	cmd.AddCommand(newPipelineLoadCommand())
	cmd.AddCommand(newPipelineBuildCommand())
	cmd.AddCommand(newPipelineTestCommand())
	cmd.AddCommand(newPipelineRefreshCommand())
	cmd.AddCommand(newPipelineStatusCommand())

	return cmd
}

func newPipelineRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline (download, load, build)",
		Example: `  # Download the dataset, load it, and build all models
  vitrine pipeline run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			r := cc.Renderer
			r.Header(2, "Load")
			if err := cc.Driver.Load(cmd.Context()); err != nil {
				return describePipelineError(cc, err)
			}
			r.Success("Raw data loaded into " + cc.Cfg.DatabasePath)

			r.Header(2, "Build")
			if err := cc.Driver.Transform(cmd.Context()); err != nil {
				return describePipelineError(cc, err)
			}
			r.Success("Models built, analytics ready")
			return nil
		},
	}
}

func newPipelineLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "load",
		Aliases: []string{"download"},
		Short:   "Download the dataset and load it into the raw schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cc.Driver.Load(cmd.Context()); err != nil {
				return describePipelineError(cc, err)
			}
			cc.Renderer.Success("Raw data loaded into " + cc.Cfg.DatabasePath)
			return nil
		},
	}
}

func newPipelineBuildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Run dbt build over the loaded data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cc.Driver.Transform(cmd.Context()); err != nil {
				return describePipelineError(cc, err)
			}
			cc.Renderer.Success("Models built, analytics ready")
			return nil
		},
	}
}

func newPipelineTestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Run dbt test over the built models",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cc.Driver.Test(cmd.Context()); err != nil {
				return describePipelineError(cc, err)
			}
			cc.Renderer.Success("All data tests passed")
			return nil
		},
	}
}

func newPipelineRefreshCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Delete the warehouse and reload from scratch",
		Long: `Delete the warehouse file and re-run download and load.

This is irreversible: the existing warehouse is removed before the new
download starts, and there is no backup. Built models are lost until the
next build.`,
		Example: `  # Refresh without prompting (required in scripts)
  vitrine pipeline refresh --yes`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if !yes {
				ok, err := confirmRefresh(cmd, cc.Renderer, cc.Cfg.DatabasePath)
				if err != nil {
					return err
				}
				if !ok {
					cc.Renderer.Muted("Refresh cancelled.")
					return nil
				}
			}

			if err := cc.Driver.Refresh(cmd.Context()); err != nil {
				return describePipelineError(cc, err)
			}
			cc.Renderer.Success("Warehouse refreshed from a fresh download")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

// confirmRefresh prompts for confirmation before the destructive refresh.
// Without a terminal on stdin there is nobody to ask, so the caller must
// pass --yes instead.
func confirmRefresh(cmd *cobra.Command, r *output.Renderer, dbPath string) (bool, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok {
		fi, err := f.Stat()
		if err != nil || fi.Mode()&os.ModeCharDevice == 0 {
			return false, fmt.Errorf("refresh deletes %s and cannot be undone; pass --yes to confirm in non-interactive sessions", dbPath)
		}
	}

	r.Warning(fmt.Sprintf("This deletes %s and re-downloads the dataset. There is no backup.", dbPath))
	_, _ = fmt.Fprint(cmd.OutOrStdout(), "Continue? [y/N] ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// describePipelineError adds stage-specific detail for known failures before
// handing the error back to cobra.
func describePipelineError(cc *CommandContext, err error) error {
	r := cc.Renderer

	var terr *pipeline.TransformError
	if errors.As(err, &terr) && terr.Output != "" {
		r.Error("Tool output:")
		_, _ = fmt.Fprintln(r.ErrOut, strings.TrimRight(terr.Output, "\n"))
	}
	if errors.Is(err, pipeline.ErrCredentialsMissing) {
		r.Muted("Set KAGGLE_API_TOKEN, or KAGGLE_USERNAME and KAGGLE_KEY, or create ~/.kaggle/kaggle.json.")
	}
	if errors.Is(err, pipeline.ErrNoInputFound) {
		r.Muted(fmt.Sprintf("No CSV files found in %s after download.", cc.Driver.InputDir()))
	}
	return err
}

func newPipelineStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pipeline status, probe detail, and the latest run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipelineStatus(cmd)
		},
	}
}

// statusReport is the JSON shape of the status command.
type statusReport struct {
	Status    string        `json:"status"`
	Label     string        `json:"label"`
	Ready     bool          `json:"ready"`
	Database  string        `json:"database"`
	Probe     probeReport   `json:"probe"`
	ProbeErr  string        `json:"probe_error,omitempty"`
	Actions   []actionEntry `json:"actions"`
	LatestRun *runReport    `json:"latest_run,omitempty"`
}

type probeReport struct {
	DatabaseExists bool `json:"database_exists"`
	HasRawSchema   bool `json:"has_raw_schema"`
	HasMartsSchema bool `json:"has_marts_schema"`
}

type actionEntry struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

type runReport struct {
	ID          string `json:"id"`
	Stage       string `json:"stage"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at,omitempty"`
	Duration    string `json:"duration"`
}

func runPipelineStatus(cmd *cobra.Command) error {
	cc := NewCommandContextWithoutDriver(cmd)
	ctx := cmd.Context()
	r := cc.Renderer

	store, err := newWarehouseStore(cc.Cfg, cc.Logger)
	if err != nil {
		return err
	}

	res, probeErr := pipeline.Probe(ctx, store)
	st := res.Classify()
	if probeErr != nil {
		st = pipeline.StatusNotStarted
	}

	latest := latestRun(cmd, cc)

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(buildStatusReport(cc.Cfg.DatabasePath, st, res, probeErr, latest))
	}

	r.Header(1, "Pipeline status")
	r.KeyValue("Status", fmt.Sprintf("%s (%s)", st.Label(), st))
	r.KeyValue("Warehouse", cc.Cfg.DatabasePath)
	r.Println()

	r.StatusLine("database file", presenceStatus(res.DatabaseExists), "")
	r.StatusLine("raw schema", presenceStatus(res.HasRawSchema), "")
	r.StatusLine("marts schema", presenceStatus(res.HasMartsSchema), "")
	if probeErr != nil {
		r.Warning("Probe failed: " + probeErr.Error())
	}
	r.Println()

	actions := pipeline.ActionsFor(st)
	if len(actions) == 0 {
		r.KeyValue("Actions", "none (run in progress)")
	} else {
		names := make([]string, len(actions))
		for i, a := range actions {
			names[i] = fmt.Sprintf("%s (%s)", a, a.Label())
		}
		r.KeyValue("Actions", strings.Join(names, ", "))
	}

	if latest != nil {
		r.Println()
		r.Header(2, "Latest run")
		r.StatusLine(latest.Stage, string(latest.Status), latest.Duration().Round(time.Millisecond).String())
		if latest.Error != "" {
			r.Muted("  " + latest.Error)
		}
	}

	return nil
}

// latestRun reads the newest run record. Run history is observational, so a
// missing or unreadable state store degrades to "no runs" instead of failing
// the command.
func latestRun(cmd *cobra.Command, cc *CommandContext) *state.Run {
	history, err := state.NewSQLiteStore(cc.Cfg.StatePath, cc.Logger)
	if err != nil {
		cc.Logger.Warn("failed to open run history", slog.String("error", err.Error()))
		return nil
	}
	defer func() { _ = history.Close() }()

	rec, err := history.GetLatestRun(cmd.Context())
	if err != nil {
		cc.Logger.Warn("failed to read run history", slog.String("error", err.Error()))
		return nil
	}
	return rec
}

func buildStatusReport(dbPath string, st pipeline.Status, res pipeline.ProbeResult, probeErr error, latest *state.Run) statusReport {
	report := statusReport{
		Status:   st.String(),
		Label:    st.Label(),
		Ready:    st.Ready(),
		Database: dbPath,
		Probe: probeReport{
			DatabaseExists: res.DatabaseExists,
			HasRawSchema:   res.HasRawSchema,
			HasMartsSchema: res.HasMartsSchema,
		},
		Actions: []actionEntry{},
	}
	if probeErr != nil {
		report.ProbeErr = probeErr.Error()
	}
	for _, a := range pipeline.ActionsFor(st) {
		report.Actions = append(report.Actions, actionEntry{Name: string(a), Label: a.Label()})
	}
	if latest != nil {
		rr := &runReport{
			ID:        latest.ID,
			Stage:     latest.Stage,
			Status:    string(latest.Status),
			Error:     latest.Error,
			StartedAt: latest.StartedAt.Format(time.RFC3339),
			Duration:  latest.Duration().Round(time.Millisecond).String(),
		}
		if latest.CompletedAt != nil {
			rr.CompletedAt = latest.CompletedAt.Format(time.RFC3339)
		}
		report.LatestRun = rr
	}
	return report
}

func presenceStatus(present bool) string {
	if present {
		return "ok"
	}
	return "missing"
}
