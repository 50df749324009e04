package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vitrine-labs/vitrine/internal/cli/config"
	"github.com/vitrine-labs/vitrine/internal/cli/output"
	"github.com/vitrine-labs/vitrine/internal/dbt"
	"github.com/vitrine-labs/vitrine/internal/kaggle"
	"github.com/vitrine-labs/vitrine/internal/state"
	"github.com/vitrine-labs/vitrine/internal/warehouse"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the workspace for everything the pipeline needs",
		Long: `Probe the environment and workspace and report anything that would
stop the pipeline from running end to end:
- Environment (dbt executable, Kaggle credentials)
- Workspace (dbt project, downloaded CSVs, run history)
- Warehouse (database file, raw tables, built models)

Each report ends with a health score and the next commands to run.`,
		Example: `  # Run the health check
  vitrine doctor

  # Machine-readable output
  vitrine doctor --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Checks          []HealthCheck `json:"checks"`
	Score           int           `json:"score"`
	Recommendations []string      `json:"recommendations"`
}

// HealthCheck is a single probe result.
type HealthCheck struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Group  string `json:"group"`
	Status string `json:"status"` // "pass", "warn", "error"
	Detail string `json:"detail,omitempty"`
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cc := NewCommandContextWithoutDriver(cmd)
	r := cc.Renderer

	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	out := collectChecks(cmd.Context(), cc.Cfg, cc.Logger)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		return renderDoctorMarkdown(r, out)
	default:
		return renderDoctorText(r, out)
	}
}

func collectChecks(ctx context.Context, cfg *config.Config, logger *slog.Logger) *DoctorOutput {
	checks := []HealthCheck{
		checkDbtBinary(cfg),
		checkKaggleCredentials(cfg),
		checkDbtProject(cfg),
		checkInputData(cfg),
		checkRunHistory(ctx, cfg, logger),
	}
	checks = append(checks, checkWarehouse(ctx, cfg, logger)...)

	return &DoctorOutput{
		Checks:          checks,
		Score:           calculateHealthScore(checks),
		Recommendations: generateRecommendations(checks),
	}
}

func checkDbtBinary(cfg *config.Config) HealthCheck {
	check := HealthCheck{ID: "dbt-binary", Name: "dbt executable", Group: "environment"}

	bin := cfg.Dbt.Bin
	if bin == "" {
		bin = config.DefaultDbtBin
	}

	path, err := exec.LookPath(bin)
	if err != nil {
		check.Status = "error"
		check.Detail = fmt.Sprintf("%q not found in PATH", bin)
		return check
	}
	check.Status = "pass"
	check.Detail = path
	return check
}

func checkKaggleCredentials(cfg *config.Config) HealthCheck {
	check := HealthCheck{ID: "kaggle-credentials", Name: "Kaggle credentials", Group: "environment"}

	creds := kaggle.Resolve(kaggle.ResolveOptions{
		Token:    cfg.Kaggle.Token,
		Username: cfg.Kaggle.Username,
		Key:      cfg.Kaggle.Key,
	})

	switch creds.Kind {
	case kaggle.KindToken:
		check.Status = "pass"
		check.Detail = "API token"
	case kaggle.KindLegacy:
		check.Status = "pass"
		check.Detail = "username and key"
	case kaggle.KindFile:
		check.Status = "pass"
		check.Detail = creds.Path
	default:
		// Only the download stage needs them.
		check.Status = "warn"
		check.Detail = "no credentials found"
	}
	return check
}

func checkDbtProject(cfg *config.Config) HealthCheck {
	check := HealthCheck{ID: "dbt-project", Name: "dbt project", Group: "workspace"}

	projectDir := cfg.Dbt.ProjectDir
	if projectDir == "" {
		projectDir = config.DefaultDbtDir
	}
	profilesDir := cfg.Dbt.ProfilesDir
	if profilesDir == "" {
		profilesDir = projectDir
	}

	project, err := dbt.LoadProject(projectDir)
	if err != nil {
		check.Status = "error"
		check.Detail = err.Error()
		return check
	}

	profiles, err := dbt.LoadProfiles(profilesDir)
	if err != nil {
		check.Status = "error"
		check.Detail = err.Error()
		return check
	}

	target, err := profiles.ActiveTarget(project.Profile)
	if err != nil {
		check.Status = "error"
		check.Detail = err.Error()
		return check
	}

	if target.Type != "duckdb" {
		check.Status = "warn"
		check.Detail = fmt.Sprintf("profile target type is %q, expected duckdb", target.Type)
		return check
	}

	// The profile path is resolved from the directory dbt runs in, which is
	// the project root for vitrine-driven builds.
	profilePath := target.Path
	if !filepath.IsAbs(profilePath) && cfg.ProjectRoot != "" {
		profilePath = filepath.Join(cfg.ProjectRoot, profilePath)
	}
	if filepath.Clean(profilePath) != filepath.Clean(cfg.DatabasePath) {
		check.Status = "warn"
		check.Detail = fmt.Sprintf("profile writes %s, vitrine reads %s", target.Path, cfg.DatabasePath)
		return check
	}

	check.Status = "pass"
	check.Detail = fmt.Sprintf("%s targeting %s", project.Name, target.Path)
	return check
}

func checkInputData(cfg *config.Config) HealthCheck {
	check := HealthCheck{ID: "input-data", Name: "raw CSV files", Group: "workspace"}

	files, err := filepath.Glob(filepath.Join(cfg.InputDir, "*.csv"))
	if err != nil || len(files) == 0 {
		check.Status = "warn"
		check.Detail = "none downloaded yet"
		return check
	}
	check.Status = "pass"
	check.Detail = fmt.Sprintf("%d files in %s", len(files), cfg.InputDir)
	return check
}

func checkRunHistory(ctx context.Context, cfg *config.Config, logger *slog.Logger) HealthCheck {
	check := HealthCheck{ID: "run-history", Name: "run history", Group: "workspace"}

	// Stat first so a pristine checkout is not littered with an empty
	// state database.
	if _, err := os.Stat(cfg.StatePath); err != nil {
		check.Status = "pass"
		check.Detail = "no runs recorded yet"
		return check
	}

	history, err := state.NewSQLiteStore(cfg.StatePath, logger)
	if err != nil {
		check.Status = "error"
		check.Detail = err.Error()
		return check
	}
	defer func() { _ = history.Close() }()

	latest, err := history.GetLatestRun(ctx)
	if err != nil {
		check.Status = "error"
		check.Detail = err.Error()
		return check
	}
	if latest == nil {
		check.Status = "pass"
		check.Detail = "no runs recorded yet"
		return check
	}

	if latest.Status == state.RunStatusFailed {
		check.Status = "warn"
		check.Detail = fmt.Sprintf("last %s run failed: %s", latest.Stage, latest.Error)
		return check
	}
	check.Status = "pass"
	check.Detail = fmt.Sprintf("last %s run %s", latest.Stage, latest.Status)
	return check
}

func checkWarehouse(ctx context.Context, cfg *config.Config, logger *slog.Logger) []HealthCheck {
	fileCheck := HealthCheck{ID: "warehouse-file", Name: "warehouse file", Group: "warehouse"}
	rawCheck := HealthCheck{ID: "raw-schema", Name: "raw data", Group: "warehouse"}
	martsCheck := HealthCheck{ID: "marts-schema", Name: "analytics models", Group: "warehouse"}

	info, err := os.Stat(cfg.DatabasePath)
	if err != nil {
		fileCheck.Status = "warn"
		fileCheck.Detail = "not created yet"
		rawCheck.Status = "warn"
		rawCheck.Detail = "warehouse not created yet"
		martsCheck.Status = "warn"
		martsCheck.Detail = "warehouse not created yet"
		return []HealthCheck{fileCheck, rawCheck, martsCheck}
	}

	fileCheck.Status = "pass"
	fileCheck.Detail = fmt.Sprintf("%s (%d KiB)", cfg.DatabasePath, info.Size()/1024)

	store, err := newWarehouseStore(cfg, logger)
	if err == nil {
		var sess warehouse.Session
		sess, err = store.ConnectReadOnly(ctx)
		if err == nil {
			defer func() { _ = sess.Close() }()
			rawCheck = countCheck(ctx, sess, rawCheck, warehouse.SchemaRaw, "tables")
			martsCheck = countCheck(ctx, sess, martsCheck, warehouse.SchemaMarts, "relations")
			return []HealthCheck{fileCheck, rawCheck, martsCheck}
		}
	}

	rawCheck.Status = "error"
	rawCheck.Detail = err.Error()
	martsCheck.Status = "error"
	martsCheck.Detail = err.Error()
	return []HealthCheck{fileCheck, rawCheck, martsCheck}
}

func countCheck(ctx context.Context, sess warehouse.Session, check HealthCheck, schema, noun string) HealthCheck {
	count, err := sess.SchemaTableCount(ctx, schema)
	if err != nil {
		check.Status = "error"
		check.Detail = err.Error()
		return check
	}
	if count == 0 {
		check.Status = "warn"
		check.Detail = fmt.Sprintf("no %s in %s", noun, schema)
		return check
	}
	check.Status = "pass"
	check.Detail = fmt.Sprintf("%d %s", count, noun)
	return check
}

// calculateHealthScore computes a score from 0-100. The check list is
// fixed, so flat penalties are enough: errors block a pipeline stage,
// warnings mean a stage has not run yet.
func calculateHealthScore(checks []HealthCheck) int {
	score := 100
	for _, check := range checks {
		switch check.Status {
		case "error":
			score -= 20
		case "warn":
			score -= 10
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}

// generateRecommendations creates actionable next steps based on findings.
func generateRecommendations(checks []HealthCheck) []string {
	var recommendations []string
	seen := make(map[string]bool)

	for _, check := range checks {
		if check.Status == "pass" {
			continue
		}

		rec := getRecommendation(check.ID)
		if rec != "" && !seen[rec] {
			recommendations = append(recommendations, rec)
			seen[rec] = true
		}
	}

	if len(recommendations) > 5 {
		recommendations = recommendations[:5]
	}
	return recommendations
}

// getRecommendation returns the next step for a failing check.
func getRecommendation(checkID string) string {
	switch checkID {
	case "dbt-binary":
		return "Install dbt with the DuckDB adapter: pip install dbt-duckdb"
	case "kaggle-credentials":
		return "Provide Kaggle credentials via ~/.kaggle/kaggle.json or KAGGLE_USERNAME and KAGGLE_KEY"
	case "dbt-project":
		return "Restore the dbt/ directory; the build stage needs dbt_project.yml"
	case "input-data", "warehouse-file", "raw-schema":
		return "Download and load the dataset: vitrine pipeline load"
	case "marts-schema":
		return "Build the analytics models: vitrine pipeline build"
	case "run-history":
		return "Inspect the failing run: vitrine pipeline status"
	default:
		return ""
	}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	r.Println("")
	r.Header(1, "Vitrine Health Report")
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.Checks {
		if check.Group != currentGroup {
			if currentGroup != "" {
				r.Println("")
			}
			currentGroup = check.Group
			r.Println(styles.Bold.Render("  " + titleCaser.String(currentGroup)))
		}
		r.StatusLine(check.Name, statusWord(check.Status), check.Detail)
	}
	r.Println("")

	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("  Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Header(2, "Recommendations")
		for i, rec := range out.Recommendations {
			r.Printf("  %d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}

// statusWord maps check status to the renderer's status vocabulary.
func statusWord(status string) string {
	switch status {
	case "pass":
		return "ok"
	case "warn":
		return "warning"
	default:
		return "error"
	}
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("# Vitrine Health Report")
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.Checks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("## " + titleCaser.String(currentGroup))
			r.Println("")
		}

		status := "PASS"
		switch check.Status {
		case "warn":
			status = "WARN"
		case "error":
			status = "ERROR"
		}

		r.Printf("- **[%s]** %s", status, check.Name)
		if check.Detail != "" {
			r.Printf(": %s", check.Detail)
		}
		r.Println("")
	}
	r.Println("")

	r.Println("## Health Score")
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println("## Recommendations")
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}
