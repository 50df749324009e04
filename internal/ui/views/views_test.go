package views

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine-labs/vitrine/internal/ui/features/common"
)

func renderComponent(t *testing.T, page, name string, data any) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, render(page, name, data).Render(context.Background(), &sb))
	return sb.String()
}

func sampleHomeData() HomeData {
	return HomeData{
		Shell: Shell{Title: "Overview", Active: "home"},
		Status: StatusView{
			State: "not_started",
			Label: "No data loaded",
			Actions: []ActionButton{
				{Label: "Download & load data", Endpoint: "/pipeline/download", Style: "primary"},
			},
		},
		Warehouse: "data/ecommerce.duckdb",
		Dataset:   "olistbr/brazilian-ecommerce",
		Runs: []RunRow{
			{ID: "run-1", ShortID: "run-1", Stage: "load", Status: "completed", StartedAgo: "5m ago", Duration: "42.0s"},
		},
	}
}

func TestHome_RendersFullPage(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, Home(sampleHomeData()).Render(context.Background(), &sb))
	body := sb.String()

	assert.Contains(t, body, "<!doctype html>")
	assert.Contains(t, body, "<title>Overview - vitrine</title>")
	assert.Contains(t, body, `data-on-load="@get('/updates')"`)
	assert.Contains(t, body, "No data loaded")
	assert.Contains(t, body, "/pipeline/download")
	assert.Contains(t, body, "olistbr/brazilian-ecommerce")
	assert.Contains(t, body, `href="/runs/run-1"`)
	assert.Contains(t, body, "nav-link--active")
}

func TestHomeContent_RendersPatchTarget(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, HomeContent(sampleHomeData()).Render(context.Background(), &sb))
	body := sb.String()

	assert.Contains(t, body, `id="page-content"`)
	assert.NotContains(t, body, "<!doctype html>")
}

func TestHome_RunningStateHidesActions(t *testing.T) {
	data := sampleHomeData()
	data.Status.Running = true
	data.Status.Label = "Pipeline running"

	var sb strings.Builder
	require.NoError(t, HomeContent(data).Render(context.Background(), &sb))
	body := sb.String()

	assert.Contains(t, body, "Pipeline running")
	assert.NotContains(t, body, "/pipeline/download")
}

func TestHome_FlashRendered(t *testing.T) {
	data := sampleHomeData()
	data.Flash = &common.Flash{Kind: "warning", Message: "A run is already in progress."}

	var sb strings.Builder
	require.NoError(t, Home(data).Render(context.Background(), &sb))
	body := sb.String()

	assert.Contains(t, body, "flash--warning")
	assert.Contains(t, body, "A run is already in progress.")
}

func TestDashboard_Renders(t *testing.T) {
	data := DashboardData{
		Shell: Shell{Title: "Dashboard", Active: "dashboard"},
		Metrics: []Metric{
			{Label: "Orders", Value: "99,441"},
			{Label: "Revenue", Value: "R$ 13.591.643,70"},
		},
		Monthly: []Bar{
			{Label: "2018-08", Value: "R$ 985.486,00", Pct: 100},
			{Label: "2018-07", Value: "R$ 895.469,00", Pct: 91},
		},
		Categories: []Bar{{Label: "beleza_saude", Value: "R$ 1.258.681,34", Pct: 100}},
		States:     []Bar{{Label: "SP", Value: "41,746", Pct: 100}},
		Segments: []SegmentCount{
			{Segment: "champions", Customers: "9,021", Revenue: "R$ 3.512.440,12"},
		},
	}

	var sb strings.Builder
	require.NoError(t, Dashboard(data).Render(context.Background(), &sb))
	body := sb.String()

	assert.Contains(t, body, "99,441")
	assert.Contains(t, body, "R$ 13.591.643,70")
	assert.Contains(t, body, "width: 91%")
	assert.Contains(t, body, "beleza_saude")
	assert.Contains(t, body, "champions")
	assert.Contains(t, body, "@get('/dashboard/updates')")
}

func TestExplorer_EmptyWarehouse(t *testing.T) {
	data := ExplorerData{
		Shell: Shell{Title: "Explorer", Active: "explorer"},
		Empty: true,
	}

	var sb strings.Builder
	require.NoError(t, Explorer(data).Render(context.Background(), &sb))
	body := sb.String()

	assert.Contains(t, body, "Nothing to explore yet")
}

func TestTable_RendersMetadataAndPreview(t *testing.T) {
	data := TableData{
		Shell: Shell{Title: "marts.fct_orders", Active: "explorer"},
		Groups: []common.SchemaGroup{
			{Name: "marts", Tables: []common.TableRef{
				{Schema: "marts", Name: "fct_orders", Active: true},
			}},
		},
		Schema: "marts",
		Name:   "fct_orders",
		Columns: []ColumnView{
			{Name: "order_id", Type: "VARCHAR", Nullable: "NO"},
			{Name: "order_total", Type: "DOUBLE", Nullable: "YES"},
		},
		RowCount: "99,441",
		Preview: Grid{
			Columns: []string{"order_id", "order_total"},
			Rows:    [][]string{{"abc123", "58.9"}},
		},
		PreviewLimit: 50,
	}

	var sb strings.Builder
	require.NoError(t, Table(data).Render(context.Background(), &sb))
	body := sb.String()

	assert.Contains(t, body, "fct_orders")
	assert.Contains(t, body, "VARCHAR")
	assert.Contains(t, body, "tree-table--active")
	assert.Contains(t, body, "abc123")
	assert.Contains(t, body, "first 50 rows")
}

func TestConsole_Renders(t *testing.T) {
	data := ConsoleData{
		Shell:  Shell{Title: "Console", Active: "console"},
		Tables: []ConsoleTable{{Qualified: "marts.fct_orders"}},
	}

	var sb strings.Builder
	require.NoError(t, Console(data).Render(context.Background(), &sb))
	body := sb.String()

	assert.Contains(t, body, "data-bind-sql")
	assert.Contains(t, body, `id="console-results"`)
	assert.Contains(t, body, "marts.fct_orders")
	assert.Contains(t, body, "/console/execute")
}

func TestConsoleResults_Error(t *testing.T) {
	body := renderComponent(t, "console.html", "console-results", ConsoleResult{
		Error: "Catalog Error: table raw.nope does not exist",
	})

	assert.Contains(t, body, "console-error")
	assert.Contains(t, body, "does not exist")
}

func TestConsoleResults_Rows(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, ConsoleResults(ConsoleResult{
		Columns:   []string{"n"},
		Rows:      [][]string{{"1"}},
		RowCount:  1,
		Truncated: true,
		QueryMS:   12,
	}).Render(context.Background(), &sb))
	body := sb.String()

	assert.Contains(t, body, "1 rows (truncated) in 12ms")
	assert.Contains(t, body, "<td>1</td>")
}

func TestRunDetail_Renders(t *testing.T) {
	data := RunDetailData{
		Shell: Shell{Title: "Run", Active: "runs"},
		Run: RunRow{
			ID: "abc", ShortID: "abc", Stage: "transform",
			Status: "failed", Duration: "2m10s",
		},
		Started: "2018-08-29 10:00:00",
		Error:   "transform failed with exit code 1",
		Output:  "Completed with 1 error",
	}

	var sb strings.Builder
	require.NoError(t, RunDetail(data).Render(context.Background(), &sb))
	body := sb.String()

	assert.Contains(t, body, "transform failed with exit code 1")
	assert.Contains(t, body, "Completed with 1 error")
	assert.Contains(t, body, "badge--failed")
}

func TestActionButton_ClickExpr(t *testing.T) {
	plain := ActionButton{Endpoint: "/pipeline/download"}
	assert.Equal(t, "@post('/pipeline/download')", plain.ClickExpr())

	confirmed := ActionButton{Endpoint: "/pipeline/refresh", Confirm: "Really?"}
	assert.Equal(t, `confirm("Really?") && @post('/pipeline/refresh')`, confirmed.ClickExpr())
}

func TestAllPagesCompile(t *testing.T) {
	assert.Len(t, pages, len(pageFiles))
	for _, name := range pageFiles {
		assert.NotNil(t, pages[name], "page set %s missing", name)
	}
}
