package views

import (
	"fmt"

	"github.com/vitrine-labs/vitrine/internal/ui/features/common"
)

// Shell carries the chrome every page needs.
type Shell struct {
	Title  string
	Active string // nav highlight: home, dashboard, explorer, console, runs
	Flash  *common.Flash
}

// ActionButton is one pipeline action rendered on the status card.
type ActionButton struct {
	Label    string
	Endpoint string
	Style    string // "primary" or "ghost"
	Confirm  string // non-empty wraps the post in a confirm()
}

// ClickExpr builds the button's client expression.
func (a ActionButton) ClickExpr() string {
	post := fmt.Sprintf("@post('%s')", a.Endpoint)
	if a.Confirm != "" {
		return fmt.Sprintf("confirm(%q) && %s", a.Confirm, post)
	}
	return post
}

// StatusView describes the pipeline state shown on the status card.
type StatusView struct {
	State   string // raw status value, drives the dot color
	Label   string
	Detail  string
	Running bool
	Actions []ActionButton
}

// SchemaCount summarizes one schema on the overview page.
type SchemaCount struct {
	Name   string
	Tables int
}

// RunRow is one run history entry.
type RunRow struct {
	ID         string
	ShortID    string
	Stage      string
	Status     string
	StartedAgo string
	Duration   string
}

// HomeData drives the overview page.
type HomeData struct {
	Shell
	Status    StatusView
	Warehouse string
	Dataset   string
	Schemas   []SchemaCount
	Runs      []RunRow
}

// Metric is one KPI card on the dashboard.
type Metric struct {
	Label string
	Value string
}

// Bar is one row in a horizontal bar list.
type Bar struct {
	Label string
	Value string
	Pct   int
}

// SegmentCount is one customer segment row.
type SegmentCount struct {
	Segment   string
	Customers string
	Revenue   string
}

// DashboardData drives the analytics page.
type DashboardData struct {
	Shell
	Metrics    []Metric
	Monthly    []Bar
	Categories []Bar
	States     []Bar
	Segments   []SegmentCount
}

// ExplorerData drives the warehouse browser's overview.
type ExplorerData struct {
	Shell
	Groups []common.SchemaGroup
	Empty  bool
}

// ColumnView is one column row in the table detail.
type ColumnView struct {
	Name     string
	Type     string
	Nullable string
}

// Grid is a generic result table.
type Grid struct {
	Columns []string
	Rows    [][]string
}

// TableData drives the table detail page.
type TableData struct {
	Shell
	Groups       []common.SchemaGroup
	Schema       string
	Name         string
	Columns      []ColumnView
	RowCount     string
	Preview      Grid
	PreviewLimit int
}

// ConsoleData drives the SQL console page.
type ConsoleData struct {
	Shell
	Tables []ConsoleTable
}

// ConsoleTable is one clickable table shortcut in the console sidebar.
type ConsoleTable struct {
	Qualified string
}

// ClickExpr fills the editor with a starter query and runs it.
func (t ConsoleTable) ClickExpr() string {
	return fmt.Sprintf("$sql = 'SELECT * FROM %s LIMIT 50'; @post('/console/execute')", t.Qualified)
}

// ConsoleResult is the outcome of one console query.
type ConsoleResult struct {
	Columns   []string
	Rows      [][]string
	RowCount  int
	Truncated bool
	QueryMS   int64
	Error     string
}

// RunsData drives the run history page.
type RunsData struct {
	Shell
	Runs  []RunRow
	Empty bool
}

// RunDetailData drives the single-run page.
type RunDetailData struct {
	Shell
	Run       RunRow
	Started   string
	Completed string
	Error     string
	Output    string
}
