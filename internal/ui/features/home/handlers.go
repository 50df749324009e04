package home

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/vitrine-labs/vitrine/internal/pipeline"
	"github.com/vitrine-labs/vitrine/internal/state"
	"github.com/vitrine-labs/vitrine/internal/ui/features/common"
	"github.com/vitrine-labs/vitrine/internal/ui/notifier"
	"github.com/vitrine-labs/vitrine/internal/ui/views"
	"github.com/vitrine-labs/vitrine/internal/warehouse"
)

const recentRunLimit = 5

// Handlers provides HTTP handlers for the overview page.
type Handlers struct {
	driver       *pipeline.Driver
	store        warehouse.Store
	history      state.Store
	sessionStore sessions.Store
	notifier     *notifier.Notifier
	dataset      string
	log          *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(
	driver *pipeline.Driver,
	store warehouse.Store,
	history state.Store,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	dataset string,
	log *slog.Logger,
) *Handlers {
	return &Handlers{
		driver:       driver,
		store:        store,
		history:      history,
		sessionStore: sessionStore,
		notifier:     notify,
		dataset:      dataset,
		log:          log,
	}
}

// HomePage renders the overview with full content.
func (h *Handlers) HomePage(w http.ResponseWriter, r *http.Request) {
	data, err := h.buildHomeData(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	data.Flash = common.PopFlash(h.sessionStore, w, r)

	if err := views.Home(data).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HomePageUpdates is the long-lived SSE endpoint for the overview.
// It pushes a fresh page body whenever pipeline state, run history, or
// warehouse contents change. No initial send: HomePage already rendered.
func (h *Handlers) HomePageUpdates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			if err := h.sendHomeView(ctx, sse); err != nil {
				_ = sse.ConsoleError(err)
				// Keep the stream alive for the next update.
			}
		}
	}
}

func (h *Handlers) sendHomeView(ctx context.Context, sse *datastar.ServerSentEventGenerator) error {
	data, err := h.buildHomeData(ctx)
	if err != nil {
		return err
	}
	return sse.PatchElementTempl(views.HomeContent(data))
}

func (h *Handlers) buildHomeData(ctx context.Context) (views.HomeData, error) {
	data := views.HomeData{
		Shell:     views.Shell{Title: "Overview", Active: "home"},
		Warehouse: h.store.Path(),
		Dataset:   h.dataset,
	}

	runs, err := h.history.ListRuns(ctx, recentRunLimit)
	if err != nil {
		h.log.Warn("failed to list runs", slog.String("error", err.Error()))
	}
	data.Runs = RunRows(runs)

	status := h.driver.Status()
	running := len(runs) > 0 && runs[0].Status == state.RunStatusRunning
	data.Status = BuildStatusView(status, running)

	data.Schemas = h.schemaCounts(ctx)
	return data, nil
}

// schemaCounts summarizes warehouse contents for the overview. An
// unreachable or empty warehouse is a normal pre-load condition, not an
// error.
func (h *Handlers) schemaCounts(ctx context.Context) []views.SchemaCount {
	sess, err := h.store.ConnectReadOnly(ctx)
	if err != nil {
		return nil
	}
	defer func() { _ = sess.Close() }()

	groups, err := common.BuildSchemaTree(ctx, sess, "", "")
	if err != nil {
		h.log.Warn("failed to read schemas", slog.String("error", err.Error()))
		return nil
	}

	counts := make([]views.SchemaCount, 0, len(groups))
	for _, g := range groups {
		counts = append(counts, views.SchemaCount{Name: g.Name, Tables: len(g.Tables)})
	}
	return counts
}

// BuildStatusView maps pipeline status onto the status card. While a run
// is in flight the action buttons give way to a progress note, since the
// driver would reject them anyway.
func BuildStatusView(status pipeline.Status, running bool) views.StatusView {
	view := views.StatusView{
		State:   string(status),
		Label:   status.Label(),
		Running: running || status == pipeline.StatusLoading,
	}

	switch status {
	case pipeline.StatusNotStarted:
		view.Detail = "Download the Olist dataset to get started."
	case pipeline.StatusDataLoaded:
		view.Detail = "Raw tables are loaded. Run transformations to build the marts."
	case pipeline.StatusDbtBuilt:
		view.Detail = "All models are built. The dashboard is live."
	}

	if view.Running {
		return view
	}

	for _, action := range pipeline.ActionsFor(status) {
		view.Actions = append(view.Actions, ActionButtonFor(action))
	}
	if status == pipeline.StatusDbtBuilt {
		view.Actions = append(view.Actions, views.ActionButton{
			Label:    "Run dbt tests",
			Endpoint: "/pipeline/test",
			Style:    "ghost",
		})
	}
	return view
}

// ActionButtonFor maps a pipeline action onto its button. Refresh is
// destructive and gets a confirmation prompt.
func ActionButtonFor(action pipeline.Action) views.ActionButton {
	btn := views.ActionButton{
		Label:    action.Label(),
		Endpoint: "/pipeline/" + string(action),
		Style:    "ghost",
	}
	switch action {
	case pipeline.ActionDownload, pipeline.ActionTransform:
		btn.Style = "primary"
	case pipeline.ActionRefresh:
		btn.Confirm = "Refresh deletes the warehouse and re-downloads everything. Continue?"
	}
	return btn
}

// RunRows converts history records to display rows.
func RunRows(runs []*state.Run) []views.RunRow {
	rows := make([]views.RunRow, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, views.RunRow{
			ID:         run.ID,
			ShortID:    common.TruncateID(run.ID),
			Stage:      run.Stage,
			Status:     string(run.Status),
			StartedAgo: common.FormatTimeAgo(run.StartedAt),
			Duration:   common.FormatDuration(run.Duration()),
		})
	}
	return rows
}
