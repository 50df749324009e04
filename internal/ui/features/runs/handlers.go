package runs

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/vitrine-labs/vitrine/internal/state"
	"github.com/vitrine-labs/vitrine/internal/ui/features/common"
	"github.com/vitrine-labs/vitrine/internal/ui/notifier"
	"github.com/vitrine-labs/vitrine/internal/ui/views"
)

const historyLimit = 50

// Handlers provides HTTP handlers for run history.
type Handlers struct {
	history  state.Store
	notifier *notifier.Notifier
	log      *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(history state.Store, notify *notifier.Notifier, log *slog.Logger) *Handlers {
	return &Handlers{history: history, notifier: notify, log: log}
}

// RunsPage renders the run history list.
func (h *Handlers) RunsPage(w http.ResponseWriter, r *http.Request) {
	data, err := h.buildRunsData(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := views.Runs(data).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// RunsUpdates pushes a fresh history list when runs start or complete.
func (h *Handlers) RunsUpdates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-updates:
			if ev != notifier.RunsChanged {
				continue
			}
			data, err := h.buildRunsData(r)
			if err != nil {
				_ = sse.ConsoleError(err)
				continue
			}
			if err := sse.PatchElementTempl(views.RunsContent(data)); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

// RunPage renders a single run with its captured output.
func (h *Handlers) RunPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.history.GetRun(r.Context(), id)
	if err != nil {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	data := views.RunDetailData{
		Shell:   views.Shell{Title: "Run " + common.TruncateID(id), Active: "runs"},
		Run:     toRow(run),
		Started: run.StartedAt.Format("2006-01-02 15:04:05"),
		Error:   run.Error,
		Output:  run.Output,
	}
	if run.CompletedAt != nil {
		data.Completed = run.CompletedAt.Format("2006-01-02 15:04:05")
	}

	if err := views.RunDetail(data).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handlers) buildRunsData(r *http.Request) (views.RunsData, error) {
	data := views.RunsData{
		Shell: views.Shell{Title: "Runs", Active: "runs"},
	}

	runs, err := h.history.ListRuns(r.Context(), historyLimit)
	if err != nil {
		return data, err
	}

	data.Runs = make([]views.RunRow, 0, len(runs))
	for _, run := range runs {
		data.Runs = append(data.Runs, toRow(run))
	}
	data.Empty = len(data.Runs) == 0
	return data, nil
}

func toRow(run *state.Run) views.RunRow {
	return views.RunRow{
		ID:         run.ID,
		ShortID:    common.TruncateID(run.ID),
		Stage:      run.Stage,
		Status:     string(run.Status),
		StartedAgo: common.FormatTimeAgo(run.StartedAt),
		Duration:   common.FormatDuration(run.Duration()),
	}
}
