package actions

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/vitrine-labs/vitrine/internal/pipeline"
	"github.com/vitrine-labs/vitrine/internal/ui/features/common"
	"github.com/vitrine-labs/vitrine/internal/ui/notifier"
	"github.com/vitrine-labs/vitrine/internal/ui/views"
)

// Handlers starts pipeline stages from the dashboard. Stage work runs in
// the background; progress reaches the browser through the notifier and
// the per-page update streams, not through these responses.
type Handlers struct {
	driver       *pipeline.Driver
	sessionStore sessions.Store
	notifier     *notifier.Notifier
	log          *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(driver *pipeline.Driver, sessionStore sessions.Store, notify *notifier.Notifier, log *slog.Logger) *Handlers {
	return &Handlers{
		driver:       driver,
		sessionStore: sessionStore,
		notifier:     notify,
		log:          log,
	}
}

// Download starts the download and load stage.
func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	h.start(w, r, pipeline.ActionDownload, "load", "Download started.", h.driver.Load)
}

// Transform starts the dbt build stage.
func (h *Handlers) Transform(w http.ResponseWriter, r *http.Request) {
	h.start(w, r, pipeline.ActionTransform, "transform", "Transformations started.", h.driver.Transform)
}

// Refresh wipes the warehouse and reloads. The confirmation happens
// client-side before the request is sent.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	h.start(w, r, pipeline.ActionRefresh, "refresh", "Refresh started.", h.driver.Refresh)
}

// Test runs dbt tests against the built models. Tests are legal exactly
// where a transform is.
func (h *Handlers) Test(w http.ResponseWriter, r *http.Request) {
	h.start(w, r, pipeline.ActionTransform, "test", "dbt tests started.", h.driver.Test)
}

func (h *Handlers) start(w http.ResponseWriter, r *http.Request, action pipeline.Action, stage, startedMsg string, fn func(context.Context) error) {
	sse := datastar.NewSSE(w, r)

	if status := h.driver.Status(); !status.Allows(action) {
		flash := &common.Flash{
			Kind:    "warning",
			Message: "That action is not available while the pipeline is " + status.Label() + ".",
		}
		if err := sse.PatchElementTempl(views.FlashMessage(flash)); err != nil {
			_ = sse.ConsoleError(err)
		}
		return
	}

	go h.run(stage, fn)

	flash := &common.Flash{Kind: "success", Message: startedMsg}
	if err := sse.PatchElementTempl(views.FlashMessage(flash)); err != nil {
		_ = sse.ConsoleError(err)
	}
	h.notifier.Broadcast(notifier.StatusChanged, notifier.RunsChanged)
}

// run executes one stage to completion. It deliberately detaches from the
// request context: closing the browser tab must not abort a half-finished
// load.
func (h *Handlers) run(stage string, fn func(context.Context) error) {
	start := time.Now()
	err := fn(context.Background())

	switch {
	case err == nil:
		h.log.Info("pipeline stage finished",
			slog.String("stage", stage),
			slog.Duration("took", time.Since(start)),
		)
	case errors.Is(err, pipeline.ErrRunInProgress):
		h.log.Warn("pipeline stage skipped, run in progress", slog.String("stage", stage))
	default:
		h.log.Error("pipeline stage failed",
			slog.String("stage", stage),
			slog.String("error", err.Error()),
		)
	}

	h.notifier.Broadcast(notifier.StatusChanged, notifier.RunsChanged, notifier.DataChanged)
}
