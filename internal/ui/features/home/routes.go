// Package home provides the overview page for the UI.
package home

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/vitrine-labs/vitrine/internal/pipeline"
	"github.com/vitrine-labs/vitrine/internal/state"
	"github.com/vitrine-labs/vitrine/internal/ui/notifier"
	"github.com/vitrine-labs/vitrine/internal/warehouse"
)

// SetupRoutes configures routes for the overview feature.
func SetupRoutes(
	router chi.Router,
	driver *pipeline.Driver,
	store warehouse.Store,
	history state.Store,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	dataset string,
	log *slog.Logger,
) error {
	handlers := NewHandlers(driver, store, history, sessionStore, notify, dataset, log)

	router.Get("/", handlers.HomePage)
	router.Get("/updates", handlers.HomePageUpdates)

	return nil
}
