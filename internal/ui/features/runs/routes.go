// Package runs surfaces pipeline run history in the UI.
package runs

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/vitrine-labs/vitrine/internal/state"
	"github.com/vitrine-labs/vitrine/internal/ui/notifier"
)

// SetupRoutes configures routes for the runs feature.
func SetupRoutes(router chi.Router, history state.Store, notify *notifier.Notifier, log *slog.Logger) error {
	handlers := NewHandlers(history, notify, log)

	router.Get("/runs", handlers.RunsPage)
	router.Get("/runs/updates", handlers.RunsUpdates)
	router.Get("/runs/{id}", handlers.RunPage)

	return nil
}
