// Package dashboard renders analytics over the marts layer.
package dashboard

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/vitrine-labs/vitrine/internal/pipeline"
	"github.com/vitrine-labs/vitrine/internal/ui/notifier"
	"github.com/vitrine-labs/vitrine/internal/warehouse"
)

// SetupRoutes configures routes for the dashboard feature.
func SetupRoutes(
	router chi.Router,
	driver *pipeline.Driver,
	store warehouse.Store,
	notify *notifier.Notifier,
	log *slog.Logger,
) error {
	handlers := NewHandlers(driver, store, notify, log)

	router.Get("/dashboard", handlers.DashboardPage)
	router.Get("/dashboard/updates", handlers.DashboardUpdates)

	return nil
}
