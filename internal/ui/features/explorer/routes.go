// Package explorer provides the warehouse schema and table browser.
package explorer

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/vitrine-labs/vitrine/internal/ui/notifier"
	"github.com/vitrine-labs/vitrine/internal/warehouse"
)

// SetupRoutes configures routes for the explorer feature.
func SetupRoutes(
	router chi.Router,
	store warehouse.Store,
	notify *notifier.Notifier,
	previewLimit int,
	log *slog.Logger,
) error {
	handlers := NewHandlers(store, notify, previewLimit, log)

	router.Get("/explorer", handlers.ExplorerPage)
	router.Get("/explorer/updates", handlers.ExplorerUpdates)
	router.Get("/explorer/{schema}/{table}", handlers.TablePage)

	return nil
}
