// Package console provides a read-only SQL console over the warehouse.
package console

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/vitrine-labs/vitrine/internal/warehouse"
)

// SetupRoutes configures routes for the console feature.
func SetupRoutes(router chi.Router, store warehouse.Store, log *slog.Logger) error {
	handlers := NewHandlers(store, log)

	router.Get("/console", handlers.ConsolePage)
	router.Post("/console/execute", handlers.ExecuteQuery)

	return nil
}
