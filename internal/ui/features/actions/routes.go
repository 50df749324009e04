// Package actions exposes pipeline stage actions to the dashboard.
package actions

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/vitrine-labs/vitrine/internal/pipeline"
	"github.com/vitrine-labs/vitrine/internal/ui/notifier"
)

// SetupRoutes configures routes for pipeline actions.
func SetupRoutes(
	router chi.Router,
	driver *pipeline.Driver,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	log *slog.Logger,
) error {
	handlers := NewHandlers(driver, sessionStore, notify, log)

	router.Post("/pipeline/download", handlers.Download)
	router.Post("/pipeline/transform", handlers.Transform)
	router.Post("/pipeline/refresh", handlers.Refresh)
	router.Post("/pipeline/test", handlers.Test)

	return nil
}
