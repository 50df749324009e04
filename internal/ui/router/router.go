// Package router sets up HTTP routes for the UI server.
package router

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/vitrine-labs/vitrine/internal/pipeline"
	"github.com/vitrine-labs/vitrine/internal/state"
	actionsFeature "github.com/vitrine-labs/vitrine/internal/ui/features/actions"
	consoleFeature "github.com/vitrine-labs/vitrine/internal/ui/features/console"
	dashboardFeature "github.com/vitrine-labs/vitrine/internal/ui/features/dashboard"
	explorerFeature "github.com/vitrine-labs/vitrine/internal/ui/features/explorer"
	homeFeature "github.com/vitrine-labs/vitrine/internal/ui/features/home"
	runsFeature "github.com/vitrine-labs/vitrine/internal/ui/features/runs"
	"github.com/vitrine-labs/vitrine/internal/ui/notifier"
	"github.com/vitrine-labs/vitrine/internal/ui/resources"
	"github.com/vitrine-labs/vitrine/internal/warehouse"
)

// SetupRoutes configures all routes for the UI server.
func SetupRoutes(
	router chi.Router,
	driver *pipeline.Driver,
	store warehouse.Store,
	history state.Store,
	sessionStore *sessions.CookieStore,
	notify *notifier.Notifier,
	dataset string,
	previewLimit int,
	log *slog.Logger,
) error {
	// Static assets
	router.Handle("/static/*", resources.Handler())

	// Feature routes
	if err := homeFeature.SetupRoutes(router, driver, store, history, sessionStore, notify, dataset, log); err != nil {
		return err
	}

	if err := actionsFeature.SetupRoutes(router, driver, sessionStore, notify, log); err != nil {
		return err
	}

	if err := dashboardFeature.SetupRoutes(router, driver, store, notify, log); err != nil {
		return err
	}

	if err := explorerFeature.SetupRoutes(router, store, notify, previewLimit, log); err != nil {
		return err
	}

	if err := consoleFeature.SetupRoutes(router, store, log); err != nil {
		return err
	}

	if err := runsFeature.SetupRoutes(router, history, notify, log); err != nil {
		return err
	}

	return nil
}
