// Package ui provides the embedded web dashboard for vitrine.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/vitrine-labs/vitrine/internal/pipeline"
	"github.com/vitrine-labs/vitrine/internal/state"
	"github.com/vitrine-labs/vitrine/internal/ui/notifier"
	"github.com/vitrine-labs/vitrine/internal/ui/router"
	"github.com/vitrine-labs/vitrine/internal/warehouse"
)

// Server is the main UI server.
type Server struct {
	driver       *pipeline.Driver
	store        warehouse.Store
	history      state.Store
	sessionStore *sessions.CookieStore
	host         string
	port         int
	watch        bool
	dataset      string
	previewLimit int
	logger       *slog.Logger
	notifier     *notifier.Notifier
}

// Config holds configuration for the UI server.
type Config struct {
	Driver        *pipeline.Driver
	Warehouse     warehouse.Store
	History       state.Store
	Host          string
	Port          int
	Watch         bool
	Dataset       string
	PreviewLimit  int
	SessionSecret string
	Logger        *slog.Logger
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	return &Server{
		driver:       cfg.Driver,
		store:        cfg.Warehouse,
		history:      cfg.History,
		sessionStore: sessionStore,
		host:         cfg.Host,
		port:         cfg.Port,
		watch:        cfg.Watch,
		dataset:      cfg.Dataset,
		previewLimit: cfg.PreviewLimit,
		logger:       cfg.Logger,
		notifier:     notifier.New(),
	}
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	s.logger.Info("starting UI server", "addr", "http://"+addr)

	eg, egctx := errgroup.WithContext(ctx)

	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	if err := router.SetupRoutes(r, s.driver, s.store, s.history, s.sessionStore, s.notifier, s.dataset, s.previewLimit, s.logger); err != nil {
		return fmt.Errorf("failed to setup routes: %w", err)
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start warehouse watcher if enabled
	if s.watch {
		eg.Go(func() error {
			return s.watchWarehouse(egctx)
		})
	}

	// Start HTTP server
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// watchWarehouse watches the warehouse file so changes made outside this
// process, like a CLI build in another terminal, still refresh connected
// browsers. In-process runs broadcast on their own when they complete.
func (s *Server) watchWarehouse(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	dbPath := s.store.Path()
	dbDir := filepath.Dir(dbPath)
	dbName := filepath.Base(dbPath)

	// The data directory does not exist until the first download. Watch
	// is best-effort; without it the dashboard still updates on its own
	// runs.
	if err := watcher.Add(dbDir); err != nil {
		s.logger.Warn("cannot watch warehouse directory", "dir", dbDir, "error", err)
		<-ctx.Done()
		return nil
	}

	// Debounce timer
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
				continue
			}

			// DuckDB writes land in the database file and its WAL.
			base := filepath.Base(event.Name)
			if base != dbName && base != dbName+".wal" {
				continue
			}

			// Debounce
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				s.logger.Debug("warehouse changed on disk", "file", event.Name)

				if _, err := s.driver.Reconcile(ctx); err != nil {
					s.logger.Error("failed to reconcile pipeline status", "error", err)
				}
				s.notifier.Broadcast(notifier.StatusChanged, notifier.DataChanged)
			})

		case err := <-watcher.Errors:
			s.logger.Error("watcher error", "error", err)
		}
	}
}
