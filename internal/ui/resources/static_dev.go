//go:build dev

package resources

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
)

// Handler serves static assets straight from the source tree so CSS and
// JS edits show up on reload without rebuilding the binary.
func Handler() http.Handler {
	staticDir := StaticDirectoryPath
	if dir, err := Dir(); err == nil {
		staticDir = filepath.Join(dir, "static")
	}
	slog.Info("static assets served from filesystem", "path", staticDir)

	files := http.StripPrefix("/static/", http.FileServer(http.FS(os.DirFS(staticDir))))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		files.ServeHTTP(w, r)
	})
}
