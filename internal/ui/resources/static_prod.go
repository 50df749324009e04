//go:build !dev

package resources

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/*
var embedded embed.FS

// Handler serves the static assets compiled into the binary. Embedded
// files cannot change while the process runs, so clients may cache them
// for as long as they like.
func Handler() http.Handler {
	fsys, _ := fs.Sub(embedded, "static")
	files := http.StripPrefix("/static/", http.FileServer(http.FS(fsys)))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		files.ServeHTTP(w, r)
	})
}
