// Package main rebuilds the dashboard's static assets from src/.
//
// The bundled output is checked in under internal/ui/resources/static so
// a plain go build works without a frontend toolchain. Re-run after
// editing files under internal/ui/resources/src.
//
// Usage:
//
//	go run ./scripts/genassets [-minify]
package main

import (
	"flag"
	"log"
	"path/filepath"

	"github.com/vitrine-labs/vitrine/internal/ui/resources"
)

func main() {
	minify := flag.Bool("minify", false, "minify the bundled output")
	flag.Parse()

	dir, err := resources.Dir()
	if err != nil {
		log.Fatalf("Failed to locate resources package: %v", err)
	}

	srcDir := filepath.Join(dir, "src")
	staticDir := filepath.Join(dir, "static")

	bundle, err := resources.BuildBundle(srcDir, *minify)
	if err != nil {
		log.Fatalf("Build failed: %v", err)
	}

	if err := bundle.WriteStatic(staticDir); err != nil {
		log.Fatalf("Failed to write static assets: %v", err)
	}

	log.Printf("Wrote %s (%d bytes JS, %d bytes CSS)", staticDir, len(bundle.JS), len(bundle.CSS))
}
