package resources

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Bundle contains the compiled JS and CSS for the dashboard.
type Bundle struct {
	JS  string
	CSS string
}

// BuildBundle compiles src/app.js, and the CSS it imports, into a single
// JS and CSS pair. The result is what gets checked in under static/ so
// the binary builds without a Node toolchain.
func BuildBundle(srcDir string, minify bool) (*Bundle, error) {
	entryPoint := filepath.Join(srcDir, "app.js")

	buildOpts := api.BuildOptions{
		EntryPoints: []string{entryPoint},
		Bundle:      true,
		Write:       false, // Keep in memory

		// Virtual output directory (required for CSS bundling even with Write: false)
		Outdir: "out",

		Loader: map[string]api.Loader{
			".js":  api.LoaderJS,
			".css": api.LoaderCSS,
		},

		Platform: api.PlatformBrowser,
		Format:   api.FormatIIFE, // Single file, no imports
		Target:   api.ES2020,

		TreeShaking: api.TreeShakingTrue,
		Sourcemap:   api.SourceMapNone,
		LogLevel:    api.LogLevelWarning,
	}

	if minify {
		buildOpts.MinifyWhitespace = true
		buildOpts.MinifyIdentifiers = true
		buildOpts.MinifySyntax = true
	}

	result := api.Build(buildOpts)

	if len(result.Errors) > 0 {
		var msg strings.Builder
		for _, e := range result.Errors {
			if e.Location != nil {
				fmt.Fprintf(&msg, "%s:%d:%d: %s\n", e.Location.File, e.Location.Line, e.Location.Column, e.Text)
			} else {
				fmt.Fprintf(&msg, "%s\n", e.Text)
			}
		}
		return nil, fmt.Errorf("esbuild errors:\n%s", msg.String())
	}

	bundle := &Bundle{}
	for _, file := range result.OutputFiles {
		switch filepath.Ext(file.Path) {
		case ".js":
			bundle.JS = string(file.Contents)
		case ".css":
			bundle.CSS = string(file.Contents)
		}
	}

	if bundle.JS == "" {
		return nil, fmt.Errorf("no JavaScript output generated")
	}
	return bundle, nil
}

// WriteStatic writes the bundle into the layout Handler serves from:
// js/app.js and css/app.css under staticDir.
func (b *Bundle) WriteStatic(staticDir string) error {
	jsPath := filepath.Join(staticDir, "js", "app.js")
	cssPath := filepath.Join(staticDir, "css", "app.css")

	for _, p := range []string{jsPath, cssPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			return err
		}
	}

	if err := os.WriteFile(jsPath, []byte(b.JS), 0o644); err != nil { //nolint:gosec // checked-in asset
		return err
	}
	return os.WriteFile(cssPath, []byte(b.CSS), 0o644) //nolint:gosec // checked-in asset
}
