// Package resources provides static asset handling for the UI server.
package resources

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// StaticDirectoryPath is the path to static assets from the project root.
const StaticDirectoryPath = "internal/ui/resources/static"

// Dir returns the absolute path of this package's directory. The asset
// generation script uses it to locate src/ and static/ regardless of the
// working directory it runs from.
func Dir() (string, error) {
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to get current file path")
	}
	return filepath.Dir(currentFile), nil
}
