package resources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestBuildBundle(t *testing.T) {
	srcDir := t.TempDir()
	writeSource(t, srcDir, "app.js", "import \"./app.css\";\nconsole.log(\"vitrine ready\");\n")
	writeSource(t, srcDir, "app.css", "body { margin: 0; }\n")

	bundle, err := BuildBundle(srcDir, false)
	require.NoError(t, err)

	assert.Contains(t, bundle.JS, "vitrine ready")
	assert.Contains(t, bundle.CSS, "margin: 0")
}

func TestBuildBundle_Minify(t *testing.T) {
	srcDir := t.TempDir()
	writeSource(t, srcDir, "app.js", "import \"./app.css\";\nconst answer = 40 + 2;\nconsole.log(answer);\n")
	writeSource(t, srcDir, "app.css", "body {\n  margin: 0;\n  padding: 0;\n}\n")

	full, err := BuildBundle(srcDir, false)
	require.NoError(t, err)
	minified, err := BuildBundle(srcDir, true)
	require.NoError(t, err)

	assert.NotEmpty(t, minified.JS)
	assert.Less(t, len(minified.JS), len(full.JS))
	assert.Less(t, len(minified.CSS), len(full.CSS))
}

func TestBuildBundle_MissingEntry(t *testing.T) {
	_, err := BuildBundle(t.TempDir(), false)
	assert.Error(t, err)
}

func TestBundle_WriteStatic(t *testing.T) {
	bundle := &Bundle{JS: "console.log(1);\n", CSS: "body{margin:0}\n"}
	staticDir := t.TempDir()

	require.NoError(t, bundle.WriteStatic(staticDir))

	js, err := os.ReadFile(filepath.Join(staticDir, "js", "app.js"))
	require.NoError(t, err)
	assert.Equal(t, bundle.JS, string(js))

	css, err := os.ReadFile(filepath.Join(staticDir, "css", "app.css"))
	require.NoError(t, err)
	assert.Equal(t, bundle.CSS, string(css))
}
