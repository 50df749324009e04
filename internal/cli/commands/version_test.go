package commands

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runVersion(t *testing.T, version, commit, date string) string {
	t.Helper()

	cmd := NewVersionCommand(version, commit, date)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)

	require.NoError(t, cmd.Execute())
	return buf.String()
}

func TestVersionCommandOutput(t *testing.T) {
	out := runVersion(t, "1.2.3", "abc1234", "2026-01-02")

	assert.Contains(t, out, "vitrine v1.2.3")
	assert.Contains(t, out, "DuckDB")
	assert.Contains(t, out, "commit abc1234")
	assert.Contains(t, out, "built 2026-01-02")
	assert.Contains(t, out, runtime.Version())
}

func TestVersionCommandUnknownBuildInfo(t *testing.T) {
	out := runVersion(t, "dev", "unknown", "unknown")

	assert.Contains(t, out, "vitrine vdev")
	assert.Contains(t, out, "commit unknown, built unknown")
}

func TestVersionCommandMetadata(t *testing.T) {
	cmd := NewVersionCommand("test", "unknown", "unknown")

	assert.Equal(t, "version", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
}
