package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/releasewatch/internal/buildinfo"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := RootCommand(buildinfo.NewContext("1.4.2", "2026-05-01"))
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "releasewatch 1.4.2 (built 2026-05-01)\n", out)
}

func TestTargetsImportAndList(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	catalogPath := filepath.Join(dir, "targets.yaml")

	require.NoError(t, os.WriteFile(configPath, []byte(
		"database:\n  sqlite:\n    path: "+filepath.Join(dir, "releasewatch.db")+"\n"), 0o600))
	require.NoError(t, os.WriteFile(catalogPath, []byte(`
targets:
  - id: blender
    name: Blender
    version_check_url: https://www.blender.org/download/releases/
  - id: inkscape
    name: Inkscape
    version_check_url: https://inkscape.org/release/
`), 0o600))

	out, err := execute(t, "--config", configPath, "targets", "import", catalogPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 targets")

	out, err = execute(t, "--config", configPath, "targets", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "blender")
	assert.Contains(t, out, "Inkscape")
	assert.Contains(t, out, "https://inkscape.org/release/")
}

func TestReviewRejectsInvalidID(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(
		"database:\n  sqlite:\n    path: "+filepath.Join(dir, "releasewatch.db")+"\n"), 0o600))

	_, err := execute(t, "--config", configPath, "review", "approve", "zero")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid record id "zero"`)
}

func TestLoadFailureIsReported(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "targets", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error loading configuration")
}
