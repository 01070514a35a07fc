package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectScenarios(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	nested := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(nested, 0o755))

	for _, name := range []string{
		filepath.Join(dir, "edit.scenario.yaml"),
		filepath.Join(nested, "clear.scenario.yml"),
		filepath.Join(dir, ".inlay.yaml"),
		filepath.Join(dir, "notes.yaml"),
	} {
		require.NoError(t, os.WriteFile(name, nil, 0o600))
	}

	explicit := filepath.Join(dir, "notes.yaml")

	files, err := collectScenarios([]string{dir, explicit})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "edit.scenario.yaml"),
		filepath.Join(nested, "clear.scenario.yml"),
		explicit,
	}, files)

	_, err = collectScenarios([]string{filepath.Join(dir, "missing")})
	require.ErrorIs(t, err, os.ErrNotExist)
}
