package scenario_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rlch/inlay/scenario"
)

func TestTestdata(t *testing.T) {
	t.Parallel()

	files, err := filepath.Glob(filepath.Join("testdata", "*.scenario.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			t.Parallel()

			report, err := scenario.New().RunFile(context.Background(), file)
			require.NoError(t, err)
			require.NoError(t, report.Err())
			require.Equal(t, file, report.Path)
		})
	}
}
