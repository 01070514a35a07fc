package scenario_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/inlay"
	"github.com/rlch/inlay/scenario"
)

func TestParse(t *testing.T) {
	t.Parallel()

	sc, err := scenario.Parse([]byte(`
name: parse
settings:
  show_parameter_hints: false
buffers:
  - {id: 1, path: a.go, text: "x := 1"}
excerpts:
  - {buffer: 1, range: {start: 0, end: 6}}
steps:
  - hints:
      a.go:
        - {offset: 1, kind: type, label: ": int", padding_left: true}
    fetch: true
    expect: ["len(insert) == 1"]
`))
	require.NoError(t, err)

	assert.Equal(t, "parse", sc.Name)
	require.NotNil(t, sc.Settings)
	assert.True(t, sc.Settings.Enabled)
	assert.False(t, sc.Settings.ShowParameterHints)
	assert.True(t, sc.Settings.ShowTypeHints)

	require.Len(t, sc.Steps, 1)
	hints := sc.Steps[0].Hints["a.go"]
	require.Len(t, hints, 1)
	assert.Equal(t, 1, hints[0].Offset)
	assert.Equal(t, inlay.Hint{Kind: inlay.KindType, Label: ": int", PaddingLeft: true}, hints[0].Hint)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
		want error
		step int
	}{
		{
			name: "duplicate buffer id",
			yaml: `
buffers:
  - {id: 1, path: a.go}
  - {id: 1, path: b.go}
`,
			want: scenario.ErrDuplicateBuffer,
			step: -1,
		},
		{
			name: "duplicate buffer path",
			yaml: `
buffers:
  - {id: 1, path: a.go}
  - {id: 2, path: a.go}
`,
			want: scenario.ErrDuplicateBuffer,
			step: -1,
		},
		{
			name: "excerpt of unknown buffer",
			yaml: `
excerpts:
  - {buffer: 3, range: {start: 0, end: 1}}
`,
			want: scenario.ErrUnknownBuffer,
			step: -1,
		},
		{
			name: "inverted range",
			yaml: `
buffers:
  - {id: 1, path: a.go, text: abc}
excerpts:
  - {buffer: 1, range: {start: 2, end: 1}}
`,
			want: inlay.ErrInvertedRange,
			step: -1,
		},
		{
			name: "edit of unknown buffer",
			yaml: `
buffers:
  - {id: 1, path: a.go}
steps:
  - fetch: true
  - edit: {buffer: 2, offset: 0, insert: x}
`,
			want: scenario.ErrUnknownBuffer,
			step: 1,
		},
		{
			name: "empty step",
			yaml: `
steps:
  - name: nothing
`,
			want: scenario.ErrEmptyStep,
			step: 0,
		},
		{
			name: "unknown kind",
			yaml: `
steps:
  - hints:
      a.go: [{offset: 0, kind: lifetime, label: "'a"}]
`,
			want: inlay.ErrUnknownKind,
			step: -1,
		},
		{
			name: "expectation that does not compile",
			yaml: `
steps:
  - fetch: true
  - fetch: true
    expect: ["cached =="]
`,
			want: scenario.ErrBadExpectation,
			step: 1,
		},
		{
			name: "expectation over an unknown field",
			yaml: `
steps:
  - fetch: true
    expect: [missing > 0]
`,
			want: scenario.ErrBadExpectation,
			step: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := scenario.Parse([]byte(tt.yaml))
			require.ErrorIs(t, err, tt.want)

			var scErr *scenario.Error
			require.ErrorAs(t, err, &scErr)
			assert.Equal(t, tt.step, scErr.Step)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	good := filepath.Join(dir, "edit.yaml")
	require.NoError(t, os.WriteFile(good, []byte("steps:\n  - fetch: true\n"), 0o600))

	sc, err := scenario.Load(good)
	require.NoError(t, err)
	assert.Equal(t, "edit.yaml", sc.Name)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("steps:\n  - {}\n"), 0o600))

	_, err = scenario.Load(bad)
	require.ErrorIs(t, err, scenario.ErrEmptyStep)
	assert.Contains(t, err.Error(), bad+": step 1:")

	_, err = scenario.Load(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
