package scenario_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/inlay/scenario"
)

func TestExpectation_Eval(t *testing.T) {
	t.Parallel()

	env := scenario.Env{
		Insert: []scenario.HintView{
			{ID: 3, Offset: 15, Kind: "type", Label: ": int"},
		},
		Remove:  []int{1, 2},
		Visible: []string{"other", "type"},
		Cached:  4,
		Hints:   map[string][]string{"a.go": {": int", "x:"}},
		ID:      map[string]int{": int": 3},
	}

	tests := []struct {
		name   string
		expr   string
		passed bool
	}{
		{"length", "len(insert) == 1", true},
		{"member", `insert[0].label == ": int"`, true},
		{"membership", "2 in remove", true},
		{"not in", `"parameter" not in visible`, true},
		{"label lookup", `insert[0].id == id[": int"]`, true},
		{"per buffer", `hints["a.go"][1] == "x:"`, true},
		{"false", "cached == 0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e, err := scenario.Compile(tt.expr)
			require.NoError(t, err)

			check := e.Eval(env)
			require.NoError(t, check.Err)
			assert.Equal(t, tt.expr, check.Expression)
			assert.Equal(t, tt.passed, check.Passed)
			assert.Equal(t, !tt.passed, check.Failed())
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		expr string
	}{
		{"syntax", "cached =="},
		{"unknown field", "missing > 0"},
		{"unknown hint field", "insert[0].line == 1"},
		{"not bool", "cached + 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := scenario.Compile(tt.expr)
			require.ErrorIs(t, err, scenario.ErrBadExpectation)
		})
	}
}

func TestExpectation_RuntimeErrorFailsCheck(t *testing.T) {
	t.Parallel()

	e, err := scenario.Compile("insert[3].id == 0")
	require.NoError(t, err)

	check := e.Eval(scenario.Env{})
	require.Error(t, check.Err)
	assert.False(t, check.Passed)
	assert.True(t, check.Failed())
}
