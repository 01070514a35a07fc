package scenario

import (
	"errors"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/rlch/inlay"
)

var (
	// ErrBadExpectation is returned for expectations that do not compile.
	ErrBadExpectation = errors.New("scenario: bad expectation")

	// ErrExprNotBool is returned when an expectation does not evaluate to a boolean.
	ErrExprNotBool = errors.New("scenario: expression did not return bool")
)

// HintView is a hint as expectations see it. Offset is resolved against the buffer's
// current text.
type HintView struct {
	ID     int    `expr:"id"`
	Offset int    `expr:"offset"`
	Kind   string `expr:"kind"`
	Label  string `expr:"label"`
}

// Env is the state an expectation is evaluated against after a step.
type Env struct {
	// Hints inserted by the step.
	Insert []HintView `expr:"insert"`
	// Ids removed by the step.
	Remove []int `expr:"remove"`
	// Hints a view applying every splice would display, in position order.
	Shown []HintView `expr:"shown"`
	// Number of cached hints, visible or not.
	Cached int `expr:"cached"`
	// Cached labels per buffer path in position order.
	Hints map[string][]string `expr:"hints"`
	// Cached buffer paths.
	Paths []string `expr:"paths"`
	// Visible kind names.
	Visible []string `expr:"visible"`
	// Hint queries made by the step.
	Queries int `expr:"queries"`
	// The id each label was last inserted under.
	ID map[string]int `expr:"id"`
}

// Expectation is a compiled boolean expression over Env.
type Expectation struct {
	Source  string
	program *vm.Program
}

// Compile type-checks src against Env.
func Compile(src string) (*Expectation, error) {
	program, err := expr.Compile(src, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrBadExpectation, src, err)
	}

	return &Expectation{Source: src, program: program}, nil
}

// Check is the outcome of one expectation.
type Check struct {
	Expression string
	Passed     bool
	Err        error
}

// Failed reports whether the check did not pass.
func (c Check) Failed() bool {
	return c.Err != nil || !c.Passed
}

// Eval runs the expectation. Runtime errors such as an index out of range fail the
// check rather than the step.
func (e *Expectation) Eval(env Env) Check {
	check := Check{Expression: e.Source}

	output, err := expr.Run(e.program, env)
	if err != nil {
		check.Err = fmt.Errorf("evaluate %q: %w", e.Source, err)

		return check
	}

	passed, ok := output.(bool)
	if !ok {
		check.Err = fmt.Errorf("%w: %q returned %T", ErrExprNotBool, e.Source, output)

		return check
	}

	check.Passed = passed

	return check
}

// compileAll compiles the expectations of a step, skipping blank ones.
func compileAll(srcs []string) ([]*Expectation, error) {
	out := make([]*Expectation, 0, len(srcs))

	for _, src := range srcs {
		if strings.TrimSpace(src) == "" {
			continue
		}

		e, err := Compile(src)
		if err != nil {
			return nil, err
		}

		out = append(out, e)
	}

	return out, nil
}

// viewOf describes an inserted hint, resolving its anchor with resolve.
func viewOf(ins inlay.Inserted, resolve func(inlay.Anchor) int) HintView {
	return HintView{
		ID:     int(ins.ID),
		Offset: resolve(ins.Anchor),
		Kind:   ins.Hint.Kind.String(),
		Label:  ins.Hint.Label,
	}
}

// spliceEnv fills the step-local part of env from splice.
func spliceEnv(env *Env, splice inlay.Splice, resolve func(inlay.Anchor) int) {
	env.Insert = make([]HintView, 0, len(splice.Insert))
	for _, ins := range splice.Insert {
		env.Insert = append(env.Insert, viewOf(ins, resolve))
	}

	env.Remove = make([]int, 0, len(splice.Remove))
	for _, id := range splice.Remove {
		env.Remove = append(env.Remove, int(id))
	}
}
