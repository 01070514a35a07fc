// Package scenario replays scripted editor sessions against the inlay cache: buffers are
// edited, a scripted hint source answers fetches, settings change, and expressions check
// the resulting splices.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/rlch/inlay"
)

// Sentinel errors for scenario files.
var (
	// ErrDuplicateBuffer is returned when two buffers share an id or path.
	ErrDuplicateBuffer = errors.New("scenario: duplicate buffer")

	// ErrUnknownBuffer is returned when an excerpt or edit names a missing buffer.
	ErrUnknownBuffer = errors.New("scenario: unknown buffer")

	// ErrEmptyStep is returned when a step does nothing.
	ErrEmptyStep = errors.New("scenario: step has no action")

	// ErrCheckFailed is reported for expectations that evaluated to false.
	ErrCheckFailed = errors.New("scenario: check failed")
)

// Scenario is a scripted editor session.
type Scenario struct {
	Name     string          `yaml:"name"`
	Settings *inlay.Settings `yaml:"settings,omitempty"`
	Buffers  []Buffer        `yaml:"buffers"`
	Excerpts []Excerpt       `yaml:"excerpts"`
	Steps    []Step          `yaml:"steps"`

	// Concurrency limits in-flight queries, zero means unlimited.
	Concurrency int `yaml:"concurrency,omitempty"`
}

// Buffer is an open buffer.
type Buffer struct {
	ID   inlay.BufferID `yaml:"id"`
	Path string         `yaml:"path"`
	Text string         `yaml:"text"`
}

// Excerpt shows a range of a buffer.
type Excerpt struct {
	Buffer inlay.BufferID `yaml:"buffer"`
	Range  inlay.Range    `yaml:"range"`
}

// Step is a set of actions followed by checks. Hints and Fail reconfigure the scripted
// source first; the actions then run in the order edit, close, settings, clear, fetch.
type Step struct {
	Name string `yaml:"name"`

	// Source script: replaces the hints served for each listed path.
	Hints map[string][]ScriptedHint `yaml:"hints,omitempty"`
	// Source script: paths whose queries fail with the given message. An empty
	// message clears the failure.
	Fail map[string]string `yaml:"fail,omitempty"`

	Edit     *Edit           `yaml:"edit,omitempty"`
	Close    *inlay.BufferID `yaml:"close,omitempty"`
	Fetch    bool            `yaml:"fetch,omitempty"`
	Settings *inlay.Settings `yaml:"settings,omitempty"`
	Clear    bool            `yaml:"clear,omitempty"`

	// Expressions that must evaluate to true after the step.
	Expect []string `yaml:"expect,omitempty"`

	expectations []*Expectation
}

// ScriptedHint is a hint served by the scripted source.
type ScriptedHint struct {
	Offset     int `yaml:"offset"`
	inlay.Hint `yaml:",inline"`
}

// Edit replaces Delete bytes at Offset with Insert.
type Edit struct {
	Buffer inlay.BufferID `yaml:"buffer"`
	Offset int            `yaml:"offset"`
	Delete int            `yaml:"delete,omitempty"`
	Insert string         `yaml:"insert,omitempty"`
}

// Error locates a problem in a scenario file.
type Error struct {
	// Path is the scenario file, empty for parsed data.
	Path string
	// Step is the zero-based step index, -1 for the preamble.
	Step  int
	Cause error
}

func (e *Error) Error() string {
	loc := e.Path
	if loc == "" {
		loc = "scenario"
	}

	if e.Step >= 0 {
		return fmt.Sprintf("%s: step %d: %v", loc, e.Step+1, e.Cause)
	}

	return fmt.Sprintf("%s: %v", loc, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	sc, err := Parse(data)
	if err != nil {
		var scErr *Error
		if errors.As(err, &scErr) {
			scErr.Path = path
		}

		return nil, err
	}

	if sc.Name == "" {
		sc.Name = filepath.Base(path)
	}

	return sc, nil
}

// Parse decodes and validates scenario YAML.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario

	err := yaml.Unmarshal(data, &sc)
	if err != nil {
		return nil, &Error{Step: -1, Cause: err}
	}

	err = sc.Validate()
	if err != nil {
		return nil, err
	}

	return &sc, nil
}

// Validate checks references between buffers, excerpts and steps, and compiles the
// expectations of every step.
func (sc *Scenario) Validate() error {
	ids := make(map[inlay.BufferID]bool, len(sc.Buffers))
	paths := make(map[string]bool, len(sc.Buffers))

	for _, b := range sc.Buffers {
		if ids[b.ID] || paths[b.Path] {
			return &Error{Step: -1, Cause: fmt.Errorf("%w: %d %s", ErrDuplicateBuffer, b.ID, b.Path)}
		}

		ids[b.ID] = true
		paths[b.Path] = true
	}

	for _, e := range sc.Excerpts {
		if !ids[e.Buffer] {
			return &Error{Step: -1, Cause: fmt.Errorf("%w: excerpt of %d", ErrUnknownBuffer, e.Buffer)}
		}

		err := e.Range.Validate()
		if err != nil {
			return &Error{Step: -1, Cause: err}
		}
	}

	for i := range sc.Steps {
		step := &sc.Steps[i]

		if step.Edit != nil && !ids[step.Edit.Buffer] {
			return &Error{Step: i, Cause: fmt.Errorf("%w: edit of %d", ErrUnknownBuffer, step.Edit.Buffer)}
		}

		if step.Close != nil && !ids[*step.Close] {
			return &Error{Step: i, Cause: fmt.Errorf("%w: close of %d", ErrUnknownBuffer, *step.Close)}
		}

		if step.Edit == nil && step.Close == nil && !step.Fetch && step.Settings == nil && !step.Clear &&
			step.Hints == nil && step.Fail == nil && len(step.Expect) == 0 {
			return &Error{Step: i, Cause: ErrEmptyStep}
		}

		expectations, err := compileAll(step.Expect)
		if err != nil {
			return &Error{Step: i, Cause: err}
		}

		step.expectations = expectations
	}

	return nil
}
