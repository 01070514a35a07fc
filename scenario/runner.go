package scenario

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/rlch/inlay"
	"github.com/rlch/inlay/buffer"
	"github.com/rlch/inlay/cache"
	"github.com/rlch/inlay/clock"
	"github.com/rlch/inlay/fetch"
)

// replica is the replica id of every scenario buffer.
const replica clock.ReplicaID = 1

// Runner replays scenarios.
type Runner struct {
	logger   *zap.Logger
	failFast bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger handed to the fetch coordinator.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithFailFast stops a scenario at its first failing step.
func WithFailFast(enabled bool) Option {
	return func(r *Runner) {
		r.failFast = enabled
	}
}

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{logger: zap.NewNop()}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// RunFile loads and replays a scenario file.
func (r *Runner) RunFile(ctx context.Context, path string) (*Report, error) {
	sc, err := Load(path)
	if err != nil {
		return nil, err
	}

	report, err := r.Run(ctx, sc)
	if report != nil {
		report.Path = path
	}

	return report, err
}

// Run replays sc. Step failures are recorded in the report; the returned error is
// reserved for scenarios that cannot be set up or are cancelled.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Report, error) {
	err := sc.Validate()
	if err != nil {
		return nil, err
	}

	session, err := r.open(sc)
	if err != nil {
		return nil, err
	}
	defer session.coordinator.Close()

	report := &Report{Name: sc.Name}

	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result := session.step(ctx, i, step)
		report.Steps = append(report.Steps, result)

		if r.failFast && result.Failed() {
			break
		}
	}

	return report, nil
}

// session is the live state of one replay.
type session struct {
	multi       *buffer.MultiBuffer
	source      *scripted
	coordinator *fetch.Coordinator

	// shown is what a view applying every splice would display.
	shown map[inlay.ID]inlay.Inserted
	// ids maps a label to the id it was last inserted under.
	ids map[string]int
}

func (r *Runner) open(sc *Scenario) (*session, error) {
	multi := buffer.NewMultiBuffer()

	for _, b := range sc.Buffers {
		multi.AddBuffer(buffer.New(b.ID, b.Path, b.Text, replica))
	}

	for _, e := range sc.Excerpts {
		_, err := multi.AddExcerpt(e.Buffer, e.Range)
		if err != nil {
			return nil, &Error{Step: -1, Cause: err}
		}
	}

	settings := inlay.DefaultSettings()
	if sc.Settings != nil {
		settings = *sc.Settings
	}

	source := newScripted()

	return &session{
		multi:  multi,
		source: source,
		coordinator: fetch.New(source, multi,
			fetch.WithLogger(r.logger.Named("fetch")),
			fetch.WithConcurrency(sc.Concurrency),
			fetch.WithSettings(settings),
		),
		shown: make(map[inlay.ID]inlay.Inserted),
		ids:   make(map[string]int),
	}, nil
}

// step runs the actions of step in order: edit, close, settings, clear, fetch.
func (s *session) step(ctx context.Context, index int, step Step) StepResult {
	result := StepResult{Index: index, Name: step.Name}

	if result.Name == "" {
		result.Name = fmt.Sprintf("step %d", index+1)
	}

	s.source.update(step)

	if step.Edit != nil {
		err := s.edit(*step.Edit)
		if err != nil {
			result.Err = err

			return result
		}
	}

	if step.Close != nil {
		s.multi.RemoveBuffer(*step.Close)
	}

	if step.Settings != nil {
		result.Splice.Append(s.coordinator.ApplySettings(*step.Settings))
	}

	if step.Clear {
		result.Splice.Remove = append(result.Splice.Remove, s.coordinator.Clear()...)
	}

	if step.Fetch {
		splice, err := s.coordinator.Fetch(ctx, s.multi.Requests())
		if err != nil {
			result.Err = err

			return result
		}

		result.Splice.Append(splice)
	}

	result.Queries = s.source.takeQueries()
	s.apply(result.Splice)

	env := s.env(result)
	for _, e := range step.expectations {
		result.Checks = append(result.Checks, e.Eval(env))
	}

	return result
}

func (s *session) edit(e Edit) error {
	b, ok := s.multi.Buffer(e.Buffer)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBuffer, e.Buffer)
	}

	_, err := b.Edit(e.Offset, e.Delete, e.Insert)

	return err
}

func (s *session) apply(splice inlay.Splice) {
	for _, id := range splice.Remove {
		delete(s.shown, id)
	}

	for _, ins := range splice.Insert {
		s.shown[ins.ID] = ins
		s.ids[ins.Hint.Label] = int(ins.ID)
	}
}

// resolve maps an anchor to its offset in the current buffer text.
func (s *session) resolve(anchor inlay.Anchor) int {
	b, ok := s.multi.Buffer(anchor.Buffer)
	if !ok {
		return anchor.Offset
	}

	return b.Snapshot().Resolve(anchor)
}

// env builds the expectation environment after a step.
func (s *session) env(result StepResult) Env {
	env := Env{
		Queries: result.Queries,
		Hints:   make(map[string][]string),
		ID:      make(map[string]int, len(s.ids)),
	}

	spliceEnv(&env, result.Splice, s.resolve)

	shown := make([]inlay.Inserted, 0, len(s.shown))
	for _, ins := range s.shown {
		shown = append(shown, ins)
	}

	slices.SortFunc(shown, func(a, b inlay.Inserted) int {
		return a.Anchor.Key().Compare(b.Anchor.Key())
	})

	env.Shown = make([]HintView, 0, len(shown))
	for _, ins := range shown {
		env.Shown = append(env.Shown, viewOf(ins, s.resolve))
	}

	s.coordinator.Inspect(func(c *cache.Cache) {
		env.Cached = c.Len()
		env.Paths = c.Paths()

		for _, k := range c.Visible().Kinds() {
			env.Visible = append(env.Visible, k.String())
		}

		for _, path := range env.Paths {
			labels := []string{}

			for _, excerpt := range c.Excerpts(path) {
				for _, entry := range c.Hints(path, excerpt) {
					labels = append(labels, entry.Value.Hint.Label)
				}
			}

			env.Hints[path] = labels
		}
	})

	maps.Copy(env.ID, s.ids)

	return env
}

// StepResult records what one step did.
type StepResult struct {
	Index   int
	Name    string
	Splice  inlay.Splice
	Queries int
	Checks  []Check
	Err     error
}

// Failed reports whether the step errored or any check failed.
func (r StepResult) Failed() bool {
	if r.Err != nil {
		return true
	}

	return slices.ContainsFunc(r.Checks, Check.Failed)
}

// Report is the outcome of one scenario.
type Report struct {
	Name  string
	Path  string
	Steps []StepResult
}

// Passed reports whether every step passed.
func (r *Report) Passed() bool {
	return !slices.ContainsFunc(r.Steps, StepResult.Failed)
}

// Err summarises the failures of the report, or returns nil.
func (r *Report) Err() error {
	var errs []error

	for _, step := range r.Steps {
		if step.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.Name, step.Err))
		}

		for _, check := range step.Checks {
			switch {
			case check.Err != nil:
				errs = append(errs, fmt.Errorf("%s: %w", step.Name, check.Err))
			case !check.Passed:
				errs = append(errs, fmt.Errorf("%s: %w: %s", step.Name, ErrCheckFailed, check.Expression))
			}
		}
	}

	return errors.Join(errs...)
}
