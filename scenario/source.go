package scenario

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/rlch/inlay"
	"github.com/rlch/inlay/fetch"
)

// scripted is a hint source answering from a per-path script.
type scripted struct {
	mu      sync.Mutex
	hints   map[string][]ScriptedHint
	fail    map[string]string
	queries int
}

var _ fetch.Source = (*scripted)(nil)

func newScripted() *scripted {
	return &scripted{
		hints: make(map[string][]ScriptedHint),
		fail:  make(map[string]string),
	}
}

func (s *scripted) update(step Step) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for path, hints := range step.Hints {
		s.hints[path] = slices.Clone(hints)
	}

	for path, msg := range step.Fail {
		if msg == "" {
			delete(s.fail, path)
		} else {
			s.fail[path] = msg
		}
	}
}

// takeQueries returns the number of queries answered since the last call.
func (s *scripted) takeQueries() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.queries
	s.queries = 0

	return n
}

func (s *scripted) Hints(ctx context.Context, snapshot fetch.Snapshot, rng inlay.Range) ([]inlay.RawHint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.queries++

	if msg, ok := s.fail[snapshot.Path()]; ok {
		return nil, errors.New(msg)
	}

	var out []inlay.RawHint

	for _, h := range s.hints[snapshot.Path()] {
		if h.Offset >= rng.Start && h.Offset <= rng.End {
			out = append(out, inlay.RawHint{Offset: h.Offset, Hint: h.Hint})
		}
	}

	return out, nil
}
