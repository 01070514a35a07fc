package buffer

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/rlch/inlay"
	"github.com/rlch/inlay/fetch"
)

// Excerpt is a region of a buffer shown in a multi-buffer.
type Excerpt struct {
	ID     inlay.ExcerptID
	Buffer inlay.BufferID
	Range  inlay.Range
}

// MultiBuffer composes excerpts of several buffers into one view.
// It is safe for concurrent use.
type MultiBuffer struct {
	mu       sync.RWMutex
	buffers  map[inlay.BufferID]*Buffer
	excerpts map[inlay.ExcerptID]Excerpt
	nextID   inlay.ExcerptID
}

var _ fetch.Buffers = (*MultiBuffer)(nil)

// NewMultiBuffer creates an empty multi-buffer.
func NewMultiBuffer() *MultiBuffer {
	return &MultiBuffer{
		buffers:  make(map[inlay.BufferID]*Buffer),
		excerpts: make(map[inlay.ExcerptID]Excerpt),
		nextID:   1,
	}
}

// AddBuffer registers b.
func (m *MultiBuffer) AddBuffer(b *Buffer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.buffers[b.ID()] = b
}

// Buffer returns the buffer with the given id.
func (m *MultiBuffer) Buffer(id inlay.BufferID) (*Buffer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.buffers[id]

	return b, ok
}

// RemoveBuffer drops a buffer and every excerpt of it.
func (m *MultiBuffer) RemoveBuffer(id inlay.BufferID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.buffers, id)

	maps.DeleteFunc(m.excerpts, func(_ inlay.ExcerptID, e Excerpt) bool {
		return e.Buffer == id
	})
}

// AddExcerpt shows rng of buffer id and returns the new excerpt's id.
func (m *MultiBuffer) AddExcerpt(id inlay.BufferID, rng inlay.Range) (inlay.ExcerptID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.buffers[id]; !ok {
		return 0, fmt.Errorf("buffer: unknown buffer %d", id)
	}

	err := rng.Validate()
	if err != nil {
		return 0, err
	}

	excerpt := Excerpt{ID: m.nextID, Buffer: id, Range: rng}
	m.excerpts[excerpt.ID] = excerpt
	m.nextID++

	return excerpt.ID, nil
}

// RemoveExcerpt stops showing an excerpt.
func (m *MultiBuffer) RemoveExcerpt(id inlay.ExcerptID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.excerpts, id)
}

// Excerpts lists the excerpts in id order.
func (m *MultiBuffer) Excerpts() []Excerpt {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := slices.Sorted(maps.Keys(m.excerpts))

	out := make([]Excerpt, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.excerpts[id])
	}

	return out
}

// Snapshot returns the current snapshot of a buffer.
func (m *MultiBuffer) Snapshot(id inlay.BufferID) (fetch.Snapshot, bool) {
	b, ok := m.Buffer(id)
	if !ok {
		return nil, false
	}

	return b.Snapshot(), true
}

// Requests builds one fetch request per excerpt at the current buffer versions. This is
// the complete interest set of the view.
func (m *MultiBuffer) Requests() []fetch.Request {
	excerpts := m.Excerpts()

	requests := make([]fetch.Request, 0, len(excerpts))
	for _, e := range excerpts {
		b, ok := m.Buffer(e.Buffer)
		if !ok {
			continue
		}

		snap := b.Snapshot()
		requests = append(requests, fetch.Request{
			BufferID:      b.ID(),
			BufferPath:    b.Path(),
			BufferVersion: snap.Version(),
			Excerpt:       e.ID,
			Range:         e.Range,
		})
	}

	return requests
}
