// Package buffer is an in-memory text buffer with an edit log. It provides the anchors
// and version stamps the inlay cache relies on, and a multi-buffer of excerpts that
// serves snapshots to the fetch coordinator.
package buffer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rlch/inlay"
	"github.com/rlch/inlay/clock"
	"github.com/rlch/inlay/fetch"
)

// ErrOutOfRange is returned when an edit falls outside the buffer.
var ErrOutOfRange = errors.New("buffer: edit out of range")

// edit records one mutation: deleted bytes at offset replaced by inserted bytes.
type edit struct {
	at       clock.Local
	offset   int
	deleted  int
	inserted int
}

// Buffer is a mutable text buffer. It is safe for concurrent use.
type Buffer struct {
	id   inlay.BufferID
	path string

	mu      sync.RWMutex
	text    string
	lamport clock.Local
	version clock.Global
	edits   []edit
}

// New creates a buffer holding text. The initial content counts as the first edit of
// replica.
func New(id inlay.BufferID, path, text string, replica clock.ReplicaID) *Buffer {
	b := &Buffer{
		id:      id,
		path:    path,
		text:    text,
		lamport: clock.Local{Replica: replica},
	}

	b.lamport = b.lamport.Tick()
	b.version.Observe(b.lamport)
	b.edits = append(b.edits, edit{at: b.lamport, inserted: len(text)})

	return b
}

// ID returns the buffer id.
func (b *Buffer) ID() inlay.BufferID {
	return b.id
}

// Path returns the file path of the buffer.
func (b *Buffer) Path() string {
	return b.path
}

// Edit replaces deleteLen bytes at offset with insert and returns the edit's timestamp.
func (b *Buffer) Edit(offset, deleteLen int, insert string) (clock.Local, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if offset < 0 || deleteLen < 0 || offset+deleteLen > len(b.text) {
		return clock.Local{}, fmt.Errorf("%w: %d+%d in %d bytes", ErrOutOfRange, offset, deleteLen, len(b.text))
	}

	b.text = b.text[:offset] + insert + b.text[offset+deleteLen:]
	b.lamport = b.lamport.Tick()
	b.version.Observe(b.lamport)
	b.edits = append(b.edits, edit{at: b.lamport, offset: offset, deleted: deleteLen, inserted: len(insert)})

	return b.lamport, nil
}

// Snapshot captures the current state.
func (b *Buffer) Snapshot() *Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return &Snapshot{
		id:      b.id,
		path:    b.path,
		text:    b.text,
		lamport: b.lamport,
		version: b.version.Clone(),
		edits:   b.edits[:len(b.edits):len(b.edits)],
	}
}

// Snapshot is an immutable view of a buffer.
type Snapshot struct {
	id      inlay.BufferID
	path    string
	text    string
	lamport clock.Local
	version clock.Global
	edits   []edit
}

var _ fetch.Snapshot = (*Snapshot)(nil)

func (s *Snapshot) ID() inlay.BufferID     { return s.id }
func (s *Snapshot) Path() string           { return s.path }
func (s *Snapshot) Text() string           { return s.text }
func (s *Snapshot) Len() int               { return len(s.text) }
func (s *Snapshot) Version() clock.Global  { return s.version.Clone() }
func (s *Snapshot) Timestamp() clock.Local { return s.lamport }

// Anchor creates an anchor at offset, clamped to the buffer. Anchors created from the
// same snapshot at the same offset are equal.
func (s *Snapshot) Anchor(excerpt inlay.ExcerptID, offset int) inlay.Anchor {
	return inlay.Anchor{
		Buffer:  s.id,
		Excerpt: excerpt,
		Offset:  min(max(offset, 0), len(s.text)),
		Created: s.lamport,
	}
}

// Resolve maps anchor to its offset in this snapshot by replaying the edits made after
// the anchor was created. Text inserted at the anchor lands after it; an anchor inside
// deleted text moves to the start of the deletion.
func (s *Snapshot) Resolve(anchor inlay.Anchor) int {
	pos := anchor.Offset

	for _, e := range s.edits {
		if e.at.Compare(anchor.Created) <= 0 {
			continue
		}

		switch {
		case pos <= e.offset:
			// unaffected
		case pos < e.offset+e.deleted:
			pos = e.offset
		default:
			pos += e.inserted - e.deleted
		}
	}

	return min(max(pos, 0), len(s.text))
}
