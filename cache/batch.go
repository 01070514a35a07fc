package cache

import (
	"github.com/rlch/inlay"
	"github.com/rlch/inlay/clock"
	"github.com/rlch/inlay/index"
)

// Batch is a set of fetch results grouped by buffer path.
type Batch map[string]*BufferUpdate

// BufferUpdate carries the fetch results of one buffer.
//
// A nil ExcerptUpdate means the excerpt was skipped as up to date and must be left
// unchanged. A non-nil one with no hints means the excerpt was fetched and is empty.
type BufferUpdate struct {
	Version  clock.Global
	Excerpts map[inlay.ExcerptID]*ExcerptUpdate
}

// ExcerptUpdate holds the freshly fetched hints of one excerpt.
type ExcerptUpdate struct {
	Range inlay.Range
	Hints *index.Ordered[inlay.Hint]
}

// fetched reports whether any excerpt of the update carries fetched results.
func (u *BufferUpdate) fetched() bool {
	for _, e := range u.Excerpts {
		if e != nil {
			return true
		}
	}

	return false
}

// Register records that the buffer at path is still of interest at version, without
// contributing any excerpt results. Registered buffers are not purged by Merge.
func (b Batch) Register(path string, version clock.Global) *BufferUpdate {
	u, ok := b[path]
	if !ok {
		u = &BufferUpdate{
			Version:  version.Clone(),
			Excerpts: make(map[inlay.ExcerptID]*ExcerptUpdate),
		}
		b[path] = u

		return u
	}

	u.Version = u.Version.Join(version)

	return u
}

// Add records the result for one excerpt. A nil update marks the excerpt as skipped;
// it never overrides a fetched result for the same excerpt.
func (b Batch) Add(path string, version clock.Global, excerpt inlay.ExcerptID, update *ExcerptUpdate) {
	u := b.Register(path, version)

	if update == nil {
		if _, ok := u.Excerpts[excerpt]; !ok {
			u.Excerpts[excerpt] = nil
		}

		return
	}

	if update.Hints == nil {
		update.Hints = &index.Ordered[inlay.Hint]{}
	}

	u.Excerpts[excerpt] = update
}
