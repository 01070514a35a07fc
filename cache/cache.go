// Package cache holds the inlay hint cache: per-buffer stores of anchored hints, the
// visible kind set, and the id allocator. It reconciles fetched hints against cached
// ones and reports the differences as splices.
//
// A Cache is not safe for concurrent use. It expects a single writer; package fetch
// provides one.
package cache

import (
	"cmp"
	"maps"
	"slices"

	"github.com/rlch/inlay"
	"github.com/rlch/inlay/clock"
	"github.com/rlch/inlay/index"
)

// Cached is a hint stored in the cache under the id the view knows it by.
type Cached struct {
	ID   inlay.ID
	Hint inlay.Hint
}

// BufferStore holds the hints of one buffer.
//
// Version is an upper bound: an excerpt's hints are fresh for a requested version only
// if Version has observed it.
type BufferStore struct {
	Version  clock.Global
	Excerpts map[inlay.ExcerptID]*index.Ordered[Cached]
}

func newBufferStore(version clock.Global) *BufferStore {
	return &BufferStore{
		Version:  version.Clone(),
		Excerpts: make(map[inlay.ExcerptID]*index.Ordered[Cached]),
	}
}

func (s *BufferStore) ids() []inlay.ID {
	var ids []inlay.ID

	for _, excerpt := range sortedKeys(s.Excerpts) {
		for _, c := range s.Excerpts[excerpt].All() {
			ids = append(ids, c.ID)
		}
	}

	return ids
}

// Cache is the inlay hint cache of one editor view.
type Cache struct {
	buffers map[string]*BufferStore
	visible inlay.KindSet
	nextID  inlay.ID
	merging bool
}

// New creates an empty cache showing the kinds enabled by settings.
func New(settings inlay.Settings) *Cache {
	return &Cache{
		buffers: make(map[string]*BufferStore),
		visible: settings.Kinds(),
	}
}

func (c *Cache) allocID() inlay.ID {
	id := c.nextID
	c.nextID++

	return id
}

// UpToDate reports whether hints for excerpt of the buffer at path are already cached
// at a version that has observed version.
func (c *Cache) UpToDate(path string, version clock.Global, excerpt inlay.ExcerptID) bool {
	store, ok := c.buffers[path]
	if !ok {
		return false
	}

	if !store.Version.Observed(version) {
		return false
	}

	_, ok = store.Excerpts[excerpt]

	return ok
}

// Visible returns the kinds currently exposed to the view.
func (c *Cache) Visible() inlay.KindSet {
	return c.visible
}

// Len returns the number of cached hints, visible or not.
func (c *Cache) Len() int {
	n := 0
	for _, store := range c.buffers {
		for _, excerpt := range store.Excerpts {
			n += excerpt.Len()
		}
	}

	return n
}

// Paths lists the cached buffers in sorted order.
func (c *Cache) Paths() []string {
	return sortedKeys(c.buffers)
}

// Version returns the recorded version of the buffer at path.
func (c *Cache) Version(path string) (clock.Global, bool) {
	store, ok := c.buffers[path]
	if !ok {
		return clock.Global{}, false
	}

	return store.Version.Clone(), true
}

// Excerpts lists the excerpts cached for the buffer at path in ascending order.
func (c *Cache) Excerpts(path string) []inlay.ExcerptID {
	store, ok := c.buffers[path]
	if !ok {
		return nil
	}

	return sortedKeys(store.Excerpts)
}

// Hints returns the cached hints of one excerpt in position order, hidden kinds included.
func (c *Cache) Hints(path string, excerpt inlay.ExcerptID) []index.Entry[Cached] {
	store, ok := c.buffers[path]
	if !ok {
		return nil
	}

	return store.Excerpts[excerpt].Entries()
}

// Clear drops every buffer store and returns the ids the view must remove.
// The id allocator keeps counting, so cleared ids are never issued again.
func (c *Cache) Clear() []inlay.ID {
	var ids []inlay.ID
	for _, path := range sortedKeys(c.buffers) {
		ids = append(ids, c.buffers[path].ids()...)
	}

	clear(c.buffers)

	return ids
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	return slices.Sorted(maps.Keys(m))
}
