// Package index provides an ordered position index: a container keyed by anchor
// position that iterates in ascending position order.
package index

import (
	"iter"
	"slices"

	"github.com/rlch/inlay"
)

// Entry is one element of an index.
type Entry[T any] struct {
	Anchor inlay.Anchor
	Value  T
}

// Ordered maps anchor positions to values, sorted ascending by inlay.Key.
// Keys are unique: adding at an existing key replaces the entry.
// The zero value is an empty index ready for use.
type Ordered[T any] struct {
	entries []Entry[T]
}

// New builds an index from entries in any order.
func New[T any](entries ...Entry[T]) *Ordered[T] {
	o := &Ordered[T]{}
	for _, e := range entries {
		o.Add(e.Anchor, e.Value)
	}

	return o
}

func (o *Ordered[T]) search(key inlay.Key) (int, bool) {
	return slices.BinarySearchFunc(o.entries, key, func(e Entry[T], k inlay.Key) int {
		return e.Anchor.Key().Compare(k)
	})
}

// Add inserts v at anchor's position, replacing any entry with the same key.
// It reports whether an existing entry was replaced.
func (o *Ordered[T]) Add(anchor inlay.Anchor, v T) bool {
	i, found := o.search(anchor.Key())
	if found {
		o.entries[i] = Entry[T]{Anchor: anchor, Value: v}

		return true
	}

	o.entries = slices.Insert(o.entries, i, Entry[T]{Anchor: anchor, Value: v})

	return false
}

// Get returns the entry stored at key.
func (o *Ordered[T]) Get(key inlay.Key) (Entry[T], bool) {
	i, found := o.search(key)
	if !found {
		return Entry[T]{}, false
	}

	return o.entries[i], true
}

// Len returns the number of entries.
func (o *Ordered[T]) Len() int {
	if o == nil {
		return 0
	}

	return len(o.entries)
}

// All iterates entries in ascending position order.
func (o *Ordered[T]) All() iter.Seq2[inlay.Anchor, T] {
	return func(yield func(inlay.Anchor, T) bool) {
		if o == nil {
			return
		}

		for _, e := range o.entries {
			if !yield(e.Anchor, e.Value) {
				return
			}
		}
	}
}

// Entries returns a copy of the entries in ascending position order.
func (o *Ordered[T]) Entries() []Entry[T] {
	if o == nil {
		return nil
	}

	return slices.Clone(o.entries)
}
