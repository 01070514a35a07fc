package cache

import (
	"github.com/rlch/inlay"
	"github.com/rlch/inlay/index"
)

// Merge reconciles batch into the cache and returns the view changes.
//
// Buffers present in the cache but absent from batch are no longer of interest: their
// hints are removed and their stores dropped. Callers must therefore include every
// buffer they still display, registering skipped or failed buffers with Batch.Register.
//
// Insertions are limited to visible kinds. Removals are not, since a hint shown under
// an earlier filter must always be removable.
func (c *Cache) Merge(batch Batch) inlay.Splice {
	if c.merging {
		panic("cache: concurrent Merge; the cache needs a single writer")
	}

	c.merging = true
	defer func() { c.merging = false }()

	var splice inlay.Splice

	for _, path := range sortedKeys(batch) {
		update := batch[path]

		if _, known := c.buffers[path]; known {
			c.mergeKnown(path, update, &splice)
		} else {
			c.mergeUnknown(path, update, &splice)
		}
	}

	for _, path := range sortedKeys(c.buffers) {
		if _, ok := batch[path]; ok {
			continue
		}

		splice.Remove = append(splice.Remove, c.buffers[path].ids()...)
		delete(c.buffers, path)
	}

	splice.Insert = c.filterVisible(splice.Insert)

	return splice
}

// mergeUnknown creates the store of a buffer on its first successful fetch. A buffer
// that is only registered gets no store yet.
func (c *Cache) mergeUnknown(path string, update *BufferUpdate, splice *inlay.Splice) {
	if !update.fetched() {
		return
	}

	store := newBufferStore(update.Version)

	for _, excerpt := range sortedKeys(update.Excerpts) {
		fetched := update.Excerpts[excerpt]
		if fetched == nil {
			continue
		}

		cached := &index.Ordered[Cached]{}
		for anchor, hint := range fetched.Hints.All() {
			c.insert(cached, anchor, hint, splice)
		}

		store.Excerpts[excerpt] = cached
	}

	c.buffers[path] = store
}

func (c *Cache) mergeKnown(path string, update *BufferUpdate, splice *inlay.Splice) {
	store := c.buffers[path]
	merged := false

	for _, excerpt := range sortedKeys(update.Excerpts) {
		fetched := update.Excerpts[excerpt]
		if fetched == nil {
			continue
		}

		// A slower fetch may arrive after a newer one already advanced the store.
		if c.UpToDate(path, update.Version, excerpt) {
			continue
		}

		store.Excerpts[excerpt] = c.mergeExcerpt(store.Excerpts[excerpt], fetched.Hints, splice)
		merged = true
	}

	if merged {
		store.Version = store.Version.Join(update.Version)
	}
}

// mergeExcerpt joins old and fresh hints in one ascending pass by offset.
// Equal content at an equal offset keeps the old entry and its id; anything else is
// removed or inserted under a new id.
func (c *Cache) mergeExcerpt(
	old *index.Ordered[Cached], fresh *index.Ordered[inlay.Hint], splice *inlay.Splice,
) *index.Ordered[Cached] {
	out := &index.Ordered[Cached]{}
	olds := old.Entries()
	pending := fresh.Entries()
	next := 0

	for i := 0; i < len(olds); {
		offset := olds[i].Anchor.Offset

		for next < len(pending) && pending[next].Anchor.Offset < offset {
			c.insert(out, pending[next].Anchor, pending[next].Value, splice)
			next++
		}

		j := i
		for j < len(olds) && olds[j].Anchor.Offset == offset {
			j++
		}

		end := next
		for end < len(pending) && pending[end].Anchor.Offset == offset {
			end++
		}

		c.mergeOffset(out, olds[i:j], pending[next:end], splice)
		i, next = j, end
	}

	for _, rest := range pending[next:] {
		c.insert(out, rest.Anchor, rest.Value, splice)
	}

	return out
}

// mergeOffset reconciles the old and fresh hints sharing one offset. An old entry
// survives if a fresh hint with equal content can stand for it and no other fresh hint
// needs its key; a fresh hint at exactly the old key is preferred.
func (c *Cache) mergeOffset(
	out *index.Ordered[Cached], olds []index.Entry[Cached], fresh []index.Entry[inlay.Hint], splice *inlay.Splice,
) {
	used := make([]bool, len(fresh))
	keep := make([]bool, len(olds))
	blocked := make([]bool, len(olds))

	for i, o := range olds {
		for k, f := range fresh {
			if f.Anchor.Key() != o.Anchor.Key() {
				continue
			}

			if f.Value == o.Value.Hint {
				keep[i], used[k] = true, true
			} else {
				blocked[i] = true
			}
		}
	}

	for i, o := range olds {
		if keep[i] || blocked[i] {
			continue
		}

		for k, f := range fresh {
			if !used[k] && f.Value == o.Value.Hint {
				keep[i], used[k] = true, true

				break
			}
		}
	}

	for k, f := range fresh {
		if !used[k] {
			c.insert(out, f.Anchor, f.Value, splice)
		}
	}

	for i, o := range olds {
		if keep[i] {
			out.Add(o.Anchor, o.Value)
		} else {
			splice.Remove = append(splice.Remove, o.Value.ID)
		}
	}
}

func (c *Cache) insert(into *index.Ordered[Cached], anchor inlay.Anchor, hint inlay.Hint, splice *inlay.Splice) {
	id := c.allocID()

	if into.Add(anchor, Cached{ID: id, Hint: hint}) {
		panic("cache: fresh hints collide at one position key")
	}

	splice.Insert = append(splice.Insert, inlay.Inserted{ID: id, Anchor: anchor, Hint: hint})
}

func (c *Cache) filterVisible(inserted []inlay.Inserted) []inlay.Inserted {
	out := inserted[:0]

	for _, ins := range inserted {
		if c.visible.Has(ins.Hint.Kind) {
			out = append(out, ins)
		}
	}

	if len(out) == 0 {
		return nil
	}

	return out
}
