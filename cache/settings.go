package cache

import (
	"github.com/rlch/inlay"
)

// ApplySettings switches the visible kind set to the one settings enable and returns
// the view changes. Newly hidden hints are removed and newly visible ones inserted under
// their existing ids and anchors. Cached content is not touched.
func (c *Cache) ApplySettings(settings inlay.Settings) inlay.Splice {
	next := settings.Kinds()
	shown := next.Difference(c.visible)
	hidden := c.visible.Difference(next)
	c.visible = next

	var splice inlay.Splice
	if shown.IsEmpty() && hidden.IsEmpty() {
		return splice
	}

	for _, path := range sortedKeys(c.buffers) {
		store := c.buffers[path]

		for _, excerpt := range sortedKeys(store.Excerpts) {
			for anchor, cached := range store.Excerpts[excerpt].All() {
				switch {
				case hidden.Has(cached.Hint.Kind):
					splice.Remove = append(splice.Remove, cached.ID)
				case shown.Has(cached.Hint.Kind):
					splice.Insert = append(splice.Insert, inlay.Inserted{
						ID:     cached.ID,
						Anchor: anchor,
						Hint:   cached.Hint,
					})
				}
			}
		}
	}

	return splice
}
