package index_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/inlay"
	"github.com/rlch/inlay/clock"
	"github.com/rlch/inlay/index"
)

func anchorAt(offset int, created uint32) inlay.Anchor {
	return inlay.Anchor{Offset: offset, Created: clock.Local{Value: created}}
}

func offsets[T any](o *index.Ordered[T]) []int {
	var out []int
	for a := range o.All() {
		out = append(out, a.Offset)
	}

	return out
}

func TestOrdered_AddKeepsOrder(t *testing.T) {
	t.Parallel()

	o := &index.Ordered[string]{}
	o.Add(anchorAt(10, 1), "c")
	o.Add(anchorAt(5, 1), "a")
	o.Add(anchorAt(7, 1), "b")
	o.Add(anchorAt(5, 0), "first")

	if diff := cmp.Diff([]int{5, 5, 7, 10}, offsets(o)); diff != "" {
		t.Errorf("offsets mismatch (-want +got):\n%s", diff)
	}

	var values []string
	for _, v := range o.All() {
		values = append(values, v)
	}

	assert.Equal(t, []string{"first", "a", "b", "c"}, values)
}

func TestOrdered_AddReplacesSameKey(t *testing.T) {
	t.Parallel()

	o := index.New(index.Entry[string]{Anchor: anchorAt(3, 2), Value: "old"})

	assert.True(t, o.Add(anchorAt(3, 2), "new"))
	assert.Equal(t, 1, o.Len())

	e, ok := o.Get(inlay.Key{Offset: 3, Created: clock.Local{Value: 2}})
	assert.True(t, ok)
	assert.Equal(t, "new", e.Value)

	_, ok = o.Get(inlay.Key{Offset: 3})
	assert.False(t, ok)
}

func TestOrdered_NilAndBreak(t *testing.T) {
	t.Parallel()

	var nilIndex *index.Ordered[int]
	assert.Zero(t, nilIndex.Len())
	assert.Empty(t, nilIndex.Entries())

	for range nilIndex.All() {
		t.Fatal("nil index yielded")
	}

	o := index.New(
		index.Entry[int]{Anchor: anchorAt(1, 0), Value: 1},
		index.Entry[int]{Anchor: anchorAt(2, 0), Value: 2},
	)

	count := 0
	for range o.All() {
		count++

		break
	}

	assert.Equal(t, 1, count)

	entries := o.Entries()
	entries[0].Value = 9

	first, ok := o.Get(anchorAt(1, 0).Key())
	require.True(t, ok)
	assert.Equal(t, 1, first.Value, "Entries must return a copy")
}
