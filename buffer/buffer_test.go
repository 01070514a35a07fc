package buffer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/inlay"
	"github.com/rlch/inlay/buffer"
)

func TestBuffer_EditAdvancesVersion(t *testing.T) {
	t.Parallel()

	b := buffer.New(1, "/a.go", "hello world", 0)
	before := b.Snapshot()

	ts, err := b.Edit(5, 0, ",")
	require.NoError(t, err)

	after := b.Snapshot()
	assert.Equal(t, "hello, world", after.Text())
	assert.Equal(t, "hello world", before.Text())
	assert.Equal(t, ts, after.Timestamp())
	assert.True(t, after.Version().Observed(before.Version()))
	assert.True(t, after.Version().ChangedSince(before.Version()))
	assert.False(t, before.Version().Observed(after.Version()))
}

func TestBuffer_EditOutOfRange(t *testing.T) {
	t.Parallel()

	b := buffer.New(1, "/a.go", "abc", 0)

	_, err := b.Edit(2, 5, "")
	require.ErrorIs(t, err, buffer.ErrOutOfRange)

	_, err = b.Edit(-1, 0, "x")
	require.ErrorIs(t, err, buffer.ErrOutOfRange)
}

func TestSnapshot_Anchor(t *testing.T) {
	t.Parallel()

	snap := buffer.New(3, "/a.go", "abc", 0).Snapshot()

	a := snap.Anchor(7, 2)
	assert.Equal(t, inlay.BufferID(3), a.Buffer)
	assert.Equal(t, inlay.ExcerptID(7), a.Excerpt)
	assert.Equal(t, 2, a.Offset)
	assert.Equal(t, snap.Timestamp(), a.Created)
	assert.Equal(t, a, snap.Anchor(7, 2))

	assert.Equal(t, 3, snap.Anchor(7, 99).Offset)
	assert.Equal(t, 0, snap.Anchor(7, -4).Offset)
}

func TestSnapshot_Resolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		anchor int
		offset int
		delete int
		insert string
		want   int
	}{
		{name: "insert before", anchor: 5, offset: 0, insert: "xx", want: 7},
		{name: "insert at anchor stays left", anchor: 5, offset: 5, insert: "xx", want: 5},
		{name: "insert after", anchor: 5, offset: 8, insert: "xx", want: 5},
		{name: "delete before", anchor: 5, offset: 1, delete: 2, want: 3},
		{name: "delete around", anchor: 5, offset: 3, delete: 4, want: 3},
		{name: "replace before", anchor: 9, offset: 0, delete: 3, insert: "z", want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := buffer.New(1, "/a.go", "0123456789", 0)
			anchor := b.Snapshot().Anchor(1, tt.anchor)

			_, err := b.Edit(tt.offset, tt.delete, tt.insert)
			require.NoError(t, err)

			assert.Equal(t, tt.want, b.Snapshot().Resolve(anchor))
		})
	}
}

func TestSnapshot_ResolveIgnoresOlderEdits(t *testing.T) {
	t.Parallel()

	b := buffer.New(1, "/a.go", "0123456789", 0)
	_, err := b.Edit(0, 0, "ab")
	require.NoError(t, err)

	anchor := b.Snapshot().Anchor(1, 4)
	assert.Equal(t, 4, b.Snapshot().Resolve(anchor))
}

func TestMultiBuffer_Requests(t *testing.T) {
	t.Parallel()

	mb := buffer.NewMultiBuffer()
	a := buffer.New(1, "/a.go", "package a", 0)
	b := buffer.New(2, "/b.go", "package b", 0)
	mb.AddBuffer(a)
	mb.AddBuffer(b)

	e1, err := mb.AddExcerpt(1, inlay.Range{Start: 0, End: 4})
	require.NoError(t, err)
	e2, err := mb.AddExcerpt(2, inlay.Range{Start: 2, End: 9})
	require.NoError(t, err)

	_, err = mb.AddExcerpt(9, inlay.Range{})
	require.Error(t, err)

	_, err = mb.AddExcerpt(1, inlay.Range{Start: 4, End: 1})
	require.ErrorIs(t, err, inlay.ErrInvertedRange)

	reqs := mb.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, e1, reqs[0].Excerpt)
	assert.Equal(t, "/a.go", reqs[0].BufferPath)
	assert.Equal(t, e2, reqs[1].Excerpt)
	assert.Equal(t, inlay.Range{Start: 2, End: 9}, reqs[1].Range)
	assert.True(t, reqs[1].BufferVersion.Equal(b.Snapshot().Version()))

	mb.RemoveBuffer(2)
	assert.Len(t, mb.Requests(), 1)

	_, ok := mb.Snapshot(2)
	assert.False(t, ok)
}
