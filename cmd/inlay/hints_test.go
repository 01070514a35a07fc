package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/inlay"
	"github.com/rlch/inlay/buffer"
)

func TestView(t *testing.T) {
	t.Parallel()

	multi := buffer.NewMultiBuffer()
	b := buffer.New(1, "/src/main.go", "x := 1\ny := f(2)\n", localReplica)
	multi.AddBuffer(b)

	snap := b.Snapshot()
	v := newView(multi)
	v.apply(inlay.Splice{Insert: []inlay.Inserted{
		{ID: 0, Anchor: snap.Anchor(1, 1), Hint: inlay.Hint{Kind: inlay.KindType, Label: ": int"}},
		{ID: 1, Anchor: snap.Anchor(1, 14), Hint: inlay.Hint{Kind: inlay.KindParameter, Label: "n:", PaddingRight: true}},
	}})

	// Text inserted before both hints moves them.
	_, err := b.Edit(0, 0, "\n")
	require.NoError(t, err)

	var plain bytes.Buffer
	require.NoError(t, v.print(&plain))
	assert.Equal(t, "2:2\ttype\t\": int\"\n3:8\tparameter\t\"n:\"\n", plain.String())

	var out bytes.Buffer
	require.NoError(t, v.printYAML(&out))
	assert.Equal(t, `- id: 0
  line: 2
  column: 2
  kind: type
  label: ': int'
- id: 1
  line: 3
  column: 8
  kind: parameter
  label: 'n:'
  padding_right: true
`, out.String())

	v.apply(inlay.Splice{Remove: []inlay.ID{0}})

	plain.Reset()
	require.NoError(t, v.print(&plain))
	assert.Equal(t, "3:8\tparameter\t\"n:\"\n", plain.String())
}
