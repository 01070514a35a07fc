package lsp_test

import (
	"testing"

	"go.lsp.dev/protocol"

	"github.com/rlch/inlay/lsp"
)

func TestOffsetPositionRoundTrip(t *testing.T) {
	t.Parallel()

	text := "ab\nc😀d\n\nxyz"

	tests := []struct {
		name   string
		offset int
		pos    protocol.Position
	}{
		{name: "start", offset: 0, pos: protocol.Position{Line: 0, Character: 0}},
		{name: "end of first line", offset: 2, pos: protocol.Position{Line: 0, Character: 2}},
		{name: "start of second line", offset: 3, pos: protocol.Position{Line: 1, Character: 0}},
		{name: "before emoji", offset: 4, pos: protocol.Position{Line: 1, Character: 1}},
		{name: "after emoji counts two units", offset: 8, pos: protocol.Position{Line: 1, Character: 3}},
		{name: "empty line", offset: 10, pos: protocol.Position{Line: 2, Character: 0}},
		{name: "last line", offset: 12, pos: protocol.Position{Line: 3, Character: 1}},
		{name: "end", offset: len(text), pos: protocol.Position{Line: 3, Character: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := lsp.OffsetToPosition(text, tt.offset); got != tt.pos {
				t.Errorf("OffsetToPosition(%d) = %+v, want %+v", tt.offset, got, tt.pos)
			}

			if got := lsp.PositionToOffset(text, tt.pos); got != tt.offset {
				t.Errorf("PositionToOffset(%+v) = %d, want %d", tt.pos, got, tt.offset)
			}
		})
	}
}

func TestPositionToOffset_Clamps(t *testing.T) {
	t.Parallel()

	text := "ab\ncd"

	if got := lsp.PositionToOffset(text, protocol.Position{Line: 0, Character: 40}); got != 2 {
		t.Errorf("past line end = %d, want 2", got)
	}

	if got := lsp.PositionToOffset(text, protocol.Position{Line: 9, Character: 0}); got != len(text) {
		t.Errorf("past last line = %d, want %d", got, len(text))
	}

	if got := lsp.OffsetToPosition(text, 99); got != (protocol.Position{Line: 1, Character: 2}) {
		t.Errorf("past end = %+v", got)
	}
}
