package lsp

import (
	"strings"
	"unicode/utf8"

	"go.lsp.dev/protocol"
)

// utf16Len returns the number of UTF-16 code units needed for r.
func utf16Len(r rune) uint32 {
	if r >= 0x10000 {
		return 2
	}

	return 1
}

// OffsetToPosition converts a byte offset in text to an LSP position.
// LSP columns count UTF-16 code units. Offsets past the end map to the end of text.
func OffsetToPosition(text string, offset int) protocol.Position {
	offset = min(max(offset, 0), len(text))

	var pos protocol.Position

	for i := 0; i < offset; {
		r, size := utf8.DecodeRuneInString(text[i:])
		if i+size > offset {
			break
		}

		if r == '\n' {
			pos.Line++
			pos.Character = 0
		} else {
			pos.Character += utf16Len(r)
		}

		i += size
	}

	return pos
}

// PositionToOffset converts an LSP position to a byte offset in text.
// Positions past the end of a line clamp to the line end; lines past the end of text
// clamp to its length.
func PositionToOffset(text string, pos protocol.Position) int {
	offset := 0

	for line := uint32(0); line < pos.Line; line++ {
		next := strings.IndexByte(text[offset:], '\n')
		if next < 0 {
			return len(text)
		}

		offset += next + 1
	}

	var units uint32

	for offset < len(text) && units < pos.Character {
		r, size := utf8.DecodeRuneInString(text[offset:])
		if r == '\n' {
			break
		}

		units += utf16Len(r)
		offset += size
	}

	return offset
}

// rangeToProtocol converts a byte range of text to an LSP range.
func rangeToProtocol(text string, start, end int) protocol.Range {
	return protocol.Range{
		Start: OffsetToPosition(text, start),
		End:   OffsetToPosition(text, end),
	}
}
