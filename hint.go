package inlay

import (
	"cmp"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/rlch/inlay/clock"
)

// BufferID identifies an open buffer.
type BufferID uint64

// ExcerptID identifies a contiguous region of a buffer shown in a multi-region view.
type ExcerptID uint64

// ID identifies one cached hint instance to the view layer.
// Ids are allocated monotonically and never reused.
type ID uint64

func (id ID) String() string {
	return fmt.Sprintf("inlay#%d", uint64(id))
}

// Hint is the content of an inlay hint as reported by the hint source.
// Two hints with equal fields are the same hint.
type Hint struct {
	Kind         Kind   `yaml:"kind"`
	Label        string `yaml:"label"`
	Tooltip      string `yaml:"tooltip,omitempty"`
	PaddingLeft  bool   `yaml:"padding_left,omitempty"`
	PaddingRight bool   `yaml:"padding_right,omitempty"`
}

// RawHint is a hint at a raw buffer offset, before it is anchored.
type RawHint struct {
	Offset int
	Hint   Hint
}

// Key orders positions within one excerpt: by offset, then by the time the anchor
// was created.
type Key struct {
	Offset  int
	Created clock.Local
}

// Compare orders keys. It returns zero only for identical keys.
func (k Key) Compare(other Key) int {
	if c := cmp.Compare(k.Offset, other.Offset); c != 0 {
		return c
	}

	return k.Created.Compare(other.Created)
}

// Anchor is a stable reference to a position in a buffer's edit history.
// Offset is the buffer offset at the moment the anchor was created.
type Anchor struct {
	Buffer  BufferID
	Excerpt ExcerptID
	Offset  int
	Created clock.Local
}

// Key returns the ordering key of the anchor.
func (a Anchor) Key() Key {
	return Key{Offset: a.Offset, Created: a.Created}
}

// Range is a half-open offset range [Start, End).
type Range struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// Clamp limits the range to [0, length].
func (r Range) Clamp(length int) Range {
	return Range{
		Start: min(max(r.Start, 0), length),
		End:   min(max(r.End, 0), length),
	}
}

func (r Range) String() string {
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}

// Validate checks that the range lies at non-negative offsets and does not end before
// it starts.
func (r Range) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Start, validation.Min(0)),
		validation.Field(&r.End, validation.Min(0)),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRange, err)
	}

	if r.End < r.Start {
		return fmt.Errorf("%w: %s", ErrInvertedRange, r)
	}

	return nil
}
