package fetch

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/rlch/inlay"
	"github.com/rlch/inlay/clock"
)

// Request asks for the hints of one excerpt at the buffer version the caller sees.
type Request struct {
	BufferID      inlay.BufferID
	BufferPath    string
	BufferVersion clock.Global
	Excerpt       inlay.ExcerptID
	Range         inlay.Range
}

// Validate checks that the request names a buffer and a well-formed range.
func (r Request) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BufferPath, validation.Required),
		validation.Field(&r.Range),
	)
}
