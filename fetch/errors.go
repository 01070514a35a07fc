package fetch

import (
	"errors"
	"fmt"

	"github.com/rlch/inlay"
)

// ErrClosed is returned by a Coordinator after Close.
var ErrClosed = errors.New("fetch: coordinator closed")

// QueryError describes a failed hint query for one excerpt.
type QueryError struct {
	BufferPath string
	Excerpt    inlay.ExcerptID
	Range      inlay.Range
	Cause      error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query hints for %s excerpt %d (%s): %v", e.BufferPath, e.Excerpt, e.Range, e.Cause)
}

func (e *QueryError) Unwrap() error {
	return e.Cause
}
