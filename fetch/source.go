// Package fetch coordinates hint queries for visible excerpts and feeds the results into
// the inlay cache.
//
// The Coordinator is the cache's single writer: queries for distinct excerpts run
// concurrently, but only the merge that follows them mutates the cache, and merges are
// serialised.
package fetch

import (
	"context"

	"github.com/rlch/inlay"
	"github.com/rlch/inlay/clock"
)

// Snapshot is an immutable view of a buffer at one version.
type Snapshot interface {
	ID() inlay.BufferID
	Path() string
	Version() clock.Global
	Len() int
	Text() string
	// Anchor creates a stable anchor at offset inside excerpt.
	Anchor(excerpt inlay.ExcerptID, offset int) inlay.Anchor
}

// Buffers looks up current buffer snapshots.
type Buffers interface {
	Snapshot(id inlay.BufferID) (Snapshot, bool)
}

// Source answers hint queries, e.g. a language server.
// It reports hints at offsets of snapshot within rng.
type Source interface {
	Hints(ctx context.Context, snapshot Snapshot, rng inlay.Range) ([]inlay.RawHint, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, snapshot Snapshot, rng inlay.Range) ([]inlay.RawHint, error)

// Hints calls f.
func (f SourceFunc) Hints(ctx context.Context, snapshot Snapshot, rng inlay.Range) ([]inlay.RawHint, error) {
	return f(ctx, snapshot, rng)
}
