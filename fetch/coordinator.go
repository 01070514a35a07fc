package fetch

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rlch/inlay"
	"github.com/rlch/inlay/cache"
	"github.com/rlch/inlay/index"
)

// Coordinator owns an inlay cache and keeps it in sync with a hint source.
type Coordinator struct {
	source  Source
	buffers Buffers
	logger  *zap.Logger
	limit   int

	mu      sync.Mutex
	cache   *cache.Cache
	enabled bool
	closed  bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger used to report failed queries.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithConcurrency limits the number of queries in flight. Zero or less means unlimited.
func WithConcurrency(n int) Option {
	return func(c *Coordinator) {
		c.limit = n
	}
}

// WithSettings sets the initial visibility settings.
func WithSettings(settings inlay.Settings) Option {
	return func(c *Coordinator) {
		c.cache = cache.New(settings)
		c.enabled = settings.Enabled
	}
}

// New creates a Coordinator querying source for the buffers known to buffers.
func New(source Source, buffers Buffers, opts ...Option) *Coordinator {
	c := &Coordinator{
		source:  source,
		buffers: buffers,
		logger:  zap.NewNop(),
	}

	WithSettings(inlay.DefaultSettings())(c)

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// outcome is the result of one request.
type outcome struct {
	skipped  bool
	err      error
	snapshot Snapshot
	hints    []inlay.RawHint
}

// Fetch brings the cache up to date for requests and returns the view changes.
//
// Requests whose excerpt is already cached at a version that has observed the requested
// one are skipped. The rest are queried concurrently. A failed query is logged and
// leaves its excerpt unchanged; it never fails the call.
//
// requests must cover every buffer the caller still displays: cached buffers absent
// from requests are purged (see cache.Cache.Merge).
//
// If ctx is cancelled before the results are merged, they are discarded and ctx.Err()
// is returned with the cache untouched.
func (c *Coordinator) Fetch(ctx context.Context, requests []Request) (inlay.Splice, error) {
	if len(requests) == 0 {
		return inlay.Splice{}, nil
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()

		return inlay.Splice{}, ErrClosed
	}

	if !c.enabled {
		c.mu.Unlock()

		return inlay.Splice{}, nil
	}

	outcomes := make([]outcome, len(requests))
	for i, req := range requests {
		outcomes[i].skipped = c.cache.UpToDate(req.BufferPath, req.BufferVersion, req.Excerpt)
	}
	c.mu.Unlock()

	var g errgroup.Group
	if c.limit > 0 {
		g.SetLimit(c.limit)
	}

	for i, req := range requests {
		if outcomes[i].skipped {
			continue
		}

		g.Go(func() error {
			outcomes[i] = c.query(ctx, req)

			return nil
		})
	}

	// Query functions never return errors; failures are recorded per outcome.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		c.logger.Debug("Discarding inlay fetch results", zap.Error(err))

		return inlay.Splice{}, err
	}

	batch := c.batch(requests, outcomes)
	if len(batch) == 0 {
		return inlay.Splice{}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return inlay.Splice{}, ErrClosed
	}

	splice := c.cache.Merge(batch)

	c.logger.Debug("Merged inlay hints",
		zap.Int("requests", len(requests)),
		zap.Int("buffers", len(batch)),
		zap.Int("insert", len(splice.Insert)),
		zap.Int("remove", len(splice.Remove)))

	return splice, nil
}

func (c *Coordinator) query(ctx context.Context, req Request) outcome {
	err := req.Validate()
	if err != nil {
		return c.failed(req, err)
	}

	snapshot, ok := c.buffers.Snapshot(req.BufferID)
	if !ok {
		// The buffer went away; treat it as fetched and empty.
		return outcome{}
	}

	rng := req.Range.Clamp(snapshot.Len())

	hints, err := c.source.Hints(ctx, snapshot, rng)
	if err != nil {
		req.Range = rng

		return c.failed(req, err)
	}

	return outcome{snapshot: snapshot, hints: hints}
}

func (c *Coordinator) failed(req Request, err error) outcome {
	qerr := &QueryError{
		BufferPath: req.BufferPath,
		Excerpt:    req.Excerpt,
		Range:      req.Range,
		Cause:      err,
	}

	c.logger.Error("Failed to fetch inlay hints",
		zap.String("buffer", req.BufferPath),
		zap.Uint64("excerpt", uint64(req.Excerpt)),
		zap.Stringer("range", req.Range),
		zap.Error(err))

	return outcome{err: qerr}
}

// batch groups outcomes by buffer, anchoring fetched hints against the snapshot they
// were computed from.
func (c *Coordinator) batch(requests []Request, outcomes []outcome) cache.Batch {
	batch := cache.Batch{}

	for i, req := range requests {
		out := outcomes[i]

		switch {
		case out.skipped:
			batch.Add(req.BufferPath, req.BufferVersion, req.Excerpt, nil)
		case out.err != nil:
			batch.Register(req.BufferPath, req.BufferVersion)
		default:
			hints := &index.Ordered[inlay.Hint]{}

			if out.snapshot != nil {
				length := out.snapshot.Len()
				for _, raw := range out.hints {
					offset := min(max(raw.Offset, 0), length)
					hints.Add(out.snapshot.Anchor(req.Excerpt, offset), raw.Hint)
				}
			}

			batch.Add(req.BufferPath, req.BufferVersion, req.Excerpt, &cache.ExcerptUpdate{
				Range: req.Range,
				Hints: hints,
			})
		}
	}

	return batch
}

// ApplySettings changes which hint kinds are visible. No queries are made.
func (c *Coordinator) ApplySettings(settings inlay.Settings) inlay.Splice {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.enabled = settings.Enabled

	return c.cache.ApplySettings(settings)
}

// Clear drops every cached hint and returns the ids to remove from the view.
func (c *Coordinator) Clear() []inlay.ID {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cache.Clear()
}

// Close stops the coordinator. Fetches still in flight discard their results.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
}

// Inspect runs f with exclusive access to the cache. f must not retain it.
func (c *Coordinator) Inspect(f func(*cache.Cache)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f(c.cache)
}

// Result is the outcome of a spawned fetch.
type Result struct {
	Splice inlay.Splice
	Err    error
}

// Spawn runs Fetch in the background. The channel receives exactly one Result.
func (c *Coordinator) Spawn(ctx context.Context, requests []Request) <-chan Result {
	ch := make(chan Result, 1)

	go func() {
		splice, err := c.Fetch(ctx, requests)
		ch <- Result{Splice: splice, Err: err}
	}()

	return ch
}
