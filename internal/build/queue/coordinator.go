// Package queue implements the write coordinator: it keeps one pending write
// per output path, resolves competing writes by route priority, and runs the
// surviving writes through a bounded pool.
package queue

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/pagegen/internal/logfields"
	"git.home.luguber.info/inful/pagegen/internal/metrics"
)

// DefaultMaxInFlight bounds concurrent write tasks when no cap is configured.
const DefaultMaxInFlight = 64

// Task renders and commits one page.
type Task func(ctx context.Context) error

// Pending is a write waiting for the flush phase.
type Pending struct {
	OutputPath string
	URLPath    string
	Route      string
	RouteIndex int
	Depth      int

	// Ordinal is the branch position from the root of the forest. It breaks
	// ties between equal depth and route index: the earlier branch wins.
	Ordinal []int

	// Digest is committed to the ledger when this write wins and completes.
	Digest string

	// Skip marks an unchanged page: it wins collisions like any other write
	// but runs no task.
	Skip bool

	// Redirects are the hops followed to resolve the page. They are reported
	// only when the write wins and completes.
	Redirects []Redirect

	Task Task
}

// Outranks reports whether p should replace other for the same output path.
func (p Pending) Outranks(other Pending) bool {
	if p.Depth != other.Depth {
		return p.Depth > other.Depth
	}
	if p.RouteIndex != other.RouteIndex {
		return p.RouteIndex < other.RouteIndex
	}
	return slices.Compare(p.Ordinal, other.Ordinal) < 0
}

// Committer records the digest of a completed write.
type Committer interface {
	Commit(path, digest string)
}

// Collision records a write that lost its output path to another.
type Collision struct {
	OutputPath string
	URLPath    string
	Winner     string
	Loser      string
}

// Redirect is one hop followed while resolving a page.
type Redirect struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Report lists the output paths handled by a flush.
type Report struct {
	Written   []string
	Skipped   []string
	Redirects []Redirect
}

// Coordinator accumulates pending writes and flushes them.
type Coordinator struct {
	maxInFlight int
	committer   Committer
	recorder    metrics.Recorder

	// OnProgress, when set, is called after each write completes.
	OnProgress func(done, total int)

	mu         sync.Mutex
	pending    map[string]Pending
	order      []string
	collisions []Collision

	done     atomic.Int64
	total    atomic.Int64
	inFlight atomic.Int64
	peak     atomic.Int64
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithCommitter sets where winning digests are recorded.
func WithCommitter(c Committer) Option {
	return func(co *Coordinator) { co.committer = c }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(co *Coordinator) { co.recorder = metrics.OrNoop(r) }
}

// WithProgress sets the progress callback.
func WithProgress(fn func(done, total int)) Option {
	return func(co *Coordinator) { co.OnProgress = fn }
}

// New creates a coordinator running at most maxInFlight tasks at once.
func New(maxInFlight int, opts ...Option) *Coordinator {
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	c := &Coordinator{
		maxInFlight: maxInFlight,
		recorder:    metrics.NoopRecorder{},
		pending:     make(map[string]Pending),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enqueue records p unless a higher-priority write already holds its output
// path. It reports whether p is now the pending write for that path.
func (c *Coordinator) Enqueue(p Pending) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, exists := c.pending[p.OutputPath]
	if !exists {
		c.pending[p.OutputPath] = p
		c.order = append(c.order, p.OutputPath)
		return true
	}

	c.recorder.IncCollision()
	if !p.Outranks(current) {
		c.collisions = append(c.collisions, Collision{
			OutputPath: p.OutputPath, URLPath: p.URLPath, Winner: current.Route, Loser: p.Route,
		})
		slog.Debug("Write collision: keeping existing page",
			logfields.Output(p.OutputPath),
			logfields.Depth(current.Depth),
			logfields.RouteIndex(current.RouteIndex))
		return false
	}
	slog.Debug("Write collision: replacing page",
		logfields.Output(p.OutputPath),
		logfields.Depth(p.Depth),
		logfields.RouteIndex(p.RouteIndex))
	c.collisions = append(c.collisions, Collision{
		OutputPath: p.OutputPath, URLPath: p.URLPath, Winner: p.Route, Loser: current.Route,
	})
	c.pending[p.OutputPath] = p
	return true
}

// Collisions returns every collision seen so far, sorted by output path. A
// path contested by several writes appears once per losing write; Winner
// names the write that held the path at that moment.
func (c *Coordinator) Collisions() []Collision {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := slices.Clone(c.collisions)
	slices.SortStableFunc(out, func(a, b Collision) int {
		return strings.Compare(a.OutputPath, b.OutputPath)
	})
	return out
}

// Len returns the number of pending writes.
func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Pending returns the current winners in branch order.
func (c *Coordinator) Pending() []Pending {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sorted()
}

// sorted returns the winners ordered by Ordinal. Writes enqueued without an
// ordinal keep their enqueue order. Callers hold c.mu.
func (c *Coordinator) sorted() []Pending {
	out := make([]Pending, 0, len(c.order))
	for _, path := range c.order {
		out = append(out, c.pending[path])
	}
	slices.SortStableFunc(out, func(a, b Pending) int {
		return slices.Compare(a.Ordinal, b.Ordinal)
	})
	return out
}

// Progress returns completed and total writes of the current flush.
func (c *Coordinator) Progress() (done, total int) {
	return int(c.done.Load()), int(c.total.Load())
}

// PeakInFlight returns the highest number of tasks that ran concurrently.
func (c *Coordinator) PeakInFlight() int {
	return int(c.peak.Load())
}

// Flush runs every pending write, admitting them in branch order into a
// pool of maxInFlight. The first failure stops admission and is returned
// once running tasks finish. Pending writes are consumed whether or not the
// flush succeeds.
func (c *Coordinator) Flush(ctx context.Context) (*Report, error) {
	batch := c.drain()
	c.done.Store(0)
	c.total.Store(int64(len(batch)))

	var (
		mu     sync.Mutex
		report = &Report{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxInFlight)

	for _, p := range batch {
		if gctx.Err() != nil {
			break
		}
		if p.Skip || p.Task == nil {
			c.commit(p)
			mu.Lock()
			report.Skipped = append(report.Skipped, p.OutputPath)
			report.Redirects = append(report.Redirects, p.Redirects...)
			mu.Unlock()
			c.advance()
			continue
		}
		g.Go(func() error {
			if err := c.run(gctx, p); err != nil {
				return err
			}
			c.commit(p)
			mu.Lock()
			report.Written = append(report.Written, p.OutputPath)
			report.Redirects = append(report.Redirects, p.Redirects...)
			mu.Unlock()
			c.advance()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, ctx.Err()
}

func (c *Coordinator) drain() []Pending {
	c.mu.Lock()
	defer c.mu.Unlock()
	batch := c.sorted()
	c.pending = make(map[string]Pending)
	c.order = nil
	return batch
}

func (c *Coordinator) run(ctx context.Context, p Pending) error {
	n := c.inFlight.Add(1)
	for {
		peak := c.peak.Load()
		if n <= peak || c.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	c.recorder.SetWritesInFlight(int(n))
	defer func() {
		c.recorder.SetWritesInFlight(int(c.inFlight.Add(-1)))
	}()

	start := time.Now()
	err := p.Task(ctx)
	c.recorder.ObserveWriteDuration(time.Since(start))
	return err
}

func (c *Coordinator) commit(p Pending) {
	if c.committer != nil && p.Digest != "" {
		c.committer.Commit(p.OutputPath, p.Digest)
	}
}

func (c *Coordinator) advance() {
	done := c.done.Add(1)
	if c.OnProgress != nil {
		c.OnProgress(int(done), int(c.total.Load()))
	}
}
