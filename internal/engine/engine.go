package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/metroreach/internal/config"
	"github.com/gyaneshwarpardhi/metroreach/internal/graph"
	"github.com/gyaneshwarpardhi/metroreach/internal/metrics"
)

// ErrQueueFull is returned when the query queue has no free slot.
var ErrQueueFull = errors.New("query queue full")

// Request is one reachability query as received from a command surface.
type Request struct {
	ID    string
	Query graph.Query
	// Unlimited forces an uncapped change budget even when a default cap
	// is configured.
	Unlimited bool
	// HideLines are dropped from the grouped output only; traversal still
	// uses them.
	HideLines []string
}

// Outcome is the result of one query.
type Outcome struct {
	QueryID    string       `json:"query_id"`
	Origin     string       `json:"origin"`
	DurationMs float64      `json:"duration_ms"`
	Count      int          `json:"count"`
	Lines      graph.Groups `json:"lines"`
	Error      string       `json:"error,omitempty"`

	result *graph.Result
}

// Result returns the raw pair set behind the grouped lines.
func (o *Outcome) Result() *graph.Result { return o.result }

// Engine answers queries against the current index.
type Engine struct {
	index  atomic.Pointer[graph.Index]
	pool   *workerPool[*queryWork]
	conf   config.EngineConf
	search config.SearchConf
	report config.ReportConf
}

type queryWork struct {
	ctx     context.Context
	req     Request
	replies chan<- reply
}

type reply struct {
	out *Outcome
	err error
}

// New creates an Engine and starts its worker pool. idx may be nil; queries
// then fail with graph.ErrIndexUnavailable until Swap installs one.
func New(ctx context.Context, idx *graph.Index, cfg *config.Config) *Engine {
	e := &Engine{
		conf:   cfg.Engine,
		search: cfg.Search,
		report: cfg.Report,
	}
	if idx != nil {
		e.Swap(idx, "startup")
	}
	workers := cfg.Engine.QueryWorkers
	if workers <= 0 {
		workers = 1
	}
	e.pool = newWorkerPool[*queryWork](ctx, workers, cfg.Engine.QueueDepth, func(_ context.Context, w *queryWork) {
		out, err := e.execute(w.ctx, w.req)
		w.replies <- reply{out: out, err: err}
	})
	return e
}

// Swap atomically replaces the index (used on rebuild and hot-reload).
func (e *Engine) Swap(idx *graph.Index, source string) {
	e.index.Store(idx)
	metrics.IndexSwaps.WithLabelValues(source).Inc()
	metrics.IndexStations.Set(float64(idx.StationCount()))
	metrics.IndexRecords.Set(float64(idx.RecordCount()))
}

// Index returns the active index or graph.ErrIndexUnavailable.
func (e *Engine) Index() (*graph.Index, error) {
	idx := e.index.Load()
	if idx == nil {
		return nil, graph.ErrIndexUnavailable
	}
	return idx, nil
}

// Reach runs one query through the worker pool and waits for it.
// The configured timeout bounds both queueing and the search itself.
func (e *Engine) Reach(ctx context.Context, req Request) (*Outcome, error) {
	replies := make(chan reply, 1)
	qctx, cancel, err := e.enqueue(ctx, req, replies)
	if err != nil {
		return nil, err
	}
	defer cancel()
	return wait(qctx, replies)
}

// ReachBatch submits every request before waiting, so the pool works on
// them in parallel. Per-request failures are reported in Outcome.Error.
func (e *Engine) ReachBatch(ctx context.Context, reqs []Request) []*Outcome {
	type pending struct {
		ctx     context.Context
		cancel  context.CancelFunc
		replies chan reply
	}
	outs := make([]*Outcome, len(reqs))
	waits := make([]*pending, len(reqs))

	for i := range reqs {
		if reqs[i].ID == "" {
			reqs[i].ID = uuid.New().String()
		}
		replies := make(chan reply, 1)
		qctx, cancel, err := e.enqueue(ctx, reqs[i], replies)
		if err != nil {
			outs[i] = failed(reqs[i], err)
			continue
		}
		waits[i] = &pending{ctx: qctx, cancel: cancel, replies: replies}
	}
	for i, p := range waits {
		if p == nil {
			continue
		}
		out, err := wait(p.ctx, p.replies)
		p.cancel()
		if err != nil {
			outs[i] = failed(reqs[i], err)
			continue
		}
		outs[i] = out
	}
	return outs
}

func wait(ctx context.Context, replies <-chan reply) (*Outcome, error) {
	select {
	case r := <-replies:
		return r.out, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("query not answered: %w", ctx.Err())
	}
}

func failed(req Request, err error) *Outcome {
	return &Outcome{QueryID: req.ID, Origin: req.Query.Origin, Lines: graph.Groups{}, Error: err.Error()}
}

// enqueue validates cheaply, then hands the request to the pool with its
// own deadline. The returned cancel must be called once the reply is read.
func (e *Engine) enqueue(ctx context.Context, req Request, replies chan<- reply) (context.Context, context.CancelFunc, error) {
	if e.index.Load() == nil {
		metrics.QueriesCompleted.WithLabelValues(statusOf(graph.ErrIndexUnavailable)).Inc()
		return nil, nil, graph.ErrIndexUnavailable
	}
	if err := req.Query.Validate(); err != nil {
		metrics.QueriesCompleted.WithLabelValues(statusOf(err)).Inc()
		return nil, nil, err
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	qctx, cancel := ctx, context.CancelFunc(func() {})
	if e.conf.QueryTimeoutMs > 0 {
		qctx, cancel = context.WithTimeout(ctx, time.Duration(e.conf.QueryTimeoutMs)*time.Millisecond)
	}
	if !e.pool.Submit(&queryWork{ctx: qctx, req: req, replies: replies}) {
		cancel()
		metrics.QueriesDropped.Inc()
		return nil, nil, fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.pool.QueueCap())
	}
	metrics.QueriesEnqueued.Inc()
	return qctx, cancel, nil
}

// Execute runs a query on the calling goroutine, bypassing the pool.
// Command-line use goes through here.
func (e *Engine) Execute(ctx context.Context, req Request) (*Outcome, error) {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	return e.execute(ctx, req)
}

func (e *Engine) execute(ctx context.Context, req Request) (*Outcome, error) {
	idx := e.index.Load()
	if idx == nil {
		metrics.QueriesCompleted.WithLabelValues(statusOf(graph.ErrIndexUnavailable)).Inc()
		return nil, graph.ErrIndexUnavailable
	}

	q := req.Query
	switch {
	case req.Unlimited:
		q.MaxChanges = nil
	case q.MaxChanges == nil && e.search.DefaultMaxChanges != nil:
		q.MaxChanges = graph.Changes(*e.search.DefaultMaxChanges)
	}

	start := time.Now()
	res, err := graph.Search(ctx, idx, q)
	elapsed := time.Since(start)
	metrics.QueriesCompleted.WithLabelValues(statusOf(err)).Inc()
	if err != nil {
		return nil, err
	}

	hidden := append(append([]string{}, e.report.ExcludeLines...), req.HideLines...)
	groups := graph.Aggregate(res).Exclude(hidden...)
	ms := float64(elapsed.Microseconds()) / 1000
	metrics.QueryDuration.Observe(ms)
	metrics.ReachedPairs.Observe(float64(res.Len()))

	return &Outcome{
		QueryID:    req.ID,
		Origin:     q.Origin,
		DurationMs: ms,
		Count:      groups.Count(),
		Lines:      groups,
		result:     res,
	}, nil
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, graph.ErrInvalidQuery):
		return "invalid"
	case errors.Is(err, graph.ErrIndexUnavailable):
		return "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	}
	return "error"
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

// Shutdown drains the pool gracefully.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}
