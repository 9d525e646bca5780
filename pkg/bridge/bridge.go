// Package bridge executes synchronous, scope-dependent handlers on
// behalf of an asynchronous orchestrator without blocking it. Each
// invocation takes exactly one hop onto a bounded worker pool; inside
// the worker, the host application's ambient resource scope is
// activated before the handler runs and released unconditionally on
// every exit path, including handler panics and caller cancellation.
//
// The bridge never retries and never wraps handler errors: failures
// propagate to the orchestrator as-is so the protocol layer can map
// them faithfully.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/apcore-dev/modbridge/pkg/debug"
	"github.com/apcore-dev/modbridge/pkg/identity"
	"github.com/apcore-dev/modbridge/pkg/scope"
)

// Prometheus metrics for the worker pool. Per-module invocation metrics
// live in the observability package; these track pool behavior.
var (
	invocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modbridge_bridge_tasks_total",
			Help: "Total bridged handler invocations",
		},
		[]string{"status"},
	)

	invocationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "modbridge_bridge_task_duration_seconds",
			Help:    "Bridged handler invocation duration",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)
)

func init() {
	prometheus.MustRegister(invocationsTotal, invocationDuration)
}

// ErrClosed is returned for invocations submitted after Close.
var ErrClosed = errors.New("bridge is closed")

// Handler is the executable form of a module target. The context
// carries the activated resource scope and the invocation identity.
type Handler func(ctx context.Context, inputs map[string]any) (any, error)

// Config sizes the worker pool.
type Config struct {
	// Workers is the number of pool workers. Default: 4.
	Workers int

	// QueueSize bounds the number of invocations waiting for a
	// worker. Default: Workers.
	QueueSize int
}

func (c *Config) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = c.Workers
	}
}

// Bridge owns the worker pool and the scope lifecycle around each
// invocation.
type Bridge struct {
	scopes scope.Provider
	tasks  chan *task

	// mu guards closed and fences submissions against Close: every
	// enqueue happens under the read lock, so Close can take the write
	// lock to exclude in-flight senders before closing tasks.
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

type task struct {
	ctx     context.Context
	handler Handler
	inputs  map[string]any
	ictx    identity.Context
	done    chan result
}

type result struct {
	out any
	err error
}

// New creates a Bridge and starts its workers.
func New(scopes scope.Provider, cfg Config) *Bridge {
	cfg.applyDefaults()
	b := &Bridge{
		scopes: scopes,
		tasks:  make(chan *task, cfg.QueueSize),
	}
	b.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go b.worker()
	}
	return b
}

// Execute runs the handler on a pool worker and suspends the caller
// until it completes. Suspension is a blocking channel receive, not a
// poll; the caller's goroutine yields to its scheduler.
//
// If ctx is cancelled before a worker picks up the invocation, or while
// the handler runs, Execute returns ctx's error immediately. The worker
// still finishes the handler and the unconditional scope teardown in
// the background; no scope is ever leaked by abandonment.
func (b *Bridge) Execute(ctx context.Context, h Handler, inputs map[string]any, ictx identity.Context) (any, error) {
	t := &task{
		ctx:     ctx,
		handler: h,
		inputs:  inputs,
		ictx:    ictx,
		// Buffered so an abandoned worker send never blocks.
		done: make(chan result, 1),
	}

	// The read lock is held across the enqueue so a concurrent Close
	// cannot close tasks while a send is pending. A sender blocked on a
	// full queue makes Close wait; the workers keep draining until then.
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return nil, ErrClosed
	}

	select {
	case b.tasks <- t:
		b.mu.RUnlock()
	case <-ctx.Done():
		b.mu.RUnlock()
		invocationsTotal.WithLabelValues("cancelled").Inc()
		return nil, ctx.Err()
	}

	select {
	case res := <-t.done:
		return res.out, res.err
	case <-ctx.Done():
		invocationsTotal.WithLabelValues("cancelled").Inc()
		return nil, ctx.Err()
	}
}

// Close stops accepting invocations and waits for in-flight work to
// drain.
func (b *Bridge) Close() {
	// Taking the write lock waits out every sender inside Execute's
	// enqueue section; only then is closing the channel safe.
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.tasks)
	b.mu.Unlock()

	b.wg.Wait()
}

func (b *Bridge) worker() {
	defer b.wg.Done()
	for t := range b.tasks {
		start := time.Now()
		res := b.run(t)

		status := "success"
		if res.err != nil {
			status = "error"
		}
		invocationsTotal.WithLabelValues(status).Inc()
		invocationDuration.Observe(time.Since(start).Seconds())

		t.done <- res
	}
}

// run executes one invocation inside the worker: acquire a fresh scope,
// activate it on the context, invoke the handler, and release the scope
// no matter how the handler exits.
func (b *Bridge) run(t *task) (res result) {
	sc, err := b.scopes.Acquire(t.ctx)
	if err != nil {
		return result{err: fmt.Errorf("acquiring resource scope: %w", err)}
	}

	// Unconditional teardown, ordered before any error propagates. A
	// teardown failure is logged; it never displaces the handler's own
	// result.
	defer func() {
		if rec := recover(); rec != nil {
			res = result{err: fmt.Errorf("handler panicked: %v", rec)}
		}
		if err := sc.Close(); err != nil {
			slog.Warn("scope teardown failed", "error", err)
		}
	}()

	ctx := scope.Activate(t.ctx, sc)
	ctx = identity.With(ctx, t.ictx)

	debug.Log("bridge", "handler dispatched",
		"identity", t.ictx.Identity.ID,
		"trace_id", t.ictx.TraceID,
	)

	out, err := t.handler(ctx, t.inputs)
	return result{out: out, err: err}
}
