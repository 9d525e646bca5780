// Package scope models the host application's ambient resource scope:
// the per-invocation context object exposing application-level
// resources (configuration, connection pools) that handlers implicitly
// depend on.
//
// A Scope is created per invocation, activated on the invocation's
// context, and released unconditionally when the invocation leaves the
// worker, on every exit path. Scopes are never shared across concurrent
// invocations and are never stored globally.
package scope

import (
	"context"
	"errors"
	"net/http"
	"sync"
)

// ErrNoScope is returned when code expects an active resource scope but
// none is activated on the context.
var ErrNoScope = errors.New("no ambient resource scope is active")

// ErrNoRequest is returned when a handler reads request-scoped state in
// an execution mode where no inbound HTTP request exists. Handlers that
// depend on request state must surface this error rather than read
// stale or cross-invocation data.
var ErrNoRequest = errors.New("request-scoped state is not available: no inbound HTTP request in this execution mode")

// Scope holds application-level resources for one invocation.
type Scope struct {
	mu      sync.Mutex
	values  map[string]any
	closers []func() error
	closed  bool
}

// New creates a Scope seeded with the given values.
func New(values map[string]any) *Scope {
	copied := make(map[string]any, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &Scope{values: copied}
}

// Value returns a named resource from the scope.
func (s *Scope) Value(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores a named resource on the scope. Scopes are per-invocation,
// so handler writes are invisible to concurrent invocations.
func (s *Scope) Set(key string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = v
}

// OnClose registers a release function run when the scope closes.
func (s *Scope) OnClose(fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, fn)
}

// Close releases the scope's resources, in reverse registration order.
// Close is idempotent and returns the last release error.
func (s *Scope) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	var lastErr error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Closed reports whether the scope has been released.
func (s *Scope) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Provider acquires a fresh Scope for one invocation. Implementations
// typically seed the scope with the application's shared resources
// (configuration, pools) while keeping the Scope instance itself
// invocation-private.
type Provider interface {
	Acquire(ctx context.Context) (*Scope, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context) (*Scope, error)

// Acquire calls f.
func (f ProviderFunc) Acquire(ctx context.Context) (*Scope, error) { return f(ctx) }

// StaticProvider returns a Provider that seeds every invocation's scope
// with the same value set. Each invocation still receives its own Scope
// instance.
func StaticProvider(values map[string]any) Provider {
	return ProviderFunc(func(context.Context) (*Scope, error) {
		return New(values), nil
	})
}

type ctxKey int

const (
	scopeKey ctxKey = iota
	requestKey
)

// Activate attaches a scope to the context for the duration of an
// invocation.
func Activate(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey, s)
}

// FromContext returns the active scope, or ErrNoScope.
func FromContext(ctx context.Context) (*Scope, error) {
	s, ok := ctx.Value(scopeKey).(*Scope)
	if !ok {
		return nil, ErrNoScope
	}
	return s, nil
}

// WithRequest attaches an inbound HTTP request to the context. Only the
// normal HTTP serving path does this; bridge-mode invocations never do.
func WithRequest(ctx context.Context, r *http.Request) context.Context {
	return context.WithValue(ctx, requestKey, r)
}

// Request returns the inbound HTTP request behind the invocation, or
// ErrNoRequest when the invocation did not originate from an HTTP
// request (the execution-bridge mode). The distinguishable error is
// deliberate: failing loudly beats silently serving stale request data.
func Request(ctx context.Context) (*http.Request, error) {
	r, ok := ctx.Value(requestKey).(*http.Request)
	if !ok {
		return nil, ErrNoRequest
	}
	return r, nil
}
