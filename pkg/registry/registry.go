// Package registry stores scanned module records alongside their
// executable targets and routes invocations through a middleware chain
// into the execution bridge.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/apcore-dev/modbridge/pkg/bridge"
	"github.com/apcore-dev/modbridge/pkg/identity"
	"github.com/apcore-dev/modbridge/pkg/module"
	"github.com/apcore-dev/modbridge/pkg/observability"
)

// ErrUnknownModule is returned by Call for module IDs that were never
// registered.
var ErrUnknownModule = errors.New("unknown module")

// Middleware wraps a module's handler during Call. Middlewares run in
// registration order, outermost first.
type Middleware func(m module.Module, next bridge.Handler) bridge.Handler

// Entry pairs a module record with its executable handler.
type Entry struct {
	Module  module.Module
	Handler bridge.Handler
}

// Registry maps module IDs to entries. Registration conflicts resolve
// first-come, first-served: the first registered module keeps the ID
// and later registrations are logged and dropped.
type Registry struct {
	mu sync.RWMutex

	bridge      *bridge.Bridge
	middlewares []Middleware

	// order preserves registration order for List.
	order   []string
	entries map[string]Entry
}

// New creates a Registry that executes calls through b.
func New(b *bridge.Bridge, middlewares ...Middleware) *Registry {
	return &Registry{
		bridge:      b,
		middlewares: middlewares,
		entries:     make(map[string]Entry),
	}
}

// Register stores a module and its handler. If the module ID is already
// taken, the first registration wins and a warning is logged.
func (r *Registry) Register(m module.Module, h bridge.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[m.ModuleID]; ok {
		slog.Warn("module id conflict, keeping first registration",
			"module", m.ModuleID,
			"winner", existing.Module.Target,
			"loser", m.Target,
		)
		return
	}

	r.entries[m.ModuleID] = Entry{Module: m, Handler: h}
	r.order = append(r.order, m.ModuleID)

	slog.Info("registered module",
		"module", m.ModuleID,
		"verb", m.Verb,
		"route", m.RoutePattern,
	)
}

// Get returns the entry for a module ID.
func (r *Registry) Get(id string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

// List returns all registered module records in registration order.
func (r *Registry) List() []module.Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mods := make([]module.Module, 0, len(r.order))
	for _, id := range r.order {
		mods = append(mods, r.entries[id].Module)
	}
	return mods
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Call invokes a registered module through the middleware chain and the
// execution bridge. Handler errors come back unwrapped; only lookup
// failures produce registry-owned errors.
func (r *Registry) Call(ctx context.Context, id string, inputs map[string]any, ictx identity.Context) (any, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	middlewares := r.middlewares
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModule, id)
	}

	h := e.Handler
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](e.Module, h)
	}

	start := time.Now()
	out, err := r.bridge.Execute(ctx, h, inputs, ictx)
	observability.ObserveInvocation(id, start, err)

	return out, err
}

// Logging returns a middleware that logs each call with its identity
// and trace information.
func Logging() Middleware {
	return func(m module.Module, next bridge.Handler) bridge.Handler {
		return func(ctx context.Context, inputs map[string]any) (any, error) {
			ictx, _ := identity.From(ctx)
			start := time.Now()
			out, err := next(ctx, inputs)
			slog.Info("module call",
				"module", m.ModuleID,
				"identity", ictx.Identity.ID,
				"trace_id", ictx.TraceID,
				"duration", time.Since(start),
				"error", err,
			)
			return out, err
		}
	}
}
