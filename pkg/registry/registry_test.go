package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/apcore-dev/modbridge/pkg/bridge"
	"github.com/apcore-dev/modbridge/pkg/identity"
	"github.com/apcore-dev/modbridge/pkg/jsonschema"
	"github.com/apcore-dev/modbridge/pkg/module"
	"github.com/apcore-dev/modbridge/pkg/scope"
)

func testModule(id string) module.Module {
	return module.Module{
		ModuleID:     id,
		Verb:         "GET",
		RoutePattern: "/" + id,
		Target:       "test:" + id,
		InputSchema:  jsonschema.EmptyObject(),
		OutputSchema: jsonschema.Permissive(),
	}
}

func newTestRegistry(t *testing.T, middlewares ...Middleware) *Registry {
	t.Helper()
	b := bridge.New(scope.StaticProvider(nil), bridge.Config{Workers: 2})
	t.Cleanup(b.Close)
	return New(b, middlewares...)
}

func TestRegisterFirstWins(t *testing.T) {
	r := newTestRegistry(t)

	r.Register(testModule("dup"), func(ctx context.Context, in map[string]any) (any, error) {
		return "first", nil
	})
	r.Register(testModule("dup"), func(ctx context.Context, in map[string]any) (any, error) {
		return "second", nil
	})

	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
	out, err := r.Call(context.Background(), "dup", nil, identity.Anonymous())
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if out != "first" {
		t.Errorf("out = %v, first registration must win", out)
	}
}

func TestListPreservesOrder(t *testing.T) {
	r := newTestRegistry(t)
	noop := func(ctx context.Context, in map[string]any) (any, error) { return nil, nil }

	for _, id := range []string{"c", "a", "b"} {
		r.Register(testModule(id), noop)
	}

	got := r.List()
	if len(got) != 3 || got[0].ModuleID != "c" || got[1].ModuleID != "a" || got[2].ModuleID != "b" {
		ids := make([]string, len(got))
		for i, m := range got {
			ids[i] = m.ModuleID
		}
		t.Errorf("List() = %v, want registration order [c a b]", ids)
	}
}

func TestCallUnknownModule(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Call(context.Background(), "ghost", nil, identity.Anonymous())
	if !errors.Is(err, ErrUnknownModule) {
		t.Errorf("error = %v, want ErrUnknownModule", err)
	}
}

func TestCallPropagatesHandlerError(t *testing.T) {
	r := newTestRegistry(t)
	sentinel := errors.New("business failure")

	r.Register(testModule("fails"), func(ctx context.Context, in map[string]any) (any, error) {
		return nil, sentinel
	})

	_, err := r.Call(context.Background(), "fails", nil, identity.Anonymous())
	if !errors.Is(err, sentinel) {
		t.Errorf("error = %v, want the handler's unwrapped error", err)
	}
}

func TestMiddlewareOrder(t *testing.T) {
	var order []string
	mw := func(tag string) Middleware {
		return func(m module.Module, next bridge.Handler) bridge.Handler {
			return func(ctx context.Context, in map[string]any) (any, error) {
				order = append(order, tag)
				return next(ctx, in)
			}
		}
	}

	r := newTestRegistry(t, mw("outer"), mw("inner"))
	r.Register(testModule("m"), func(ctx context.Context, in map[string]any) (any, error) {
		order = append(order, "handler")
		return nil, nil
	})

	if _, err := r.Call(context.Background(), "m", nil, identity.Anonymous()); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if len(order) != 3 || order[0] != "outer" || order[1] != "inner" || order[2] != "handler" {
		t.Errorf("order = %v, want [outer inner handler]", order)
	}
}

func TestGet(t *testing.T) {
	r := newTestRegistry(t)
	r.Register(testModule("known"), func(ctx context.Context, in map[string]any) (any, error) { return nil, nil })

	if e, ok := r.Get("known"); !ok || e.Module.ModuleID != "known" {
		t.Errorf("Get(known) = (%+v, %t), want the entry", e.Module, ok)
	}
	if _, ok := r.Get("unknown"); ok {
		t.Error("Get(unknown) = ok, want missing")
	}
}
