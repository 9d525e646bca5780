package scan

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/apcore-dev/modbridge/pkg/module"
)

type tableFunc func() ([]Route, error)

func (f tableFunc) Routes() ([]Route, error) { return f() }

func staticTable(routes ...Route) Table {
	return tableFunc(func() ([]Route, error) { return routes, nil })
}

func noopHandler(w http.ResponseWriter, r *http.Request) {}

type echoInput struct {
	Message string `json:"message"`
}

func echo(ctx context.Context, in echoInput) (string, error) { return in.Message, nil }

func describedRoute(method, pattern string, opts ...Option) Route {
	return Route{
		Method:  method,
		Pattern: pattern,
		Handler: Describe(http.HandlerFunc(noopHandler), opts...),
	}
}

func TestScanBuildsModules(t *testing.T) {
	s := New()

	table := staticTable(
		describedRoute("GET", "/items/{item_id:int}",
			WithFunc(echo),
			WithGroup("items"),
			WithName("get_item"),
			WithDoc("Fetch one item.\n\nFull documentation body."),
		),
	)

	mods, err := s.Scan(table, Options{})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(mods) != 1 {
		t.Fatalf("len(mods) = %d, want 1", len(mods))
	}

	m := mods[0]
	if m.ModuleID != "items.get_item.get" {
		t.Errorf("ModuleID = %q, want items.get_item.get", m.ModuleID)
	}
	if m.Description != "Fetch one item." {
		t.Errorf("Description = %q, want first doc line", m.Description)
	}
	if !strings.Contains(m.Documentation, "Full documentation body.") {
		t.Errorf("Documentation = %q, want full text", m.Documentation)
	}
	if m.Annotations == nil || !m.Annotations.ReadOnly {
		t.Errorf("Annotations = %+v, want readonly for GET", m.Annotations)
	}
	if m.Version != module.DefaultVersion {
		t.Errorf("Version = %q, want %q", m.Version, module.DefaultVersion)
	}
	if !strings.HasSuffix(m.Target, ":echo") {
		t.Errorf("Target = %q, want package-qualified echo reference", m.Target)
	}
	if !reflect.DeepEqual(m.Tags, []string{"items"}) {
		t.Errorf("Tags = %v, want [items]", m.Tags)
	}

	item := m.InputSchema.Properties["item_id"]
	if item == nil || item.Type != "integer" {
		t.Errorf("item_id schema = %+v, want integer from path qualifier", item)
	}
	if m.Metadata[module.MetaVerb] != "GET" || m.Metadata[module.MetaSource] != SourceName {
		t.Errorf("Metadata = %v, want scanner-owned verb and source", m.Metadata)
	}
}

func TestScanSkipRules(t *testing.T) {
	s := New()

	table := staticTable(
		Route{Method: "HEAD", Pattern: "/items", Handler: http.HandlerFunc(noopHandler)},
		Route{Method: "OPTIONS", Pattern: "/items", Handler: http.HandlerFunc(noopHandler)},
		Route{Method: "GET", Pattern: "/static/*", Handler: http.HandlerFunc(noopHandler)},
		Route{Method: "GET", Pattern: "/favicon.ico", Handler: http.HandlerFunc(noopHandler)},
		describedRoute("GET", "/dashboard", AsView()),
		describedRoute("GET", "/items", WithName("list_items")),
	)

	mods, err := s.Scan(table, Options{})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(mods) != 1 {
		t.Fatalf("len(mods) = %d, want only the data route, got %+v", len(mods), moduleIDs(mods))
	}
	if mods[0].ModuleID != "list_items.get" {
		t.Errorf("ModuleID = %q, want list_items.get", mods[0].ModuleID)
	}
}

func TestScanUndescribedRouteDegrades(t *testing.T) {
	s := New()

	table := staticTable(
		Route{Method: "POST", Pattern: "/things", Handler: http.HandlerFunc(noopHandler)},
	)

	mods, err := s.Scan(table, Options{})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(mods) != 1 {
		t.Fatalf("len(mods) = %d, want 1 (degrade, never drop)", len(mods))
	}

	m := mods[0]
	if m.InputSchema.HasProperties() {
		t.Errorf("InputSchema = %+v, want empty object", m.InputSchema)
	}
	if len(m.Warnings) == 0 {
		t.Error("Warnings empty, want signature/type-hint warnings")
	}
	if m.Description != "POST /things" {
		t.Errorf("Description = %q, want auto-generated summary", m.Description)
	}
}

func TestScanDeduplication(t *testing.T) {
	s := New()

	// Same group, name, and verb three times over.
	table := staticTable(
		describedRoute("GET", "/a", WithGroup("users"), WithName("get_item")),
		describedRoute("GET", "/b", WithGroup("users"), WithName("get_item")),
		describedRoute("GET", "/c", WithGroup("users"), WithName("get_item")),
	)

	mods, err := s.Scan(table, Options{})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	got := moduleIDs(mods)
	want := []string{"users.get_item.get", "users.get_item.get_2", "users.get_item.get_3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("IDs = %v, want %v", got, want)
	}
}

func TestScanGroupsDisambiguate(t *testing.T) {
	s := New()

	table := staticTable(
		describedRoute("GET", "/orders/{id}", WithGroup("orders"), WithName("get_item")),
		describedRoute("GET", "/users/{id}", WithGroup("users"), WithName("get_item")),
	)

	mods, err := s.Scan(table, Options{})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	got := moduleIDs(mods)
	want := []string{"orders.get_item.get", "users.get_item.get"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("IDs = %v, want no dedup suffixes across groups: %v", got, want)
	}
}

func TestScanIDSanitization(t *testing.T) {
	s := New()

	table := staticTable(
		describedRoute("GET", "/x", WithGroup("my-api"), WithName("get thing")),
	)

	mods, err := s.Scan(table, Options{})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if mods[0].ModuleID != "my_api.get_thing.get" {
		t.Errorf("ModuleID = %q, want my_api.get_thing.get", mods[0].ModuleID)
	}
}

func TestScanFilters(t *testing.T) {
	routes := []Route{
		describedRoute("GET", "/users", WithGroup("users"), WithName("list_users")),
		describedRoute("GET", "/orders", WithGroup("orders"), WithName("list_orders")),
		describedRoute("DELETE", "/users/{id}", WithGroup("users"), WithName("delete_user")),
	}

	tests := []struct {
		name    string
		opts    Options
		want    []string
		wantErr bool
	}{
		{
			name: "include",
			opts: Options{Include: `^users\.`},
			want: []string{"users.list_users.get", "users.delete_user.delete"},
		},
		{
			name: "exclude",
			opts: Options{Exclude: `delete`},
			want: []string{"users.list_users.get", "orders.list_orders.get"},
		},
		{
			name: "include then exclude",
			opts: Options{Include: `^users\.`, Exclude: `delete`},
			want: []string{"users.list_users.get"},
		},
		{
			name:    "invalid include",
			opts:    Options{Include: `(`},
			wantErr: true,
		},
		{
			name:    "invalid exclude",
			opts:    Options{Exclude: `[`},
			wantErr: true,
		},
	}

	s := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mods, err := s.Scan(staticTable(routes...), tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Scan() error = nil, want invalid pattern error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Scan() error = %v", err)
			}
			got := moduleIDs(mods)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("IDs = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScanDeterministic(t *testing.T) {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/users/{user_id}", Describe(
		http.HandlerFunc(noopHandler),
		WithFunc(echo), WithGroup("users"), WithName("get_user"),
	))
	r.Method(http.MethodPost, "/users", Describe(
		http.HandlerFunc(noopHandler),
		WithFunc(echo), WithGroup("users"), WithName("create_user"),
	))
	r.Method(http.MethodGet, "/orders/{order_id:int}", Describe(
		http.HandlerFunc(noopHandler),
		WithFunc(echo), WithGroup("orders"), WithName("get_order"),
	))

	s := New()
	table := ChiTable(r)

	first, err := s.Scan(table, Options{})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	second, err := s.Scan(table, Options{})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("two scans over an unchanged router differ")
	}

	want := []string{"orders.get_order.get", "users.get_user.get", "users.create_user.post"}
	got := moduleIDs(first)
	// Sorted by (pattern, method): /orders before /users/{user_id},
	// and within /users POST coming from its own pattern.
	if len(got) != len(want) {
		t.Fatalf("IDs = %v, want %d modules", got, len(want))
	}
	if got[0] != "orders.get_order.get" {
		t.Errorf("first ID = %q, want orders.get_order.get (sorted order)", got[0])
	}
}

func TestScanCustomPredicate(t *testing.T) {
	s := New()

	table := staticTable(
		describedRoute("GET", "/keep", WithName("keep")),
		describedRoute("GET", "/drop", WithName("drop")),
	)

	only := func(r Route, d *Described) (bool, string) {
		if r.Pattern == "/drop" {
			return false, "test policy"
		}
		return true, ""
	}

	mods, err := s.Scan(table, Options{Predicate: only})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(mods) != 1 || mods[0].ModuleID != "keep.get" {
		t.Errorf("IDs = %v, want [keep.get]", moduleIDs(mods))
	}
}

func TestBindingsCarryFunctions(t *testing.T) {
	s := New()

	table := staticTable(
		describedRoute("GET", "/echo", WithFunc(echo), WithName("echo")),
		Route{Method: "GET", Pattern: "/bare", Handler: http.HandlerFunc(noopHandler)},
	)

	bindings, err := s.Bindings(table, Options{})
	if err != nil {
		t.Fatalf("Bindings() error = %v", err)
	}
	if len(bindings) != 2 {
		t.Fatalf("len = %d, want 2", len(bindings))
	}

	byID := map[string]Binding{}
	for _, b := range bindings {
		byID[b.Module.ModuleID] = b
	}
	if byID["echo.get"].Fn == nil {
		t.Error("described binding lost its typed function")
	}
	if byID["noopHandler.get"].Fn != nil {
		t.Error("bare binding invented a typed function")
	}
}

func moduleIDs(mods []module.Module) []string {
	ids := make([]string, len(mods))
	for i, m := range mods {
		ids[i] = m.ModuleID
	}
	return ids
}
