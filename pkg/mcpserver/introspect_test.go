package mcpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

func newIntrospectionServer(t *testing.T) *Server {
	t.Helper()
	reg := newTestRegistry(t)
	noop := func(ctx context.Context, inputs map[string]any) (any, error) { return nil, nil }
	reg.Register(testModule("users.list_users.get", "GET"), noop)
	reg.Register(testModule("users.delete_user.delete", "DELETE"), noop)

	srv, err := NewServer(reg, WithMetrics(false, ""))
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return srv
}

func TestIntrospectionModuleList(t *testing.T) {
	srv := newIntrospectionServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/modules", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var mods []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &mods); err != nil {
		t.Fatalf("decoding module list: %v", err)
	}
	if len(mods) != 2 {
		t.Fatalf("len(modules) = %d, want 2", len(mods))
	}
	// Registration order is preserved.
	if mods[0]["module_id"] != "users.list_users.get" {
		t.Errorf("modules[0].module_id = %v, want users.list_users.get", mods[0]["module_id"])
	}
	if mods[1]["module_id"] != "users.delete_user.delete" {
		t.Errorf("modules[1].module_id = %v, want users.delete_user.delete", mods[1]["module_id"])
	}
}

func TestIntrospectionSingleModule(t *testing.T) {
	srv := newIntrospectionServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/modules/users.list_users.get", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decoding module: %v", err)
	}
	if m["module_id"] != "users.list_users.get" {
		t.Errorf("module_id = %v, want users.list_users.get", m["module_id"])
	}
	ann, ok := m["annotations"].(map[string]any)
	if !ok {
		t.Fatalf("annotations = %v, want object", m["annotations"])
	}
	if ann["readonly"] != true {
		t.Errorf("annotations.readonly = %v, want true", ann["readonly"])
	}
	if _, ok := m["input_schema"].(map[string]any); !ok {
		t.Errorf("input_schema = %v, want object", m["input_schema"])
	}
}

func TestIntrospectionUnknownModule(t *testing.T) {
	srv := newIntrospectionServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/modules/nope.get", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if !strings.Contains(body["error"], "nope.get") {
		t.Errorf("error = %q, want the unknown module id named", body["error"])
	}
}

func TestIntrospectionOpenAPI(t *testing.T) {
	srv := newIntrospectionServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/openapi.json", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var doc map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decoding openapi document: %v", err)
	}
	if v, _ := doc["openapi"].(string); !strings.HasPrefix(v, "3.1") {
		t.Errorf("openapi = %v, want 3.1.x", doc["openapi"])
	}
	paths, ok := doc["paths"].(map[string]any)
	if !ok {
		t.Fatalf("paths = %v, want object", doc["paths"])
	}
	if _, ok := paths["/users.list_users.get"]; !ok {
		t.Errorf("paths missing /users.list_users.get, got %v", paths)
	}
}
