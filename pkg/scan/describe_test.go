package scan

import (
	"net/http"
	"strings"
	"testing"
)

func namedHandler(w http.ResponseWriter, r *http.Request) {}

func TestFuncTarget(t *testing.T) {
	pkgPath, name := funcTarget(namedHandler)
	if !strings.HasSuffix(pkgPath, "/pkg/scan") {
		t.Errorf("pkgPath = %q, want .../pkg/scan", pkgPath)
	}
	if name != "namedHandler" {
		t.Errorf("name = %q, want namedHandler", name)
	}
}

func TestFuncTargetMethodValue(t *testing.T) {
	var d Described
	_, name := funcTarget(d.ServeHTTP)
	if !strings.Contains(name, "ServeHTTP") {
		t.Errorf("name = %q, want method name without -fm suffix", name)
	}
	if strings.HasSuffix(name, "-fm") {
		t.Errorf("name = %q, -fm suffix not stripped", name)
	}
}

func TestFuncTargetNonFunc(t *testing.T) {
	if pkg, name := funcTarget(42); pkg != "" || name != "" {
		t.Errorf("funcTarget(42) = (%q, %q), want empty", pkg, name)
	}
	if pkg, name := funcTarget(nil); pkg != "" || name != "" {
		t.Errorf("funcTarget(nil) = (%q, %q), want empty", pkg, name)
	}
}

func TestDescribeOptions(t *testing.T) {
	h := http.HandlerFunc(namedHandler)
	d := Describe(h,
		WithFunc(namedHandler),
		WithDoc("doc"),
		WithGroup("g"),
		WithName("n"),
		AsView(),
		WithMetadata(map[string]any{"k": "v"}),
	)

	if d.fn == nil || d.doc != "doc" || d.group != "g" || d.name != "n" || !d.view {
		t.Errorf("Described = %+v, options not applied", d)
	}
	if d.meta["k"] != "v" {
		t.Errorf("meta = %v, want k=v", d.meta)
	}
}

func TestDescribedServesUnderlyingHandler(t *testing.T) {
	called := false
	d := Describe(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	d.ServeHTTP(nil, nil)
	if !called {
		t.Error("wrapped handler not invoked")
	}
}
