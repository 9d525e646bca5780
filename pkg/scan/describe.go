// Package scan discovers the routes of a host chi application and turns
// each one into a module record: a stable identifier, inferred input and
// output JSON Schemas, behavioral annotations, and a resolvable target
// reference. A scan pass always completes; per-route problems degrade to
// warnings on the emitted record instead of aborting the pass.
package scan

import (
	"net/http"
	"reflect"
	"runtime"
	"strings"

	"github.com/apcore-dev/modbridge/pkg/schema"
)

// Described wraps an http.Handler with the introspection metadata the
// scanner needs: the typed function behind the handler, documentation
// text, a grouping name, and optional declarative schemas. Handlers
// registered without Describe still scan, but with degraded schemas.
type Described struct {
	handler http.Handler

	fn    any
	doc   string
	group string
	name  string
	view  bool
	meta  map[string]any
	side  schema.SideChannel
}

// Ensure Described can be mounted anywhere an http.Handler is expected.
var _ http.Handler = (*Described)(nil)

// Describe wraps a handler with scanning metadata.
func Describe(h http.Handler, opts ...Option) *Described {
	d := &Described{handler: h}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ServeHTTP delegates to the wrapped handler.
func (d *Described) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.handler.ServeHTTP(w, r)
}

// Option configures a Described handler.
type Option func(*Described)

// WithFunc attaches the typed function behind the handler, the source
// of signature-based schema inference. The function's parameter and
// return types are inspected; it is never called during scanning.
func WithFunc(fn any) Option {
	return func(d *Described) { d.fn = fn }
}

// WithDoc attaches documentation text. The first line becomes the
// module's description; the full text becomes its documentation.
func WithDoc(doc string) Option {
	return func(d *Described) { d.doc = doc }
}

// WithGroup assigns the route to a named group, the first segment of
// the derived module identifier (analogous to a sub-application name).
func WithGroup(group string) Option {
	return func(d *Described) { d.group = group }
}

// WithName overrides the handler name used in the module identifier.
func WithName(name string) Option {
	return func(d *Described) { d.name = name }
}

// WithInputSchema binds a declarative input schema to the route.
func WithInputSchema(s schema.Exporter) Option {
	return func(d *Described) { d.side.Input = s }
}

// WithOutputSchema binds a declarative output schema to the route.
func WithOutputSchema(s schema.Exporter) Option {
	return func(d *Described) { d.side.Output = s }
}

// AsView marks the handler as rendering an HTML view rather than
// returning structured data. The default API-route heuristic excludes
// such routes from scanning.
func AsView() Option {
	return func(d *Described) { d.view = true }
}

// WithMetadata attaches caller-supplied provenance metadata. Reserved
// keys (verb, route_pattern, source) are overwritten by the scanner.
func WithMetadata(meta map[string]any) Option {
	return func(d *Described) { d.meta = meta }
}

// describedOf unwraps the Described descriptor from a handler, if any.
func describedOf(h http.Handler) *Described {
	if d, ok := h.(*Described); ok {
		return d
	}
	return nil
}

// funcTarget resolves a function value to its runtime name, split into
// package path and bare function name. Returns ("", "") when the value
// is not a func.
func funcTarget(fn any) (pkgPath, name string) {
	if fn == nil {
		return "", ""
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return "", ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return "", ""
	}
	full := strings.TrimSuffix(f.Name(), "-fm")

	// The package path is everything up to the first dot after the
	// last slash; the function name is the rest.
	slash := strings.LastIndex(full, "/")
	dot := strings.Index(full[slash+1:], ".")
	if dot < 0 {
		return "", full
	}
	dot += slash + 1
	return full[:dot], full[dot+1:]
}
