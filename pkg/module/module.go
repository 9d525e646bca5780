// Package module defines the Module record produced by route scanning:
// an immutable, schema-carrying description of one discovered handler,
// ready for registration and for serving as a remotely callable tool.
//
// Records are constructed once per scan pass by pkg/scan and never
// mutated afterward; downstream consumers only read them.
package module

import "github.com/apcore-dev/modbridge/pkg/jsonschema"

// DefaultVersion is the baseline version assigned to scanned modules
// when no explicit version is available.
const DefaultVersion = "1.0.0"

// Reserved metadata keys owned by the scanner. Caller-supplied metadata
// must never overwrite these; the scanner writes them last.
const (
	MetaVerb         = "verb"
	MetaRoutePattern = "route_pattern"
	MetaSource       = "source"
)

// Module describes one discovered handler. InputSchema and OutputSchema
// are never nil: when inference yields nothing usable they hold the
// permissive fallback schemas from pkg/jsonschema.
type Module struct {
	// ModuleID is unique within one scan pass, derived from
	// group + handler name + verb (e.g. "users.get_user.get").
	ModuleID string

	// Description is the first line of the handler's documentation,
	// or an auto-generated "VERB /pattern" summary.
	Description string

	// Documentation is the handler's full documentation text, empty
	// when none was available.
	Documentation string

	// InputSchema is the inferred JSON Schema for the module's input.
	// Always an object schema, possibly with zero properties.
	InputSchema *jsonschema.Schema

	// OutputSchema is the inferred JSON Schema for the module's output.
	OutputSchema *jsonschema.Schema

	// Annotations holds behavioral hints inferred from the verb.
	// Nil means "unknown" (inference never attempted), which is not
	// the same as all-false.
	Annotations *Annotations

	// Tags group modules by provenance (typically the route group name).
	// Order-preserving; uniqueness is not enforced.
	Tags []string

	// Target is an opaque handler reference in
	// "<package-path>:<func-name>" form, resolvable by an external
	// loader.
	Target string

	// Verb is the HTTP method that produced this record.
	Verb string

	// RoutePattern is the raw route pattern including path parameter
	// placeholders.
	RoutePattern string

	// Version defaults to DefaultVersion.
	Version string

	// Metadata carries free-form provenance. The scanner guarantees
	// the reserved keys always reflect scanner-owned values.
	Metadata map[string]any

	// Warnings lists non-fatal issues found during inference. Warnings
	// never cause a record to be dropped.
	Warnings []string
}
