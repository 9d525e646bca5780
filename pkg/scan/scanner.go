package scan

import (
	"fmt"
	"log/slog"
	"reflect"
	"regexp"
	"strings"

	"github.com/apcore-dev/modbridge/pkg/debug"
	"github.com/apcore-dev/modbridge/pkg/module"
	"github.com/apcore-dev/modbridge/pkg/schema"
)

// SourceName identifies this scanner in module metadata.
const SourceName = "chi"

// moduleIDSanitizer matches every character a module identifier may not
// contain.
var moduleIDSanitizer = regexp.MustCompile(`[^A-Za-z0-9_.]`)

// Options configure one scan pass.
type Options struct {
	// Include keeps only modules whose ID matches this regex.
	Include string

	// Exclude drops modules whose ID matches this regex. Applied
	// after Include.
	Exclude string

	// Predicate overrides the API-route heuristic. Nil means
	// DefaultPredicate.
	Predicate Predicate
}

// Scanner walks a route table and assembles module records. A Scanner
// is stateless between passes; a single pass is one atomic unit and is
// not safe to run concurrently with itself.
type Scanner struct {
	dispatcher *schema.Dispatcher
}

// New creates a Scanner with the standard schema backend chain.
func New() *Scanner {
	return &Scanner{dispatcher: schema.NewDispatcher()}
}

// Binding pairs a module record with the typed function (when the
// route was registered through Describe) needed to execute it.
type Binding struct {
	Module module.Module

	// Fn is the described typed function, nil for plain handlers.
	Fn any
}

// Scan enumerates the table's routes and returns one module record per
// (data verb, API route) pair, in deterministic order. Routes that
// cannot be introspected still produce records, with empty schemas and
// warnings; only the static/verb/heuristic filters and the explicit
// include/exclude patterns remove routes from the output.
func (s *Scanner) Scan(t Table, opts Options) ([]module.Module, error) {
	bindings, err := s.Bindings(t, opts)
	if err != nil {
		return nil, err
	}
	mods := make([]module.Module, len(bindings))
	for i, b := range bindings {
		mods[i] = b.Module
	}
	return mods, nil
}

// Bindings is Scan plus the executable function behind each record, for
// callers that register the scanned modules for invocation.
func (s *Scanner) Bindings(t Table, opts Options) ([]Binding, error) {
	includeRE, excludeRE, err := compileFilters(opts)
	if err != nil {
		return nil, err
	}

	predicate := opts.Predicate
	if predicate == nil {
		predicate = DefaultPredicate
	}

	routes, err := t.Routes()
	if err != nil {
		return nil, fmt.Errorf("enumerating routes: %w", err)
	}

	var bindings []Binding
	for _, r := range routes {
		if !isDataVerb(r.Method) {
			continue
		}
		if isStaticRoute(r.Pattern) {
			continue
		}
		d := describedOf(r.Handler)
		if ok, reason := predicate(r, d); !ok {
			slog.Debug("route excluded by heuristic",
				"method", r.Method,
				"pattern", r.Pattern,
				"reason", reason,
			)
			continue
		}
		b := Binding{Module: s.buildModule(r, d)}
		if d != nil {
			b.Fn = d.fn
		}
		debug.Log("scan", "route scanned",
			"module", b.Module.ModuleID,
			"verb", r.Method,
			"pattern", r.Pattern,
			"described", d != nil,
		)
		bindings = append(bindings, b)
	}

	bindings = deduplicateIDs(bindings)
	return filterBindings(bindings, includeRE, excludeRE), nil
}

// buildModule assembles the record for one route.
func (s *Scanner) buildModule(r Route, d *Described) module.Module {
	var (
		fn    any
		doc   string
		group string
		side  schema.SideChannel
		meta  map[string]any
	)
	if d != nil {
		fn = d.fn
		doc = d.doc
		group = d.group
		side = d.side
		meta = d.meta
	}

	handlerName, target := resolveHandler(r, d)
	pathParams := PathParams(r.Pattern)

	var fnType reflect.Type
	var warnings []string
	if fn != nil {
		fnType = reflect.TypeOf(fn)
	} else if side.Input == nil {
		warnings = append(warnings, fmt.Sprintf("route %q %s: handler has no accessible signature", r.Method, r.Pattern))
	}

	inputSchema, ws := s.dispatcher.InferInput(fnType, pathParams, side)
	warnings = append(warnings, ws...)
	outputSchema, ws := s.dispatcher.InferOutput(fnType, side)
	warnings = append(warnings, ws...)

	if !inputSchema.HasProperties() {
		warnings = append(warnings, fmt.Sprintf("route %q %s has no type hints (input schema is empty)", r.Method, r.Pattern))
	}

	annotations := module.InferAnnotations(r.Method)

	var tags []string
	if group != "" {
		tags = []string{group}
	}

	return module.Module{
		ModuleID:      moduleID(group, handlerName, r.Method),
		Description:   description(doc, r),
		Documentation: strings.TrimSpace(doc),
		InputSchema:   inputSchema,
		OutputSchema:  outputSchema,
		Annotations:   &annotations,
		Tags:          tags,
		Target:        target,
		Verb:          r.Method,
		RoutePattern:  r.Pattern,
		Version:       module.DefaultVersion,
		Metadata:      buildMetadata(meta, r),
		Warnings:      warnings,
	}
}

// resolveHandler derives the handler's name and target reference.
// Preference order: explicit name override, the described typed
// function, the raw handler value itself.
func resolveHandler(r Route, d *Described) (name, target string) {
	var fn any
	if d != nil {
		fn = d.fn
	}
	if fn == nil {
		fn = r.Handler
		if d != nil {
			fn = d.handler
		}
	}

	pkgPath, funcName := funcTarget(fn)
	if funcName == "" {
		// Non-func handlers (struct types implementing ServeHTTP).
		t := reflect.TypeOf(fn)
		for t != nil && t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t != nil {
			pkgPath, funcName = t.PkgPath(), t.Name()
		}
	}
	if funcName == "" {
		funcName = "handler"
	}

	name = funcName
	if d != nil && d.name != "" {
		name = d.name
	}
	if pkgPath == "" {
		return name, funcName
	}
	return name, pkgPath + ":" + funcName
}

// moduleID derives "group.handler.verb" (or "handler.verb" without a
// group), lowering the verb and replacing every character outside
// [A-Za-z0-9_.] with an underscore.
func moduleID(group, handlerName, verb string) string {
	id := handlerName + "." + strings.ToLower(verb)
	if group != "" {
		id = group + "." + id
	}
	return moduleIDSanitizer.ReplaceAllString(id, "_")
}

// description returns the first documentation line, or an auto-generated
// "VERB /pattern" summary for undocumented handlers.
func description(doc string, r Route) string {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return r.Method + " " + r.Pattern
	}
	line, _, _ := strings.Cut(doc, "\n")
	return strings.TrimSpace(line)
}

// buildMetadata merges caller-supplied metadata with the scanner-owned
// reserved keys. Reserved keys always win.
func buildMetadata(callerMeta map[string]any, r Route) map[string]any {
	meta := make(map[string]any, len(callerMeta)+3)
	for k, v := range callerMeta {
		meta[k] = v
	}
	meta[module.MetaSource] = SourceName
	meta[module.MetaVerb] = r.Method
	meta[module.MetaRoutePattern] = r.Pattern
	return meta
}

// deduplicateIDs resolves module ID collisions by suffixing _2, _3, ...
// in discovery order. No record is ever dropped. Two passes: count
// occurrences first, then assign suffixes only past each first
// occurrence, so the invariant is trivially preserved.
func deduplicateIDs(bindings []Binding) []Binding {
	counts := make(map[string]int, len(bindings))
	for _, b := range bindings {
		counts[b.Module.ModuleID]++
	}

	seen := make(map[string]int, len(counts))
	for i := range bindings {
		id := bindings[i].Module.ModuleID
		seen[id]++
		if counts[id] > 1 && seen[id] > 1 {
			bindings[i].Module.ModuleID = fmt.Sprintf("%s_%d", id, seen[id])
		}
	}
	return bindings
}

// compileFilters validates the include/exclude patterns up front so an
// invalid pattern fails the scan before any work happens.
func compileFilters(opts Options) (include, exclude *regexp.Regexp, err error) {
	if opts.Include != "" {
		include, err = regexp.Compile(opts.Include)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid include pattern %q: %w", opts.Include, err)
		}
	}
	if opts.Exclude != "" {
		exclude, err = regexp.Compile(opts.Exclude)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid exclude pattern %q: %w", opts.Exclude, err)
		}
	}
	return include, exclude, nil
}

// filterBindings applies include/exclude filters against module IDs,
// using substring-search semantics.
func filterBindings(bindings []Binding, include, exclude *regexp.Regexp) []Binding {
	if include == nil && exclude == nil {
		return bindings
	}
	out := bindings[:0]
	for _, b := range bindings {
		if include != nil && !include.MatchString(b.Module.ModuleID) {
			continue
		}
		if exclude != nil && exclude.MatchString(b.Module.ModuleID) {
			continue
		}
		out = append(out, b)
	}
	return out
}
