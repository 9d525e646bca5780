package schema

import (
	"reflect"
	"sort"

	"github.com/apcore-dev/modbridge/pkg/debug"
	"github.com/apcore-dev/modbridge/pkg/jsonschema"
)

// paramTypeSchemas maps path parameter type shorthands to JSON Schema
// primitives. Unrecognized shorthands fall back to string.
var paramTypeSchemas = map[string]*jsonschema.Schema{
	"int":    {Type: "integer"},
	"float":  {Type: "number"},
	"string": {Type: "string"},
	"uuid":   {Type: "string", Format: "uuid"},
	"path":   {Type: "string"},
}

// ParamSchema returns the JSON Schema for a path parameter type
// shorthand ("int", "float", "uuid", "path", "string").
func ParamSchema(paramType string) *jsonschema.Schema {
	if s, ok := paramTypeSchemas[paramType]; ok {
		return s.Clone()
	}
	return jsonschema.String()
}

// Dispatcher routes schema inference to the first backend whose
// capability probe answers true, in fixed specificity order. The backend
// list is assembled at construction time; there is no runtime plugin
// mechanism.
type Dispatcher struct {
	backends []Backend
}

// NewDispatcher creates a Dispatcher with the standard backend chain:
// model, declarative, type hints.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		backends: []Backend{
			ModelBackend{},
			DeclarativeBackend{},
			TypeHintsBackend{},
		},
	}
}

// InferInput produces the input schema for a handler. Path parameters
// are merged into the result as required properties after the winning
// backend runs; on name collisions the path parameter wins, since it is
// guaranteed present at call time. When no backend matches, the result
// degrades to an empty object schema (plus path parameters) and a
// warning is recorded.
func (d *Dispatcher) InferInput(fn reflect.Type, pathParams map[string]string, sc SideChannel) (*jsonschema.Schema, []string) {
	for _, b := range d.backends {
		if b.CanHandleInput(fn, sc) {
			debug.Log("schema", "input schema inference", "backend", b.Name())
			return b.InferInput(fn, pathParams, sc)
		}
	}

	debug.Log("schema", "input schema fallback, no backend matched")
	schema := jsonschema.EmptyObject()
	mergePathParams(schema, pathParams)
	return schema, []string{"no schema backend matched handler input, using empty schema"}
}

// InferOutput produces the output schema for a handler, degrading to a
// permissive object schema when no backend matches.
func (d *Dispatcher) InferOutput(fn reflect.Type, sc SideChannel) (*jsonschema.Schema, []string) {
	for _, b := range d.backends {
		if b.CanHandleOutput(fn, sc) {
			debug.Log("schema", "output schema inference", "backend", b.Name())
			return b.InferOutput(fn, sc)
		}
	}
	debug.Log("schema", "output schema fallback, no backend matched")
	return jsonschema.Permissive(), nil
}

// mergePathParams adds path parameters as required properties. Merge
// order is sorted by name so that scan output is deterministic; a path
// parameter overwrites any same-named property a backend inferred.
func mergePathParams(schema *jsonschema.Schema, pathParams map[string]string) {
	if len(pathParams) == 0 {
		return
	}
	names := make([]string, 0, len(pathParams))
	for name := range pathParams {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		schema.SetProperty(name, ParamSchema(pathParams[name]))
		schema.Require(name)
	}
}
