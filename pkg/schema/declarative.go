package schema

import (
	"fmt"
	"reflect"

	"github.com/apcore-dev/modbridge/pkg/jsonschema"
)

// DeclarativeBackend converts schemas bound to a route through the side
// channel, the analog of framework decorators that attach a validation
// schema to a handler. The handler's own signature is ignored: whoever
// populated the side channel already knows the payload shape.
type DeclarativeBackend struct{}

// Ensure DeclarativeBackend implements Backend at compile time.
var _ Backend = DeclarativeBackend{}

// Name returns the backend identifier.
func (DeclarativeBackend) Name() string { return "declarative" }

// CanHandleInput reports whether the side channel carries an input schema.
func (DeclarativeBackend) CanHandleInput(_ reflect.Type, sc SideChannel) bool {
	return sc.Input != nil
}

// InferInput converts the side channel's input schema field-by-field.
// Unconvertible field types degrade to string schemas with a warning.
func (DeclarativeBackend) InferInput(_ reflect.Type, pathParams map[string]string, sc SideChannel) (*jsonschema.Schema, []string) {
	exported, err := sc.Input.JSONSchema()
	if err != nil {
		schema := jsonschema.EmptyObject()
		mergePathParams(schema, pathParams)
		return schema, []string{fmt.Sprintf("declarative input schema export failed: %v", err)}
	}
	schema, warnings := jsonschema.FromGoskema(exported)
	if schema.Type != "object" {
		warnings = append(warnings, fmt.Sprintf("declarative input schema is %q, expected object", schema.Type))
		schema = jsonschema.EmptyObject()
	}
	mergePathParams(schema, pathParams)
	return schema, warnings
}

// CanHandleOutput reports whether the side channel carries an output schema.
func (DeclarativeBackend) CanHandleOutput(_ reflect.Type, sc SideChannel) bool {
	return sc.Output != nil
}

// InferOutput converts the side channel's output schema.
func (DeclarativeBackend) InferOutput(_ reflect.Type, sc SideChannel) (*jsonschema.Schema, []string) {
	exported, err := sc.Output.JSONSchema()
	if err != nil {
		return jsonschema.Permissive(), []string{fmt.Sprintf("declarative output schema export failed: %v", err)}
	}
	return jsonschema.FromGoskema(exported)
}
