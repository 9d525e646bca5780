package schema

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/apcore-dev/modbridge/pkg/jsonschema"
	gsjs "github.com/reoring/goskema/jsonschema"
)

// ModelBackend converts types that carry their own schema export (the
// Exporter contract) into JSON Schemas. It is the highest-priority
// backend: a handler whose parameter or return type can describe itself
// is more authoritative than anything reflection can reconstruct.
type ModelBackend struct{}

// Ensure ModelBackend implements Backend at compile time.
var _ Backend = ModelBackend{}

// Name returns the backend identifier.
func (ModelBackend) Name() string { return "model" }

// CanHandleInput reports whether any parameter type is a self-describing
// model, directly or behind a pointer or slice wrapper.
func (ModelBackend) CanHandleInput(fn reflect.Type, _ SideChannel) bool {
	for _, in := range inputParams(fn) {
		if modelOf(in) != nil {
			return true
		}
	}
	return false
}

// InferInput unions the schemas of all model-typed parameters.
// Properties are merged last-write-wins in parameter order and required
// lists are concatenated; overlapping property names between models are
// undefined behavior, not a documented tie-break.
func (b ModelBackend) InferInput(fn reflect.Type, pathParams map[string]string, _ SideChannel) (*jsonschema.Schema, []string) {
	schema := jsonschema.EmptyObject()
	var warnings []string

	for i, in := range inputParams(fn) {
		model := modelOf(in)
		if model == nil {
			continue
		}
		exported, err := exportModel(model)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("model parameter %d: schema export failed: %v", i, err))
			continue
		}
		converted, ws := jsonschema.FromGoskema(exported)
		warnings = append(warnings, ws...)
		for _, name := range sortedPropertyNames(converted) {
			schema.SetProperty(name, converted.Properties[name])
		}
		schema.Required = append(schema.Required, converted.Required...)
	}

	mergePathParams(schema, pathParams)
	return schema, warnings
}

// CanHandleOutput reports whether the return type is a self-describing
// model, directly or behind a pointer or slice wrapper.
func (ModelBackend) CanHandleOutput(fn reflect.Type, _ SideChannel) bool {
	return modelOf(outputType(fn)) != nil
}

// InferOutput exports the return model's schema. A slice-of-model return
// is wrapped in an array schema.
func (b ModelBackend) InferOutput(fn reflect.Type, _ SideChannel) (*jsonschema.Schema, []string) {
	out := outputType(fn)
	model := modelOf(out)
	if model == nil {
		return jsonschema.Permissive(), []string{"return type has no exportable model schema"}
	}

	exported, err := exportModel(model)
	if err != nil {
		return jsonschema.Permissive(), []string{fmt.Sprintf("return model schema export failed: %v", err)}
	}
	converted, warnings := jsonschema.FromGoskema(exported)

	if out.Kind() == reflect.Slice {
		return &jsonschema.Schema{Type: "array", Items: converted}, warnings
	}
	return converted, warnings
}

// modelOf returns the Exporter-implementing type reachable from t:
// t itself, *t, the element of a pointer, or the element of a slice.
// Returns nil when no model is reachable.
func modelOf(t reflect.Type) reflect.Type {
	if t == nil {
		return nil
	}
	if isModel(t) {
		return t
	}
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice:
		elem := t.Elem()
		if isModel(elem) {
			return elem
		}
		if elem.Kind() != reflect.Pointer && isModel(reflect.PointerTo(elem)) {
			return reflect.PointerTo(elem)
		}
	}
	return nil
}

func isModel(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if t.Implements(exporterType) {
		return true
	}
	// Methods declared on the pointer receiver still describe the
	// value type.
	return t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(exporterType)
}

// exportModel invokes JSONSchema() on a zero value of the model type.
func exportModel(t reflect.Type) (*gsjs.Schema, error) {
	var v reflect.Value
	if t.Kind() == reflect.Pointer {
		v = reflect.New(t.Elem())
	} else {
		v = reflect.Zero(t)
		if !t.Implements(exporterType) {
			v = reflect.New(t)
		}
	}
	exporter, ok := v.Interface().(Exporter)
	if !ok {
		return nil, fmt.Errorf("type %s does not export a schema", t)
	}
	return exporter.JSONSchema()
}

func sortedPropertyNames(s *jsonschema.Schema) []string {
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
