package schema

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/apcore-dev/modbridge/pkg/jsonschema"
	"github.com/google/uuid"
)

// TypeHintsBackend reconstructs schemas from the handler's reflected
// signature alone. It is the lowest-priority backend, used when no
// model type and no declarative schema are available.
//
// Parameters must be struct-shaped (or pointers to structs) for their
// fields to become schema properties; Go reflection cannot recover
// scalar parameter names, so scalar parameters are skipped with a
// warning. Path parameters, which carry their names in the route
// pattern, cover that gap.
type TypeHintsBackend struct{}

// Ensure TypeHintsBackend implements Backend at compile time.
var _ Backend = TypeHintsBackend{}

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
)

// Name returns the backend identifier.
func (TypeHintsBackend) Name() string { return "typehints" }

// CanHandleInput reports whether the handler has any parameter beyond
// context.Context.
func (TypeHintsBackend) CanHandleInput(fn reflect.Type, _ SideChannel) bool {
	return len(inputParams(fn)) > 0
}

// InferInput converts struct-shaped parameters to object properties.
// Pointer fields and fields tagged omitempty are optional; everything
// else is required.
func (b TypeHintsBackend) InferInput(fn reflect.Type, pathParams map[string]string, _ SideChannel) (*jsonschema.Schema, []string) {
	schema := jsonschema.EmptyObject()
	var warnings []string

	for i, in := range inputParams(fn) {
		t := in
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct || t == timeType || t == uuidType {
			warnings = append(warnings, fmt.Sprintf("parameter %d (%s) has no recoverable name, skipped", i, in))
			continue
		}
		b.structFields(t, schema, &warnings)
	}

	mergePathParams(schema, pathParams)
	return schema, warnings
}

// CanHandleOutput reports whether the handler returns a value beyond error.
func (TypeHintsBackend) CanHandleOutput(fn reflect.Type, _ SideChannel) bool {
	return outputType(fn) != nil
}

// InferOutput converts the handler's return type to a schema.
func (b TypeHintsBackend) InferOutput(fn reflect.Type, _ SideChannel) (*jsonschema.Schema, []string) {
	var warnings []string
	schema := b.typeToSchema(outputType(fn), &warnings)
	return schema, warnings
}

// structFields adds one property per exported, serializable struct field.
func (b TypeHintsBackend) structFields(t reflect.Type, schema *jsonschema.Schema, warnings *[]string) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			b.structFields(field.Type, schema, warnings)
			continue
		}

		name, omitempty := jsonFieldName(field)
		if name == "" {
			continue
		}

		ft := field.Type
		optional := omitempty
		if ft.Kind() == reflect.Pointer {
			optional = true
			ft = ft.Elem()
		}

		schema.SetProperty(name, b.typeToSchema(ft, warnings))
		if !optional {
			schema.Require(name)
		}
	}
}

// typeToSchema maps a single Go type to a JSON Schema. Unrecognized
// types degrade to string with a warning, never an error.
func (b TypeHintsBackend) typeToSchema(t reflect.Type, warnings *[]string) *jsonschema.Schema {
	if t == nil {
		return jsonschema.Permissive()
	}
	if t.Kind() == reflect.Pointer {
		return b.typeToSchema(t.Elem(), warnings)
	}

	switch t {
	case timeType:
		return jsonschema.StringFormat("date-time")
	case uuidType:
		return jsonschema.StringFormat("uuid")
	}

	switch t.Kind() {
	case reflect.String:
		return jsonschema.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return jsonschema.Integer()
	case reflect.Float32, reflect.Float64:
		return jsonschema.Number()
	case reflect.Bool:
		return jsonschema.Boolean()
	case reflect.Slice, reflect.Array:
		items := b.typeToSchema(t.Elem(), warnings)
		return &jsonschema.Schema{Type: "array", Items: items}
	case reflect.Map:
		return &jsonschema.Schema{Type: "object"}
	case reflect.Struct:
		nested := jsonschema.EmptyObject()
		b.structFields(t, nested, warnings)
		return nested
	case reflect.Interface:
		// interface{} says nothing; accept anything.
		return jsonschema.Permissive()
	default:
		*warnings = append(*warnings, fmt.Sprintf("unrecognized type %s, defaulting to string", t))
		return jsonschema.String()
	}
}

// jsonFieldName resolves the wire name of a struct field from its json
// tag, falling back to the Go field name. Returns "" for fields tagged
// json:"-".
func jsonFieldName(field reflect.StructField) (name string, omitempty bool) {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name, false
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "-" && len(parts) == 1 {
		return "", false
	}
	if name == "" || name == "-" {
		name = field.Name
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitempty = true
		}
	}
	return name, omitempty
}
