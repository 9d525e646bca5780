// Package schema infers JSON Schemas for handler functions that were
// never written with a schema in mind. Inference runs through a fixed,
// priority-ordered list of backends; each backend answers a capability
// probe before it is asked to produce a schema, and the first backend
// that can handle a handler wins.
//
// Backend priority, most to least specific:
//
//  1. ModelBackend: a parameter or return type carries its own schema
//     export (the goskema JSONSchema() contract).
//  2. DeclarativeBackend: the side channel supplies a pre-bound
//     declarative schema.
//  3. TypeHintsBackend: the handler's reflected signature carries
//     usable type information.
//
// When no backend matches, the dispatcher degrades to permissive
// object schemas and records a warning; inference never fails a scan.
package schema

import (
	"context"
	"reflect"

	"github.com/apcore-dev/modbridge/pkg/jsonschema"
	gsjs "github.com/reoring/goskema/jsonschema"
)

// Exporter is implemented by types that can project themselves into a
// JSON Schema. goskema schemas satisfy it natively; applications can
// implement it on their own request/response models.
type Exporter interface {
	JSONSchema() (*gsjs.Schema, error)
}

// SideChannel carries schema metadata that is not recoverable from the
// handler's signature, typically bound to the route by the host
// application (the analog of framework decorators).
type SideChannel struct {
	// Input is a declarative schema for the handler's input payload.
	Input Exporter

	// Output is a declarative schema for the handler's output payload.
	Output Exporter
}

// Backend is one schema inference strategy. CanHandle probes are
// capability checks, not errors: a backend whose preconditions are not
// met simply reports false.
//
// Infer methods return the schema plus any non-fatal warnings collected
// during conversion.
type Backend interface {
	Name() string

	CanHandleInput(fn reflect.Type, sc SideChannel) bool
	InferInput(fn reflect.Type, pathParams map[string]string, sc SideChannel) (*jsonschema.Schema, []string)

	CanHandleOutput(fn reflect.Type, sc SideChannel) bool
	InferOutput(fn reflect.Type, sc SideChannel) (*jsonschema.Schema, []string)
}

var (
	exporterType = reflect.TypeOf((*Exporter)(nil)).Elem()
	contextType  = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
)

// inputParams returns the handler's parameter types, excluding
// context.Context. Returns nil when fn is not a function type.
func inputParams(fn reflect.Type) []reflect.Type {
	if fn == nil || fn.Kind() != reflect.Func {
		return nil
	}
	var params []reflect.Type
	for i := 0; i < fn.NumIn(); i++ {
		in := fn.In(i)
		if in.Implements(contextType) {
			continue
		}
		params = append(params, in)
	}
	return params
}

// outputType returns the handler's result type, excluding a trailing
// error. Returns nil when the handler returns nothing but an error.
func outputType(fn reflect.Type) reflect.Type {
	if fn == nil || fn.Kind() != reflect.Func {
		return nil
	}
	for i := 0; i < fn.NumOut(); i++ {
		out := fn.Out(i)
		if out.Implements(errorType) && out.Kind() == reflect.Interface {
			continue
		}
		return out
	}
	return nil
}
