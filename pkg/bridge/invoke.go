package bridge

import (
	"context"
	"fmt"
	"reflect"

	json "github.com/goccy/go-json"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	inputsType  = reflect.TypeOf(map[string]any(nil))
)

// Func adapts a typed function to a Handler. Supported parameters, in
// any order after an optional leading context.Context: struct values,
// pointers to structs, and map[string]any. Struct parameters are
// populated from the inputs map by field name (respecting json tags);
// a map parameter receives the raw inputs. The function may return
// (T, error), (T), (error), or nothing.
//
// Functions with scalar parameters cannot be bound by name and are
// rejected here, mirroring their exclusion from schema inference.
func Func(fn any) (Handler, error) {
	if fn == nil {
		return nil, fmt.Errorf("nil function")
	}
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, fmt.Errorf("not a function: %T", fn)
	}

	takesCtx := t.NumIn() > 0 && t.In(0) == contextType

	for i := 0; i < t.NumIn(); i++ {
		if i == 0 && takesCtx {
			continue
		}
		if !bindable(t.In(i)) {
			return nil, fmt.Errorf("parameter %d of %T is %s: only struct, *struct, and map[string]any parameters can be bound", i, fn, t.In(i))
		}
	}

	switch t.NumOut() {
	case 0, 1:
	case 2:
		if t.Out(1) != errorType {
			return nil, fmt.Errorf("second return of %T must be error, got %s", fn, t.Out(1))
		}
	default:
		return nil, fmt.Errorf("%T returns %d values, at most 2 supported", fn, t.NumOut())
	}

	return func(ctx context.Context, inputs map[string]any) (any, error) {
		args := make([]reflect.Value, 0, t.NumIn())
		for i := 0; i < t.NumIn(); i++ {
			if i == 0 && takesCtx {
				args = append(args, reflect.ValueOf(ctx))
				continue
			}
			arg, err := bindArg(t.In(i), inputs)
			if err != nil {
				return nil, fmt.Errorf("binding parameter %d: %w", i, err)
			}
			args = append(args, arg)
		}

		rets := v.Call(args)
		return splitReturns(t, rets)
	}, nil
}

// MustFunc is Func for statically known signatures; it panics on a
// signature Func would reject.
func MustFunc(fn any) Handler {
	h, err := Func(fn)
	if err != nil {
		panic(err)
	}
	return h
}

func bindable(t reflect.Type) bool {
	if t == inputsType {
		return true
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

// bindArg builds one argument value from the inputs map via a JSON
// round trip, so field matching follows the same json tags the schema
// backends read.
func bindArg(t reflect.Type, inputs map[string]any) (reflect.Value, error) {
	if t == inputsType {
		return reflect.ValueOf(inputs), nil
	}

	data, err := json.Marshal(inputs)
	if err != nil {
		return reflect.Value{}, err
	}

	ptr := t.Kind() == reflect.Pointer
	if ptr {
		t = t.Elem()
	}
	out := reflect.New(t)
	if err := json.Unmarshal(data, out.Interface()); err != nil {
		return reflect.Value{}, err
	}
	if ptr {
		return out, nil
	}
	return out.Elem(), nil
}

func splitReturns(t reflect.Type, rets []reflect.Value) (any, error) {
	switch t.NumOut() {
	case 0:
		return nil, nil
	case 1:
		if t.Out(0) == errorType {
			return nil, asError(rets[0])
		}
		return rets[0].Interface(), nil
	default:
		return rets[0].Interface(), asError(rets[1])
	}
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	return v.Interface().(error)
}
