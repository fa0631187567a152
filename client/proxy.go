package client

import (
	"context"
	"fmt"
	"reflect"
	"unicode"
	"unicode/utf8"

	"github.com/prilive-com/remigo"
)

var (
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

// methodSpec describes one proxied method derived from a func field of the
// declared target struct.
type methodSpec struct {
	field      string       // struct field name
	name       string       // wire method name (remigo tag, else lowerCamel field name)
	index      int          // field index in the target struct
	hasPayload bool         // true when the func takes a request payload
	result     reflect.Type // declared result type, nil for error-only funcs
	fnType     reflect.Type
}

// invokeFunc dispatches one proxied call. args are the original call
// arguments, args[0] being the context.
type invokeFunc func(ctx context.Context, spec *methodSpec, args []reflect.Value) (reflect.Value, error)

func validateTarget(target remigo.Target) error {
	if target.Type == nil || target.Type.Kind() != reflect.Struct {
		return fmt.Errorf("%w: type must be a struct of func fields, got %v", ErrInvalidTarget, target.Type)
	}
	if target.Name == "" {
		return fmt.Errorf("%w: empty client name", ErrInvalidTarget)
	}
	if target.BaseURL == "" {
		return fmt.Errorf("%w: empty base URL for client %q", ErrInvalidTarget, target.Name)
	}
	return nil
}

// buildProxy returns a new pointer to the target struct with every exported
// func field filled with an invoke-backed implementation.
func buildProxy(target remigo.Target, invoke invokeFunc) (any, error) {
	t := target.Type
	pv := reflect.New(t)
	sv := pv.Elem()

	methods := 0
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Type.Kind() != reflect.Func {
			continue
		}
		spec, err := parseMethod(target, f, i)
		if err != nil {
			return nil, err
		}
		sv.Field(i).Set(makeMethod(spec, invoke))
		methods++
	}

	if methods == 0 {
		return nil, fmt.Errorf("%w: %s declares no func fields", ErrInvalidTarget, t)
	}
	return pv.Interface(), nil
}

// parseMethod validates a func field's signature. Accepted shapes:
//
//	func(ctx context.Context) error
//	func(ctx context.Context) (T, error)
//	func(ctx context.Context, req R) error
//	func(ctx context.Context, req R) (T, error)
func parseMethod(target remigo.Target, f reflect.StructField, index int) (*methodSpec, error) {
	ft := f.Type
	if ft.IsVariadic() {
		return nil, fmt.Errorf("%w: %s.%s must not be variadic", ErrInvalidTarget, target.Type, f.Name)
	}
	if ft.NumIn() < 1 || ft.NumIn() > 2 || ft.In(0) != ctxType {
		return nil, fmt.Errorf("%w: %s.%s must take (context.Context) or (context.Context, request)",
			ErrInvalidTarget, target.Type, f.Name)
	}
	if ft.NumOut() < 1 || ft.NumOut() > 2 || ft.Out(ft.NumOut()-1) != errType {
		return nil, fmt.Errorf("%w: %s.%s must return error or (result, error)",
			ErrInvalidTarget, target.Type, f.Name)
	}

	spec := &methodSpec{
		field:      f.Name,
		name:       f.Tag.Get("remigo"),
		index:      index,
		hasPayload: ft.NumIn() == 2,
		fnType:     ft,
	}
	if spec.name == "" {
		spec.name = lowerCamel(f.Name)
	}
	if ft.NumOut() == 2 {
		spec.result = ft.Out(0)
	}
	return spec, nil
}

func makeMethod(spec *methodSpec, invoke invokeFunc) reflect.Value {
	return reflect.MakeFunc(spec.fnType, func(args []reflect.Value) []reflect.Value {
		ctx, _ := args[0].Interface().(context.Context)
		if ctx == nil {
			ctx = context.Background()
		}
		rv, err := invoke(ctx, spec, args)
		return spec.results(rv, err)
	})
}

// results assembles the reflect return values for one call.
func (m *methodSpec) results(rv reflect.Value, err error) []reflect.Value {
	ev := reflect.Zero(errType)
	if err != nil {
		ev = reflect.ValueOf(&err).Elem()
	}
	if m.result == nil {
		return []reflect.Value{ev}
	}
	if !rv.IsValid() {
		rv = reflect.Zero(m.result)
	}
	return []reflect.Value{rv, ev}
}

// splitResults is the inverse of results, for dispatching a call to a
// fallback instance's func field.
func (m *methodSpec) splitResults(out []reflect.Value) (reflect.Value, error) {
	var err error
	if e := out[len(out)-1]; !e.IsNil() {
		err = e.Interface().(error)
	}
	if m.result == nil {
		return reflect.Value{}, err
	}
	return out[0], err
}

// payloadOf extracts the request payload from the original call arguments.
func payloadOf(spec *methodSpec, args []reflect.Value) any {
	if spec.hasPayload {
		return args[1].Interface()
	}
	return struct{}{}
}

func lowerCamel(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToLower(r)) + name[size:]
}
