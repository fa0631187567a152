package remigo

import "reflect"

// Target identifies the remote interface a proxy must satisfy: the declared
// struct-of-funcs prototype, the client's logical name, and the base URL the
// generated methods call. Targets are plain values, read-only once handed to
// a builder.
type Target struct {
	// Type is the declared prototype: a struct type whose exported func
	// fields describe the remote service's operations.
	Type reflect.Type

	// Name is the logical client name. Builders use it to label breakers,
	// limiters and log lines.
	Name string

	// BaseURL is the remote service's base address.
	BaseURL string
}

// NewTarget describes the remote service declared by struct type T.
func NewTarget[T any](name, baseURL string) Target {
	return Target{
		Type:    reflect.TypeOf((*T)(nil)).Elem(),
		Name:    name,
		BaseURL: baseURL,
	}
}

// ProxyType returns the type builders produce for this target: a pointer to
// the declared prototype struct. Fallback instances must be assignable to it.
func (t Target) ProxyType() reflect.Type {
	if t.Type == nil {
		return nil
	}
	return reflect.PointerTo(t.Type)
}

// TypeOf returns the declared type *T without needing an instance. Use it to
// fill ClientInfo.Fallback and ClientInfo.FallbackFactory.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil))
}
