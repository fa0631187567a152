// Package registry provides a named, typed instance registry: the in-process
// stand-in for a dependency-injection context during client wiring.
//
// Instances are registered under a (client name, declared type) pair. Lookup
// by the exact declared type returns the registered instance; looking up an
// interface type returns the first registered instance (in registration
// order) whose declared type satisfies it. Lookups are stable within one
// wiring pass.
package registry

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

var (
	// ErrEmptyName is returned when an empty client name is provided.
	ErrEmptyName = errors.New("remigo: empty client name provided")
	// ErrNilType is returned when a nil declared type is provided.
	ErrNilType = errors.New("remigo: nil declared type provided")
	// ErrNilInstance is returned when a nil instance is provided.
	ErrNilInstance = errors.New("remigo: nil instance provided")
	// ErrIncompatibleInstance indicates an instance whose runtime type is not
	// assignable to its declared registration type.
	ErrIncompatibleInstance = errors.New("remigo: instance not assignable to declared type")
	// ErrDuplicateRegistration indicates a second registration under the
	// same (name, declared type) pair.
	ErrDuplicateRegistration = errors.New("remigo: duplicate registration")
)

// Registry resolves named, typed instances. Implementations must be safe to
// call repeatedly with identical arguments and return a stable result within
// one wiring pass.
type Registry interface {
	// Lookup returns the instance registered under name with the given
	// declared type, or false when absent.
	Lookup(name string, typ reflect.Type) (any, bool)
}

// Entry is one registered (name, type, instance) triple, exposed for
// diagnostics.
type Entry struct {
	Name     string
	Type     reflect.Type
	Instance any
}

type entry struct {
	typ      reflect.Type
	instance any
}

// InMemory is a Registry backed by an in-memory map. Registrations keep
// their order per name so interface lookups are deterministic.
type InMemory struct {
	mu      sync.RWMutex
	entries map[string][]entry
}

// NewInMemory creates an empty registry.
func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[string][]entry)}
}

// Register associates instance with the (name, typ) pair. The instance's
// runtime type must be assignable to typ. Registering the same pair twice is
// an error; wiring must not silently replace instances.
func (r *InMemory) Register(name string, typ reflect.Type, instance any) error {
	if name == "" {
		return ErrEmptyName
	}
	if typ == nil {
		return ErrNilType
	}
	if instance == nil {
		return ErrNilInstance
	}
	if !reflect.TypeOf(instance).AssignableTo(typ) {
		return fmt.Errorf("%w: %T as %s", ErrIncompatibleInstance, instance, typ)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries[name] {
		if e.typ == typ {
			return fmt.Errorf("%w: %s for %q", ErrDuplicateRegistration, typ, name)
		}
	}
	r.entries[name] = append(r.entries[name], entry{typ: typ, instance: instance})
	return nil
}

// RegisterInstance registers instance under its own runtime type.
func (r *InMemory) RegisterInstance(name string, instance any) error {
	if instance == nil {
		return ErrNilInstance
	}
	return r.Register(name, reflect.TypeOf(instance), instance)
}

// Lookup returns the instance registered under name whose declared type is
// typ. When typ is an interface, the first registered instance whose
// declared type satisfies it is returned instead.
func (r *InMemory) Lookup(name string, typ reflect.Type) (any, bool) {
	if name == "" || typ == nil {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries[name] {
		if e.typ == typ {
			return e.instance, true
		}
	}
	if typ.Kind() == reflect.Interface {
		for _, e := range r.entries[name] {
			if e.typ.AssignableTo(typ) {
				return e.instance, true
			}
		}
	}
	return nil, false
}

// Entries returns a snapshot for diagnostics (registration order per name,
// name order unspecified).
func (r *InMemory) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.entries))
	for name, es := range r.entries {
		for _, e := range es {
			out = append(out, Entry{Name: name, Type: e.typ, Instance: e.instance})
		}
	}
	return out
}

// Count returns the number of registered entries.
func (r *InMemory) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, es := range r.entries {
		n += len(es)
	}
	return n
}

// Reset clears all registered entries.
func (r *InMemory) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string][]entry)
}
