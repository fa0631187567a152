package remigo

import (
	"errors"
	"fmt"
	"reflect"
)

// Sentinel errors - use with errors.Is()
var (
	// ErrFallbackNotFound indicates a configured fallback or fallback
	// factory has no registered instance for the effective client name.
	ErrFallbackNotFound = errors.New("remigo: fallback instance not found")

	// ErrFallbackTypeMismatch indicates a registered fallback exists but its
	// declared type cannot serve the required capability.
	ErrFallbackTypeMismatch = errors.New("remigo: fallback type mismatch")
)

// WiringError describes a misconfigured fallback discovered while wiring a
// client proxy. Use errors.As() to extract details, errors.Is() to match the
// sentinels above. Wiring errors are fatal: they indicate a configuration bug
// that must fail the wiring pass rather than silently degrade to no-fallback.
type WiringError struct {
	Mechanism string       // "fallback" or "fallback factory"
	Client    string       // effective client name used for the lookup
	Declared  reflect.Type // configured fallback type
	Want      reflect.Type // capability the fallback must satisfy
	cause     error
}

func (e *WiringError) Error() string {
	if errors.Is(e.cause, ErrFallbackNotFound) {
		return fmt.Sprintf("remigo: no %s instance of type %s registered for client %q",
			e.Mechanism, e.Declared, e.Client)
	}
	return fmt.Sprintf("remigo: incompatible %s for client %q: %s is not assignable to %s",
		e.Mechanism, e.Client, e.Declared, e.Want)
}

// Unwrap returns the underlying sentinel error for errors.Is() support.
func (e *WiringError) Unwrap() error { return e.cause }

func newFallbackNotFound(mechanism, client string, declared reflect.Type) *WiringError {
	return &WiringError{
		Mechanism: mechanism,
		Client:    client,
		Declared:  declared,
		cause:     ErrFallbackNotFound,
	}
}

func newFallbackMismatch(mechanism, client string, declared, want reflect.Type) *WiringError {
	return &WiringError{
		Mechanism: mechanism,
		Client:    client,
		Declared:  declared,
		Want:      want,
		cause:     ErrFallbackTypeMismatch,
	}
}
