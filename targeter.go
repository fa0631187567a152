package remigo

import (
	"log/slog"
	"reflect"

	"github.com/prilive-com/remigo/registry"
)

// ClientInfo is the wiring-time description of one declared remote client.
// Fallback and FallbackFactory are mutually exclusive; a nil reflect.Type
// means the mechanism is not configured.
type ClientInfo struct {
	// Name is the configured client name.
	Name string

	// ContextID overrides Name for registry lookups when non-empty.
	ContextID string

	// Fallback is the declared type of a static fallback instance, or nil.
	Fallback reflect.Type

	// FallbackFactory is the declared type of a fallback factory, or nil.
	FallbackFactory reflect.Type
}

// EffectiveName returns the string key used for all registry lookups for
// this client: ContextID when set, else Name.
func (ci ClientInfo) EffectiveName() string {
	if ci.ContextID != "" {
		return ci.ContextID
	}
	return ci.Name
}

var (
	setterFactoryType   = reflect.TypeOf((*SetterFactory)(nil)).Elem()
	fallbackFactoryType = reflect.TypeOf((*FallbackFactory)(nil)).Elem()
)

// Targeter produces the object callers invoke as if it were the remote
// service. It is invoked once per declared client at wiring time; it holds
// no state between calls and two calls with the same inputs take the same
// branch.
type Targeter struct {
	logger *slog.Logger
}

// TargeterOption configures the Targeter.
type TargeterOption func(*Targeter)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) TargeterOption {
	return func(t *Targeter) {
		t.logger = logger
	}
}

// NewTargeter creates a Targeter.
func NewTargeter(opts ...TargeterOption) *Targeter {
	t := &Targeter{}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	return t
}

// Target wires a proxy for the described client.
//
// The decision sequence is fixed, first match per stage wins:
//
//  1. A builder without resilience capability short-circuits to a plain
//     proxy; no fallback configuration is evaluated.
//  2. An optional SetterFactory registered under the effective client name
//     is attached to the builder; absence is not an error.
//  3. A configured static fallback is looked up and type-checked against the
//     target's proxy type, then the proxy is built around it.
//  4. Otherwise a configured fallback factory is looked up and type-checked
//     against the FallbackFactory capability.
//  5. Otherwise the proxy is built plain.
//
// Lookup failures and type mismatches surface as *WiringError unwrapping to
// ErrFallbackNotFound / ErrFallbackTypeMismatch. Errors from the builder's
// own Build calls propagate unmodified.
//
// The type mismatch check compares the configured *declared* type against
// the required capability, not the runtime instance, mirroring declared-type
// bean wiring.
func (tr *Targeter) Target(info ClientInfo, b Builder, reg registry.Registry, target Target) (any, error) {
	rb, ok := b.Resilient()
	if !ok {
		return b.Build(target)
	}

	name := info.EffectiveName()

	if inst, ok := reg.Lookup(name, setterFactoryType); ok {
		if setter, ok := inst.(SetterFactory); ok {
			tr.logger.Debug("attaching setter factory", "client", name)
			rb.AttachSetter(setter)
		}
	}

	if info.Fallback != nil {
		inst, ok := reg.Lookup(name, info.Fallback)
		if !ok {
			return nil, newFallbackNotFound("fallback", name, info.Fallback)
		}
		if !info.Fallback.AssignableTo(target.ProxyType()) {
			return nil, newFallbackMismatch("fallback", name, info.Fallback, target.ProxyType())
		}
		tr.logger.Debug("wiring client with static fallback",
			"client", name,
			"fallback", info.Fallback.String(),
		)
		return rb.BuildWithFallback(target, inst)
	}

	if info.FallbackFactory != nil {
		inst, ok := reg.Lookup(name, info.FallbackFactory)
		if !ok {
			return nil, newFallbackNotFound("fallback factory", name, info.FallbackFactory)
		}
		if !info.FallbackFactory.AssignableTo(fallbackFactoryType) {
			return nil, newFallbackMismatch("fallback factory", name, info.FallbackFactory, fallbackFactoryType)
		}
		// The registry contract guarantees the instance matches its declared
		// type, but a broken implementation must fail the wiring pass, not
		// panic it.
		factory, ok := inst.(FallbackFactory)
		if !ok {
			return nil, newFallbackMismatch("fallback factory", name, reflect.TypeOf(inst), fallbackFactoryType)
		}
		tr.logger.Debug("wiring client with fallback factory",
			"client", name,
			"factory", info.FallbackFactory.String(),
		)
		return rb.BuildWithFallbackFactory(target, factory)
	}

	return rb.Build(target)
}
