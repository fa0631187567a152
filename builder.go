package remigo

import "time"

// Builder produces a proxy for a target. Implementations come in two
// capability variants: plain builders only build, resilient builders
// additionally accept a setter factory and fallback sources. The Resilient
// accessor is the capability check — callers never inspect the concrete type.
type Builder interface {
	// Build produces a plain proxy for the target.
	Build(target Target) (any, error)

	// Resilient reports whether this builder supports resilience wrapping,
	// returning the resilient variant when it does.
	Resilient() (ResilientBuilder, bool)
}

// ResilientBuilder is the resilience-capable builder variant. It alone
// exposes setter attachment and fallback-accepting construction.
//
// AttachSetter mutates the builder in place; a single builder instance must
// not be targeted concurrently.
type ResilientBuilder interface {
	Builder

	// AttachSetter attaches a per-call execution-parameter configurator.
	AttachSetter(setter SetterFactory)

	// BuildWithFallback produces a proxy that degrades to the given
	// locally-executing instance when the resilience wrapper gives up.
	BuildWithFallback(target Target, fallback any) (any, error)

	// BuildWithFallbackFactory produces a proxy whose fallback instance is
	// manufactured from the triggering failure.
	BuildWithFallbackFactory(target Target, factory FallbackFactory) (any, error)
}

// SetterFactory configures per-call circuit breaker execution parameters.
// A resilient builder consults it once per proxied method.
type SetterFactory interface {
	Settings(target Target, method string) BreakerSettings
}

// FallbackFactory manufactures a fallback instance tailored to an observed
// failure, e.g. to expose the failure cause to the caller. The returned
// instance must be assignable to the target's proxy type.
type FallbackFactory interface {
	Create(cause error) any
}

// DefaultBreakerSettings returns production-ready defaults. Setter factories
// typically start from these and override per method.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:         5,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
		FailureRatio:        0.5,
		MinRequests:         10,
	}
}

// BreakerSettings carries the circuit breaker execution parameters a
// SetterFactory produces for one client method.
type BreakerSettings struct {
	// MaxRequests is the number of requests allowed in half-open state.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state.
	Interval time.Duration

	// Timeout is the duration of the open state before half-open.
	Timeout time.Duration

	// ConsecutiveFailures trips the breaker when reached.
	ConsecutiveFailures uint32

	// FailureRatio trips the breaker once MinRequests have been observed.
	FailureRatio float64

	// MinRequests is the minimum number of requests before the ratio check.
	MinRequests uint32
}
