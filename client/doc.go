// Package client provides the concrete proxy builders remigo wires clients
// with.
//
// A plain Builder turns a declared struct-of-funcs target into a proxy whose
// methods POST JSON to baseURL/<method> and decode the standard response
// envelope. A ResilientBuilder additionally wraps every call with rate
// limiting, a per-method circuit breaker and retry with backoff, and can
// degrade to a fallback instance (static or manufactured from the failure)
// when the wrapper gives up.
//
// Builders are safe to reuse across targets, with one exception: attaching a
// setter factory mutates the builder, so a single ResilientBuilder must not
// be targeted concurrently.
package client
