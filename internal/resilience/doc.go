// Package resilience provides circuit breaker, retry backoff and rate
// limiting utilities for generated client proxies. Uses sony/gobreaker for
// circuit breaking and golang.org/x/time/rate for rate limiting.
package resilience
