package client

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors - use with errors.Is()
var (
	// Upstream errors
	ErrUnauthorized    = errors.New("remigo: unauthorized")
	ErrForbidden       = errors.New("remigo: forbidden")
	ErrNotFound        = errors.New("remigo: not found")
	ErrTooManyRequests = errors.New("remigo: too many requests")
	ErrUpstream        = errors.New("remigo: upstream failure")

	// Client errors
	ErrCircuitOpen      = errors.New("remigo: circuit breaker open")
	ErrMaxRetries       = errors.New("remigo: max retries exceeded")
	ErrRateLimited      = errors.New("remigo: rate limit exceeded")
	ErrResponseTooLarge = errors.New("remigo: response too large")

	// Wiring errors
	ErrInvalidTarget = errors.New("remigo: invalid target description")
	ErrBadFallback   = errors.New("remigo: fallback cannot serve target")
)

// APIError represents an error response from a remote service.
// Use errors.As() to extract details, errors.Is() to match sentinels.
type APIError struct {
	Code        int
	Description string
	RetryAfter  time.Duration
	Method      string // remote method that failed
	cause       error  // Underlying sentinel for errors.Is()
}

func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("remigo: %s failed: %s (code=%d, retry_after=%s)",
			e.Method, e.Description, e.Code, e.RetryAfter)
	}
	return fmt.Sprintf("remigo: %s failed: %s (code=%d)", e.Method, e.Description, e.Code)
}

// Unwrap returns the underlying sentinel error for errors.Is() support.
func (e *APIError) Unwrap() error { return e.cause }

// IsRetryable returns true if the error is temporary and may succeed on retry.
func (e *APIError) IsRetryable() bool {
	return e.Code == 429 || (e.Code >= 500 && e.Code <= 504)
}

// NewAPIError creates an APIError with automatic sentinel detection.
func NewAPIError(method string, code int, description string) *APIError {
	return &APIError{
		Code:        code,
		Description: description,
		Method:      method,
		cause:       DetectSentinel(code),
	}
}

// NewAPIErrorWithRetry creates an APIError with retry information.
func NewAPIErrorWithRetry(method string, code int, description string, retryAfter time.Duration) *APIError {
	return &APIError{
		Code:        code,
		Description: description,
		Method:      method,
		RetryAfter:  retryAfter,
		cause:       DetectSentinel(code),
	}
}

// DetectSentinel maps response codes to sentinel errors.
func DetectSentinel(code int) error {
	switch {
	case code == 401:
		return ErrUnauthorized
	case code == 403:
		return ErrForbidden
	case code == 404:
		return ErrNotFound
	case code == 429:
		return ErrTooManyRequests
	case code >= 500:
		return ErrUpstream
	default:
		return nil
	}
}
