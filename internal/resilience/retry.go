package resilience

import (
	"crypto/rand"
	"errors"
	"math/big"
	"time"
)

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxAttempts int           // Maximum number of retries (0 = no retries)
	BaseWait    time.Duration // Initial wait duration
	MaxWait     time.Duration // Maximum wait duration
	Multiplier  float64       // Backoff multiplier (e.g., 2.0 for exponential)
	Jitter      float64       // Jitter factor (0.0-1.0)
}

// DefaultRetryConfig returns sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseWait:    time.Second,
		MaxWait:     30 * time.Second,
		Multiplier:  2.0,
		Jitter:      0.2,
	}
}

// RetryableError wraps an error with an explicit server-requested wait.
type RetryableError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a retryable error.
func NewRetryableError(err error, retryAfter time.Duration) *RetryableError {
	return &RetryableError{Err: err, RetryAfter: retryAfter}
}

// RetryAfter extracts a server-requested wait from err, if any.
func RetryAfter(err error) (time.Duration, bool) {
	var retryErr *RetryableError
	if errors.As(err, &retryErr) {
		return retryErr.RetryAfter, true
	}
	return 0, false
}

// Backoff computes the wait before retry number attempt (1-based). A
// server-requested wait carried by err takes precedence over the computed
// exponential backoff.
func Backoff(cfg RetryConfig, attempt int, err error) time.Duration {
	if retryAfter, ok := RetryAfter(err); ok && retryAfter > 0 {
		return retryAfter
	}

	// Exponential backoff
	wait := float64(cfg.BaseWait)
	for i := 1; i < attempt; i++ {
		wait *= cfg.Multiplier
	}

	if wait > float64(cfg.MaxWait) {
		wait = float64(cfg.MaxWait)
	}

	// Apply jitter using crypto/rand. A sub-nanosecond jitter range rounds
	// to zero, which rand.Int rejects.
	if cfg.Jitter > 0 {
		jitterRange := wait * cfg.Jitter
		if span := int64(jitterRange * 2); span > 0 {
			n, err := rand.Int(rand.Reader, big.NewInt(span))
			if err == nil {
				wait += float64(n.Int64()) - jitterRange
			}
		}
	}

	return time.Duration(wait)
}
