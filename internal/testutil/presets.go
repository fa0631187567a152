package testutil

import (
	"io"
	"log/slog"
	"time"

	"github.com/prilive-com/remigo/client"
)

// BreakerTestConfig returns a builder config whose breaker trips after two
// consecutive failures and recovers after 100ms, with retries disabled.
// Keeps breaker tests fast and deterministic.
func BreakerTestConfig() client.Config {
	cfg := client.DefaultConfig()
	cfg.MaxRetries = 0
	cfg.BreakerFailures = 2
	cfg.BreakerTimeout = 100 * time.Millisecond
	cfg.BreakerInterval = time.Minute
	cfg.BreakerMinRequests = 1000 // ratio check effectively disabled
	return cfg
}

// NeverTripConfig returns a builder config whose breaker never opens.
func NeverTripConfig() client.Config {
	cfg := client.DefaultConfig()
	cfg.MaxRetries = 0
	cfg.BreakerFailures = ^uint32(0)
	cfg.BreakerMinRequests = ^uint32(0)
	return cfg
}

// RetryTestConfig returns a builder config with n retries and near-zero
// backoff waits.
func RetryTestConfig(retries int) client.Config {
	cfg := client.DefaultConfig()
	cfg.MaxRetries = retries
	cfg.RetryBaseWait = time.Millisecond
	cfg.RetryMaxWait = 5 * time.Millisecond
	cfg.RetryJitter = 0
	cfg.BreakerFailures = ^uint32(0)
	cfg.BreakerMinRequests = ^uint32(0)
	return cfg
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
