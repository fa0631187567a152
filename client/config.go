package client

import (
	"os"
	"strconv"
	"time"

	"github.com/prilive-com/remigo/internal/resilience"
)

// Config holds builder configuration. Rate limits of 0 disable the
// corresponding limiter.
type Config struct {
	// HTTP settings
	RequestTimeout time.Duration
	ConnectTimeout time.Duration
	IdleTimeout    time.Duration
	MaxIdleConns   int

	// Rate limiting
	GlobalRPS   float64 // Across every client the builder produces
	GlobalBurst int
	ClientRPS   float64 // Per client name
	ClientBurst int

	// Circuit breaker
	BreakerMaxRequests uint32
	BreakerInterval    time.Duration
	BreakerTimeout     time.Duration
	BreakerFailures    uint32 // Consecutive failures before opening
	BreakerRatio       float64
	BreakerMinRequests uint32

	// Retry settings
	MaxRetries    int
	RetryBaseWait time.Duration
	RetryMaxWait  time.Duration
	RetryFactor   float64
	RetryJitter   float64
}

// DefaultConfig returns a Config with sensible defaults. Retry defaults come
// from the resilience package so the two stay aligned.
func DefaultConfig() Config {
	retry := resilience.DefaultRetryConfig()
	return Config{
		RequestTimeout:     30 * time.Second,
		ConnectTimeout:     10 * time.Second,
		IdleTimeout:        90 * time.Second,
		MaxIdleConns:       100,
		GlobalRPS:          0, // unlimited
		GlobalBurst:        0,
		ClientRPS:          0, // unlimited
		ClientBurst:        0,
		BreakerMaxRequests: 5,
		BreakerInterval:    60 * time.Second,
		BreakerTimeout:     30 * time.Second,
		BreakerFailures:    5,
		BreakerRatio:       0.5,
		BreakerMinRequests: 10,
		MaxRetries:         retry.MaxAttempts,
		RetryBaseWait:      retry.BaseWait,
		RetryMaxWait:       retry.MaxWait,
		RetryFactor:        retry.Multiplier,
		RetryJitter:        retry.Jitter,
	}
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if d, err := time.ParseDuration(getEnv("REMIGO_REQUEST_TIMEOUT", "30s")); err == nil {
		cfg.RequestTimeout = d
	}

	if d, err := time.ParseDuration(getEnv("REMIGO_CONNECT_TIMEOUT", "10s")); err == nil {
		cfg.ConnectTimeout = d
	}

	if d, err := time.ParseDuration(getEnv("REMIGO_IDLE_TIMEOUT", "90s")); err == nil {
		cfg.IdleTimeout = d
	}

	if i, err := strconv.Atoi(getEnv("REMIGO_MAX_IDLE_CONNS", "100")); err == nil {
		cfg.MaxIdleConns = i
	}

	if f, err := strconv.ParseFloat(getEnv("REMIGO_GLOBAL_RPS", "0"), 64); err == nil {
		cfg.GlobalRPS = f
	}

	if i, err := strconv.Atoi(getEnv("REMIGO_GLOBAL_BURST", "0")); err == nil {
		cfg.GlobalBurst = i
	}

	if f, err := strconv.ParseFloat(getEnv("REMIGO_CLIENT_RPS", "0"), 64); err == nil {
		cfg.ClientRPS = f
	}

	if i, err := strconv.Atoi(getEnv("REMIGO_CLIENT_BURST", "0")); err == nil {
		cfg.ClientBurst = i
	}

	if i, err := strconv.ParseUint(getEnv("REMIGO_BREAKER_MAX_REQUESTS", "5"), 10, 32); err == nil {
		cfg.BreakerMaxRequests = uint32(i)
	}

	if d, err := time.ParseDuration(getEnv("REMIGO_BREAKER_INTERVAL", "60s")); err == nil {
		cfg.BreakerInterval = d
	}

	if d, err := time.ParseDuration(getEnv("REMIGO_BREAKER_TIMEOUT", "30s")); err == nil {
		cfg.BreakerTimeout = d
	}

	if i, err := strconv.ParseUint(getEnv("REMIGO_BREAKER_FAILURES", "5"), 10, 32); err == nil {
		cfg.BreakerFailures = uint32(i)
	}

	if f, err := strconv.ParseFloat(getEnv("REMIGO_BREAKER_RATIO", "0.5"), 64); err == nil {
		cfg.BreakerRatio = f
	}

	if i, err := strconv.ParseUint(getEnv("REMIGO_BREAKER_MIN_REQUESTS", "10"), 10, 32); err == nil {
		cfg.BreakerMinRequests = uint32(i)
	}

	if i, err := strconv.Atoi(getEnv("REMIGO_MAX_RETRIES", "3")); err == nil {
		cfg.MaxRetries = i
	}

	if d, err := time.ParseDuration(getEnv("REMIGO_RETRY_BASE_WAIT", "1s")); err == nil {
		cfg.RetryBaseWait = d
	}

	if d, err := time.ParseDuration(getEnv("REMIGO_RETRY_MAX_WAIT", "30s")); err == nil {
		cfg.RetryMaxWait = d
	}

	if f, err := strconv.ParseFloat(getEnv("REMIGO_RETRY_FACTOR", "2.0"), 64); err == nil {
		cfg.RetryFactor = f
	}

	if f, err := strconv.ParseFloat(getEnv("REMIGO_RETRY_JITTER", "0.2"), 64); err == nil {
		cfg.RetryJitter = f
	}

	return &cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
