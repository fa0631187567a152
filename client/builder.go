package client

import (
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/prilive-com/remigo"
	"github.com/prilive-com/remigo/internal/httpclient"
	"github.com/prilive-com/remigo/internal/resilience"
)

// Builder produces plain proxies: HTTP dispatch only, no resilience
// wrapping. It reports no resilience capability, so the targeter
// short-circuits past fallback configuration.
type Builder struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(b *Builder) {
		b.httpClient = client
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(b *Builder) {
		b.config = cfg
	}
}

// WithRateLimit sets per-client rate limiting parameters.
func WithRateLimit(rps float64, burst int) Option {
	return func(b *Builder) {
		b.config.ClientRPS = rps
		b.config.ClientBurst = burst
	}
}

// WithRetries sets the maximum number of retries.
func WithRetries(max int) Option {
	return func(b *Builder) {
		b.config.MaxRetries = max
	}
}

// WithBreakerConfig sets the circuit breaker parameters applied to every
// proxied method unless a setter factory overrides them.
func WithBreakerConfig(s remigo.BreakerSettings) Option {
	return func(b *Builder) {
		b.config.BreakerMaxRequests = s.MaxRequests
		b.config.BreakerInterval = s.Interval
		b.config.BreakerTimeout = s.Timeout
		b.config.BreakerFailures = s.ConsecutiveFailures
		b.config.BreakerRatio = s.FailureRatio
		b.config.BreakerMinRequests = s.MinRequests
	}
}

// New creates a plain Builder.
func New(opts ...Option) *Builder {
	b := &Builder{config: DefaultConfig()}

	for _, opt := range opts {
		opt(b)
	}

	if b.logger == nil {
		b.logger = slog.Default()
	}

	if b.httpClient == nil {
		hc := httpclient.DefaultConfig()
		hc.RequestTimeout = b.config.RequestTimeout
		hc.ConnectTimeout = b.config.ConnectTimeout
		hc.IdleTimeout = b.config.IdleTimeout
		hc.MaxIdleConns = b.config.MaxIdleConns
		b.httpClient = httpclient.New(hc)
	}

	return b
}

// Build produces a plain proxy for the target.
func (b *Builder) Build(target remigo.Target) (any, error) {
	if err := validateTarget(target); err != nil {
		return nil, err
	}
	inv := &httpInvoker{
		baseURL: strings.TrimRight(target.BaseURL, "/"),
		client:  b.httpClient,
		logger:  b.logger,
	}
	return buildProxy(target, inv.invoke)
}

// Resilient reports that plain builders do not support resilience wrapping.
func (b *Builder) Resilient() (remigo.ResilientBuilder, bool) {
	return nil, false
}

// ResilientBuilder wraps every proxied call with rate limiting, a per-method
// circuit breaker and retry with backoff, and degrades to a fallback when
// one is attached at build time.
type ResilientBuilder struct {
	Builder
	setter  remigo.SetterFactory
	limiter *resilience.RateLimiter
}

// NewResilient creates a ResilientBuilder.
func NewResilient(opts ...Option) *ResilientBuilder {
	inner := New(opts...)
	return &ResilientBuilder{
		Builder: *inner,
		limiter: resilience.NewRateLimiter(resilience.RateLimiterConfig{
			GlobalRPS:   inner.config.GlobalRPS,
			GlobalBurst: inner.config.GlobalBurst,
			KeyRPS:      inner.config.ClientRPS,
			KeyBurst:    inner.config.ClientBurst,
		}),
	}
}

// Resilient returns the builder itself: it supports resilience wrapping.
func (b *ResilientBuilder) Resilient() (remigo.ResilientBuilder, bool) {
	return b, true
}

// AttachSetter attaches a per-call execution-parameter configurator. It must
// be called before Build; proxies built earlier keep their settings.
func (b *ResilientBuilder) AttachSetter(setter remigo.SetterFactory) {
	b.setter = setter
}

// Build produces a resilient proxy with no fallback.
func (b *ResilientBuilder) Build(target remigo.Target) (any, error) {
	return b.build(target, nil, nil)
}

// BuildWithFallback produces a proxy that degrades to the given instance.
// The fallback must be assignable to the target's proxy type.
func (b *ResilientBuilder) BuildWithFallback(target remigo.Target, fallback any) (any, error) {
	if fallback == nil {
		return nil, fmt.Errorf("%w: nil fallback for client %q", ErrBadFallback, target.Name)
	}
	if ft := reflect.TypeOf(fallback); !ft.AssignableTo(target.ProxyType()) {
		return nil, fmt.Errorf("%w: %s is not assignable to %s", ErrBadFallback, ft, target.ProxyType())
	}
	return b.build(target, fallback, nil)
}

// BuildWithFallbackFactory produces a proxy whose fallback instance is
// manufactured from the failure that triggered degradation.
func (b *ResilientBuilder) BuildWithFallbackFactory(target remigo.Target, factory remigo.FallbackFactory) (any, error) {
	if factory == nil {
		return nil, fmt.Errorf("%w: nil fallback factory for client %q", ErrBadFallback, target.Name)
	}
	return b.build(target, nil, factory)
}

func (b *ResilientBuilder) build(target remigo.Target, fallback any, factory remigo.FallbackFactory) (any, error) {
	if err := validateTarget(target); err != nil {
		return nil, err
	}
	inv := newResilientInvoker(b, target, fallback, factory)
	return buildProxy(target, inv.invoke)
}
