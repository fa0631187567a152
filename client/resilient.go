package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/prilive-com/remigo"
	"github.com/prilive-com/remigo/internal/resilience"
)

// resilientInvoker is the dispatch path of one resilient proxy. Each proxied
// call flows rate limit -> circuit breaker -> HTTP, retried with backoff,
// and degrades to the attached fallback when the chain gives up.
type resilientInvoker struct {
	httpInvoker
	target   remigo.Target
	config   Config
	setter   remigo.SetterFactory
	limiter  *resilience.RateLimiter
	fallback any // *T, nil when no static fallback
	factory  remigo.FallbackFactory

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[*apiResponse]
}

func newResilientInvoker(b *ResilientBuilder, target remigo.Target, fallback any, factory remigo.FallbackFactory) *resilientInvoker {
	return &resilientInvoker{
		httpInvoker: httpInvoker{
			baseURL: strings.TrimRight(target.BaseURL, "/"),
			client:  b.httpClient,
			logger:  b.logger,
		},
		target:   target,
		config:   b.config,
		setter:   b.setter,
		limiter:  b.limiter,
		fallback: fallback,
		factory:  factory,
		breakers: make(map[string]*gobreaker.CircuitBreaker[*apiResponse]),
	}
}

func (in *resilientInvoker) invoke(ctx context.Context, spec *methodSpec, args []reflect.Value) (reflect.Value, error) {
	if err := in.limiter.Wait(ctx, in.target.Name); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return reflect.Value{}, err
		}
		return reflect.Value{}, fmt.Errorf("%w: %w", ErrRateLimited, err)
	}

	cb := in.breakerFor(spec)
	resp, err := in.withRetry(ctx, spec.name, func() (*apiResponse, error) {
		return cb.Execute(func() (*apiResponse, error) {
			return in.doRequest(ctx, spec.name, payloadOf(spec, args))
		})
	})
	if err == nil {
		return decodeResult(spec, resp)
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}

	if !in.shouldDegrade(err) {
		return reflect.Value{}, err
	}
	return in.degrade(spec, args, err)
}

func (in *resilientInvoker) withRetry(ctx context.Context, method string, fn func() (*apiResponse, error)) (*apiResponse, error) {
	rcfg := resilience.RetryConfig{
		MaxAttempts: in.config.MaxRetries,
		BaseWait:    in.config.RetryBaseWait,
		MaxWait:     in.config.RetryMaxWait,
		Multiplier:  in.config.RetryFactor,
		Jitter:      in.config.RetryJitter,
	}

	var lastErr error
	for attempt := 0; attempt <= rcfg.MaxAttempts; attempt++ {
		resp, err := fn()
		if err == nil {
			return resp, nil
		}

		lastErr = err

		// Non-retryable errors return immediately (not wrapped in ErrMaxRetries)
		if !isRetryable(err) {
			return nil, err
		}

		if attempt >= rcfg.MaxAttempts {
			break
		}

		wait := resilience.Backoff(rcfg, attempt+1, retryHint(err))
		in.logger.Debug("retrying remote call",
			"client", in.target.Name,
			"method", method,
			"attempt", attempt+1,
			"wait", wait,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	return nil, fmt.Errorf("%w: %w", ErrMaxRetries, lastErr)
}

func (in *resilientInvoker) shouldDegrade(err error) bool {
	if in.fallback == nil && in.factory == nil {
		return false
	}
	// Caller-side cancellation is not service degradation
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// degrade dispatches the failed call on the fallback instance, manufacturing
// one from the triggering failure in factory mode.
func (in *resilientInvoker) degrade(spec *methodSpec, args []reflect.Value, cause error) (reflect.Value, error) {
	inst := in.fallback
	if inst == nil {
		inst = in.factory.Create(cause)
		if inst == nil {
			return reflect.Value{}, fmt.Errorf("%w: factory returned nil for client %q", ErrBadFallback, in.target.Name)
		}
		if ft := reflect.TypeOf(inst); !ft.AssignableTo(in.target.ProxyType()) {
			return reflect.Value{}, fmt.Errorf("%w: factory produced %s, want %s", ErrBadFallback, ft, in.target.ProxyType())
		}
	}

	fn := reflect.ValueOf(inst).Elem().FieldByName(spec.field)
	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() {
		return reflect.Value{}, fmt.Errorf("%w: no %s implementation on %T", ErrBadFallback, spec.field, inst)
	}

	in.logger.Warn("degrading to fallback",
		"client", in.target.Name,
		"method", spec.name,
		"cause", cause,
	)
	return spec.splitResults(fn.Call(args))
}

func (in *resilientInvoker) breakerFor(spec *methodSpec) *gobreaker.CircuitBreaker[*apiResponse] {
	in.mu.Lock()
	defer in.mu.Unlock()

	if cb, ok := in.breakers[spec.name]; ok {
		return cb
	}

	cfg := resilience.BreakerConfig{
		Name:         in.target.Name + "." + spec.name,
		MaxRequests:  in.config.BreakerMaxRequests,
		Interval:     in.config.BreakerInterval,
		Timeout:      in.config.BreakerTimeout,
		Threshold:    in.config.BreakerFailures,
		FailureRatio: in.config.BreakerRatio,
		MinRequests:  in.config.BreakerMinRequests,
	}
	if in.setter != nil {
		s := in.setter.Settings(in.target, spec.name)
		cfg.MaxRequests = s.MaxRequests
		cfg.Interval = s.Interval
		cfg.Timeout = s.Timeout
		cfg.Threshold = s.ConsecutiveFailures
		cfg.FailureRatio = s.FailureRatio
		cfg.MinRequests = s.MinRequests
	}
	cfg.IsSuccessful = isBreakerSuccess
	logger := in.logger
	cfg.OnStateChange = func(name string, from, to string) {
		logger.Info("circuit breaker state changed",
			"name", name,
			"from", from,
			"to", to,
		)
	}

	cb := resilience.NewBreaker[*apiResponse](cfg)
	in.breakers[spec.name] = cb
	return cb
}

func isRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	// Circuit breaker errors are not retryable
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) || errors.Is(err, ErrCircuitOpen) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}

	return false
}

// retryHint surfaces a server-requested wait to the backoff computation.
func retryHint(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return resilience.NewRetryableError(apiErr, apiErr.RetryAfter)
	}
	return err
}

// isBreakerSuccess decides whether an error counts as a breaker failure.
// Client-side errors (4xx, including 429) do not trip the breaker; server
// failures and network errors do.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code >= 400 && apiErr.Code < 500
	}
	// Caller-side cancellation is not a service failure
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return false
}
