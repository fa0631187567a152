package client_test

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prilive-com/remigo"
	"github.com/prilive-com/remigo/client"
	"github.com/prilive-com/remigo/internal/testutil"
)

func buildResilient(t *testing.T, b *client.ResilientBuilder, baseURL string) *ordersAPI {
	t.Helper()
	proxy, err := b.Build(ordersTarget(baseURL))
	require.NoError(t, err)
	return proxy.(*ordersAPI)
}

func TestResilientBuilder_ReportsResilience(t *testing.T) {
	b := client.NewResilient()
	rb, ok := b.Resilient()
	require.True(t, ok)
	assert.Same(t, b, rb)
}

func TestResilient_SuccessPassesThrough(t *testing.T) {
	server := testutil.NewMockUpstream(t)
	server.On("/getOrder", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyResult(w, order{ID: "o-1", Status: "new"})
	})

	b := client.NewResilient(
		client.WithConfig(testutil.NeverTripConfig()),
		client.WithLogger(testutil.DiscardLogger()),
	)
	api := buildResilient(t, b, server.BaseURL())

	got, err := api.GetOrder(context.Background(), getOrderRequest{ID: "o-1"})
	require.NoError(t, err)
	assert.Equal(t, "new", got.Status)
}

func TestResilient_BreakerTripsAfterConsecutiveFailures(t *testing.T) {
	server := testutil.NewMockUpstream(t)
	server.On("/ping", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyError(w, 500, "boom")
	})

	b := client.NewResilient(
		client.WithConfig(testutil.BreakerTestConfig()),
		client.WithLogger(testutil.DiscardLogger()),
	)
	api := buildResilient(t, b, server.BaseURL())

	// Two failures trip the breaker.
	assert.ErrorIs(t, api.Ping(context.Background()), client.ErrUpstream)
	assert.ErrorIs(t, api.Ping(context.Background()), client.ErrUpstream)

	err := api.Ping(context.Background())
	assert.ErrorIs(t, err, client.ErrCircuitOpen)
	assert.Equal(t, 2, server.CaptureCount(), "open breaker must not reach the wire")
}

func TestResilient_BreakerRecoversAfterTimeout(t *testing.T) {
	server := testutil.NewMockUpstream(t)
	var healthy atomic.Bool
	server.On("/ping", func(w http.ResponseWriter, r *http.Request) {
		if healthy.Load() {
			testutil.ReplyResult(w, map[string]any{})
			return
		}
		testutil.ReplyError(w, 500, "boom")
	})

	b := client.NewResilient(
		client.WithConfig(testutil.BreakerTestConfig()),
		client.WithLogger(testutil.DiscardLogger()),
	)
	api := buildResilient(t, b, server.BaseURL())

	api.Ping(context.Background())
	api.Ping(context.Background())
	require.ErrorIs(t, api.Ping(context.Background()), client.ErrCircuitOpen)

	healthy.Store(true)
	time.Sleep(150 * time.Millisecond) // past the breaker timeout, half-open

	assert.NoError(t, api.Ping(context.Background()))
}

func TestResilient_BreakersArePerMethod(t *testing.T) {
	server := testutil.NewMockUpstream(t)
	server.On("/ping", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyError(w, 500, "boom")
	})
	server.On("/listOrders", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyResult(w, []order{})
	})

	b := client.NewResilient(
		client.WithConfig(testutil.BreakerTestConfig()),
		client.WithLogger(testutil.DiscardLogger()),
	)
	api := buildResilient(t, b, server.BaseURL())

	api.Ping(context.Background())
	api.Ping(context.Background())
	require.ErrorIs(t, api.Ping(context.Background()), client.ErrCircuitOpen)

	// The sibling method's breaker is unaffected.
	_, err := api.ListOrders(context.Background())
	assert.NoError(t, err)
}

func TestResilient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	server := testutil.NewMockUpstream(t)
	server.On("/ping", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyError(w, 404, "nope")
	})

	b := client.NewResilient(
		client.WithConfig(testutil.BreakerTestConfig()),
		client.WithLogger(testutil.DiscardLogger()),
	)
	api := buildResilient(t, b, server.BaseURL())

	for i := 0; i < 5; i++ {
		err := api.Ping(context.Background())
		assert.ErrorIs(t, err, client.ErrNotFound)
		assert.NotErrorIs(t, err, client.ErrCircuitOpen)
	}
	assert.Equal(t, 5, server.CaptureCount())
}

func TestResilient_RetriesServerFailures(t *testing.T) {
	server := testutil.NewMockUpstream(t)
	var calls atomic.Int32
	server.On("/ping", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			testutil.ReplyError(w, 503, "warming up")
			return
		}
		testutil.ReplyResult(w, map[string]any{})
	})

	b := client.NewResilient(
		client.WithConfig(testutil.RetryTestConfig(3)),
		client.WithLogger(testutil.DiscardLogger()),
	)
	api := buildResilient(t, b, server.BaseURL())

	assert.NoError(t, api.Ping(context.Background()))
	assert.Equal(t, 3, server.CaptureCount())
}

func TestResilient_RetriesExhausted(t *testing.T) {
	server := testutil.NewMockUpstream(t)
	server.On("/ping", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyError(w, 503, "still down")
	})

	b := client.NewResilient(
		client.WithConfig(testutil.RetryTestConfig(2)),
		client.WithLogger(testutil.DiscardLogger()),
	)
	api := buildResilient(t, b, server.BaseURL())

	err := api.Ping(context.Background())
	assert.ErrorIs(t, err, client.ErrMaxRetries)
	assert.ErrorIs(t, err, client.ErrUpstream)
	assert.Equal(t, 3, server.CaptureCount(), "initial attempt plus two retries")
}

func TestResilient_NonRetryableFailsFast(t *testing.T) {
	server := testutil.NewMockUpstream(t)
	server.On("/ping", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyError(w, 403, "no access")
	})

	b := client.NewResilient(
		client.WithConfig(testutil.RetryTestConfig(3)),
		client.WithLogger(testutil.DiscardLogger()),
	)
	api := buildResilient(t, b, server.BaseURL())

	err := api.Ping(context.Background())
	assert.ErrorIs(t, err, client.ErrForbidden)
	assert.NotErrorIs(t, err, client.ErrMaxRetries)
	assert.Equal(t, 1, server.CaptureCount())
}

func TestResilient_StaticFallbackServesFailedCalls(t *testing.T) {
	server := testutil.NewMockUpstream(t)
	server.On("/getOrder", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyError(w, 500, "boom")
	})

	fallback := &ordersAPI{
		GetOrder: func(ctx context.Context, req getOrderRequest) (order, error) {
			return order{ID: req.ID, Status: "cached"}, nil
		},
	}

	b := client.NewResilient(
		client.WithConfig(testutil.NeverTripConfig()),
		client.WithLogger(testutil.DiscardLogger()),
	)
	proxy, err := b.BuildWithFallback(ordersTarget(server.BaseURL()), fallback)
	require.NoError(t, err)
	api := proxy.(*ordersAPI)

	got, err := api.GetOrder(context.Background(), getOrderRequest{ID: "o-9"})
	require.NoError(t, err)
	assert.Equal(t, order{ID: "o-9", Status: "cached"}, got, "fallback sees the original arguments")
}

func TestResilient_FallbackServesOpenCircuit(t *testing.T) {
	server := testutil.NewMockUpstream(t)
	server.On("/ping", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyError(w, 500, "boom")
	})

	var served atomic.Int32
	fallback := &ordersAPI{
		Ping: func(ctx context.Context) error {
			served.Add(1)
			return nil
		},
	}

	b := client.NewResilient(
		client.WithConfig(testutil.BreakerTestConfig()),
		client.WithLogger(testutil.DiscardLogger()),
	)
	proxy, err := b.BuildWithFallback(ordersTarget(server.BaseURL()), fallback)
	require.NoError(t, err)
	api := proxy.(*ordersAPI)

	// Every failure degrades; once the breaker opens, calls stop reaching
	// the wire but the fallback keeps serving.
	for i := 0; i < 5; i++ {
		assert.NoError(t, api.Ping(context.Background()))
	}
	assert.Equal(t, int32(5), served.Load())
	assert.Equal(t, 2, server.CaptureCount())
}

func TestResilient_FallbackNotUsedOnCallerCancellation(t *testing.T) {
	server := testutil.NewMockUpstream(t)
	server.On("/ping", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		testutil.ReplyResult(w, map[string]any{})
	})

	fallback := &ordersAPI{
		Ping: func(ctx context.Context) error { return nil },
	}

	b := client.NewResilient(
		client.WithConfig(testutil.NeverTripConfig()),
		client.WithLogger(testutil.DiscardLogger()),
	)
	proxy, err := b.BuildWithFallback(ordersTarget(server.BaseURL()), fallback)
	require.NoError(t, err)
	api := proxy.(*ordersAPI)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = api.Ping(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResilient_FallbackFactoryReceivesCause(t *testing.T) {
	server := testutil.NewMockUpstream(t)
	server.On("/ping", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyError(w, 500, "boom")
	})

	var seen error
	factory := factoryFunc(func(cause error) any {
		seen = cause
		return &ordersAPI{
			Ping: func(ctx context.Context) error { return nil },
		}
	})

	b := client.NewResilient(
		client.WithConfig(testutil.NeverTripConfig()),
		client.WithLogger(testutil.DiscardLogger()),
	)
	proxy, err := b.BuildWithFallbackFactory(ordersTarget(server.BaseURL()), factory)
	require.NoError(t, err)
	api := proxy.(*ordersAPI)

	require.NoError(t, api.Ping(context.Background()))
	require.Error(t, seen)
	assert.ErrorIs(t, seen, client.ErrUpstream)
}

type factoryFunc func(cause error) any

func (f factoryFunc) Create(cause error) any { return f(cause) }

func TestResilient_FactoryReturningNilIsAnError(t *testing.T) {
	server := testutil.NewMockUpstream(t)
	server.On("/ping", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyError(w, 500, "boom")
	})

	factory := factoryFunc(func(cause error) any { return nil })

	b := client.NewResilient(
		client.WithConfig(testutil.NeverTripConfig()),
		client.WithLogger(testutil.DiscardLogger()),
	)
	proxy, err := b.BuildWithFallbackFactory(ordersTarget(server.BaseURL()), factory)
	require.NoError(t, err)
	api := proxy.(*ordersAPI)

	err = api.Ping(context.Background())
	assert.ErrorIs(t, err, client.ErrBadFallback)
}

func TestResilient_FallbackMissingMethodIsAnError(t *testing.T) {
	server := testutil.NewMockUpstream(t)
	server.On("/ping", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyError(w, 500, "boom")
	})

	// GetOrder only; Ping is nil on the fallback.
	fallback := &ordersAPI{
		GetOrder: func(ctx context.Context, req getOrderRequest) (order, error) {
			return order{}, nil
		},
	}

	b := client.NewResilient(
		client.WithConfig(testutil.NeverTripConfig()),
		client.WithLogger(testutil.DiscardLogger()),
	)
	proxy, err := b.BuildWithFallback(ordersTarget(server.BaseURL()), fallback)
	require.NoError(t, err)
	api := proxy.(*ordersAPI)

	err = api.Ping(context.Background())
	assert.ErrorIs(t, err, client.ErrBadFallback)
}

func TestBuildWithFallback_Validation(t *testing.T) {
	b := client.NewResilient(client.WithLogger(testutil.DiscardLogger()))
	target := ordersTarget("http://orders.internal")

	_, err := b.BuildWithFallback(target, nil)
	assert.ErrorIs(t, err, client.ErrBadFallback)

	type stranger struct {
		Ping func(ctx context.Context) error
	}
	_, err = b.BuildWithFallback(target, &stranger{})
	assert.ErrorIs(t, err, client.ErrBadFallback)

	_, err = b.BuildWithFallbackFactory(target, nil)
	assert.ErrorIs(t, err, client.ErrBadFallback)
}

func TestResilient_WithBreakerConfig(t *testing.T) {
	server := testutil.NewMockUpstream(t)
	server.On("/ping", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyError(w, 500, "boom")
	})

	settings := remigo.DefaultBreakerSettings()
	settings.ConsecutiveFailures = 1
	settings.MinRequests = ^uint32(0)
	settings.Timeout = time.Minute

	b := client.NewResilient(
		client.WithBreakerConfig(settings),
		client.WithRetries(0),
		client.WithLogger(testutil.DiscardLogger()),
	)
	api := buildResilient(t, b, server.BaseURL())

	require.ErrorIs(t, api.Ping(context.Background()), client.ErrUpstream)
	assert.ErrorIs(t, api.Ping(context.Background()), client.ErrCircuitOpen)
	assert.Equal(t, 1, server.CaptureCount())
}

type onePingSetter struct{}

func (onePingSetter) Settings(target remigo.Target, method string) remigo.BreakerSettings {
	s := remigo.DefaultBreakerSettings()
	if method == "ping" {
		s.ConsecutiveFailures = 1
		s.MinRequests = ^uint32(0)
		s.Timeout = time.Minute
	}
	return s
}

func TestResilient_SetterFactoryConfiguresPerMethod(t *testing.T) {
	server := testutil.NewMockUpstream(t)
	server.On("/ping", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyError(w, 500, "boom")
	})

	cfg := testutil.NeverTripConfig()
	b := client.NewResilient(
		client.WithConfig(cfg),
		client.WithLogger(testutil.DiscardLogger()),
	)
	b.AttachSetter(onePingSetter{})
	api := buildResilient(t, b, server.BaseURL())

	// Setter overrides the never-trip defaults: one failure opens ping's breaker.
	require.ErrorIs(t, api.Ping(context.Background()), client.ErrUpstream)
	assert.ErrorIs(t, api.Ping(context.Background()), client.ErrCircuitOpen)
	assert.Equal(t, 1, server.CaptureCount())
}
