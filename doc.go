// Package remigo builds client proxies for declared remote-service
// interfaces, optionally wired with resilience fallback behavior.
//
// A remote service is declared as a struct whose exported fields are func
// values; remigo fills those fields with implementations that perform the
// remote call. The Targeter is the wiring-time entry point: given a client
// description, a proxy builder and a registry of named instances, it decides
// whether the proxy is plain, fallback-backed, or factory-fallback-backed.
//
// # Quick Start
//
//	type OrdersAPI struct {
//	    GetOrder func(ctx context.Context, req GetOrderRequest) (*Order, error)
//	}
//
//	reg := registry.NewInMemory()
//	builder := client.NewResilient()
//	targeter := remigo.NewTargeter()
//
//	proxy, err := targeter.Target(
//	    remigo.ClientInfo{Name: "orders-client"},
//	    builder, reg,
//	    remigo.NewTarget[OrdersAPI]("orders-client", "https://orders.internal"),
//	)
//	orders := proxy.(*OrdersAPI)
//	order, err := orders.GetOrder(ctx, GetOrderRequest{ID: "42"})
//
// # Fallbacks
//
// A static fallback is a locally-executing instance of the same declared
// struct, registered under the client's name. A fallback factory manufactures
// such an instance from the failure that triggered degradation:
//
//	reg.RegisterInstance("orders-client", &OrdersAPI{
//	    GetOrder: func(ctx context.Context, req GetOrderRequest) (*Order, error) {
//	        return cachedOrder(req.ID), nil
//	    },
//	})
//
//	proxy, err := targeter.Target(remigo.ClientInfo{
//	    Name:     "orders-client",
//	    Fallback: reflect.TypeOf(&OrdersAPI{}),
//	}, builder, reg, target)
//
// Misconfigured fallbacks fail the wiring pass loudly: ErrFallbackNotFound
// when no instance is registered, ErrFallbackTypeMismatch when the registered
// instance cannot serve the target.
//
// # Features
//
//   - Circuit breaker with sony/gobreaker, one breaker per client method
//   - Per-client rate limiting with golang.org/x/time/rate
//   - Retry with exponential backoff and crypto jitter
//   - Structured logging with slog
//   - TLS 1.2+ enforcement on generated clients
package remigo
