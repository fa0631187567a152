// remigo-probe calls one method on a remote service through a resilient
// proxy, printing the raw result. Useful for checking an endpoint speaks the
// response envelope before declaring a full client for it.
//
// Usage:
//
//	remigo-probe -url http://orders.internal -method getOrder -data '{"id":"o-1"}'
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"time"

	"github.com/prilive-com/remigo"
	"github.com/prilive-com/remigo/client"
)

var (
	baseURL = flag.String("url", "", "Base URL of the remote service (required)")
	method  = flag.String("method", "", "Wire method name to call (required)")
	data    = flag.String("data", "{}", "JSON request payload")
	retries = flag.Int("retries", 1, "Maximum retries")
	timeout = flag.Duration("timeout", 30*time.Second, "Overall call timeout")
	verbose = flag.Bool("v", false, "Debug logging")
)

func main() {
	flag.Parse()
	if *baseURL == "" || *method == "" {
		flag.Usage()
		os.Exit(2)
	}

	logLevel := slog.LevelWarn
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	cfg, err := client.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg.MaxRetries = *retries

	var payload json.RawMessage
	if err := json.Unmarshal([]byte(*data), &payload); err != nil {
		logger.Error("invalid request payload", "error", err)
		os.Exit(2)
	}

	result, err := probe(logger, *cfg, *baseURL, *method, payload, *timeout)
	if err != nil {
		logger.Error("probe failed", "method", *method, "error", err)
		os.Exit(1)
	}

	fmt.Println(string(result))
}

// probe declares a one-method prototype on the fly, tagged with the wire
// method name, and dispatches the payload through a resilient proxy.
func probe(logger *slog.Logger, cfg client.Config, baseURL, method string, payload json.RawMessage, timeout time.Duration) (json.RawMessage, error) {
	callType := reflect.FuncOf(
		[]reflect.Type{
			reflect.TypeOf((*context.Context)(nil)).Elem(),
			reflect.TypeOf(json.RawMessage{}),
		},
		[]reflect.Type{
			reflect.TypeOf(json.RawMessage{}),
			reflect.TypeOf((*error)(nil)).Elem(),
		},
		false,
	)
	protoType := reflect.StructOf([]reflect.StructField{{
		Name: "Call",
		Type: callType,
		Tag:  reflect.StructTag(fmt.Sprintf("remigo:%q", method)),
	}})

	builder := client.NewResilient(
		client.WithConfig(cfg),
		client.WithLogger(logger),
	)
	target := remigo.Target{
		Type:    protoType,
		Name:    "probe",
		BaseURL: baseURL,
	}

	proxy, err := builder.Build(target)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	call := reflect.ValueOf(proxy).Elem().Field(0)
	out := call.Call([]reflect.Value{
		reflect.ValueOf(ctx),
		reflect.ValueOf(payload),
	})
	if e := out[1]; !e.IsNil() {
		return nil, e.Interface().(error)
	}
	return out[0].Interface().(json.RawMessage), nil
}
