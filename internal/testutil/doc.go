// Package testutil provides testing utilities for remigo.
//
// This package is intended for internal testing only and should not be
// imported by external packages.
//
// # Mock Upstream
//
// MockUpstream provides a fake remote service speaking the standard response
// envelope:
//
//	server := testutil.NewMockUpstream(t)
//	server.On("/getOrder", func(w http.ResponseWriter, r *http.Request) {
//	    testutil.ReplyResult(w, map[string]any{"id": "42"})
//	})
//	// Use server.BaseURL() as the target base URL
//
// # Request Capture
//
// All requests are automatically captured and can be inspected:
//
//	cap := server.LastCapture()
//	cap.AssertPath(t, "/getOrder")
//	cap.AssertJSONField(t, "id", "42")
//
// # Builder Presets
//
// BreakerTestConfig returns a client.Config whose breaker trips after two
// consecutive failures and recovers quickly, keeping breaker tests fast.
package testutil
