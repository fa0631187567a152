package testutil

import (
	"encoding/json"
	"net/http"
)

// ReplyResult writes a success envelope with the given result.
func ReplyResult(w http.ResponseWriter, result any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"ok":     true,
		"result": result,
	})
}

// ReplyError writes an error envelope.
func ReplyError(w http.ResponseWriter, code int, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"ok":          false,
		"error_code":  code,
		"description": description,
	})
}

// ReplyErrorWithRetry writes an error envelope carrying retry_after seconds.
func ReplyErrorWithRetry(w http.ResponseWriter, code int, description string, retryAfter int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"ok":          false,
		"error_code":  code,
		"description": description,
		"parameters":  map[string]any{"retry_after": retryAfter},
	})
}
