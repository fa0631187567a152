package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/prilive-com/remigo/internal/httpclient"
)

const (
	maxResponseSize = 10 << 20 // 10MB
)

// apiResponse is the standard response envelope remote services reply with.
type apiResponse struct {
	OK          bool                `json:"ok"`
	Result      json.RawMessage     `json:"result,omitempty"`
	ErrorCode   int                 `json:"error_code,omitempty"`
	Description string              `json:"description,omitempty"`
	Parameters  *responseParameters `json:"parameters,omitempty"`
}

// responseParameters carries special parameters of an error reply.
type responseParameters struct {
	RetryAfter int `json:"retry_after,omitempty"`
}

// httpInvoker dispatches proxied calls as JSON POSTs to baseURL/<method>.
type httpInvoker struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func (in *httpInvoker) invoke(ctx context.Context, spec *methodSpec, args []reflect.Value) (reflect.Value, error) {
	resp, err := in.doRequest(ctx, spec.name, payloadOf(spec, args))
	if err != nil {
		return reflect.Value{}, err
	}
	return decodeResult(spec, resp)
}

func (in *httpInvoker) doRequest(ctx context.Context, method string, payload any) (*apiResponse, error) {
	url := in.baseURL + "/" + method

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("remigo: failed to marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("remigo: failed to create request: %w", err)
	}

	resp, err := httpclient.DoJSON(ctx, in.client, req)
	if err != nil {
		return nil, fmt.Errorf("remigo: request failed: %w", err)
	}
	defer resp.Body.Close()

	// Read maxResponseSize+1 to detect overflow without a false positive
	limitedReader := io.LimitReader(resp.Body, maxResponseSize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("remigo: failed to read response: %w", err)
	}

	if int64(len(body)) > maxResponseSize {
		return nil, ErrResponseTooLarge
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, NewAPIError(method, resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return nil, fmt.Errorf("remigo: failed to parse response: %w", err)
	}

	if !apiResp.OK {
		code := apiResp.ErrorCode
		if code == 0 {
			code = resp.StatusCode
		}
		// Parse retry_after: JSON body (primary) + HTTP header (fallback)
		retryAfter := parseRetryAfter(&apiResp, resp)
		if retryAfter > 0 {
			return nil, NewAPIErrorWithRetry(method, code, apiResp.Description, retryAfter)
		}
		return nil, NewAPIError(method, code, apiResp.Description)
	}

	return &apiResp, nil
}

func decodeResult(spec *methodSpec, resp *apiResponse) (reflect.Value, error) {
	if spec.result == nil {
		return reflect.Value{}, nil
	}
	rv := reflect.New(spec.result)
	if len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, rv.Interface()); err != nil {
			return reflect.Value{}, fmt.Errorf("remigo: failed to parse result: %w", err)
		}
	}
	return rv.Elem(), nil
}

// parseRetryAfter extracts retry_after from the JSON body (primary) or the
// HTTP Retry-After header (fallback).
func parseRetryAfter(apiResp *apiResponse, httpResp *http.Response) time.Duration {
	if apiResp.Parameters != nil && apiResp.Parameters.RetryAfter > 0 {
		return time.Duration(apiResp.Parameters.RetryAfter) * time.Second
	}

	if httpResp != nil {
		if retryHeader := httpResp.Header.Get("Retry-After"); retryHeader != "" {
			if seconds, err := strconv.Atoi(retryHeader); err == nil && seconds > 0 {
				return time.Duration(seconds) * time.Second
			}
		}
	}

	return 0
}
