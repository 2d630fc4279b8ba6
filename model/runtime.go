package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultConnectTimeout = 3 * time.Second
	defaultReadTimeout    = 25 * time.Second
	defaultMaxAttempts    = 3
)

// Runtime is the shared HTTP client for model invocations. Both the
// embedding and generation clients sit on one Runtime, constructed once by
// the invocation host and reused across invocations.
type Runtime struct {
	baseURL     string
	client      *http.Client
	maxAttempts int
}

// NewRuntime builds a Runtime for the model endpoint at baseURL with
// bounded connect/read timeouts and a small fixed retry budget.
func NewRuntime(baseURL string) *Runtime {
	return &Runtime{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: defaultReadTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: defaultConnectTimeout}).DialContext,
			},
		},
		maxAttempts: defaultMaxAttempts,
	}
}

// Invoke POSTs the JSON payload to the invoke route of modelID and returns
// the raw response body. Network errors and 5xx responses are retried up to
// the attempt budget; 4xx responses fail immediately.
func (rt *Runtime) Invoke(ctx context.Context, modelID string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal invoke request for model %s: %w", modelID, err)
	}

	endpoint := rt.baseURL + "/model/" + url.PathEscape(modelID) + "/invoke"

	var lastErr error
	for attempt := 1; attempt <= rt.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
			}
		}

		raw, retryable, err := rt.invokeOnce(ctx, endpoint, body)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return nil, fmt.Errorf("invoke model %s: %w", modelID, lastErr)
}

func (rt *Runtime) invokeOnce(ctx context.Context, endpoint string, body []byte) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := rt.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(raw), maxPayloadExcerpt))
		return nil, resp.StatusCode >= http.StatusInternalServerError, err
	}
	return raw, false, nil
}
