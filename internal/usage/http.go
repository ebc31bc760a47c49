package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	maxRetries    = 2
	baseRetryWait = 250 * time.Millisecond
)

// HTTPReporter posts listens as JSON to an endpoint.
type HTTPReporter struct {
	httpClient *http.Client
	endpoint   string
	token      string
}

// NewHTTPReporter creates a reporter for endpoint. token, when set, is sent
// as a bearer token.
func NewHTTPReporter(endpoint, token string) *HTTPReporter {
	return &HTTPReporter{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   endpoint,
		token:      token,
	}
}

// Report sends l. Server errors are retried with backoff; client errors
// are not.
func (r *HTTPReporter) Report(ctx context.Context, l Listen) error {
	body, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to marshal listen: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			wait := baseRetryWait * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, strings.NewReader(string(body)))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if r.token != "" {
			req.Header.Set("Authorization", "Bearer "+r.token)
		}

		resp, err := r.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()

		switch {
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("usage endpoint error: status %d, body: %s", resp.StatusCode, string(respBody))
			continue
		case resp.StatusCode >= 400:
			return fmt.Errorf("usage endpoint rejected listen: status %d, body: %s", resp.StatusCode, string(respBody))
		}
		return nil
	}

	return fmt.Errorf("report failed after %d retries: %w", maxRetries, lastErr)
}
