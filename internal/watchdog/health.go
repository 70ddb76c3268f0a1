package watchdog

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HealthChecker performs a single health check and reports an error
// describing the failure, or nil on success.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// HTTPHealthChecker probes a URL with a plain GET and compares the response
// status to ExpectedStatus.
type HTTPHealthChecker struct {
	client         *http.Client
	url            string
	expectedStatus int
	timeout        time.Duration
}

// NewHTTPHealthChecker builds a checker with the spec defaults: expected
// status 200, 5s per-check timeout.
func NewHTTPHealthChecker(url string) *HTTPHealthChecker {
	return &HTTPHealthChecker{
		client:         &http.Client{},
		url:            url,
		expectedStatus: http.StatusOK,
		timeout:        5 * time.Second,
	}
}

func (h *HTTPHealthChecker) WithExpectedStatus(status int) *HTTPHealthChecker {
	h.expectedStatus = status
	return h
}

func (h *HTTPHealthChecker) WithTimeout(timeout time.Duration) *HTTPHealthChecker {
	h.timeout = timeout
	return h
}

// Check performs the GET and reports ok iff the response status exactly
// matches ExpectedStatus. The returned error chains the causing error for
// diagnostics, matching the original's report() helper.
func (h *HTTPHealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return fmt.Errorf("health check: building request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check: request to %s failed: %w", h.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != h.expectedStatus {
		return fmt.Errorf("health check: %s returned status %d, expected %d", h.url, resp.StatusCode, h.expectedStatus)
	}

	return nil
}
