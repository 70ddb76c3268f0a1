package opaclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/permitio/pdp-sidecar/core"
	"github.com/permitio/pdp-sidecar/internal/pdperrors"
	"github.com/permitio/pdp-sidecar/resilience"
)

// Client talks to the OPA-compatible policy engine's named-decision API.
type Client struct {
	baseURL string
	debug   *bool
	http    *http.Client
	retry   *resilience.RetryConfig
	cb      *resilience.CircuitBreaker
}

// NewClient builds a Client bound to baseURL (no trailing slash required)
// with the given per-request timeout. debug, when non-nil, is injected as
// use_debugger into every envelope whose payload is a JSON object.
// Transport-level failures (the policy engine unreachable or resetting the
// connection) are retried with backoff; a non-2xx response is not, since
// that is a policy engine answer, not a transport failure. Every retry
// attempt first checks a circuit breaker, so once a policy engine that is
// down trips the breaker's error rate, the attempts fail fast instead of
// each paying a full timeout (the backoff between attempts still applies).
func NewClient(baseURL string, timeout time.Duration, debug *bool) *Client {
	cbConfig := resilience.DefaultConfig()
	cbConfig.Name = "opa-client"
	cb, _ := resilience.NewCircuitBreaker(cbConfig)

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		debug:   debug,
		http:    &http.Client{Timeout: timeout},
		retry:   resilience.DefaultRetryConfig(),
		cb:      cb,
	}
}

// Query posts payload to endpoint (any leading slash stripped) wrapped in
// the {"input": ...} envelope, and decodes the {"result": ...} envelope
// into dst.
func (c *Client) Query(ctx context.Context, endpoint string, payload interface{}, dst interface{}) error {
	ctx, span := core.Tracer().Start(ctx, "opaclient.query")
	defer span.End()
	span.SetAttributes(attribute.String("opa.endpoint", endpoint))

	err := c.query(ctx, endpoint, payload, dst)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}
	return err
}

func (c *Client) query(ctx context.Context, endpoint string, payload interface{}, dst interface{}) error {
	envelope, err := buildEnvelope(payload, c.debug)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, strings.TrimPrefix(endpoint, "/"))

	var resp *http.Response
	retryErr := resilience.RetryWithCircuitBreaker(ctx, c.retry, c.cb, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(envelope))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		var doErr error
		resp, doErr = c.http.Do(req)
		return doErr
	})
	if retryErr != nil {
		return fmt.Errorf("%w: %v", pdperrors.ErrRequestFailed, retryErr)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return &pdperrors.InvalidStatusError{Upstream: "policy engine", StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", pdperrors.ErrParseResponse, err)
	}

	return decodeResult(body, dst)
}
