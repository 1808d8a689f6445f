// Package upstream holds the HTTP plumbing shared by every external gateway:
// per-call deadlines, optional rate limiting, client spans and latency samples.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/fr0stylo/trustguard/internal/observability"
)

const maxResponseBytes = 16 << 20

// Response is a fully read upstream response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 200 status.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode == http.StatusOK
}

// Client performs calls against one upstream gateway.
type Client struct {
	gateway string
	timeout time.Duration
	http    *http.Client
	limiter *rate.Limiter
	tracker *LatencyTracker
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithRateLimit caps outbound calls to rps per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTracker records call latency into tracker.
func WithTracker(tracker *LatencyTracker) Option {
	return func(c *Client) {
		c.tracker = tracker
	}
}

// New creates a client for gateway with a per-call timeout.
func New(gateway string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		gateway: gateway,
		timeout: timeout,
		http:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, op, rawURL string) (*Response, error) {
	return c.Do(ctx, op, http.MethodGet, rawURL, nil)
}

// PostJSON encodes body as JSON and POSTs it.
func (c *Client) PostJSON(ctx context.Context, op, rawURL string, body any) (*Response, error) {
	return c.Do(ctx, op, http.MethodPost, rawURL, body)
}

// Do performs one call. The body, when non-nil, is sent as JSON. Transport
// failures and timeouts are returned as errors; any HTTP status is returned
// as a Response for the gateway to interpret.
func (c *Client) Do(ctx context.Context, op, method, rawURL string, body any) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	ctx, span := observability.StartUpstreamSpan(ctx, c.gateway, op)
	defer span.End()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("%s rate limit: %w", c.gateway, err)
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", c.gateway, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", c.gateway, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.tracker.Observe(c.gateway+"."+op, time.Since(start))
		span.RecordError(err)
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.tracker.Observe(c.gateway+"."+op, time.Since(start))
	span.SetStatusCode(resp.StatusCode)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("read %s response: %w", c.gateway, err)
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}
