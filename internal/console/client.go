// Package console talks to the Redpanda Console HTTP API and normalizes its
// topic responses.
package console

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTimeout bounds every console request.
const DefaultTimeout = 10 * time.Second

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 64 << 20

// Client issues topic requests against one console base URL.
type Client struct {
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithDetailRateLimit throttles topic detail requests to rps per second.
// Zero or negative disables throttling.
func WithDetailRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a Client for baseURL (e.g. http://localhost:8080).
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the console base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListTopics fetches and normalizes GET {base}/api/topics.
func (c *Client) ListTopics(ctx context.Context) (*TopicList, error) {
	u := c.baseURL + "/api/topics"

	body, err := c.get(ctx, EndpointList, u)
	if err != nil {
		return nil, err
	}

	list, err := ParseTopicList(body)
	if err != nil {
		return nil, &DecodeError{Endpoint: EndpointList, URL: u, Err: err}
	}
	return list, nil
}

// TopicDetail fetches and normalizes GET {base}/api/topics/{name}.
func (c *Client) TopicDetail(ctx context.Context, name string) (*TopicDetail, error) {
	u := c.baseURL + "/api/topics/" + url.PathEscape(name)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Endpoint: EndpointDetail, URL: u, Err: err}
		}
	}

	body, err := c.get(ctx, EndpointDetail, u)
	if err != nil {
		return nil, err
	}

	detail, err := ParseTopicDetail(name, body)
	if err != nil {
		return nil, &DecodeError{Endpoint: EndpointDetail, URL: u, Err: err}
	}
	return detail, nil
}

func (c *Client) get(ctx context.Context, endpoint, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, URL: u, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &APIError{
			Endpoint:   endpoint,
			URL:        u,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, URL: u, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}
