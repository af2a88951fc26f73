// Package transport is the HTTP client for the matching backend. It
// implements workflow.Collaborator against the backend's REST API.
package transport

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/constants"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/logging"
)

// DefaultAPIKeyHeader carries the API key unless another scheme is configured.
const DefaultAPIKeyHeader = "X-API-Key"

// Client talks to the matching backend.
type Client struct {
	http    *http.Client
	auth    Authenticator
	apiKey  string
	baseURL string
	timeout time.Duration
	logger  *zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithAPIKey sends key on every request using auth, or X-API-Key when auth is nil.
func WithAPIKey(key string, auth Authenticator) Option {
	return func(c *Client) {
		c.apiKey = key
		if auth != nil {
			c.auth = auth
		}
	}
}

// WithTimeout bounds every request. Without it, analysis and processing use
// their own longer defaults.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the client's logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the backend at baseURL. An empty baseURL selects
// the local default.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = constants.DefaultMatcherURL
	}
	c := &Client{
		http:    &http.Client{},
		auth:    &HeaderAuth{Header: DefaultAPIKeyHeader},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do performs req with authentication applied.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.apiKey != "" {
		c.auth.Apply(req, c.apiKey)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	evt := c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Dur("duration", time.Since(start))
	if err != nil {
		evt.Err(err).Msg("Backend request failed")
		return nil, err
	}
	evt.Int("status", resp.StatusCode).Msg("Backend request")
	return resp, nil
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

// withTimeout applies the configured timeout, or fallback when none is set.
func (c *Client) withTimeout(ctx context.Context, fallback time.Duration) (context.Context, context.CancelFunc) {
	d := c.timeout
	if d <= 0 {
		d = fallback
	}
	return context.WithTimeout(ctx, d)
}

// newRequest builds a request, wrapping failures as transport errors for op.
func (c *Client) newRequest(ctx context.Context, op, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, errors.WrapTransport(op, err)
	}
	return req, nil
}
