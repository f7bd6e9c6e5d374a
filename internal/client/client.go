// Package client is the storefront's gateway to the external REST API. Every
// call carries the session credential and a 401 from any authenticated call
// invalidates the session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/wolfeidau/storefront/internal/telemetry"
)

// Config holds common client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
	// CacheDir holds cached catalog responses. Empty keeps them in memory.
	CacheDir string
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8081",
		Timeout: 30 * time.Second,
	}
}

// UnauthorizedFunc is called when the API rejects the credential of a call.
type UnauthorizedFunc func(ctx context.Context)

// Client calls the external API.
type Client struct {
	baseURL        *url.URL
	base           http.RoundTripper
	http           *http.Client
	catalog        *http.Client
	onUnauthorized UnauthorizedFunc
	log            zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used by the client.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithUnauthorizedHandler sets the hook run when a call is rejected with 401.
func WithUnauthorizedHandler(fn UnauthorizedFunc) Option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

// WithTransport sets the round tripper requests are sent through.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.base = rt
	}
}

// New creates a client for cfg.BaseURL. Credentials are taken from tokens on
// every request.
func New(cfg Config, tokens oauth2.TokenSource, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("client: base URL is required")
	}

	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("client: invalid base URL: %w", err)
	}

	c := &Client{
		baseURL: base,
		log:     zerolog.Nop(),
		base:    http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(c)
	}

	auth := NewAuthTransport(c.base, tokens)
	c.http = &http.Client{Transport: auth, Timeout: cfg.Timeout}
	c.catalog = NewCachingHTTPClient(cfg.CacheDir, auth, cfg.Timeout)

	return c, nil
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

type request struct {
	method string
	path   string
	body   any
	// anonymous calls never trigger the unauthorized hook
	anonymous bool
	// noCredential sends the request without a bearer
	noCredential bool
	cached       bool
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	var body io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	reqCtx := ctx
	if req.noCredential {
		reqCtx = withoutCredential(ctx)
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, req.method, c.baseURL.String()+req.path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	hc := c.http
	if req.cached {
		hc = c.catalog
	}

	started := time.Now()
	resp, err := hc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	telemetry.GetMetrics().RecordAPIRequest(ctx, req.method, resp.StatusCode, float64(time.Since(started).Milliseconds()))

	c.log.Debug().
		Str("method", req.method).
		Str("path", req.path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(started)).
		Msg("api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp)
		if resp.StatusCode == http.StatusUnauthorized && !req.anonymous {
			c.unauthorized(ctx, req.path)
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.path, err)
	}

	return nil
}

func (c *Client) unauthorized(ctx context.Context, path string) {
	telemetry.GetMetrics().RecordUnauthorized(ctx, path)
	c.log.Info().Str("path", path).Msg("credential rejected by api")

	if c.onUnauthorized != nil {
		c.onUnauthorized(ctx)
	}
}
