// Package api is the HTTP client for the depot backend. Every method
// maps one REST endpoint; responses are translated into domain types
// and HTTP failures into domain errors so callers never see raw status
// codes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/depotctl/depotctl/internal/domain"
)

const defaultTimeout = 30 * time.Second

// Client talks to the depot REST backend
type Client struct {
	baseURL string
	http    *http.Client

	// username attributes requests to the active session; the server
	// remains the authorization authority
	username string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client (used in tests)
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// New creates a client for the given base URL
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetUsername attributes subsequent requests to the given user
func (c *Client) SetUsername(username string) {
	c.username = username
}

// Username returns the attributed user, if any
func (c *Client) Username() string {
	return c.username
}

// endpoint builds an absolute URL with optional query values
func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// newRequest creates a request with standard headers attached
func (c *Client) newRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.username != "" {
		req.Header.Set("X-Depot-User", c.username)
	}
	return req, nil
}

// doJSON performs a request with an optional JSON body and decodes an
// optional JSON response. A nil out discards the body.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := c.newRequest(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp); err != nil {
		return err
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// doStream performs a request and hands the raw body to the caller.
// The caller must close the reader.
func (c *Client) doStream(ctx context.Context, path string, query url.Values) (io.ReadCloser, int64, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint(path, query), nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}

	if err := mapStatus(resp); err != nil {
		resp.Body.Close()
		return nil, 0, err
	}
	return resp.Body, resp.ContentLength, nil
}
