// Package transport is the shared HTTP client for the Sonarr and Emby adapters.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ellisd4/tagsync/pkg/constants"
	"github.com/ellisd4/tagsync/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// UserAgent is sent with every request.
var UserAgent = "tagsync"

// Client provides HTTP client functionality with authentication.
type Client struct {
	http    *http.Client
	auth    Authenticator
	apiKey  string
	baseURL string
	service string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d, Transport: c.http.Transport}
		}
	}
}

// New creates a transport client for service rooted at baseURL.
// A nil auth sends no credentials.
func New(service, baseURL, apiKey string, auth Authenticator, opts ...Option) *Client {
	if auth == nil {
		auth = &NoAuth{}
	}
	c := &Client{
		http:    &http.Client{Timeout: DefaultHTTPTimeout},
		auth:    auth,
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		service: service,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Service returns the name used in errors.
func (c *Client) Service() string {
	return c.service
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL joins path and query onto the base URL.
func (c *Client) URL(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Do performs an HTTP request with authentication applied.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.WrapParse("json", "request body", err)
		}
		reader = bytes.NewReader(data)
	}

	var req *http.Request
	var err error
	if reader != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.URL(path, query), reader)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.URL(path, query), nil)
	}
	if err != nil {
		return nil, &errors.ValidationError{Field: "url", Value: c.baseURL, Message: err.Error()}
	}

	c.auth.Apply(req, c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.http.Do(req)
}

// GetJSON performs a GET and decodes the JSON response into target.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, target any) error {
	resp, err := c.Do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return DecodeResponse(resp, c.service, target)
}

// PostJSON performs a POST with a JSON body and decodes the response into
// target when target is non-nil.
func (c *Client) PostJSON(ctx context.Context, path string, query url.Values, body, target any) error {
	resp, err := c.Do(ctx, http.MethodPost, path, query, body)
	if err != nil {
		return err
	}
	return DecodeResponse(resp, c.service, target)
}
