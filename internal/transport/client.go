// Package transport provides the HTTP client used against the issue
// tracker REST API: pluggable authentication plus exponential backoff on
// rate limits and server errors.
package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/releasetools/fixvet/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for a single HTTP request.
var DefaultHTTPTimeout = 30 * time.Second

// Client provides HTTP client functionality with authentication and retry.
type Client struct {
	http       *http.Client
	auth       Authenticator
	newBackOff func() backoff.BackOff
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithBackOff sets the retry policy factory. Mainly useful in tests.
func WithBackOff(factory func() backoff.BackOff) Option {
	return func(c *Client) {
		c.newBackOff = factory
	}
}

// New creates a new transport client with the specified authenticator.
func New(auth Authenticator, opts ...Option) *Client {
	c := &Client{
		http:       &http.Client{Timeout: DefaultHTTPTimeout},
		auth:       auth,
		newBackOff: newRetryBackOff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newRetryBackOff returns the default retry policy for tracker requests:
// exponential backoff, giving up after fifteen seconds.
func newRetryBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 15 * time.Second
	return bo
}

// Do performs an HTTP request with authentication applied, retrying on
// network errors, 429, and 5xx responses. The request is rebuilt per
// attempt so bodies replay safely. Other non-2xx responses are returned
// to the caller undecoded.
func (c *Client) Do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var resp *http.Response

	operation := func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return backoff.Permanent(errors.WrapIO("create", "request "+method+" "+url, err))
		}

		c.auth.Apply(req)
		req.Header.Set("Accept", "application/json")
		if method == http.MethodPost || method == http.MethodPut {
			req.Header.Set("Content-Type", "application/json")
		}

		r, err := c.http.Do(req)
		if err != nil {
			return err // Network errors are retryable
		}

		if r.StatusCode == http.StatusTooManyRequests || r.StatusCode >= 500 {
			// Drain so the connection can be reused across attempts.
			_, _ = io.Copy(io.Discard, r.Body)
			_ = r.Body.Close()
			return errors.NewTrackerError(url, r.StatusCode, http.StatusText(r.StatusCode))
		}

		resp = r
		return nil
	}

	bo := backoff.WithContext(c.newBackOff(), ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, err
	}
	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, url, nil)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, url string, body []byte) (*http.Response, error) {
	return c.Do(ctx, http.MethodPut, url, body)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, url string, body []byte) (*http.Response, error) {
	return c.Do(ctx, http.MethodPost, url, body)
}
