package inbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// ErrDecode wraps responses whose body is not a valid check payload.
var ErrDecode = errors.New("malformed notification payload")

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("check notifications failed (%d)", e.Code)
	}
	return fmt.Sprintf("check notifications failed (%d): %s", e.Code, e.Body)
}

// Client polls the "check notifications" endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	cookie     string
}

// Option customizes a Client.
type Option func(*Client)

// WithToken sends an Authorization bearer token with each request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithCookie sends a raw Cookie header with each request.
func WithCookie(cookie string) Option {
	return func(c *Client) { c.cookie = strings.TrimSpace(cookie) }
}

// WithTimeout bounds each request. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a client for the absolute endpoint URL.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		endpoint:   endpoint,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the URL the client polls.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Check issues one GET and decodes the current notification state.
func (c *Client) Check(ctx context.Context) (PollResult, error) {
	req, err := c.newRequest(ctx)
	if err != nil {
		return PollResult{}, err
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return PollResult{}, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return PollResult{}, &StatusError{Code: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var payload checkPayload
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return PollResult{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return payload.result(), nil
}

func (c *Client) newRequest(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "notibar")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	return req, nil
}
