// ABOUTME: HTTP client for the bugtracker backend API
// ABOUTME: Wraps API calls with throttling, auth headers and error handling

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// DefaultAuthCookie is the cookie the backend issues on login
const DefaultAuthCookie = "fastapiusersauth"

// ErrUnauthorized is returned for any 401 response. Callers should drop
// the local session.
var ErrUnauthorized = errors.New("not authenticated")

// TokenSource supplies the current session token, or "" when logged out
type TokenSource interface {
	Token() string
}

// Client is the API client for the bugtracker backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	tokens     TokenSource
	authCookie string
	pages      singleflight.Group
	// writes is bumped after every non-GET request so list calls made after a
	// write never join a fetch that started before it
	writes atomic.Uint64
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRateLimit throttles outgoing requests. rps <= 0 disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTokenSource attaches the session token to every request
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithAuthCookie overrides the name of the session cookie
func WithAuthCookie(name string) Option {
	return func(c *Client) { c.authCookie = name }
}

// WithProxy routes connections through an ssh+socks5:// proxy URL.
// Other schemes are ignored.
func WithProxy(allProxy string) Option {
	return func(c *Client) {
		if !strings.HasPrefix(allProxy, "ssh+socks5://") {
			if allProxy != "" {
				slog.Warn("Ignoring unsupported ALL_PROXY scheme", "proxy", allProxy)
			}
			return
		}
		dial := createSOCKS5DialContextFunc(allProxy)
		if dial == nil {
			return
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.DialContext = dial
		c.httpClient.Transport = transport
		slog.Info("Using SSH+SOCKS5 proxy for backend requests")
	}
}

// New creates a new API client with the given base URL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter:    rate.NewLimiter(rate.Inf, 0),
		authCookie: DefaultAuthCookie,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend URL requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Detail is the backend's "detail" field. The backend sends a string for
// business errors and a list for schema validation errors; the latter is
// kept as its raw JSON text.
type Detail string

func (d *Detail) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*d = Detail(s)
		return nil
	}
	if string(data) == "null" {
		*d = ""
		return nil
	}
	*d = Detail(data)
	return nil
}

// ErrorResponse represents an API error body
type ErrorResponse struct {
	Detail Detail `json:"detail"`
	Error  string `json:"error"`
}

// newRequest builds a request with the common headers
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
			req.AddCookie(&http.Cookie{Name: c.authCookie, Value: token})
		}
	}
	return req, nil
}

// send waits for the limiter and performs the request. A 401 is turned
// into ErrUnauthorized and the body is closed.
func (c *Client) send(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, c.handleRequestError(ctx, err)
	}

	slog.Debug("Backend request", "method", req.Method, "path", req.URL.Path, "request_id", req.Header.Get("X-Request-ID"))

	resp, err := c.httpClient.Do(req)
	if req.Method != http.MethodGet {
		c.writes.Add(1)
	}
	if err != nil {
		return nil, c.handleRequestError(ctx, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		return nil, ErrUnauthorized
	}
	return resp, nil
}

// decode reads a response into out. When detailOK is set, a 4xx body that
// carries a detail is decoded into out as data instead of failing.
func (c *Client) decode(resp *http.Response, out any, detailOK bool) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("invalid response from backend: %w", err)
		}
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	if detailOK && resp.StatusCode >= 400 && resp.StatusCode < 500 {
		var probe ErrorResponse
		if json.Unmarshal(body, &probe) == nil && probe.Detail != "" {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("invalid response from backend: %w", err)
			}
			return nil
		}
	}

	return c.handleErrorResponse(resp.StatusCode, body)
}

// handleRequestError converts context errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	if ctx.Err() == context.Canceled {
		return fmt.Errorf("request canceled")
	}
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("request timed out")
	}
	return fmt.Errorf("cannot connect to backend at %s: %w", c.baseURL, err)
}

// handleErrorResponse parses API error responses
func (c *Client) handleErrorResponse(status int, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return fmt.Errorf("backend returned status %d", status)
	}
	switch {
	case errResp.Detail != "":
		return fmt.Errorf("backend error: %s", errResp.Detail)
	case errResp.Error != "":
		return fmt.Errorf("backend error: %s", errResp.Error)
	}
	return fmt.Errorf("backend returned status %d", status)
}
