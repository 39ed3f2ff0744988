package docproc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultBaseURL is the API root used when NewClient is given an empty URL.
const DefaultBaseURL = "http://localhost:8000/api/v1"

// RequestIDHeader carries a per-request identifier for correlating client and backend logs.
const RequestIDHeader = "X-Request-ID"

// Client is a document-processing API client.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the HTTP client timeout. By default no timeout is set and
// callers bound requests through their context.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		hc := *client.httpClient
		hc.Timeout = d
		client.httpClient = &hc
	}
}

// WithLogger sets the logger used for per-request debug logging.
func WithLogger(l *slog.Logger) Option {
	return func(client *Client) {
		if l != nil {
			client.logger = l
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(client *Client) {
		client.userAgent = ua
	}
}

// WithTracing wraps the HTTP transport so every request produces an
// OpenTelemetry client span using the global tracer provider. A client passed
// to WithHTTPClient is copied, never modified.
func WithTracing() Option {
	return func(client *Client) {
		hc := *client.httpClient
		if hc.Transport == nil {
			hc.Transport = http.DefaultTransport
		}
		hc.Transport = otelhttp.NewTransport(hc.Transport)
		client.httpClient = &hc
	}
}

// NewClient creates a new API client.
// baseURL is the API root including the version segment (e.g., "http://localhost:8000/api/v1").
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  "docproc-go",
		httpClient: &http.Client{},
		logger:     slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// buildURL joins path onto the base URL and encodes query.
func (c *Client) buildURL(path string, query url.Values) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + path

	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	return u.String(), nil
}

// request describes one round trip.
type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

// doRequest performs an HTTP request and decodes the JSON response into result.
// Non-2xx responses are returned as *Error with the backend detail extracted;
// Op and Message are filled in by wrapError.
func (c *Client) doRequest(ctx context.Context, r request, result interface{}) error {
	fullURL, err := c.buildURL(r.path, r.query)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, r.method, fullURL, r.body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "request failed",
			"method", r.method, "path", r.path, "request_id", requestID,
			"duration", time.Since(start), "error", err)
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.logger.DebugContext(ctx, "request",
		"method", r.method, "path", r.path, "request_id", requestID,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(body),
		}
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}
