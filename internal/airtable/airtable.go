// Package airtable lists records from an Airtable table through the REST
// API, following pagination offsets until the table is exhausted.
package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public Airtable API endpoint.
const DefaultBaseURL = "https://api.airtable.com"

// Defaults applied by New.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultPageSize  = 100
	DefaultRateLimit = 5.0 // Airtable allows 5 requests per second per base

	// MaxErrorBody caps how much of a failed response body is kept.
	MaxErrorBody = 4 << 10
)

// Sentinel errors.
var (
	ErrMissingToken = errors.New("airtable: missing access token")
	ErrStatus       = errors.New("airtable: unexpected status")
	ErrDecode       = errors.New("airtable: invalid response")
	ErrConfig       = errors.New("airtable: invalid client config")
)

// StatusError is returned for a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string // truncated to MaxErrorBody
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("airtable: status %d: %s", e.StatusCode, e.Body)
}

// Is reports ErrStatus so callers can match any status failure.
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// Record is a row as returned by the API.
type Record struct {
	ID          string         `json:"id"`
	CreatedTime string         `json:"createdTime"`
	Fields      map[string]any `json:"fields"`
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

// Client lists records from one table. Safe for concurrent use; the rate
// limiter is shared by all calls.
type Client struct {
	endpoint   *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	pageSize   int
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root, e.g. for tests or a proxy.
func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(raw); err == nil {
			c.endpoint = u
		}
	}
}

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each page request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithPageSize sets the pageSize query parameter (1..100).
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 && n <= DefaultPageSize {
			c.pageSize = n
		}
	}
}

// WithRateLimit sets requests per second; 0 disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithLogger sets the logger for page-level debug output.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Client for baseID/table.
func New(baseID, table string, opts ...Option) (*Client, error) {
	baseID, table = strings.TrimSpace(baseID), strings.TrimSpace(table)
	if baseID == "" || table == "" {
		return nil, fmt.Errorf("%w: base ID and table are required", ErrConfig)
	}

	c := &Client{
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		timeout:    DefaultTimeout,
		pageSize:   DefaultPageSize,
		logger:     zap.NewNop(),
	}
	WithBaseURL(DefaultBaseURL)(c)
	for _, opt := range opts {
		opt(c)
	}
	if c.endpoint == nil || (c.endpoint.Scheme != "http" && c.endpoint.Scheme != "https") {
		return nil, fmt.Errorf("%w: base URL must be http(s)", ErrConfig)
	}

	c.endpoint = c.endpoint.JoinPath("v0", baseID, table)
	return c, nil
}

// Endpoint returns the list-records URL without query parameters.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// ListRecords fetches every record, one page at a time, until a response
// carries no offset. Records keep the order the API returned them in.
func (c *Client) ListRecords(ctx context.Context, token string) ([]Record, error) {
	var all []Record
	err := c.EachPage(ctx, token, func(page []Record) error {
		all = append(all, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// EachPage calls fn for each page in order. Iteration stops at the first
// error from the API or from fn.
func (c *Client) EachPage(ctx context.Context, token string, fn func([]Record) error) error {
	if strings.TrimSpace(token) == "" {
		return ErrMissingToken
	}

	offset := ""
	for page := 1; ; page++ {
		resp, err := c.fetchPage(ctx, token, offset)
		if err != nil {
			return err
		}
		c.logger.Debug("airtable page fetched",
			zap.Int("page", page),
			zap.Int("records", len(resp.Records)),
			zap.Bool("more", resp.Offset != ""),
		)
		if err := fn(resp.Records); err != nil {
			return err
		}
		if resp.Offset == "" {
			return nil
		}
		offset = resp.Offset
	}
}

func (c *Client) fetchPage(ctx context.Context, token, offset string) (*listResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := *c.endpoint
	q := url.Values{}
	q.Set("pageSize", strconv.Itoa(c.pageSize))
	if offset != "" {
		q.Set("offset", offset)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("airtable: building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("airtable: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var out listResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return &out, nil
}
