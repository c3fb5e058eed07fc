package linecard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-linecard/internal/airtable"
)

// DefaultTokenEnv is the environment variable holding the Airtable token.
const DefaultTokenEnv = "AIRTABLE_PAT"

// FetcherConfig locates the catalog table.
type FetcherConfig struct {
	BaseURL   string // default https://api.airtable.com
	BaseID    string
	Table     string
	TokenEnv  string        // default DefaultTokenEnv
	Timeout   time.Duration // per request, default 30s
	PageSize  int           // default 100
	RateLimit float64       // requests per second, 0 = unlimited
}

// Fetcher retrieves and groups catalog records.
type Fetcher struct {
	client    *airtable.Client
	tokenEnv  string
	lookupEnv func(string) (string, bool)
	logger    *zap.Logger
}

// NewFetcher creates a Fetcher. The credential is not read until a fetch.
func NewFetcher(cfg FetcherConfig, opts ...Option) (*Fetcher, error) {
	o := newOptions(opts)

	clientOpts := []airtable.Option{
		airtable.WithLogger(o.logger),
		airtable.WithRateLimit(cfg.RateLimit),
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, airtable.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		clientOpts = append(clientOpts, airtable.WithTimeout(cfg.Timeout))
	}
	if cfg.PageSize > 0 {
		clientOpts = append(clientOpts, airtable.WithPageSize(cfg.PageSize))
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, airtable.WithHTTPClient(o.httpClient))
	}

	client, err := airtable.New(cfg.BaseID, cfg.Table, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	tokenEnv := strings.TrimSpace(cfg.TokenEnv)
	if tokenEnv == "" {
		tokenEnv = DefaultTokenEnv
	}
	return &Fetcher{
		client:    client,
		tokenEnv:  tokenEnv,
		lookupEnv: o.lookupEnv,
		logger:    o.logger,
	}, nil
}

// TokenEnv returns the name of the credential variable.
func (f *Fetcher) TokenEnv() string { return f.tokenEnv }

// HasCredential reports whether the credential variable is set and non-blank.
func (f *Fetcher) HasCredential() bool {
	_, err := f.token()
	return err == nil
}

func (f *Fetcher) token() (string, error) {
	v, ok := f.lookupEnv(f.tokenEnv)
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%w: %s is not set", ErrMissingCredential, f.tokenEnv)
	}
	return strings.TrimSpace(v), nil
}

// FetchRecords retrieves every record across all pages.
func (f *Fetcher) FetchRecords(ctx context.Context) ([]Record, error) {
	token, err := f.token()
	if err != nil {
		return nil, err
	}

	raw, err := f.client.ListRecords(ctx, token)
	if err != nil {
		return nil, retrievalError(err)
	}

	records := make([]Record, len(raw))
	for i, r := range raw {
		records[i] = Record{ID: r.ID, CreatedTime: r.CreatedTime, Fields: r.Fields}
	}
	return records, nil
}

// FetchGrouped retrieves all records, keeps those matching region and the
// optional state, and groups them into sorted clusters.
func (f *Fetcher) FetchGrouped(ctx context.Context, region, state string) (Grouped, error) {
	if strings.TrimSpace(region) == "" {
		return nil, fmt.Errorf("%w: region is required", ErrInvalidRegion)
	}

	records, err := f.FetchRecords(ctx)
	if err != nil {
		return nil, err
	}

	filtered := FilterRecords(records, Criteria{Region: region, State: state})
	grouped, conflicts := groupRecords(filtered)
	for _, c := range conflicts {
		f.logger.Debug("parent slot claimed twice, keeping later record",
			zap.String("cluster", c.Key),
			zap.String("replaced", c.Replaced.ID),
			zap.String("kept", c.Winner.ID),
		)
	}

	f.logger.Info("records grouped",
		zap.String("region", region),
		zap.String("state", state),
		zap.Int("fetched", len(records)),
		zap.Int("matched", len(filtered)),
		zap.Int("clusters", grouped.Len()),
	)
	return grouped, nil
}

// retrievalError converts client errors to *RetrievalError. Context
// cancellation is passed through unchanged.
func retrievalError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var se *airtable.StatusError
	if errors.As(err, &se) {
		return &RetrievalError{StatusCode: se.StatusCode, Body: se.Body, Err: err}
	}
	if errors.Is(err, airtable.ErrMissingToken) {
		return fmt.Errorf("%w: %v", ErrMissingCredential, err)
	}
	return &RetrievalError{Err: err}
}
