package linecard

import (
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-linecard/internal/richtext"
)

// Option configures a Fetcher, Renderer, or Generator. Each constructor
// reads the options relevant to it and ignores the rest.
type Option func(*options)

type options struct {
	logger      *zap.Logger
	httpClient  *http.Client // Airtable requests
	logoClient  *http.Client // logo downloads
	lookupEnv   func(string) (string, bool)
	now         func() time.Time
	rasterizer  Rasterizer
	flattener   richtext.Flattener
	logoTimeout time.Duration
	rasterTime  time.Duration
}

// Default timeouts.
const (
	defaultLogoTimeout   = 15 * time.Second
	defaultRasterTimeout = 30 * time.Second
)

func newOptions(opts []Option) *options {
	o := &options{
		logger:      zap.NewNop(),
		lookupEnv:   os.LookupEnv,
		now:         time.Now,
		logoTimeout: defaultLogoTimeout,
		rasterTime:  defaultRasterTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithHTTPClient sets the client used for record retrieval.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithLogoClient sets the client used for logo downloads.
func WithLogoClient(c *http.Client) Option {
	return func(o *options) { o.logoClient = c }
}

// WithEnvLookup replaces os.LookupEnv for reading the credential.
func WithEnvLookup(fn func(string) (string, bool)) Option {
	return func(o *options) {
		if fn != nil {
			o.lookupEnv = fn
		}
	}
}

// WithClock replaces time.Now for titles and output names.
func WithClock(fn func() time.Time) Option {
	return func(o *options) {
		if fn != nil {
			o.now = fn
		}
	}
}

// WithRasterizer sets the SVG rasterizer. Without one, a headless browser
// is launched on the first SVG logo.
func WithRasterizer(r Rasterizer) Option {
	return func(o *options) { o.rasterizer = r }
}

// WithFlattener replaces the Markdown description flattener.
func WithFlattener(f richtext.Flattener) Option {
	return func(o *options) { o.flattener = f }
}

// WithLogoTimeout bounds each logo download.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithLogoTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("linecard: WithLogoTimeout duration must be positive")
	}
	return func(o *options) { o.logoTimeout = d }
}

// WithRasterTimeout bounds each SVG rasterization.
// Panics if d <= 0.
func WithRasterTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("linecard: WithRasterTimeout duration must be positive")
	}
	return func(o *options) { o.rasterTime = d }
}
