// Package publish makes generated documents reachable by URL, either from
// the server's own output route or from an S3-compatible bucket.
package publish

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Drivers.
const (
	DriverLocal = "local"
	DriverS3    = "s3"
)

// Sentinel errors.
var (
	ErrConfig  = errors.New("invalid publish configuration")
	ErrPublish = errors.New("publish failed")
)

// Publisher returns a URL for a document written to path.
type Publisher interface {
	Publish(ctx context.Context, path string) (string, error)
	Driver() string
}

// OutputRoute is the server route that serves the output directory.
const OutputRoute = "output"

// Local publishes by URL only: the server serves the output directory
// under /output/.
type Local struct {
	base *url.URL
}

// NewLocal creates a Local publisher for the server's public base URL.
func NewLocal(publicURL string) (*Local, error) {
	u, err := url.Parse(strings.TrimSpace(publicURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: public URL must be an absolute http(s) URL: %q", ErrConfig, publicURL)
	}
	return &Local{base: u}, nil
}

// Driver returns DriverLocal.
func (l *Local) Driver() string { return DriverLocal }

// Publish returns {publicURL}/output/{filename}.
func (l *Local) Publish(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := filepath.Base(path)
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("%w: no file name in %q", ErrPublish, path)
	}
	return l.base.JoinPath(OutputRoute, name).String(), nil
}

var (
	_ Publisher = (*Local)(nil)
	_ Publisher = (*S3)(nil)
)
