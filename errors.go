package linecard

import (
	"errors"
	"fmt"
)

// Sentinel errors for library operations.
var (
	// Configuration errors abort before any network call.
	ErrMissingCredential = errors.New("missing data source credential")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrInvalidDirectory  = errors.New("invalid region directory")

	// Input validation errors.
	ErrInvalidRegion   = errors.New("invalid region")
	ErrInvalidState    = errors.New("invalid state")
	ErrEmptyOutputPath = errors.New("output path cannot be empty")

	// Retrieval and rendering errors.
	ErrRetrieval    = errors.New("record retrieval failed")
	ErrRender       = errors.New("document render failed")
	ErrAssetMissing = errors.New("branding asset missing")

	// Logo errors are absorbed by the renderer and only logged.
	ErrLogoDownload   = errors.New("logo download failed")
	ErrLogoDecode     = errors.New("logo decode failed")
	ErrRasterize      = errors.New("logo rasterizing failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
)

// RetrievalError describes a failed request to the record source.
// StatusCode is 0 when no response was received.
type RetrievalError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *RetrievalError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%v: %v", ErrRetrieval, e.Err)
	}
	return fmt.Sprintf("%v: status %d: %s", ErrRetrieval, e.StatusCode, e.Body)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// Is matches ErrRetrieval.
func (e *RetrievalError) Is(target error) bool { return target == ErrRetrieval }

// RenderError wraps a failure in one rendering step.
type RenderError struct {
	Op  string // "open output", "draw header", "write", ...
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrRender, e.Op, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Is matches ErrRender.
func (e *RenderError) Is(target error) bool { return target == ErrRender }
