package assets

import "errors"

// Sentinel errors for asset operations.
var (
	// ErrAssetNotFound indicates no file matches the requested name.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrUnsupportedFormat indicates a match exists only in a format that
	// cannot be drawn (PDF). Wraps ErrAssetNotFound.
	ErrUnsupportedFormat = errors.New("unsupported asset format")

	// ErrTemplateNotFound indicates the requested template does not exist.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrInvalidAssetName indicates the asset name is empty or normalizes
	// to nothing.
	ErrInvalidAssetName = errors.New("invalid asset name")

	// ErrInvalidBasePath indicates the configured base path is not a valid directory.
	ErrInvalidBasePath = errors.New("invalid base path")

	// ErrAssetRead indicates an I/O error occurred while reading the asset directory.
	ErrAssetRead = errors.New("failed to read asset")

	// ErrPathTraversal indicates a file resolving outside the base path.
	ErrPathTraversal = errors.New("path traversal detected")
)
