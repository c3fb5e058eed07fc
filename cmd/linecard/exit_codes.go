package main

import (
	"errors"
	"os"

	linecard "github.com/alnah/go-linecard"
	"github.com/alnah/go-linecard/internal/config"
	"github.com/alnah/go-linecard/internal/dateutil"
	"github.com/alnah/go-linecard/internal/fileutil"
	"github.com/alnah/go-linecard/internal/publish"
)

// Exit codes for the linecard CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess    = 0 // Document generated
	ExitGeneral    = 1 // General/unexpected error
	ExitUsage      = 2 // Invalid flags, config, region, or state
	ExitIO         = 3 // Assets, output directory, or document write errors
	ExitRemote     = 4 // Airtable or publishing errors
	ExitCredential = 5 // Airtable token not set
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Credential (exit 5)
	if errors.Is(err, linecard.ErrMissingCredential) {
		return ExitCredential
	}

	// Remote data source and publishing (exit 4)
	if errors.Is(err, linecard.ErrRetrieval) ||
		errors.Is(err, publish.ErrPublish) {
		return ExitRemote
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrInvalidURL) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, dateutil.ErrInvalidDateFormat) ||
		errors.Is(err, publish.ErrConfig) ||
		errors.Is(err, linecard.ErrInvalidConfig) ||
		errors.Is(err, linecard.ErrInvalidDirectory) ||
		errors.Is(err, linecard.ErrInvalidRegion) ||
		errors.Is(err, linecard.ErrInvalidState) ||
		errors.Is(err, linecard.ErrEmptyOutputPath) ||
		errors.Is(err, fileutil.ErrUnsafeFilename) {
		return ExitUsage
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, linecard.ErrRender) ||
		errors.Is(err, ErrWriteQRCode) {
		return ExitIO
	}

	return ExitGeneral
}
