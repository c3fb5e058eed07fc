package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/alnah/go-linecard/internal/fileutil"
)

// QR code defaults and bounds.
const (
	defaultQRCodeFile = "qrcode.png"
	defaultQRCodeSize = 256
	minQRCodeSize     = 64
	maxQRCodeSize     = 2048
	qrFilePerm        = 0o644
)

// Sentinel errors for the qrcode command.
var (
	ErrInvalidURL  = errors.New("invalid URL")
	ErrWriteQRCode = errors.New("failed to write QR code")
)

// encodeQRCode renders content as a size×size PNG.
func encodeQRCode(content string, size int) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, size)
}

// runQRCode writes a QR code PNG for a URL.
func runQRCode(args []string, env *Environment) error {
	f, positional, err := parseQRCodeFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("%w: expected exactly one URL", ErrUsage)
	}
	target := strings.TrimSpace(positional[0])
	if !fileutil.IsURL(target) {
		return fmt.Errorf("%w: %q must start with http:// or https://", ErrInvalidURL, target)
	}
	if f.size < minQRCodeSize || f.size > maxQRCodeSize {
		return fmt.Errorf("%w: --size must be between %d and %d", ErrUsage, minQRCodeSize, maxQRCodeSize)
	}

	png, err := encodeQRCode(target, f.size)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteQRCode, err)
	}
	err = fileutil.AtomicWriteFile(f.output, qrFilePerm, func(w io.Writer) error {
		_, err := w.Write(png)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteQRCode, err)
	}

	fmt.Fprintf(env.Stdout, "Created %s\n", f.output)
	return nil
}
