package linecard

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-linecard/internal/fileutil"
	"github.com/alnah/go-linecard/internal/process"
)

// Rasterizer converts vector logos (SVG) to PNG.
type Rasterizer interface {
	Rasterize(ctx context.Context, svg []byte) ([]byte, error)
	Close() error
}

// rasterWidthPx is the CSS width SVG logos are drawn at before capture.
// Logos are printed at most 1.4in wide, so 600px is above 400 DPI.
const rasterWidthPx = 600

// rasterTemplate wraps an SVG data URL in a page with a white background.
const rasterTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="margin:0;background:#fff">
<img id="logo" style="display:block;width:%dpx;height:auto" src="data:image/svg+xml;base64,%s">
</body>
</html>`

// rodRasterizer implements Rasterizer with headless Chrome via go-rod.
// The browser is launched on first use; calls are serialized.
type rodRasterizer struct {
	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	timeout  time.Duration
}

// NewRodRasterizer creates a Rasterizer backed by headless Chrome. Rod
// downloads Chromium on first use if no browser is found.
func NewRodRasterizer(timeout time.Duration) Rasterizer {
	return &rodRasterizer{timeout: timeout}
}

// ensureBrowser lazily launches and connects to the browser.
func (r *rodRasterizer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New().Headless(true)

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}
	// NoSandbox is required in CI and most containers
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		r.killLauncher(l)
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	r.launcher = l
	r.browser = browser
	return nil
}

// Rasterize draws svg at rasterWidthPx and captures the image element.
func (r *rodRasterizer) Rasterize(ctx context.Context, svg []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	html := fmt.Sprintf(rasterTemplate, rasterWidthPx, base64.StdEncoding.EncodeToString(svg))
	path, cleanup, err := fileutil.WriteTempFile("", html, "html")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterize, err)
	}
	defer cleanup()

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: "file://" + path})
	if err != nil {
		return nil, fmt.Errorf("%w: opening page: %v", ErrRasterize, err)
	}
	defer func() { _ = page.Close() }()

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	page = page.Timeout(timeout)

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: loading page: %v", ErrRasterize, err)
	}
	el, err := page.Element("#logo")
	if err != nil {
		return nil, fmt.Errorf("%w: locating logo: %v", ErrRasterize, err)
	}
	png, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: capturing: %v", ErrRasterize, err)
	}
	return png, nil
}

// Close shuts the browser down and kills its process tree.
func (r *rodRasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.browser = nil
	r.killLauncher(r.launcher)
	r.launcher = nil
	return err
}

// killLauncher kills the Chrome process group, then lets the launcher
// clean up its user data directory.
func (r *rodRasterizer) killLauncher(l *launcher.Launcher) {
	if l == nil {
		return
	}
	_ = process.KillProcessGroup(l.PID())
	l.Kill()
	l.Cleanup()
}

// Compile-time interface check.
var _ Rasterizer = (*rodRasterizer)(nil)
