package linecard

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // register decoder
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/bmp" // register decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Image limits.
const (
	// MaxLogoBytes caps a downloaded or local image.
	MaxLogoBytes = 10 << 20
	// maxImagePx caps the longest side after normalization. Header bands
	// span 8.5in, so 2550px keeps them at 300 DPI.
	maxImagePx = 2550
)

// imageFile is a normalized opaque PNG on disk, ready for the PDF writer.
type imageFile struct {
	Path string
	W, H int // pixels
}

// Size returns the pixel dimensions as floats for layout math.
func (f imageFile) Size() (float64, float64) {
	return float64(f.W), float64(f.H)
}

// imageStore downloads and normalizes images into a per-render directory.
type imageStore struct {
	dir        string
	seq        int
	client     *http.Client
	timeout    time.Duration
	rasterizer Rasterizer
}

func newImageStore(dir string, client *http.Client, timeout time.Duration, r Rasterizer) *imageStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &imageStore{dir: dir, client: client, timeout: timeout, rasterizer: r}
}

// Download fetches ref.URL and normalizes it.
func (s *imageStore) Download(ctx context.Context, ref LogoRef) (imageFile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URL, nil)
	if err != nil {
		return imageFile{}, fmt.Errorf("%w: %v", ErrLogoDownload, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return imageFile{}, fmt.Errorf("%w: %v", ErrLogoDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return imageFile{}, fmt.Errorf("%w: status %d", ErrLogoDownload, resp.StatusCode)
	}
	data, err := readCapped(resp.Body)
	if err != nil {
		return imageFile{}, fmt.Errorf("%w: %v", ErrLogoDownload, err)
	}

	svg := isSVG(data, ref.Type, resp.Header.Get("Content-Type"), ref.Filename, ref.URL)
	return s.normalize(ctx, data, svg)
}

// Local normalizes an image file on disk (branding assets).
func (s *imageStore) Local(ctx context.Context, p string) (imageFile, error) {
	f, err := os.Open(p) // #nosec G304 -- path resolved inside the assets directory
	if err != nil {
		return imageFile{}, fmt.Errorf("%w: %v", ErrLogoDecode, err)
	}
	defer f.Close()

	data, err := readCapped(f)
	if err != nil {
		return imageFile{}, fmt.Errorf("%w: %v", ErrLogoDecode, err)
	}
	return s.normalize(ctx, data, isSVG(data, "", "", p, ""))
}

func (s *imageStore) normalize(ctx context.Context, data []byte, svg bool) (imageFile, error) {
	if svg {
		if s.rasterizer == nil {
			return imageFile{}, fmt.Errorf("%w: no rasterizer for SVG", ErrRasterize)
		}
		raster, err := s.rasterizer.Rasterize(ctx, data)
		if err != nil {
			return imageFile{}, err
		}
		data = raster
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return imageFile{}, fmt.Errorf("%w: %v", ErrLogoDecode, err)
	}
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return imageFile{}, fmt.Errorf("%w: empty image", ErrLogoDecode)
	}

	dst := flatten(src, maxImagePx)

	s.seq++
	out := filepath.Join(s.dir, fmt.Sprintf("img-%03d.png", s.seq))
	f, err := os.Create(out) // #nosec G304 -- path inside the render temp dir
	if err != nil {
		return imageFile{}, fmt.Errorf("%w: %v", ErrLogoDecode, err)
	}
	if err := png.Encode(f, dst); err != nil {
		_ = f.Close()
		return imageFile{}, fmt.Errorf("%w: encoding: %v", ErrLogoDecode, err)
	}
	if err := f.Close(); err != nil {
		return imageFile{}, fmt.Errorf("%w: %v", ErrLogoDecode, err)
	}
	return imageFile{Path: out, W: dst.Bounds().Dx(), H: dst.Bounds().Dy()}, nil
}

// flatten composites src onto white, downscaling so the longest side is at
// most maxSide. The result is opaque, so it encodes as an 8-bit RGB PNG.
func flatten(src image.Image, maxSide int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if longest := max(w, h); longest > maxSide {
		w = max(1, w*maxSide/longest)
		h = max(1, h*maxSide/longest)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	}
	return dst
}

func readCapped(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxLogoBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxLogoBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", MaxLogoBytes)
	}
	return data, nil
}

// isSVG checks declared types, then names, then content.
func isSVG(data []byte, declared, contentType, name, rawURL string) bool {
	for _, t := range []string{declared, contentType} {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(t)), "image/svg") {
			return true
		}
	}
	for _, n := range []string{name, rawURL} {
		if n == "" {
			continue
		}
		if i := strings.IndexAny(n, "?#"); i >= 0 {
			n = n[:i]
		}
		if strings.EqualFold(path.Ext(n), ".svg") {
			return true
		}
	}
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}
