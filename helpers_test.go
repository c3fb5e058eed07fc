package linecard

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

// rec builds a record from field pairs.
func rec(id string, kv ...any) Record {
	fields := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i].(string)] = kv[i+1]
	}
	return Record{ID: id, Fields: fields}
}

// pngBytes returns a w×h PNG with a transparent left half.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			c := color.NRGBA{R: 200, G: 30, B: 30, A: 255}
			if x < w/2 {
				c.A = 0
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

// writePNG writes a PNG into dir and returns its path.
func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, pngBytes(t, w, h), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return p
}

// fakeRasterizer returns a fixed PNG for any SVG.
type fakeRasterizer struct {
	png    []byte
	err    error
	calls  atomic.Int32
	closed atomic.Bool
}

func (f *fakeRasterizer) Rasterize(ctx context.Context, svg []byte) ([]byte, error) {
	f.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.png, f.err
}

func (f *fakeRasterizer) Close() error {
	f.closed.Store(true)
	return nil
}

var _ Rasterizer = (*fakeRasterizer)(nil)

func envWith(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}
