package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	linecard "github.com/alnah/go-linecard"
	"github.com/alnah/go-linecard/internal/assets"
)

const testToken = "secret"

// fakeRasterizer stands in for the headless browser.
type fakeRasterizer struct {
	closed atomic.Bool
}

func (f *fakeRasterizer) Rasterize(context.Context, []byte) ([]byte, error) {
	return nil, linecard.ErrRasterize
}

func (f *fakeRasterizer) Close() error {
	f.closed.Store(true)
	return nil
}

var _ linecard.Rasterizer = (*fakeRasterizer)(nil)

// testEnv returns an Environment with captured output and the given
// process environment.
func testEnv(vars map[string]string) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	env := &Environment{
		Now:    time.Now,
		Stdout: &stdout,
		Stderr: &stderr,
		LookupEnv: func(k string) (string, bool) {
			v, ok := vars[k]
			return v, ok
		},
		Environ: func() []string {
			out := make([]string, 0, len(vars))
			for k, v := range vars {
				out = append(out, k+"="+v)
			}
			sort.Strings(out)
			return out
		},
		Templates: assets.NewEmbeddedLoader(),
		Options:   []linecard.Option{linecard.WithRasterizer(&fakeRasterizer{})},
	}
	return env, &stdout, &stderr
}

// catalogServer serves one page of catalog records. status overrides the
// response code when non-zero.
func catalogServer(t *testing.T, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	records := []any{
		record("r1", "Acme", "", "West", "california"),
		record("r2", "Acme Sub", "Acme", "West", "california, nevada"),
		record("r3", "Beta", "", "West", "nevada"),
		record("r4", "Gamma", "", "East", "florida"),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if status != 0 {
			http.Error(w, `{"error":"NOT_AUTHORIZED"}`, status)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			http.Error(w, `{"error":"AUTHENTICATION_REQUIRED"}`, http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"records": records})
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func record(id, name, parent, region, states string) map[string]any {
	fields := map[string]any{
		"Manufacturer Names":  name,
		"Region":              []any{region},
		"Manufacturer States": states,
		"Description":         "**" + name + "** makes things.",
	}
	if parent != "" {
		fields["Parent"] = parent
	}
	return map[string]any{"id": id, "createdTime": "2026-01-01T00:00:00.000Z", "fields": fields}
}

// testWorkspace holds the directories and config file of one CLI run.
type testWorkspace struct {
	config    string
	assetsDir string
	outputDir string
}

// newWorkspace writes a config file pointing at baseURL with empty
// assets and output directories.
func newWorkspace(t *testing.T, baseURL string) testWorkspace {
	t.Helper()
	root := t.TempDir()
	ws := testWorkspace{
		config:    filepath.Join(root, "linecard.yaml"),
		assetsDir: filepath.Join(root, "static"),
		outputDir: filepath.Join(root, "output"),
	}
	if err := os.MkdirAll(ws.assetsDir, 0o750); err != nil {
		t.Fatalf("creating assets dir: %v", err)
	}
	content := fmt.Sprintf(`airtable:
  baseURL: %s
  baseID: appTest
  table: tblTest
assets:
  dir: %s
output:
  dir: %s
`, baseURL, ws.assetsDir, ws.outputDir)
	if err := os.WriteFile(ws.config, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return ws
}

// listPDFs returns the PDF file names in dir.
func listPDFs(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = filepath.Base(m)
	}
	return names
}
