package main

// Notes:
// - runGenerate: we run the whole command against an httptest Airtable
//   server with empty branding, so every page uses the fallback header and
//   text footer. PDF content is covered by the library tests.
// - Error paths: we verify exit codes and hints for the credential,
//   unknown region, rejected token, and a missing assets directory.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// TestRunGenerate - Successful generation
// ---------------------------------------------------------------------------

func TestRunGenerate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		wantFile string
	}{
		{
			name:     "region",
			args:     []string{"--region", "west"},
			wantFile: "West_Linecard_" + time.Now().Format("20060102") + ".pdf",
		},
		{
			name:     "state",
			args:     []string{"--state", "California"},
			wantFile: "California_Linecard_" + time.Now().Format("20060102") + ".pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv, hits := catalogServer(t, 0)
			ws := newWorkspace(t, srv.URL)
			env, stdout, stderr := testEnv(map[string]string{"AIRTABLE_PAT": testToken})

			args := append([]string{"linecard", "generate", "--config", ws.config}, tt.args...)
			if code := runMain(args, env); code != ExitSuccess {
				t.Fatalf("runMain() = %d, want %d\nstderr: %s", code, ExitSuccess, stderr.String())
			}

			if hits.Load() != 1 {
				t.Errorf("catalog requests = %d, want 1", hits.Load())
			}
			got := listPDFs(t, ws.outputDir)
			if len(got) != 1 || got[0] != tt.wantFile {
				t.Fatalf("output files = %v, want [%s]", got, tt.wantFile)
			}
			data, err := os.ReadFile(filepath.Join(ws.outputDir, tt.wantFile))
			if err != nil {
				t.Fatalf("reading output: %v", err)
			}
			if !strings.HasPrefix(string(data), "%PDF-") {
				t.Errorf("output is not a PDF: %q", data[:min(len(data), 16)])
			}
			if !strings.Contains(stdout.String(), "Created ") {
				t.Errorf("stdout should report the file, got %q", stdout.String())
			}
			if !strings.Contains(stderr.String(), "using fallback branding") {
				t.Errorf("expected fallback branding warning, got %q", stderr.String())
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunGenerate_OutputFlag - Explicit output path
// ---------------------------------------------------------------------------

func TestRunGenerate_OutputFlag(t *testing.T) {
	t.Parallel()

	srv, _ := catalogServer(t, 0)
	ws := newWorkspace(t, srv.URL)
	env, stdout, stderr := testEnv(map[string]string{"AIRTABLE_PAT": testToken})
	out := filepath.Join(t.TempDir(), "nested", "card.pdf")

	code := runMain([]string{"linecard", "generate", "--config", ws.config, "-r", "West", "-o", out, "-q"}, env)
	if code != ExitSuccess {
		t.Fatalf("runMain() = %d, want %d\nstderr: %s", code, ExitSuccess, stderr.String())
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("expected %s: %v", out, err)
	}
	if stdout.Len() != 0 {
		t.Errorf("quiet mode should print nothing, got %q", stdout.String())
	}
	if stderr.Len() != 0 {
		t.Errorf("quiet mode should suppress warnings, got %q", stderr.String())
	}
}

// ---------------------------------------------------------------------------
// TestRunGenerate_Errors - Exit codes and hints
// ---------------------------------------------------------------------------

func TestRunGenerate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		status       int
		vars         map[string]string
		args         []string
		wantCode     int
		wantHits     int32
		wantInStderr []string
	}{
		{
			name:         "missing credential",
			vars:         map[string]string{},
			args:         []string{"--region", "West"},
			wantCode:     ExitCredential,
			wantHits:     0,
			wantInStderr: []string{"missing data source credential", "hint: export AIRTABLE_PAT"},
		},
		{
			name:         "unknown region",
			vars:         map[string]string{"AIRTABLE_PAT": testToken},
			args:         []string{"--region", "Atlantis"},
			wantCode:     ExitUsage,
			wantHits:     0,
			wantInStderr: []string{"invalid region", "hint: available: Midwest, West"},
		},
		{
			name:         "state outside region",
			vars:         map[string]string{"AIRTABLE_PAT": testToken},
			args:         []string{"--region", "East", "--state", "california"},
			wantCode:     ExitUsage,
			wantHits:     0,
			wantInStderr: []string{"invalid state"},
		},
		{
			name:         "rejected token",
			status:       401,
			vars:         map[string]string{"AIRTABLE_PAT": "stale"},
			args:         []string{"--region", "West"},
			wantCode:     ExitRemote,
			wantHits:     1,
			wantInStderr: []string{"401", "hint: the access token was rejected"},
		},
		{
			name:         "server error",
			status:       503,
			vars:         map[string]string{"AIRTABLE_PAT": testToken},
			args:         []string{"--region", "West"},
			wantCode:     ExitRemote,
			wantHits:     1,
			wantInStderr: []string{"hint: Airtable is unavailable"},
		},
		{
			name:         "missing assets directory",
			vars:         map[string]string{"AIRTABLE_PAT": testToken},
			args:         []string{"--region", "West", "--assets", "/does/not/exist"},
			wantCode:     ExitUsage,
			wantHits:     0,
			wantInStderr: []string{"hint: expected header and footer images"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv, hits := catalogServer(t, tt.status)
			ws := newWorkspace(t, srv.URL)
			env, _, stderr := testEnv(tt.vars)

			args := append([]string{"linecard", "generate", "--config", ws.config}, tt.args...)
			code := runMain(args, env)
			if code != tt.wantCode {
				t.Errorf("runMain() = %d, want %d\nstderr: %s", code, tt.wantCode, stderr.String())
			}
			if hits.Load() != tt.wantHits {
				t.Errorf("catalog requests = %d, want %d", hits.Load(), tt.wantHits)
			}
			for _, want := range tt.wantInStderr {
				if !strings.Contains(stderr.String(), want) {
					t.Errorf("stderr should contain %q, got %q", want, stderr.String())
				}
			}
			if files := listPDFs(t, ws.outputDir); len(files) != 0 {
				t.Errorf("no document expected, found %v", files)
			}
		})
	}
}
