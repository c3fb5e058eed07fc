package main

// Notes:
// - runMain: we test dispatch and exit codes for every command without
//   network access; generate and serve are covered in their own files.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestRunMain - Command dispatch
// ---------------------------------------------------------------------------

func TestRunMain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		args         []string
		wantCode     int
		wantInStdout []string
		wantInStderr []string
	}{
		{
			name:         "no args shows usage",
			args:         []string{"linecard"},
			wantCode:     ExitUsage,
			wantInStderr: []string{"Usage: linecard"},
		},
		{
			name:         "version command exits 0",
			args:         []string{"linecard", "version"},
			wantCode:     ExitSuccess,
			wantInStdout: []string{"linecard dev"},
		},
		{
			name:         "help command exits 0",
			args:         []string{"linecard", "help"},
			wantCode:     ExitSuccess,
			wantInStdout: []string{"Usage: linecard", "Commands:", "generate", "serve"},
		},
		{
			name:         "help generate shows generate help",
			args:         []string{"linecard", "help", "generate"},
			wantCode:     ExitSuccess,
			wantInStdout: []string{"Usage: linecard generate", "--region", "AIRTABLE_PAT"},
		},
		{
			name:         "help serve lists routes",
			args:         []string{"linecard", "help", "serve"},
			wantCode:     ExitSuccess,
			wantInStdout: []string{"/generate-pdf/regional", "/metrics"},
		},
		{
			name:         "help unknown command",
			args:         []string{"linecard", "help", "bogus"},
			wantCode:     ExitUsage,
			wantInStderr: []string{"unknown command: bogus"},
		},
		{
			name:         "unknown command exits with ExitUsage",
			args:         []string{"linecard", "unknown"},
			wantCode:     ExitUsage,
			wantInStderr: []string{"unknown command: unknown"},
		},
		{
			name:         "generate without selection",
			args:         []string{"linecard", "generate"},
			wantCode:     ExitUsage,
			wantInStderr: []string{"--region or --state is required"},
		},
		{
			name:         "generate with unknown flag",
			args:         []string{"linecard", "generate", "--bogus"},
			wantCode:     ExitUsage,
			wantInStderr: []string{"bogus"},
		},
		{
			name:     "generate -h exits 0",
			args:     []string{"linecard", "generate", "-h"},
			wantCode: ExitSuccess,
		},
		{
			name:         "generate with positional args",
			args:         []string{"linecard", "generate", "--region", "West", "extra"},
			wantCode:     ExitUsage,
			wantInStderr: []string{"unexpected arguments: extra"},
		},
		{
			name:         "missing config file",
			args:         []string{"linecard", "regions", "--config", "./does-not-exist.yaml"},
			wantCode:     ExitUsage,
			wantInStderr: []string{"config file not found"},
		},
		{
			name:         "config name not found shows hint",
			args:         []string{"linecard", "regions", "--config", "no-such-config-name"},
			wantCode:     ExitUsage,
			wantInStderr: []string{"hint: use --config"},
		},
		{
			name:         "serve with negative workers",
			args:         []string{"linecard", "serve", "--workers", "-1"},
			wantCode:     ExitUsage,
			wantInStderr: []string{"--workers"},
		},
		{
			name:         "qrcode without url",
			args:         []string{"linecard", "qrcode"},
			wantCode:     ExitUsage,
			wantInStderr: []string{"expected exactly one URL"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := testEnv(nil)
			code := runMain(tt.args, env)

			if code != tt.wantCode {
				t.Errorf("runMain(%v) = %d, want %d\nstderr: %s", tt.args, code, tt.wantCode, stderr.String())
			}
			for _, want := range tt.wantInStdout {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("stdout should contain %q, got %q", want, stdout.String())
				}
			}
			for _, want := range tt.wantInStderr {
				if !strings.Contains(stderr.String(), want) {
					t.Errorf("stderr should contain %q, got %q", want, stderr.String())
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunMain_UnknownEnvWarning - Typo warnings reach stderr
// ---------------------------------------------------------------------------

func TestRunMain_UnknownEnvWarning(t *testing.T) {
	t.Parallel()

	env, _, stderr := testEnv(map[string]string{"LINECARD_WORKRS": "2"})
	code := runMain([]string{"linecard", "regions"}, env)
	if code != ExitSuccess {
		t.Fatalf("runMain() = %d, want %d\nstderr: %s", code, ExitSuccess, stderr.String())
	}
	if !strings.Contains(stderr.String(), "unknown environment variable LINECARD_WORKRS") {
		t.Errorf("expected typo warning, got %q", stderr.String())
	}
}
