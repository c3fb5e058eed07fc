package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-linecard/internal/config"
)

// envPrefix marks the CLI's own environment variables.
const envPrefix = "LINECARD_"

// envConfig holds configuration from environment variables.
// Provides container-friendly overrides without requiring YAML files.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string // LINECARD_CONFIG: config file name or path
	AssetsDir  string // LINECARD_ASSETS_DIR: branding images
	OutputDir  string // LINECARD_OUTPUT_DIR: generated documents

	// Tier 2 - Server
	Addr      string        // LINECARD_ADDR: listen address
	PublicURL string        // LINECARD_PUBLIC_URL: base URL for links
	Workers   int           // LINECARD_WORKERS: concurrent generations
	MaxAge    time.Duration // LINECARD_MAX_AGE: output retention

	// Tier 3 - Publishing
	PublishDriver string // LINECARD_PUBLISH_DRIVER: local or s3
	S3Bucket      string // LINECARD_S3_BUCKET: bucket name
	S3Endpoint    string // LINECARD_S3_ENDPOINT: S3-compatible endpoint
}

// knownEnvVars lists valid LINECARD_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	// Tier 1 - Essential
	"LINECARD_CONFIG":     true,
	"LINECARD_ASSETS_DIR": true,
	"LINECARD_OUTPUT_DIR": true,
	// Tier 2 - Server
	"LINECARD_ADDR":       true,
	"LINECARD_PUBLIC_URL": true,
	"LINECARD_WORKERS":    true,
	"LINECARD_MAX_AGE":    true,
	// Tier 3 - Publishing
	"LINECARD_PUBLISH_DRIVER": true,
	"LINECARD_S3_BUCKET":      true,
	"LINECARD_S3_ENDPOINT":    true,
}

// loadEnvConfig reads configuration from environment variables.
// Unparseable numbers and durations are ignored.
func loadEnvConfig(env *Environment) *envConfig {
	cfg := &envConfig{
		// Tier 1
		ConfigPath: env.getenv("LINECARD_CONFIG"),
		AssetsDir:  env.getenv("LINECARD_ASSETS_DIR"),
		OutputDir:  env.getenv("LINECARD_OUTPUT_DIR"),
		// Tier 2
		Addr:      env.getenv("LINECARD_ADDR"),
		PublicURL: env.getenv("LINECARD_PUBLIC_URL"),
		// Tier 3
		PublishDriver: env.getenv("LINECARD_PUBLISH_DRIVER"),
		S3Bucket:      env.getenv("LINECARD_S3_BUCKET"),
		S3Endpoint:    env.getenv("LINECARD_S3_ENDPOINT"),
	}

	if workers := env.getenv("LINECARD_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}
	if maxAge := env.getenv("LINECARD_MAX_AGE"); maxAge != "" {
		if d, err := time.ParseDuration(maxAge); err == nil && d > 0 {
			cfg.MaxAge = d
		}
	}

	return cfg
}

// warnUnknownEnvVars prints warnings for unrecognized LINECARD_* variables.
// Helps catch typos like LINECARD_OUTPUTDIR instead of LINECARD_OUTPUT_DIR.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, kv := range environ {
		if !strings.HasPrefix(kv, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(kv, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig overlays environment values on cfg.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied afterwards by each command).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	// Tier 1
	if env.AssetsDir != "" {
		cfg.Assets.Dir = env.AssetsDir
	}
	if env.OutputDir != "" {
		cfg.Output.Dir = env.OutputDir
	}

	// Tier 2
	if env.Addr != "" {
		cfg.Server.Addr = env.Addr
	}
	if env.PublicURL != "" {
		cfg.Server.PublicURL = env.PublicURL
	}
	if env.Workers > 0 {
		cfg.Server.Workers = env.Workers
	}
	if env.MaxAge > 0 {
		cfg.Output.MaxAge = env.MaxAge
	}

	// Tier 3
	if env.PublishDriver != "" {
		cfg.Publish.Driver = env.PublishDriver
	}
	if env.S3Bucket != "" {
		cfg.Publish.S3.Bucket = env.S3Bucket
	}
	if env.S3Endpoint != "" {
		cfg.Publish.S3.Endpoint = env.S3Endpoint
	}
}
