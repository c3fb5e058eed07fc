// Package config loads line card settings from YAML: Airtable access, the
// branding assets directory, output naming and retention, the web server,
// publishing, and the region directory with per-region footers.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alnah/go-linecard/internal/dateutil"
	"github.com/alnah/go-linecard/internal/fileutil"
	"github.com/alnah/go-linecard/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxURLLength     = 2048
	MaxIDLength      = 64
	MaxNameLength    = 100
	MaxPathLength    = 4096
	MaxPatternLength = dateutil.MaxPatternLength
	MaxFooterLength  = 500
	MaxFooterColumns = 2
	MaxPageSize      = 100 // Airtable list-records hard limit
)

// userConfigDirName is the directory under os.UserConfigDir searched for
// named configs.
const userConfigDirName = "go-linecard"

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all configuration for line card generation.
type Config struct {
	Airtable       AirtableConfig `yaml:"airtable"`
	Assets         AssetsConfig   `yaml:"assets"`
	Output         OutputConfig   `yaml:"output"`
	Render         RenderConfig   `yaml:"render"`
	Server         ServerConfig   `yaml:"server"`
	Publish        PublishConfig  `yaml:"publish"`
	Regions        []RegionConfig `yaml:"regions"`
	FallbackFooter FooterConfig   `yaml:"fallbackFooter"`
}

// AirtableConfig locates the catalog table.
type AirtableConfig struct {
	BaseURL   string        `yaml:"baseURL"`
	BaseID    string        `yaml:"baseID"`
	Table     string        `yaml:"table"`
	TokenEnv  string        `yaml:"tokenEnv"` // env var holding the personal access token
	Timeout   time.Duration `yaml:"timeout"`  // per request
	PageSize  int           `yaml:"pageSize"`
	RateLimit float64       `yaml:"rateLimit"` // requests per second, 0 = unlimited
}

// AssetsConfig locates branding images.
type AssetsConfig struct {
	Dir         string        `yaml:"dir"`
	Website     string        `yaml:"website"`
	IconName    string        `yaml:"iconName"` // footer icon base name, without extension
	LogoTimeout time.Duration `yaml:"logoTimeout"`
}

// OutputConfig controls generated file naming and retention.
type OutputConfig struct {
	Dir             string        `yaml:"dir"`
	MaxAge          time.Duration `yaml:"maxAge"`          // 0 disables the sweep
	FilenamePattern string        `yaml:"filenamePattern"` // dateutil pattern appended to the name
}

// RenderConfig controls document text.
type RenderConfig struct {
	TitleFormat string `yaml:"titleFormat"` // dateutil pattern
}

// ServerConfig configures the web front end.
type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	Workers       int           `yaml:"workers"` // 0 = auto
	PublicURL     string        `yaml:"publicURL"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
}

// PublishConfig selects where generated documents are made available.
type PublishConfig struct {
	Driver string   `yaml:"driver"` // "local" or "s3"
	S3     S3Config `yaml:"s3"`
}

// S3Config configures the s3 publish driver.
type S3Config struct {
	Bucket       string        `yaml:"bucket"`
	Region       string        `yaml:"region"`
	Prefix       string        `yaml:"prefix"`
	Endpoint     string        `yaml:"endpoint"` // S3-compatible stores (MinIO, R2)
	UsePathStyle bool          `yaml:"usePathStyle"`
	PresignTTL   time.Duration `yaml:"presignTTL"`
}

// RegionConfig is one sales region: its states and footer block.
type RegionConfig struct {
	Name   string       `yaml:"name"`
	States []string     `yaml:"states"`
	Footer FooterConfig `yaml:"footer"`
}

// FooterConfig is a text footer: up to two address columns, plus the
// regional icon when Icon is set.
type FooterConfig struct {
	Icon    bool     `yaml:"icon"`
	Columns []string `yaml:"columns"`
}

// Validate checks field lengths, ranges, and the region directory.
// Called by LoadConfig; available for configs built in code.
func (c *Config) Validate() error {
	if err := c.validateAirtable(); err != nil {
		return err
	}
	if err := validateFieldLength("assets.dir", c.Assets.Dir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("assets.website", c.Assets.Website, MaxURLLength); err != nil {
		return err
	}
	if err := validateFieldLength("assets.iconName", c.Assets.IconName, MaxNameLength); err != nil {
		return err
	}
	if c.Assets.LogoTimeout < 0 {
		return fmt.Errorf("%w: assets.logoTimeout must not be negative", ErrInvalidValue)
	}

	if err := validateFieldLength("output.dir", c.Output.Dir, MaxPathLength); err != nil {
		return err
	}
	if c.Output.MaxAge < 0 {
		return fmt.Errorf("%w: output.maxAge must not be negative", ErrInvalidValue)
	}
	if err := dateutil.Validate(c.Output.FilenamePattern); err != nil {
		return fmt.Errorf("output.filenamePattern: %w", err)
	}
	if err := dateutil.Validate(c.Render.TitleFormat); err != nil {
		return fmt.Errorf("render.titleFormat: %w", err)
	}

	if c.Server.Workers < 0 {
		return fmt.Errorf("%w: server.workers must not be negative, got %d", ErrInvalidValue, c.Server.Workers)
	}
	if c.Server.SweepInterval < 0 {
		return fmt.Errorf("%w: server.sweepInterval must not be negative", ErrInvalidValue)
	}
	if err := validateFieldLength("server.publicURL", c.Server.PublicURL, MaxURLLength); err != nil {
		return err
	}

	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := validateFooter("fallbackFooter", c.FallbackFooter); err != nil {
		return err
	}
	return c.validateRegions()
}

func (c *Config) validateAirtable() error {
	a := c.Airtable
	if err := validateFieldLength("airtable.baseURL", a.BaseURL, MaxURLLength); err != nil {
		return err
	}
	if u, err := url.Parse(a.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: airtable.baseURL must be an http(s) URL, got %q", ErrInvalidValue, a.BaseURL)
	}
	for _, f := range []struct{ name, value string }{
		{"airtable.baseID", a.BaseID},
		{"airtable.table", a.Table},
		{"airtable.tokenEnv", a.TokenEnv},
	} {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidValue, f.name)
		}
		if err := validateFieldLength(f.name, f.value, MaxIDLength); err != nil {
			return err
		}
	}
	if a.Timeout <= 0 {
		return fmt.Errorf("%w: airtable.timeout must be positive", ErrInvalidValue)
	}
	if a.PageSize < 1 || a.PageSize > MaxPageSize {
		return fmt.Errorf("%w: airtable.pageSize must be between 1 and %d, got %d", ErrInvalidValue, MaxPageSize, a.PageSize)
	}
	if a.RateLimit < 0 {
		return fmt.Errorf("%w: airtable.rateLimit must not be negative", ErrInvalidValue)
	}
	return nil
}

func (c *Config) validatePublish() error {
	switch c.Publish.Driver {
	case "local":
		return nil
	case "s3":
		if c.Publish.S3.Bucket == "" {
			return fmt.Errorf("%w: publish.s3.bucket is required for the s3 driver", ErrInvalidValue)
		}
		if c.Publish.S3.PresignTTL <= 0 || c.Publish.S3.PresignTTL > 7*24*time.Hour {
			return fmt.Errorf("%w: publish.s3.presignTTL must be between 1s and 168h", ErrInvalidValue)
		}
		return validateFieldLength("publish.s3.endpoint", c.Publish.S3.Endpoint, MaxURLLength)
	default:
		return fmt.Errorf("%w: publish.driver must be local or s3, got %q", ErrInvalidValue, c.Publish.Driver)
	}
}

func (c *Config) validateRegions() error {
	if len(c.Regions) == 0 {
		return fmt.Errorf("%w: at least one region is required", ErrInvalidValue)
	}
	regions := make(map[string]bool, len(c.Regions))
	states := make(map[string]string)
	for i, r := range c.Regions {
		field := fmt.Sprintf("regions[%d]", i)
		name := strings.ToLower(strings.TrimSpace(r.Name))
		if name == "" {
			return fmt.Errorf("%w: %s.name is required", ErrInvalidValue, field)
		}
		if err := validateFieldLength(field+".name", r.Name, MaxNameLength); err != nil {
			return err
		}
		if regions[name] {
			return fmt.Errorf("%w: duplicate region %q", ErrInvalidValue, r.Name)
		}
		regions[name] = true

		for _, s := range r.States {
			state := strings.ToLower(strings.TrimSpace(s))
			if state == "" {
				return fmt.Errorf("%w: %s has an empty state", ErrInvalidValue, field)
			}
			if owner, ok := states[state]; ok && owner != r.Name {
				return fmt.Errorf("%w: state %q belongs to both %q and %q", ErrInvalidValue, s, owner, r.Name)
			}
			states[state] = r.Name
		}
		if err := validateFooter(field+".footer", r.Footer); err != nil {
			return err
		}
	}
	return nil
}

func validateFooter(field string, f FooterConfig) error {
	if len(f.Columns) > MaxFooterColumns {
		return fmt.Errorf("%w: %s has %d columns, max %d", ErrInvalidValue, field, len(f.Columns), MaxFooterColumns)
	}
	for i, col := range f.Columns {
		if err := validateFieldLength(fmt.Sprintf("%s.columns[%d]", field, i), col, MaxFooterLength); err != nil {
			return err
		}
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

var parseDefaults = sync.OnceValues(func() (*Config, error) {
	var cfg Config
	if err := yamlutil.UnmarshalStrict(defaultsYAML, &cfg); err != nil {
		return nil, fmt.Errorf("%w: embedded defaults: %v", ErrConfigParse, err)
	}
	return &cfg, nil
})

// DefaultConfig returns the built-in configuration. Each call returns an
// independent copy.
func DefaultConfig() *Config {
	cfg, err := parseDefaults()
	if err != nil {
		panic(err)
	}
	return cfg.clone()
}

// LoadConfig loads configuration from a file path or config name, layered
// over DefaultConfig. A value containing a path separator is a file path;
// anything else is a name searched by SearchPaths. A missing file is an
// error (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		if configPath, err = resolveConfigPath(nameOrPath); err != nil {
			return nil, err
		}
	}

	var file Config
	if err := yamlutil.DecodeFileStrict(configPath, &file); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, configPath, err)
	}

	cfg := DefaultConfig()
	cfg.merge(&file)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SearchPaths lists, in order, the files tried for a config name: the
// current directory, then the user config directory, each with .yaml and
// .yml extensions.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(dir, userConfigDirName, name+ext))
		}
	}
	return paths
}

func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}

// merge overlays non-zero values from o. Regions replace the whole list.
func (c *Config) merge(o *Config) {
	setString(&c.Airtable.BaseURL, o.Airtable.BaseURL)
	setString(&c.Airtable.BaseID, o.Airtable.BaseID)
	setString(&c.Airtable.Table, o.Airtable.Table)
	setString(&c.Airtable.TokenEnv, o.Airtable.TokenEnv)
	setNonZero(&c.Airtable.Timeout, o.Airtable.Timeout)
	setNonZero(&c.Airtable.PageSize, o.Airtable.PageSize)
	setNonZero(&c.Airtable.RateLimit, o.Airtable.RateLimit)

	setString(&c.Assets.Dir, o.Assets.Dir)
	setString(&c.Assets.Website, o.Assets.Website)
	setString(&c.Assets.IconName, o.Assets.IconName)
	setNonZero(&c.Assets.LogoTimeout, o.Assets.LogoTimeout)

	setString(&c.Output.Dir, o.Output.Dir)
	setNonZero(&c.Output.MaxAge, o.Output.MaxAge)
	setString(&c.Output.FilenamePattern, o.Output.FilenamePattern)

	setString(&c.Render.TitleFormat, o.Render.TitleFormat)

	setString(&c.Server.Addr, o.Server.Addr)
	setNonZero(&c.Server.Workers, o.Server.Workers)
	setString(&c.Server.PublicURL, o.Server.PublicURL)
	setNonZero(&c.Server.SweepInterval, o.Server.SweepInterval)

	setString(&c.Publish.Driver, o.Publish.Driver)
	setString(&c.Publish.S3.Bucket, o.Publish.S3.Bucket)
	setString(&c.Publish.S3.Region, o.Publish.S3.Region)
	setString(&c.Publish.S3.Prefix, o.Publish.S3.Prefix)
	setString(&c.Publish.S3.Endpoint, o.Publish.S3.Endpoint)
	c.Publish.S3.UsePathStyle = c.Publish.S3.UsePathStyle || o.Publish.S3.UsePathStyle
	setNonZero(&c.Publish.S3.PresignTTL, o.Publish.S3.PresignTTL)

	if len(o.Regions) > 0 {
		c.Regions = cloneRegions(o.Regions)
	}
	if len(o.FallbackFooter.Columns) > 0 {
		c.FallbackFooter = FooterConfig{
			Icon:    o.FallbackFooter.Icon,
			Columns: append([]string(nil), o.FallbackFooter.Columns...),
		}
	}
}

func (c *Config) clone() *Config {
	out := *c
	out.Regions = cloneRegions(c.Regions)
	out.FallbackFooter.Columns = append([]string(nil), c.FallbackFooter.Columns...)
	return &out
}

func cloneRegions(in []RegionConfig) []RegionConfig {
	out := make([]RegionConfig, len(in))
	for i, r := range in {
		out[i] = RegionConfig{
			Name:   r.Name,
			States: append([]string(nil), r.States...),
			Footer: FooterConfig{
				Icon:    r.Footer.Icon,
				Columns: append([]string(nil), r.Footer.Columns...),
			},
		}
	}
	return out
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setNonZero[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}
