package linecard

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-linecard/internal/assets"
	"github.com/alnah/go-linecard/internal/dateutil"
	"github.com/alnah/go-linecard/internal/fileutil"
)

// GeneratorConfig wires a Generator.
type GeneratorConfig struct {
	Fetcher   FetcherConfig
	AssetsDir string
	Directory *Directory
	Footers   *FooterDirectory

	OutputDir       string
	FilenamePattern string        // dateutil suffix, default "[_Linecard_]YYYYMMDD"
	TitleFormat     string        // dateutil pattern, default "YYYY [Line Card]"
	MaxAge          time.Duration // output sweep age, 0 disables the sweep
}

// Generator fetches, groups, and renders one line card per call.
// Create with NewGenerator, call Generate, and Close when done.
type Generator struct {
	fetcher   *Fetcher
	renderer  *Renderer
	directory *Directory
	logger    *zap.Logger
	now       func() time.Time

	outputDir string
	pattern   string
	maxAge    time.Duration

	rasterizer     Rasterizer
	ownsRasterizer bool
}

// NewGenerator validates cfg and builds the fetcher and renderer. No
// network or browser work happens until Generate.
func NewGenerator(cfg GeneratorConfig, opts ...Option) (*Generator, error) {
	if cfg.Directory == nil {
		return nil, fmt.Errorf("%w: region directory is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return nil, fmt.Errorf("%w: output directory is required", ErrInvalidConfig)
	}
	pattern := cfg.FilenamePattern
	if pattern == "" {
		pattern = dateutil.DefaultFilenamePattern
	}
	if err := dateutil.Validate(pattern); err != nil {
		return nil, fmt.Errorf("%w: filename pattern: %v", ErrInvalidConfig, err)
	}

	o := newOptions(opts)
	g := &Generator{
		directory:  cfg.Directory,
		logger:     o.logger,
		now:        o.now,
		outputDir:  cfg.OutputDir,
		pattern:    pattern,
		maxAge:     cfg.MaxAge,
		rasterizer: o.rasterizer,
	}
	if g.rasterizer == nil {
		g.rasterizer = NewRodRasterizer(o.rasterTime)
		g.ownsRasterizer = true
	}

	fetcher, err := NewFetcher(cfg.Fetcher, opts...)
	if err != nil {
		return nil, err
	}
	g.fetcher = fetcher

	branding, err := assets.NewDirBranding(cfg.AssetsDir)
	if err != nil {
		return nil, fmt.Errorf("%w: assets: %w", ErrInvalidConfig, err)
	}
	renderOpts := append(append([]Option(nil), opts...), WithRasterizer(g.rasterizer))
	g.renderer, err = NewRenderer(branding, cfg.Footers, cfg.TitleFormat, renderOpts...)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Directory returns the region directory requests are validated against.
func (g *Generator) Directory() *Directory { return g.directory }

// Fetcher returns the record fetcher.
func (g *Generator) Fetcher() *Fetcher { return g.fetcher }

// OutputDir returns the directory generated files are written to.
func (g *Generator) OutputDir() string { return g.outputDir }

// Generate resolves the request against the directory, fetches and groups
// matching records, and renders the document. Recovers from internal
// panics so a server worker survives a bad record.
func (g *Generator) Generate(ctx context.Context, req Request) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	crit, err := g.directory.Resolve(req.Region, req.State)
	if err != nil {
		return nil, err
	}

	start := g.now()
	grouped, err := g.fetcher.FetchGrouped(ctx, crit.Region, crit.State)
	if err != nil {
		return nil, err
	}

	name := crit.Region
	if crit.State != "" {
		name = titleCase(crit.State)
	}
	path := req.OutputPath
	if path == "" {
		filename, err := g.OutputName(name, start)
		if err != nil {
			return nil, err
		}
		path = filepath.Join(g.outputDir, filename)
	}

	stats, err := g.renderer.Render(ctx, grouped, RenderInput{
		Region:     crit.Region,
		State:      crit.State,
		OutputPath: path,
	})
	if err != nil {
		return nil, err
	}

	if g.maxAge > 0 {
		if _, err := g.Sweep(); err != nil {
			g.logger.Warn("output sweep failed", zap.Error(err))
		}
	}

	return &Result{
		Path:      path,
		Filename:  filepath.Base(path),
		Name:      name,
		Region:    crit.Region,
		State:     crit.State,
		Clusters:  grouped.Len(),
		Records:   grouped.Records(),
		Stats:     stats,
		Generated: start,
		Duration:  g.now().Sub(start),
	}, nil
}

// OutputName builds "{name}{suffix}.pdf" with spaces in name replaced by
// underscores, e.g. "North_Central_Linecard_20261016.pdf".
func (g *Generator) OutputName(name string, t time.Time) (string, error) {
	name = strings.Join(strings.Fields(name), "_")
	if name == "" {
		return "", fmt.Errorf("%w: empty document name", ErrInvalidRegion)
	}
	suffix, err := dateutil.Format(g.pattern, t)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	filename := name + suffix + ".pdf"
	if err := fileutil.ValidateFilename(filename); err != nil {
		return "", err
	}
	return filename, nil
}

// Sweep removes output files older than the configured age.
func (g *Generator) Sweep() ([]string, error) {
	if g.maxAge <= 0 {
		return nil, nil
	}
	removed, err := fileutil.SweepOlderThan(g.outputDir, g.maxAge, g.now())
	if len(removed) > 0 {
		g.logger.Debug("swept old documents", zap.Strings("files", removed))
	}
	return removed, err
}

// Close releases the headless browser if the Generator launched it.
func (g *Generator) Close() error {
	if g.ownsRasterizer {
		return g.rasterizer.Close()
	}
	return nil
}
