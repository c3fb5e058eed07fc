package main

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	linecard "github.com/alnah/go-linecard"
	"github.com/alnah/go-linecard/internal/assets"
	"github.com/alnah/go-linecard/internal/config"
	"github.com/alnah/go-linecard/internal/hints"
)

// loadConfig layers defaults, the config file, and LINECARD_* variables.
// The config file comes from --config, else LINECARD_CONFIG. Callers apply
// their flags and then call cfg.Validate.
func loadConfig(common commonFlags, env *Environment) (*config.Config, error) {
	warnUnknownEnvVars(env.Stderr, env.Environ())
	envCfg := loadEnvConfig(env)

	name := common.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		var err error
		if cfg, err = config.LoadConfig(name); err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, fmt.Errorf("%w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
			}
			return nil, err
		}
	}

	applyEnvConfig(envCfg, cfg)
	return cfg, nil
}

// buildDirectories converts the configured regions into the region and
// footer directories.
func buildDirectories(cfg *config.Config) (*linecard.Directory, *linecard.FooterDirectory, error) {
	regions := make([]linecard.Region, 0, len(cfg.Regions))
	footers := make(map[string]linecard.FooterBlock, len(cfg.Regions))
	for _, r := range cfg.Regions {
		regions = append(regions, linecard.Region{Name: r.Name, States: r.States})
		footers[r.Name] = footerBlock(r.Footer)
	}
	dir, err := linecard.NewDirectory(regions)
	if err != nil {
		return nil, nil, err
	}
	footerDir := linecard.NewFooterDirectory(
		cfg.Assets.Website,
		cfg.Assets.IconName,
		footers,
		footerBlock(cfg.FallbackFooter),
	)
	return dir, footerDir, nil
}

func footerBlock(f config.FooterConfig) linecard.FooterBlock {
	return linecard.FooterBlock{Icon: f.Icon, Columns: f.Columns}
}

// generatorConfig maps the file configuration onto the library's.
func generatorConfig(cfg *config.Config, dir *linecard.Directory, footers *linecard.FooterDirectory) linecard.GeneratorConfig {
	return linecard.GeneratorConfig{
		Fetcher: linecard.FetcherConfig{
			BaseURL:   cfg.Airtable.BaseURL,
			BaseID:    cfg.Airtable.BaseID,
			Table:     cfg.Airtable.Table,
			TokenEnv:  cfg.Airtable.TokenEnv,
			Timeout:   cfg.Airtable.Timeout,
			PageSize:  cfg.Airtable.PageSize,
			RateLimit: cfg.Airtable.RateLimit,
		},
		AssetsDir:       cfg.Assets.Dir,
		Directory:       dir,
		Footers:         footers,
		OutputDir:       cfg.Output.Dir,
		FilenamePattern: cfg.Output.FilenamePattern,
		TitleFormat:     cfg.Render.TitleFormat,
		MaxAge:          cfg.Output.MaxAge,
	}
}

// generatorFactory returns a constructor for Generators sharing cfg.
func generatorFactory(cfg *config.Config, env *Environment, logger *zap.Logger) (func() (*linecard.Generator, error), *linecard.Directory, error) {
	dir, footers, err := buildDirectories(cfg)
	if err != nil {
		return nil, nil, err
	}
	gcfg := generatorConfig(cfg, dir, footers)

	opts := []linecard.Option{
		linecard.WithLogger(logger),
		linecard.WithEnvLookup(env.LookupEnv),
		linecard.WithClock(env.Now),
	}
	if cfg.Assets.LogoTimeout > 0 {
		opts = append(opts, linecard.WithLogoTimeout(cfg.Assets.LogoTimeout))
	}
	opts = append(opts, env.Options...)

	return func() (*linecard.Generator, error) {
		g, err := linecard.NewGenerator(gcfg, opts...)
		if errors.Is(err, assets.ErrInvalidBasePath) {
			return nil, fmt.Errorf("%w%s", err, hints.ForAssetsDir(cfg.Assets.Dir))
		}
		return g, err
	}, dir, nil
}

// withHint appends an actionable hint for well-known failures.
func withHint(err error, cfg *config.Config, dir *linecard.Directory) error {
	var rerr *linecard.RetrievalError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, linecard.ErrMissingCredential):
		return fmt.Errorf("%w%s", err, hints.ForMissingCredential(cfg.Airtable.TokenEnv))
	case errors.As(err, &rerr):
		if h := hints.ForRetrievalStatus(rerr.StatusCode); h != "" {
			return fmt.Errorf("%w%s", err, h)
		}
	case errors.Is(err, linecard.ErrInvalidRegion) && dir != nil:
		return fmt.Errorf("%w%s", err, hints.ForUnknownRegion(dir.Names()))
	case errors.Is(err, linecard.ErrBrowserConnect):
		return fmt.Errorf("%w%s", err, hints.ForBrowserConnect())
	case errors.Is(err, linecard.ErrRender):
		return fmt.Errorf("%w%s", err, hints.ForOutputDirectory())
	}
	return err
}
