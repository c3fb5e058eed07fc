package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	linecard "github.com/alnah/go-linecard"
)

// runGenerate renders one line card for --region or --state.
func runGenerate(ctx context.Context, args []string, env *Environment) error {
	f, positional, err := parseGenerateFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return fmt.Errorf("%w: unexpected arguments: %s", ErrUsage, strings.Join(positional, " "))
	}
	if strings.TrimSpace(f.region) == "" && strings.TrimSpace(f.state) == "" {
		return fmt.Errorf("%w: --region or --state is required", ErrUsage)
	}

	cfg, err := loadConfig(f.common, env)
	if err != nil {
		return err
	}
	if f.assets != "" {
		cfg.Assets.Dir = f.assets
	}
	if f.outputDir != "" {
		cfg.Output.Dir = f.outputDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(env.Stderr, logConsole, f.common)
	defer func() { _ = logger.Sync() }()

	factory, dir, err := generatorFactory(cfg, env, logger)
	if err != nil {
		return err
	}
	gen, err := factory()
	if err != nil {
		return err
	}
	defer func() { _ = gen.Close() }()

	res, err := gen.Generate(ctx, linecard.Request{
		Region:     f.region,
		State:      f.state,
		OutputPath: f.output,
	})
	if err != nil {
		return withHint(err, cfg, dir)
	}

	if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "Created %s (%d manufacturers, %d pages, %v)\n",
			res.Path, res.Clusters, res.Stats.Pages, res.Duration.Round(time.Millisecond))
	}
	return nil
}
