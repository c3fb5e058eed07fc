package main

import (
	"fmt"
	"strings"

	"github.com/alnah/go-linecard/internal/yamlutil"
)

// regionView is the YAML shape printed by `regions --yaml`.
type regionView struct {
	Name   string   `yaml:"name"`
	States []string `yaml:"states"`
}

// runRegions prints the region directory.
func runRegions(args []string, env *Environment) error {
	f, err := parseRegionsFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(f.common, env)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	dir, _, err := buildDirectories(cfg)
	if err != nil {
		return err
	}

	regions := dir.Regions()
	if f.yaml {
		views := make([]regionView, len(regions))
		for i, r := range regions {
			views[i] = regionView{Name: r.Name, States: r.States}
		}
		out, err := yamlutil.Marshal(views)
		if err != nil {
			return err
		}
		_, err = env.Stdout.Write(out)
		return err
	}

	width := 0
	for _, r := range regions {
		width = max(width, len(r.Name))
	}
	for _, r := range regions {
		fmt.Fprintf(env.Stdout, "%-*s  %s\n", width, r.Name, strings.Join(r.States, ", "))
	}
	return nil
}
