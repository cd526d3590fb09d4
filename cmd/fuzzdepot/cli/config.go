// Copyright 2026 The Fuzzdepot Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/fuzzdepot/fuzzdepot/lib/config"
)

// ConfigFlags holds the shared flags for locating and overriding the
// fuzzdepot configuration. Embed it in a command's params struct; it
// implements [FlagBinder], so [BindFlags] registers its flags
// automatically.
//
// The configuration file is the fuzzdepot.yaml described in
// lib/config. --config names it explicitly; otherwise the
// FUZZDEPOT_CONFIG environment variable is consulted. The remaining
// flags override individual fields for one-off runs without editing
// the file.
//
// Usage pattern:
//
//	type downloadParams struct {
//	    cli.ConfigFlags
//	    ParentDir string `flag:"parent" desc:"build cache parent directory"`
//	}
//
//	// In Run:
//	cfg, err := params.ConfigFlags.Load()
type ConfigFlags struct {
	Path      string
	Project   string
	Sanitizer string
	Platform  string
}

// AddFlags registers --config, --project, --sanitizer, and --platform
// on the given flag set. --config is the primary interface; the others
// are field overrides applied after the file is read.
func (c *ConfigFlags) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.Path, "config", "", "path to fuzzdepot.yaml (default: $FUZZDEPOT_CONFIG)")
	flagSet.StringVar(&c.Project, "project", "", "project name (overrides config file)")
	flagSet.StringVar(&c.Sanitizer, "sanitizer", "", "sanitizer flavor (overrides config file)")
	flagSet.StringVar(&c.Platform, "platform", "", "CI platform (overrides config file)")
}

// Load resolves the configuration from the configured flags. If
// --config is set it reads that file; otherwise it falls back to the
// FUZZDEPOT_CONFIG environment variable. Individual flag overrides are
// applied on top, and the result is validated before it is returned.
func (c *ConfigFlags) Load() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if c.Path != "" {
		cfg, err = config.LoadFile(c.Path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if c.Project != "" {
		cfg.ProjectName = c.Project
	}
	if c.Sanitizer != "" {
		cfg.Sanitizer = c.Sanitizer
	}
	if c.Platform != "" {
		cfg.Platform = config.Platform(c.Platform)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
