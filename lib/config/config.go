// Copyright 2026 The Fuzzdepot Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides run configuration for fuzzdepot.
//
// Configuration is loaded from a single YAML file specified by:
//   - FUZZDEPOT_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. A run's configuration is
// created once, validated, and shared read-only by every component; the
// platform field is inspected in exactly one place (the deployment
// factory).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Platform identifies the CI context the run executes in. The two
// internal values select the managed deployment backend; everything else
// runs the lite backend against a configured filestore.
type Platform string

const (
	// PlatformExternalGenericCI is a self-hosted run on arbitrary CI.
	PlatformExternalGenericCI Platform = "external-generic-ci"
	// PlatformExternalGitHub is a self-hosted run on GitHub Actions.
	PlatformExternalGitHub Platform = "external-github"
	// PlatformInternalGenericCI is a run inside the managed fuzzing
	// service, driven by its generic CI integration.
	PlatformInternalGenericCI Platform = "internal-generic-ci"
	// PlatformInternalGitHub is a run inside the managed fuzzing
	// service, driven by its GitHub integration.
	PlatformInternalGitHub Platform = "internal-github"
)

// Internal reports whether the platform belongs to the managed service.
func (p Platform) Internal() bool {
	return p == PlatformInternalGenericCI || p == PlatformInternalGitHub
}

// EnvConfigPath is the environment variable naming the config file.
const EnvConfigPath = "FUZZDEPOT_CONFIG"

// Config is the master configuration for a fuzzdepot run.
type Config struct {
	// ProjectName is the fuzzed project's name. Required. It keys the
	// managed service's storage layout and qualifies corpus names.
	ProjectName string `yaml:"project_name"`

	// Sanitizer identifies the build flavor ("address", "memory",
	// "undefined", "coverage"). Default: address.
	Sanitizer string `yaml:"sanitizer"`

	// Platform identifies the CI context. Default: external-generic-ci.
	Platform Platform `yaml:"platform"`

	// Workspace is the default parent directory for build and corpus
	// caches when the caller does not pass one explicitly.
	Workspace string `yaml:"workspace"`

	// TargetsFile is the fuzz-target manifest consumed by batch corpus
	// operations. Default: .clusterfuzzlite/targets.jsonc.
	TargetsFile string `yaml:"targets_file"`

	// BuildsBaseURL is the storage base URL the managed backend resolves
	// version files and build archives against. Overridable for tests.
	// Default: https://storage.googleapis.com/.
	BuildsBaseURL string `yaml:"builds_base_url"`

	// Storage selects and configures the lite filestore backend.
	Storage StorageConfig `yaml:"storage"`
}

// StorageConfig selects the filestore backend for lite runs.
type StorageConfig struct {
	// Kind is the backend: "local", "git", or "none". Default: none.
	Kind string `yaml:"kind"`

	Local LocalStorageConfig `yaml:"local"`
	Git   GitStorageConfig   `yaml:"git"`
}

// LocalStorageConfig configures the directory-rooted store.
type LocalStorageConfig struct {
	// Root is the store directory. Artifacts live under builds/ and
	// corpus/ inside it.
	Root string `yaml:"root"`

	// SealRecipients are age public keys. When set, archives are
	// encrypted at rest to these recipients.
	SealRecipients []string `yaml:"seal_recipients"`

	// IdentityFile is the age identity used to unseal archives on
	// download. Required when SealRecipients is set and downloads are
	// performed.
	IdentityFile string `yaml:"identity_file"`
}

// GitStorageConfig configures the git-backed corpus store.
type GitStorageConfig struct {
	// RemoteURL is the repository holding corpora, without embedded
	// credentials ("https://github.com/org/corpus.git").
	RemoteURL string `yaml:"remote_url"`

	// Branch to commit to. Default: main.
	Branch string `yaml:"branch"`

	// CloneDir is where the repository is cloned. Default: a "git-store"
	// directory under the local storage root.
	CloneDir string `yaml:"clone_dir"`

	// TokenEnv names an environment variable holding the push token.
	TokenEnv string `yaml:"token_env"`

	// TokenFile is a file holding the push token ("-" reads stdin).
	// TokenEnv wins when both are set.
	TokenFile string `yaml:"token_file"`
}

// Default returns the configuration defaults. ProjectName is left empty
// and must come from the config file or flags.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "fuzzdepot")

	return &Config{
		Sanitizer:     "address",
		Platform:      PlatformExternalGenericCI,
		Workspace:     filepath.Join(defaultRoot, "workspace"),
		TargetsFile:   filepath.Join(".clusterfuzzlite", "targets.jsonc"),
		BuildsBaseURL: "https://storage.googleapis.com/",
		Storage: StorageConfig{
			Kind: "none",
			Local: LocalStorageConfig{
				Root: filepath.Join(defaultRoot, "store"),
			},
			Git: GitStorageConfig{
				Branch: "main",
			},
		},
	}
}

// Load loads configuration from the FUZZDEPOT_CONFIG environment
// variable. There are no fallbacks — if the variable is not set, this
// fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvConfigPath)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your fuzzdepot.yaml config file, or use --config", EnvConfigPath)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from the given path, applying values over
// Default().
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if cfg.Storage.Git.CloneDir == "" {
		cfg.Storage.Git.CloneDir = filepath.Join(cfg.Storage.Local.Root, "git-store")
	}
	return cfg, nil
}

// Validate checks the configuration for structural errors. Backend
// constructors perform their own deeper validation (key formats,
// reachable paths).
func (c *Config) Validate() error {
	var errs []error

	if c.ProjectName == "" {
		errs = append(errs, fmt.Errorf("project_name is required"))
	}
	if c.Sanitizer == "" {
		errs = append(errs, fmt.Errorf("sanitizer is required"))
	}

	switch c.Platform {
	case PlatformExternalGenericCI, PlatformExternalGitHub,
		PlatformInternalGenericCI, PlatformInternalGitHub:
	default:
		errs = append(errs, fmt.Errorf("invalid platform: %q", c.Platform))
	}

	if !c.Platform.Internal() {
		switch c.Storage.Kind {
		case "local":
			if c.Storage.Local.Root == "" {
				errs = append(errs, fmt.Errorf("storage.local.root is required for the local backend"))
			}
		case "git":
			if c.Storage.Git.RemoteURL == "" {
				errs = append(errs, fmt.Errorf("storage.git.remote_url is required for the git backend"))
			}
			if c.Storage.Git.Branch == "" {
				errs = append(errs, fmt.Errorf("storage.git.branch is required for the git backend"))
			}
		case "none":
		default:
			errs = append(errs, fmt.Errorf("invalid storage.kind: %q", c.Storage.Kind))
		}
	}

	if c.Platform.Internal() && c.BuildsBaseURL == "" {
		errs = append(errs, fmt.Errorf("builds_base_url is required on internal platforms"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
