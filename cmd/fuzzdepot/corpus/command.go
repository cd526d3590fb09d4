// Copyright 2026 The Fuzzdepot Authors
// SPDX-License-Identifier: Apache-2.0

// Package corpus implements the "fuzzdepot corpus" CLI subcommands for
// syncing per-target corpora between the local workspace and storage.
package corpus

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/fuzzdepot/fuzzdepot/cmd/fuzzdepot/cli"
	"github.com/fuzzdepot/fuzzdepot/lib/config"
	"github.com/fuzzdepot/fuzzdepot/lib/corpus"
	"github.com/fuzzdepot/fuzzdepot/lib/deployment"
	"github.com/fuzzdepot/fuzzdepot/lib/projectdef"
)

// Command returns the top-level "corpus" command with all subcommands.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "corpus",
		Summary: "Download and upload per-target fuzzing corpora",
		Description: `Sync fuzz target corpora between the local workspace and storage.

Corpora live under <parent>/cifuzz-corpus/<target>, one directory per
fuzz target. Unlike builds, corpora are re-fetched on every download
so a run always starts from the latest stored coverage.

Targets are named explicitly with --target, or expanded from the
configured targets file with --all.`,
		Subcommands: []*cli.Command{
			downloadCommand(),
			uploadCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Seed one target's corpus",
				Command:     "fuzzdepot corpus download --target curl_fuzzer",
			},
			{
				Description: "Seed every target named in the targets file",
				Command:     "fuzzdepot corpus download --all",
			},
			{
				Description: "Push new coverage back, deduplicated",
				Command:     "fuzzdepot corpus upload --all --dedupe",
			},
		},
	}
}

// resolveTargets expands the --target/--all flags into the list of
// fuzz target names to operate on.
func resolveTargets(cfg *config.Config, target string, all bool) ([]string, error) {
	switch {
	case target != "" && all:
		return nil, fmt.Errorf("--target and --all are mutually exclusive")
	case target != "":
		return []string{target}, nil
	case all:
		project, err := projectdef.ReadFile(cfg.TargetsFile)
		if err != nil {
			return nil, fmt.Errorf("reading targets file: %w", err)
		}
		return project.TargetNames(), nil
	default:
		return nil, fmt.Errorf("either --target or --all is required")
	}
}

// --- download ---

type downloadParams struct {
	cli.ConfigFlags
	Target    string `flag:"target" desc:"fuzz target name"`
	All       bool   `flag:"all" desc:"operate on every target in the targets file"`
	ParentDir string `flag:"parent" desc:"parent directory for corpus storage (default: workspace from config)"`
}

func downloadCommand() *cli.Command {
	var params downloadParams

	return &cli.Command{
		Name:    "download",
		Summary: "Fetch stored corpora into the local workspace",
		Usage:   "fuzzdepot corpus download (--target NAME | --all) [flags]",
		Description: `Fetch the stored corpus for each named fuzz target into
<parent>/cifuzz-corpus/<target> and print that directory.

The corpus directory is always created, even when storage has nothing
for the target yet, so fuzzers can start writing new units into it
immediately.`,
		Examples: []cli.Example{
			{
				Description: "Seed one target",
				Command:     "fuzzdepot corpus download --target curl_fuzzer",
			},
			{
				Description: "Seed all targets into an explicit directory",
				Command:     "fuzzdepot corpus download --all --parent /tmp/fuzz",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("download", &params)
		},
		Run: func(args []string) error {
			cfg, err := params.ConfigFlags.Load()
			if err != nil {
				return err
			}
			logger := cli.NewCommandLogger().With("command", "corpus/download")

			targets, err := resolveTargets(cfg, params.Target, params.All)
			if err != nil {
				return err
			}

			dep, err := deployment.New(cfg, logger)
			if err != nil {
				return err
			}

			parentDir := params.ParentDir
			if parentDir == "" {
				parentDir = cfg.Workspace
			}

			ctx := context.Background()
			for _, target := range targets {
				corpusDir, err := dep.DownloadCorpus(ctx, target, parentDir)
				if err != nil {
					return err
				}
				if units, totalBytes, err := corpus.Stats(corpusDir); err == nil {
					logger.Info("corpus ready",
						"target", target, "units", units, "bytes", totalBytes)
				}
				fmt.Println(corpusDir)
			}
			return nil
		},
	}
}

// --- upload ---

type uploadParams struct {
	cli.ConfigFlags
	Target    string `flag:"target" desc:"fuzz target name"`
	All       bool   `flag:"all" desc:"operate on every target in the targets file"`
	ParentDir string `flag:"parent" desc:"parent directory holding the corpora (default: workspace from config)"`
	Dedupe    bool   `flag:"dedupe" desc:"content-address and deduplicate units before uploading"`
}

func uploadCommand() *cli.Command {
	var params uploadParams

	return &cli.Command{
		Name:    "upload",
		Summary: "Push local corpora back to storage",
		Usage:   "fuzzdepot corpus upload (--target NAME | --all) [flags]",
		Description: `Upload each named fuzz target's local corpus from
<parent>/cifuzz-corpus/<target> so future runs start from it.

Targets without a local corpus directory are skipped. Upload failures
are logged but never fail the run: losing a corpus push costs some
coverage on the next run, not the run itself.

With --dedupe, corpus units are renamed to their content hash first,
dropping duplicate inputs accumulated during fuzzing.`,
		Examples: []cli.Example{
			{
				Description: "Push one target's corpus",
				Command:     "fuzzdepot corpus upload --target curl_fuzzer",
			},
			{
				Description: "Push everything, deduplicated",
				Command:     "fuzzdepot corpus upload --all --dedupe",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("upload", &params)
		},
		Run: func(args []string) error {
			cfg, err := params.ConfigFlags.Load()
			if err != nil {
				return err
			}
			logger := cli.NewCommandLogger().With("command", "corpus/upload")

			targets, err := resolveTargets(cfg, params.Target, params.All)
			if err != nil {
				return err
			}

			dep, err := deployment.New(cfg, logger)
			if err != nil {
				return err
			}

			parentDir := params.ParentDir
			if parentDir == "" {
				parentDir = cfg.Workspace
			}

			ctx := context.Background()
			for _, target := range targets {
				corpusDir := deployment.CorpusDir(parentDir, target)
				if _, err := os.Stat(corpusDir); os.IsNotExist(err) {
					fmt.Fprintf(os.Stderr, "no corpus for %s, skipping\n", target)
					continue
				}

				if params.Dedupe {
					renamed, removed, err := corpus.Normalize(corpusDir)
					if err != nil {
						return fmt.Errorf("deduplicating corpus for %s: %w", target, err)
					}
					logger.Info("corpus deduplicated",
						"target", target, "renamed", renamed, "removed", removed)
				}

				dep.UploadCorpus(ctx, target, corpusDir)
			}
			return nil
		},
	}
}
