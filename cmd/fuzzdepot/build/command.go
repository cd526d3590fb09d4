// Copyright 2026 The Fuzzdepot Authors
// SPDX-License-Identifier: Apache-2.0

// Package build implements the "fuzzdepot build" CLI subcommands for
// moving fuzzing builds between the local workspace and storage.
package build

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/fuzzdepot/fuzzdepot/cmd/fuzzdepot/cli"
	"github.com/fuzzdepot/fuzzdepot/lib/deployment"
)

// Command returns the top-level "build" command with all subcommands.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "build",
		Summary: "Download, upload, and inspect fuzzing builds",
		Description: `Move fuzzing builds between the local workspace and storage.

On internal platforms builds come from the managed fuzzing service's
buckets; on external platforms they come from the configured
filestore. The build cache is reused across runs: once the build
directory exists it is served as-is until deleted.`,
		Subcommands: []*cli.Command{
			downloadCommand(),
			uploadCommand(),
			infoCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Fetch the newest stored build",
				Command:     "fuzzdepot build download",
			},
			{
				Description: "Publish a finished build",
				Command:     "fuzzdepot build upload --dir ./build-out",
			},
			{
				Description: "Show where the cached build came from",
				Command:     "fuzzdepot build info",
			},
		},
	}
}

// --- download ---

type downloadParams struct {
	cli.ConfigFlags
	cli.JSONOutput
	ParentDir string        `flag:"parent" desc:"parent directory for the build cache (default: workspace from config)"`
	Timeout   time.Duration `flag:"timeout" desc:"overall download timeout (0 disables)"`
}

type downloadResult struct {
	BuildDir string `json:"build_dir"`
}

func downloadCommand() *cli.Command {
	var params downloadParams

	return &cli.Command{
		Name:    "download",
		Summary: "Fetch the latest stored build into the local cache",
		Usage:   "fuzzdepot build download [flags]",
		Description: `Fetch the newest available build for the configured project and
sanitizer into <parent>/cifuzz-latest-build and print that directory.

A build that is already cached is reused without contacting storage.
When no build is available anywhere, the command prints a notice to
stderr and exits with status 2 so callers can fall back to building
from source.`,
		Examples: []cli.Example{
			{
				Description: "Download into the configured workspace",
				Command:     "fuzzdepot build download",
			},
			{
				Description: "Download into an explicit directory, JSON result",
				Command:     "fuzzdepot build download --parent /tmp/fuzz --json",
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
			logger := cli.NewCommandLogger().With("command", "build/download")

			dep, err := deployment.New(cfg, logger)
			if err != nil {
				return err
			}

			ctx := context.Background()
			if params.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, params.Timeout)
				defer cancel()
			}

			parentDir := params.ParentDir
			if parentDir == "" {
				parentDir = cfg.Workspace
			}

			buildDir, err := dep.DownloadLatestBuild(ctx, parentDir)
			if err != nil {
				return err
			}
			if buildDir == "" {
				fmt.Fprintln(os.Stderr, "no build available")
				return &cli.ExitError{Code: 2}
			}

			if done, err := params.EmitJSON(downloadResult{BuildDir: buildDir}); done {
				return err
			}
			fmt.Println(buildDir)
			return nil
		},
	}
}

// --- upload ---

type uploadParams struct {
	cli.ConfigFlags
	BuildDir string `flag:"dir" desc:"build directory to upload (default: <workspace>/cifuzz-latest-build)"`
}

func uploadCommand() *cli.Command {
	var params uploadParams

	return &cli.Command{
		Name:    "upload",
		Summary: "Publish a build directory to storage",
		Usage:   "fuzzdepot build upload [flags]",
		Description: `Upload a finished build so later runs can download it instead of
rebuilding. The upload replaces the stored latest build for the
configured project and sanitizer.

Only external platforms support uploads; the managed service produces
its own builds.`,
		Examples: []cli.Example{
			{
				Description: "Upload the cached workspace build",
				Command:     "fuzzdepot build upload",
			},
			{
				Description: "Upload a build from an explicit directory",
				Command:     "fuzzdepot build upload --dir ./build-out",
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
			logger := cli.NewCommandLogger().With("command", "build/upload")

			dep, err := deployment.New(cfg, logger)
			if err != nil {
				return err
			}

			buildDir := params.BuildDir
			if buildDir == "" {
				buildDir = deployment.BuildDir(cfg.Workspace)
			}

			if err := dep.UploadLatestBuild(context.Background(), buildDir); err != nil {
				return fmt.Errorf("uploading build from %s: %w", buildDir, err)
			}
			fmt.Fprintf(os.Stderr, "uploaded %s\n", buildDir)
			return nil
		},
	}
}

// --- info ---

type infoParams struct {
	cli.ConfigFlags
	cli.JSONOutput
	ParentDir string `flag:"parent" desc:"parent directory of the build cache (default: workspace from config)"`
}

type infoResult struct {
	BuildDir string                 `json:"build_dir"`
	Stamp    *deployment.BuildStamp `json:"stamp"`
}

func infoCommand() *cli.Command {
	var params infoParams

	return &cli.Command{
		Name:    "info",
		Summary: "Show the cached build's provenance",
		Usage:   "fuzzdepot build info [flags]",
		Description: `Inspect the cached build directory and the download stamp written
when it was fetched.

Exits with status 2 when no build is cached. A directory without a
stamp (populated by hand, or left behind by a failed download) is
reported with empty provenance rather than an error.`,
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("info", &params)
		},
		Run: func(args []string) error {
			cfg, err := params.ConfigFlags.Load()
			if err != nil {
				return err
			}

			parentDir := params.ParentDir
			if parentDir == "" {
				parentDir = cfg.Workspace
			}
			buildDir := deployment.BuildDir(parentDir)

			if _, err := os.Stat(buildDir); err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintln(os.Stderr, "no cached build")
					return &cli.ExitError{Code: 2}
				}
				return fmt.Errorf("checking build cache: %w", err)
			}

			stamp, err := deployment.ReadBuildStamp(buildDir)
			if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("reading build stamp: %w", err)
			}

			if done, err := params.EmitJSON(infoResult{BuildDir: buildDir, Stamp: stamp}); done {
				return err
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(writer, "Directory:\t%s\n", buildDir)
			if stamp == nil {
				fmt.Fprintf(writer, "Stamp:\tnone (not written by a download)\n")
				return writer.Flush()
			}
			fmt.Fprintf(writer, "Build:\t%s\n", stamp.BuildName)
			fmt.Fprintf(writer, "Source:\t%s\n", stamp.Source)
			fmt.Fprintf(writer, "Project:\t%s\n", stamp.Project)
			fmt.Fprintf(writer, "Sanitizer:\t%s\n", stamp.Sanitizer)
			fmt.Fprintf(writer, "Downloaded:\t%s\n", stamp.DownloadedAt.Format(time.RFC3339))
			return writer.Flush()
		},
	}
}
