// Copyright 2026 The Fuzzdepot Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete fuzzdepot CLI command tree.
// The fuzzdepot binary imports this package; tests exercise commands
// through [Root] the same way main does.
package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/pflag"

	buildcmd "github.com/fuzzdepot/fuzzdepot/cmd/fuzzdepot/build"
	"github.com/fuzzdepot/fuzzdepot/cmd/fuzzdepot/cli"
	corpuscmd "github.com/fuzzdepot/fuzzdepot/cmd/fuzzdepot/corpus"
	"github.com/fuzzdepot/fuzzdepot/lib/version"
)

// Root builds and returns the complete fuzzdepot CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "fuzzdepot",
		Description: `Fuzzdepot: artifact deployment for continuous fuzzing.

Move fuzzing builds and corpora between CI runs and their backing
store, whether that is the managed fuzzing service or a self-hosted
filestore.`,
		Subcommands: []*cli.Command{
			buildcmd.Command(),
			corpuscmd.Command(),
			versionCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Fetch the newest stored build into the workspace",
				Command:     "fuzzdepot build download",
			},
			{
				Description: "Publish a finished build to storage",
				Command:     "fuzzdepot build upload --dir ./build-out",
			},
			{
				Description: "Seed every fuzz target's corpus before a run",
				Command:     "fuzzdepot corpus download --all",
			},
			{
				Description: "Push new coverage back to storage, deduplicated",
				Command:     "fuzzdepot corpus upload --all --dedupe",
			},
			{
				Description: "Inspect the cached build's provenance",
				Command:     "fuzzdepot build info --json",
			},
		},
	}
}

// versionInfo is the JSON shape of "fuzzdepot version --json".
type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Dirty     bool   `json:"dirty"`
	BuildTime string `json:"build_time"`
	Go        string `json:"go"`
	Platform  string `json:"platform"`
}

func versionCommand() *cli.Command {
	params := &struct {
		cli.JSONOutput
	}{}
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("version", params)
		},
		Run: func(args []string) error {
			if done, err := params.EmitJSON(versionInfo{
				Version:   version.Short(),
				Commit:    version.GitCommit,
				Dirty:     version.GitDirty == "true",
				BuildTime: version.BuildTime,
				Go:        runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			}); done {
				return err
			}
			fmt.Printf("fuzzdepot %s\n", version.Full())
			return nil
		},
	}
}
