// Copyright 2026 The Fuzzdepot Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "fuzzdepot",
		Subcommands: []*Command{
			{
				Name: "version",
				Run: func(args []string) error {
					called = "version"
					return nil
				},
			},
			{
				Name: "corpus",
				Run: func(args []string) error {
					called = "corpus"
					return nil
				},
			},
		},
	}

	if err := root.Execute([]string{"corpus"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "corpus" {
		t.Errorf("dispatched to %q, want %q", called, "corpus")
	}
}

func TestCommand_Execute_NestedSubcommands(t *testing.T) {
	var called string
	var receivedArgs []string

	root := &Command{
		Name: "fuzzdepot",
		Subcommands: []*Command{
			{
				Name: "corpus",
				Subcommands: []*Command{
					{
						Name: "download",
						Run: func(args []string) error {
							called = "corpus download"
							receivedArgs = args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute([]string{"corpus", "download", "extra-arg"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "corpus download" {
		t.Errorf("dispatched to %q, want %q", called, "corpus download")
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "extra-arg" {
		t.Errorf("args = %v, want [extra-arg]", receivedArgs)
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	var parentDir string
	var target string

	command := &Command{
		Name: "download",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("download", pflag.ContinueOnError)
			flagSet.StringVar(&parentDir, "parent", "/default", "parent directory")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				target = args[0]
			}
			return nil
		},
	}

	if err := command.Execute([]string{"--parent", "/custom", "curl_fuzzer"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if parentDir != "/custom" {
		t.Errorf("parentDir = %q, want %q", parentDir, "/custom")
	}
	if target != "curl_fuzzer" {
		t.Errorf("target = %q, want %q", target, "curl_fuzzer")
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	command := &Command{
		Name: "download",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("download", pflag.ContinueOnError)
			flagSet.Bool("dedupe", false, "deduplicate units")
			flagSet.String("parent", "/default", "parent directory")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--dedpue"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "did you mean --dedupe") {
		t.Errorf("error = %q, want suggestion for '--dedupe'", errStr)
	}
	if !strings.Contains(errStr, "dedpue") {
		t.Errorf("error = %q, should mention the bad flag", errStr)
	}
	// Should include a pointer to --help.
	if !strings.Contains(errStr, "--help") {
		t.Errorf("error = %q, should point to --help", errStr)
	}
}

func TestCommand_Execute_UnknownFlagNoSuggestion(t *testing.T) {
	command := &Command{
		Name: "download",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("download", pflag.ContinueOnError)
			flagSet.Bool("dedupe", false, "deduplicate units")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--zzzzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not suggest for distant flag", err.Error())
	}
	if !strings.Contains(err.Error(), "--help") {
		t.Errorf("error = %q, should point to --help", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandSuggestion(t *testing.T) {
	root := &Command{
		Name: "fuzzdepot",
		Subcommands: []*Command{
			{Name: "build"},
			{Name: "corpus"},
			{Name: "version"},
		},
	}

	err := root.Execute([]string{"corpsu"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if !strings.Contains(err.Error(), "did you mean \"corpus\"") {
		t.Errorf("error = %q, want suggestion for 'corpus'", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandNoSuggestion(t *testing.T) {
	root := &Command{
		Name: "fuzzdepot",
		Subcommands: []*Command{
			{Name: "build"},
			{Name: "corpus"},
		},
	}

	err := root.Execute([]string{"zzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not contain suggestion for distant input", err.Error())
	}
}

func TestCommand_Execute_HelpFlag(t *testing.T) {
	for _, helpArg := range []string{"-h", "--help", "help"} {
		t.Run(helpArg, func(t *testing.T) {
			root := &Command{
				Name:    "fuzzdepot",
				Summary: "Artifact deployment for continuous fuzzing",
				Subcommands: []*Command{
					{Name: "corpus", Summary: "Corpus operations"},
				},
			}

			err := root.Execute([]string{helpArg})
			if err != nil {
				t.Errorf("Execute(%q) error: %v", helpArg, err)
			}
		})
	}
}

func TestCommand_Execute_NoArgsShowsHelp(t *testing.T) {
	root := &Command{
		Name: "fuzzdepot",
		Subcommands: []*Command{
			{Name: "corpus", Summary: "Corpus operations"},
		},
	}

	err := root.Execute([]string{})
	if err == nil {
		t.Fatal("Execute() = nil, want error for missing subcommand")
	}
	if !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("error = %q, want 'subcommand required'", err.Error())
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	command := &Command{
		Name:        "fuzzdepot",
		Description: "Artifact deployment for continuous fuzzing.",
		Subcommands: []*Command{
			{Name: "build", Summary: "Download and upload fuzzing builds"},
			{Name: "corpus", Summary: "Download and upload corpora"},
			{Name: "version", Summary: "Print version information"},
		},
		Examples: []Example{
			{
				Description: "Fetch the newest stored build",
				Command:     "fuzzdepot build download",
			},
			{
				Description: "Seed every target's corpus",
				Command:     "fuzzdepot corpus download --all",
			},
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	// Verify structural elements are present.
	for _, want := range []string{
		"Artifact deployment for continuous fuzzing.",
		"Usage:",
		"fuzzdepot <command> [flags]",
		"Commands:",
		"build",
		"Download and upload fuzzing builds",
		"corpus",
		"Download and upload corpora",
		"Examples:",
		"fuzzdepot build download",
		"fuzzdepot corpus download --all",
		"Run 'fuzzdepot <command> --help'",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_PrintHelp_WithFlags(t *testing.T) {
	command := &Command{
		Name:    "download",
		Summary: "Fetch stored corpora",
		Usage:   "fuzzdepot corpus download (--target NAME | --all) [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("download", pflag.ContinueOnError)
			flagSet.String("target", "", "fuzz target name")
			flagSet.Bool("all", false, "all targets from the targets file")
			return flagSet
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"fuzzdepot corpus download (--target NAME | --all) [flags]",
		"Flags:",
		"target",
		"all",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_FullName(t *testing.T) {
	root := &Command{Name: "fuzzdepot"}
	corpus := &Command{Name: "corpus", parent: root}
	download := &Command{Name: "download", parent: corpus}

	if got := root.fullName(); got != "fuzzdepot" {
		t.Errorf("root.fullName() = %q, want %q", got, "fuzzdepot")
	}
	if got := corpus.fullName(); got != "fuzzdepot corpus" {
		t.Errorf("corpus.fullName() = %q, want %q", got, "fuzzdepot corpus")
	}
	if got := download.fullName(); got != "fuzzdepot corpus download" {
		t.Errorf("download.fullName() = %q, want %q", got, "fuzzdepot corpus download")
	}
}
