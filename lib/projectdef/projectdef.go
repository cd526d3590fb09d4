// Copyright 2026 The Fuzzdepot Authors
// SPDX-License-Identifier: Apache-2.0

// Package projectdef parses the fuzz-target manifest a project checks in
// alongside its fuzzing setup. The manifest is authored as JSONC (JSON
// extended with // line comments, /* block comments */, and trailing
// commas) so projects can annotate targets without breaking the parser.
//
// The manifest drives batch corpus operations: "corpus download --all"
// walks the target list instead of requiring one invocation per target.
//
// A minimal manifest:
//
//	{
//	  // targets built by build.sh
//	  "targets": [
//	    {"name": "curl_fuzzer"},
//	    {"name": "curl_fuzzer_http", "engine": "libFuzzer"},
//	  ],
//	}
package projectdef

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// Project is a parsed fuzz-target manifest.
type Project struct {
	// Language is informational ("c++", "rust", "go").
	Language string `json:"language,omitempty"`

	// Targets lists the project's fuzz targets. At least one is
	// required.
	Targets []Target `json:"targets"`
}

// Target is one fuzz entry point.
type Target struct {
	// Name of the fuzz target binary. Required, unique.
	Name string `json:"name"`

	// Engine is informational; libFuzzer when empty.
	Engine string `json:"engine,omitempty"`
}

// Parse strips JSONC comments and trailing commas from data, unmarshals
// the result, and validates it.
func Parse(data []byte) (*Project, error) {
	stripped := jsonc.ToJSON(data)

	var project Project
	if err := json.Unmarshal(stripped, &project); err != nil {
		return nil, fmt.Errorf("parsing target manifest: %w", err)
	}
	if err := project.validate(); err != nil {
		return nil, err
	}
	return &project, nil
}

// ReadFile reads and parses the manifest at path.
func ReadFile(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	project, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return project, nil
}

// TargetNames returns the target names in manifest order.
func (p *Project) TargetNames() []string {
	names := make([]string, len(p.Targets))
	for i, target := range p.Targets {
		names[i] = target.Name
	}
	return names
}

func (p *Project) validate() error {
	if len(p.Targets) == 0 {
		return fmt.Errorf("target manifest lists no targets")
	}

	seen := make(map[string]bool, len(p.Targets))
	for i, target := range p.Targets {
		if target.Name == "" {
			return fmt.Errorf("target %d has no name", i)
		}
		if seen[target.Name] {
			return fmt.Errorf("duplicate target %q", target.Name)
		}
		seen[target.Name] = true
	}
	return nil
}
