// Copyright 2026 The Fuzzdepot Authors
// SPDX-License-Identifier: Apache-2.0

package deployment

import "path/filepath"

const (
	// BuildDirName is the fixed name of the cached build directory
	// under a run's parent directory.
	BuildDirName = "cifuzz-latest-build"

	// CorpusDirName is the fixed name of the directory holding
	// per-target corpora under a run's parent directory.
	CorpusDirName = "cifuzz-corpus"
)

// BuildDir returns the local cache directory for the latest build under
// parentDir. Pure path computation; nothing is created.
func BuildDir(parentDir string) string {
	return filepath.Join(parentDir, BuildDirName)
}

// CorpusDir returns the local corpus directory for targetName under
// parentDir. Pure path computation; nothing is created.
func CorpusDir(parentDir, targetName string) string {
	return filepath.Join(parentDir, CorpusDirName, targetName)
}
