// Copyright 2026 The Fuzzdepot Authors
// SPDX-License-Identifier: Apache-2.0

package deployment

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fuzzdepot/fuzzdepot/lib/clock"
	"github.com/fuzzdepot/fuzzdepot/lib/codec"
	"github.com/fuzzdepot/fuzzdepot/lib/config"
)

// StampName is the metadata file a successful build download writes
// into the build directory. The cache check looks only at directory
// existence; the stamp is advisory, read back by "build info".
const StampName = ".fuzzdepot-stamp"

// BuildStamp records where a cached build directory came from. The
// JSON tags serve "build info --json"; the file on disk is CBOR.
type BuildStamp struct {
	BuildName    string    `cbor:"build_name" json:"build_name"`
	Source       string    `cbor:"source" json:"source"`
	Project      string    `cbor:"project" json:"project"`
	Sanitizer    string    `cbor:"sanitizer" json:"sanitizer"`
	DownloadedAt time.Time `cbor:"downloaded_at" json:"downloaded_at"`
}

// ReadBuildStamp loads the stamp from buildDir. The error satisfies
// os.IsNotExist when the directory was populated by something other
// than a download.
func ReadBuildStamp(buildDir string) (*BuildStamp, error) {
	var stamp BuildStamp
	if err := codec.ReadFile(filepath.Join(buildDir, StampName), &stamp); err != nil {
		return nil, err
	}
	return &stamp, nil
}

// writeBuildStamp is best-effort; a failed write never fails the
// download that produced the build.
func writeBuildStamp(logger *slog.Logger, clk clock.Clock, cfg *config.Config, buildDir, buildName, source string) {
	stamp := BuildStamp{
		BuildName:    buildName,
		Source:       source,
		Project:      cfg.ProjectName,
		Sanitizer:    cfg.Sanitizer,
		DownloadedAt: clk.Now().UTC(),
	}
	if err := codec.WriteFile(filepath.Join(buildDir, StampName), stamp); err != nil {
		logger.Debug("writing build stamp failed", "dir", buildDir, "error", err)
	}
}
