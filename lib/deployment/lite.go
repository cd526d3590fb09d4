// Copyright 2026 The Fuzzdepot Authors
// SPDX-License-Identifier: Apache-2.0

package deployment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/fuzzdepot/fuzzdepot/lib/clock"
	"github.com/fuzzdepot/fuzzdepot/lib/config"
	"github.com/fuzzdepot/fuzzdepot/lib/filestore"
)

// liteBuildPrefix is the filestore name prefix for lite builds; the
// configured sanitizer completes the name.
const liteBuildPrefix = "cifuzz-build-"

// Lite is the self-hosted deployment strategy. It delegates artifact
// I/O to a configured filestore using a fixed name-templating scheme:
// builds are stored as "cifuzz-build-<sanitizer>" and corpora as
// "corpus-<target>".
type Lite struct {
	cfg    *config.Config
	store  filestore.Filestore
	logger *slog.Logger
	clk    clock.Clock
}

// NewLite returns a lite deployment backed by store.
func NewLite(cfg *config.Config, store filestore.Filestore, logger *slog.Logger) *Lite {
	return &Lite{cfg: cfg, store: store, logger: logger, clk: clock.Real()}
}

// DownloadLatestBuild fetches the stored build into parentDir's build
// directory. Any filestore failure degrades to ("", nil); a missing
// build is the normal first-run state, not an error.
func (d *Lite) DownloadLatestBuild(ctx context.Context, parentDir string) (string, error) {
	buildDir, ok := cachedBuildDir(parentDir)
	if ok {
		return buildDir, nil
	}
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return "", fmt.Errorf("creating build directory: %w", err)
	}

	buildName := d.buildName()
	if err := d.store.DownloadLatestBuild(ctx, buildName, buildDir); err != nil {
		if errors.Is(err, filestore.ErrNotFound) {
			d.logger.Info("no stored build available", "build", buildName)
		} else {
			d.logger.Warn("build download failed", "build", buildName, "error", err)
		}
		return "", nil
	}
	writeBuildStamp(d.logger, d.clk, d.cfg, buildDir, buildName, "filestore")
	return buildDir, nil
}

// UploadLatestBuild stores buildDir under the sanitizer-keyed build
// name, returning the filestore's result verbatim.
func (d *Lite) UploadLatestBuild(ctx context.Context, buildDir string) error {
	return d.store.UploadLatestBuild(ctx, d.buildName(), buildDir)
}

// DownloadCorpus fetches the stored corpus for targetName into
// parentDir's per-target corpus directory. A filestore failure here is
// fatal to the caller: the lite strategy treats the corpus as a
// required precondition of a meaningful run.
func (d *Lite) DownloadCorpus(ctx context.Context, targetName, parentDir string) (string, error) {
	corpusDir := CorpusDir(parentDir, targetName)
	d.logger.Debug("downloading corpus", "target", targetName, "dir", corpusDir)
	if err := os.MkdirAll(corpusDir, 0o755); err != nil {
		return "", fmt.Errorf("creating corpus directory: %w", err)
	}
	if err := d.store.DownloadCorpus(ctx, liteCorpusName(targetName), corpusDir); err != nil {
		d.logger.Error("corpus download failed", "target", targetName, "error", err)
		return "", fmt.Errorf("downloading corpus for %s: %w", targetName, err)
	}
	return corpusDir, nil
}

// UploadCorpus stores the corpus produced by targetName. Failures are
// logged and absorbed.
func (d *Lite) UploadCorpus(ctx context.Context, targetName, corpusDir string) {
	d.logger.Info("uploading corpus", "target", targetName)
	if err := d.store.UploadCorpus(ctx, liteCorpusName(targetName), corpusDir); err != nil {
		d.logger.Error("corpus upload failed", "target", targetName, "error", err)
	}
}

func (d *Lite) buildName() string {
	return liteBuildPrefix + d.cfg.Sanitizer
}

func liteCorpusName(targetName string) string {
	return "corpus-" + targetName
}
