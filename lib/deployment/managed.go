// Copyright 2026 The Fuzzdepot Authors
// SPDX-License-Identifier: Apache-2.0

package deployment

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fuzzdepot/fuzzdepot/lib/clock"
	"github.com/fuzzdepot/fuzzdepot/lib/config"
	"github.com/fuzzdepot/fuzzdepot/lib/fetch"
)

const (
	// buildsPath is the object path holding per-project build archives
	// and version pointer files.
	buildsPath = "clusterfuzz-builds"

	// backupBucketSuffix completes a project's backup bucket host; the
	// trailing segments address libFuzzer corpora within it.
	backupBucketSuffix = "-backup.clusterfuzz-external.appspot.com/corpus/libFuzzer/"

	// corpusZipName is the fixed archive name of a public corpus.
	corpusZipName = "public.zip"
)

// Managed is the deployment strategy for runs inside the hosted fuzzing
// service. Builds are discovered through a version pointer file in the
// service's object storage and fetched over plain HTTP; corpora come
// from the service's per-project backup bucket. The backend is
// read-only: builds are produced by the service's own pipeline.
type Managed struct {
	cfg     *config.Config
	fetcher Fetcher
	logger  *slog.Logger
	clk     clock.Clock
}

// NewManaged returns a managed deployment reading through fetcher.
func NewManaged(cfg *config.Config, fetcher Fetcher, logger *slog.Logger) *Managed {
	return &Managed{cfg: cfg, fetcher: fetcher, logger: logger, clk: clock.Real()}
}

// resolveLatestBuildName reads the version pointer file naming the
// project's current build archive. An HTTP status failure means no
// build is published and yields ("", nil); transport failures are
// returned as errors. The response body is the archive name verbatim,
// with no trimming.
func (d *Managed) resolveLatestBuildName(ctx context.Context) (string, error) {
	versionFile := fmt.Sprintf("%s-%s-latest.version", d.cfg.ProjectName, d.cfg.Sanitizer)
	versionURL := fetch.JoinURL(d.cfg.BuildsBaseURL, buildsPath, d.cfg.ProjectName, versionFile)
	body, err := d.fetcher.Fetch(ctx, versionURL)
	if err != nil {
		if fetch.IsStatus(err) {
			d.logger.Error("no latest build version", "project", d.cfg.ProjectName, "url", versionURL, "error", err)
			return "", nil
		}
		return "", fmt.Errorf("resolving latest build version: %w", err)
	}
	return string(body), nil
}

// DownloadLatestBuild fetches the project's current build archive into
// parentDir's build directory. Fetch and unpack failures degrade to
// ("", nil).
func (d *Managed) DownloadLatestBuild(ctx context.Context, parentDir string) (string, error) {
	buildDir, ok := cachedBuildDir(parentDir)
	if ok {
		return buildDir, nil
	}
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return "", fmt.Errorf("creating build directory: %w", err)
	}

	buildName, err := d.resolveLatestBuildName(ctx)
	if err != nil {
		return "", err
	}
	if buildName == "" {
		return "", nil
	}

	buildURL := fetch.JoinURL(d.cfg.BuildsBaseURL, buildsPath, d.cfg.ProjectName, buildName)
	if err := d.fetcher.FetchAndUnpackZip(ctx, buildURL, buildDir); err != nil {
		d.logger.Warn("build download failed", "url", buildURL, "error", err)
		return "", nil
	}
	writeBuildStamp(d.logger, d.clk, d.cfg, buildDir, buildName, buildURL)
	return buildDir, nil
}

// UploadLatestBuild always panics. The managed service builds projects
// through its own pipeline; reaching this call is a wiring bug in the
// caller, not a runtime condition to handle.
func (d *Managed) UploadLatestBuild(ctx context.Context, buildDir string) error {
	panic("deployment: managed backend is read-only, builds come from the service pipeline")
}

// DownloadCorpus fetches the public backup corpus for targetName into
// parentDir's per-target corpus directory. The fetch outcome is
// deliberately ignored, unlike build download above: the backup corpus
// is best-effort acceleration, and an empty corpus directory is a valid
// degraded outcome. Callers always receive a usable directory.
func (d *Managed) DownloadCorpus(ctx context.Context, targetName, parentDir string) (string, error) {
	corpusDir := CorpusDir(parentDir, targetName)
	if err := os.MkdirAll(corpusDir, 0o755); err != nil {
		return "", fmt.Errorf("creating corpus directory: %w", err)
	}

	corpusURL := fetch.JoinURL(
		d.cfg.BuildsBaseURL,
		d.cfg.ProjectName+backupBucketSuffix,
		qualifiedTargetName(d.cfg.ProjectName, targetName),
		corpusZipName,
	)
	if err := d.fetcher.FetchAndUnpackZip(ctx, corpusURL, corpusDir); err != nil {
		d.logger.Debug("corpus download failed", "target", targetName, "url", corpusURL, "error", err)
	}
	return corpusDir, nil
}

// UploadCorpus is a logged no-op: the managed service collects corpora
// through its own workers.
func (d *Managed) UploadCorpus(ctx context.Context, targetName, corpusDir string) {
	d.logger.Info("skipping corpus upload, the managed service collects corpora itself", "target", targetName)
}

// qualifiedTargetName prefixes targetName with "<project>_" unless the
// prefix is already present. The service stores corpora under
// project-qualified target names; qualification is idempotent.
func qualifiedTargetName(projectName, targetName string) string {
	prefix := projectName + "_"
	if strings.HasPrefix(targetName, prefix) {
		return targetName
	}
	return prefix + targetName
}
