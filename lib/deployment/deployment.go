// Copyright 2026 The Fuzzdepot Authors
// SPDX-License-Identifier: Apache-2.0

// Package deployment resolves, downloads, and caches fuzzing artifacts.
//
// A Deployment hides which artifact backend a run talks to. Two
// strategies exist: Lite serves self-hosted runs from a configured
// filestore, and Managed reads the hosted fuzzing service's
// object-storage layout over plain HTTP. Callers obtain one from New
// and stay indifferent to the choice; the configuration's platform
// field is inspected there and nowhere else.
//
// Build directories are cached by existence: once a download populates
// cifuzz-latest-build under a parent directory, later calls return the
// same path with no remote I/O. Corpus directories are re-fetched on
// every call because corpora grow between runs.
package deployment

import (
	"context"
	"os"
)

// Deployment is the uniform artifact interface both strategies satisfy.
//
// The download operations return the local directory the artifact was
// placed in. A missing build is a normal outcome, reported as ("", nil);
// which remote failures degrade the same way and which surface as
// errors differs per strategy and is documented there.
type Deployment interface {
	// DownloadLatestBuild fetches the latest build into a fixed
	// directory under parentDir and returns that directory. An
	// existing build directory is returned as-is without remote I/O.
	// ("", nil) means no build is available.
	DownloadLatestBuild(ctx context.Context, parentDir string) (string, error)

	// UploadLatestBuild stores buildDir as the latest build. The
	// managed strategy panics: its builds come from the service's own
	// pipeline.
	UploadLatestBuild(ctx context.Context, buildDir string) error

	// DownloadCorpus fetches the corpus for targetName into a fixed
	// per-target directory under parentDir and returns that directory.
	// Unlike builds there is no existence short-circuit. Which fetch
	// failures surface as errors differs per strategy; see the
	// strategy docs.
	DownloadCorpus(ctx context.Context, targetName, parentDir string) (string, error)

	// UploadCorpus stores the corpus produced by targetName. Failures
	// are logged and absorbed; an upload must never abort a run.
	UploadCorpus(ctx context.Context, targetName, corpusDir string)
}

// Fetcher is the HTTP collaborator the managed strategy reads the
// service's object storage through. *fetch.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	FetchAndUnpackZip(ctx context.Context, url, destDir string) error
}

// cachedBuildDir returns the build directory under parentDir and
// whether it already exists. Builds are immutable for a run's lifetime,
// so existence alone decides the cache hit: the download is paid for
// once, and later calls (one per crash that needs novelty verification)
// reuse the directory without a freshness check.
func cachedBuildDir(parentDir string) (string, bool) {
	buildDir := BuildDir(parentDir)
	if _, err := os.Stat(buildDir); err == nil {
		return buildDir, true
	}
	return buildDir, false
}
