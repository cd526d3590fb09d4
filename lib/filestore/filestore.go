// Copyright 2026 The Fuzzdepot Authors
// SPDX-License-Identifier: Apache-2.0

// Package filestore provides the generic artifact store behind the lite
// deployment backend: named build and corpus artifacts, uploaded from and
// downloaded into local directories.
//
// Three backends exist, selected by configuration:
//
//   - local: a directory-rooted store holding artifacts as zip archives,
//     optionally age-sealed at rest.
//   - git: corpora as content-named file trees in a git repository
//     (history doubles as corpus provenance); builds delegate to an
//     inner local store.
//   - none: uploads discard, build downloads report ErrNotFound.
//
// Policy on failures (absorb, propagate, degrade) belongs to the
// deployment layer; stores just return errors.
package filestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/fuzzdepot/fuzzdepot/lib/config"
)

// ErrNotFound reports that the store holds no artifact under the
// requested name. Build downloads surface it so the deployment can treat
// a missing build as "unavailable" rather than a failure.
var ErrNotFound = errors.New("filestore: artifact not found")

// Filestore is a generic artifact store. Artifacts are keyed by name;
// the deployment layer owns the naming scheme.
//
// DownloadCorpus with no stored corpus under the name is a successful
// no-op, leaving destDir as it was: a corpus that does not exist yet is
// the normal state of a new target, not a failure.
type Filestore interface {
	// UploadCorpus stores the units in srcDir under name.
	UploadCorpus(ctx context.Context, name, srcDir string) error

	// DownloadCorpus materializes the units stored under name into
	// destDir, merging with whatever destDir already holds.
	DownloadCorpus(ctx context.Context, name, destDir string) error

	// UploadLatestBuild stores the build tree in srcDir under name,
	// replacing any previous build of that name.
	UploadLatestBuild(ctx context.Context, name, srcDir string) error

	// DownloadLatestBuild materializes the build stored under name into
	// destDir. Returns ErrNotFound when no such build exists.
	DownloadLatestBuild(ctx context.Context, name, destDir string) error
}

// New resolves the configured store backend. The git backend wraps a
// local store for build artifacts — build archives do not belong in
// corpus history.
func New(cfg *config.Config) (Filestore, error) {
	switch cfg.Storage.Kind {
	case "local":
		return NewLocal(cfg.Storage.Local)
	case "git":
		inner, err := NewLocal(cfg.Storage.Local)
		if err != nil {
			return nil, err
		}
		return NewGit(cfg.Storage.Git, inner)
	case "none", "":
		return NewNoop(), nil
	default:
		return nil, fmt.Errorf("filestore: unknown storage kind %q", cfg.Storage.Kind)
	}
}
