// Copyright 2026 The Fuzzdepot Authors
// SPDX-License-Identifier: Apache-2.0

package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fuzzdepot/fuzzdepot/lib/config"
	"github.com/fuzzdepot/fuzzdepot/lib/corpus"
	"github.com/fuzzdepot/fuzzdepot/lib/git"
	"github.com/fuzzdepot/fuzzdepot/lib/secret"
)

// GitStore keeps corpora as content-named file trees in a git
// repository, under corpus/<name>/. Content naming (see lib/corpus)
// means a re-uploaded unit is a no-op commit-wise, and the repository
// history records exactly when each input was first discovered.
//
// Build artifacts delegate to an inner store — build archives are large
// binaries with no place in corpus history.
type GitStore struct {
	remoteURL string
	branch    string
	cloneDir  string
	token     *secret.Buffer
	inner     Filestore

	repo *git.Repository
}

// NewGit returns a GitStore for cfg, resolving the push token from the
// configured environment variable or file. The remote is not contacted
// until the first operation.
func NewGit(cfg config.GitStorageConfig, inner Filestore) (*GitStore, error) {
	if cfg.RemoteURL == "" {
		return nil, fmt.Errorf("filestore: git store requires a remote URL")
	}
	if cfg.CloneDir == "" {
		return nil, fmt.Errorf("filestore: git store requires a clone directory")
	}

	var token *secret.Buffer
	var err error
	switch {
	case cfg.TokenEnv != "":
		token, err = secret.FromEnv(cfg.TokenEnv)
	case cfg.TokenFile != "":
		token, err = secret.ReadFromPath(cfg.TokenFile)
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: resolving git store token: %w", err)
	}

	return &GitStore{
		remoteURL: cfg.RemoteURL,
		branch:    cfg.Branch,
		cloneDir:  cfg.CloneDir,
		token:     token,
		inner:     inner,
	}, nil
}

func (s *GitStore) UploadCorpus(ctx context.Context, name, srcDir string) error {
	repo, err := s.ensureClone(ctx)
	if err != nil {
		return err
	}

	storeDir := filepath.Join(repo.Dir(), "corpus", name)
	added, err := corpus.MergeInto(storeDir, srcDir)
	if err != nil {
		return err
	}
	if added > 0 {
		pathspec := filepath.Join("corpus", name)
		if _, err := repo.CommitAll(ctx, pathspec, fmt.Sprintf("corpus: add %d units to %s", added, name)); err != nil {
			return err
		}
	}

	// The push happens even when nothing new was merged: a failed push
	// leaves its commit stranded in the clone, and the retry that must
	// recover it merges zero new units. Pushing an up-to-date branch is
	// a no-op on the remote.
	return repo.Push(ctx, s.credentialURL(), s.branch)
}

func (s *GitStore) DownloadCorpus(ctx context.Context, name, destDir string) error {
	repo, err := s.ensureClone(ctx)
	if err != nil {
		return err
	}

	storeDir := filepath.Join(repo.Dir(), "corpus", name)
	if _, err := os.Stat(storeDir); os.IsNotExist(err) {
		// No stored corpus yet: normal for a new target.
		return nil
	}
	_, err = corpus.MergeInto(destDir, storeDir)
	return err
}

func (s *GitStore) UploadLatestBuild(ctx context.Context, name, srcDir string) error {
	return s.inner.UploadLatestBuild(ctx, name, srcDir)
}

func (s *GitStore) DownloadLatestBuild(ctx context.Context, name, destDir string) error {
	return s.inner.DownloadLatestBuild(ctx, name, destDir)
}

// ensureClone clones the corpus repository on first use and
// fast-forwards it on every subsequent operation. The credentialed URL
// is passed per command and replaced with the plain URL in .git/config,
// so the token never persists on disk.
func (s *GitStore) ensureClone(ctx context.Context) (*git.Repository, error) {
	if s.repo != nil {
		if err := s.repo.Pull(ctx, s.credentialURL(), s.branch); err != nil {
			return nil, err
		}
		return s.repo, nil
	}

	if git.IsRepository(s.cloneDir) {
		repo := git.NewRepository(s.cloneDir)
		if err := repo.Pull(ctx, s.credentialURL(), s.branch); err != nil {
			return nil, err
		}
		s.repo = repo
		return repo, nil
	}

	repo, err := git.Clone(ctx, s.credentialURL(), s.branch, s.cloneDir)
	if err != nil {
		return nil, err
	}
	if s.token != nil {
		if _, err := repo.Run(ctx, "remote", "set-url", "origin", s.remoteURL); err != nil {
			return nil, err
		}
	}
	s.repo = repo
	return repo, nil
}

func (s *GitStore) credentialURL() string {
	if s.token == nil {
		return s.remoteURL
	}
	credentialed, err := git.CredentialURL(s.remoteURL, s.token)
	if err != nil {
		// Unparseable URL; git will reject it with a clearer error.
		return s.remoteURL
	}
	return credentialed
}
