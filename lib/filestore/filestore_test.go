// Copyright 2026 The Fuzzdepot Authors
// SPDX-License-Identifier: Apache-2.0

package filestore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/fuzzdepot/fuzzdepot/lib/config"
)

func TestNewSelectsBackend(t *testing.T) {
	baseConfig := func() *config.Config {
		cfg := config.Default()
		cfg.ProjectName = "curl"
		cfg.Storage.Local.Root = filepath.Join(t.TempDir(), "store")
		cfg.Storage.Git.RemoteURL = "https://example.com/org/corpus.git"
		cfg.Storage.Git.CloneDir = filepath.Join(t.TempDir(), "clone")
		return cfg
	}

	tests := []struct {
		kind string
		want string
	}{
		{"local", "*filestore.LocalStore"},
		{"git", "*filestore.GitStore"},
		{"none", "*filestore.NoopStore"},
		{"", "*filestore.NoopStore"},
	}
	for _, test := range tests {
		cfg := baseConfig()
		cfg.Storage.Kind = test.kind
		store, err := New(cfg)
		if err != nil {
			t.Errorf("New(kind=%q): %v", test.kind, err)
			continue
		}
		var got string
		switch store.(type) {
		case *LocalStore:
			got = "*filestore.LocalStore"
		case *GitStore:
			got = "*filestore.GitStore"
		case *NoopStore:
			got = "*filestore.NoopStore"
		default:
			got = "unexpected"
		}
		if got != test.want {
			t.Errorf("New(kind=%q) = %s, want %s", test.kind, got, test.want)
		}
	}
}

func TestNewRejectsUnknownKind(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Kind = "s3"
	if _, err := New(cfg); err == nil {
		t.Error("New accepted an unknown storage kind")
	}
}

func TestNoopStore(t *testing.T) {
	store := NewNoop()
	ctx := context.Background()

	if err := store.UploadCorpus(ctx, "corpus-x", t.TempDir()); err != nil {
		t.Errorf("UploadCorpus: %v", err)
	}
	if err := store.UploadLatestBuild(ctx, "cifuzz-build-address", t.TempDir()); err != nil {
		t.Errorf("UploadLatestBuild: %v", err)
	}
	if err := store.DownloadCorpus(ctx, "corpus-x", t.TempDir()); err != nil {
		t.Errorf("DownloadCorpus: %v", err)
	}
	err := store.DownloadLatestBuild(ctx, "cifuzz-build-address", t.TempDir())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("DownloadLatestBuild error = %v, want ErrNotFound", err)
	}
}
