// Copyright 2026 The Fuzzdepot Authors
// SPDX-License-Identifier: Apache-2.0

package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fuzzdepot/fuzzdepot/lib/config"
	"github.com/fuzzdepot/fuzzdepot/lib/sealed"
)

func newTestLocal(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocal(config.LocalStorageConfig{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	return store
}

func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestLocalBuildRoundTrip(t *testing.T) {
	store := newTestLocal(t)
	ctx := context.Background()

	srcDir := t.TempDir()
	writeTree(t, srcDir, map[string]string{
		"curl_fuzzer":         "ELF...",
		"curl_fuzzer.options": "[libfuzzer]\n",
		"seeds/unit-1":        "input",
	})

	if err := store.UploadLatestBuild(ctx, "cifuzz-build-address", srcDir); err != nil {
		t.Fatalf("UploadLatestBuild: %v", err)
	}

	destDir := filepath.Join(t.TempDir(), "build")
	if err := store.DownloadLatestBuild(ctx, "cifuzz-build-address", destDir); err != nil {
		t.Fatalf("DownloadLatestBuild: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(destDir, "seeds", "unit-1"))
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if string(got) != "input" {
		t.Errorf("downloaded content = %q, want %q", got, "input")
	}
}

func TestLocalDownloadMissingBuild(t *testing.T) {
	store := newTestLocal(t)
	err := store.DownloadLatestBuild(context.Background(), "cifuzz-build-address", t.TempDir())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestLocalUploadReplacesPreviousBuild(t *testing.T) {
	store := newTestLocal(t)
	ctx := context.Background()

	first := t.TempDir()
	writeTree(t, first, map[string]string{"stamp": "v1"})
	if err := store.UploadLatestBuild(ctx, "cifuzz-build-address", first); err != nil {
		t.Fatalf("first upload: %v", err)
	}

	second := t.TempDir()
	writeTree(t, second, map[string]string{"stamp": "v2"})
	if err := store.UploadLatestBuild(ctx, "cifuzz-build-address", second); err != nil {
		t.Fatalf("second upload: %v", err)
	}

	destDir := filepath.Join(t.TempDir(), "build")
	if err := store.DownloadLatestBuild(ctx, "cifuzz-build-address", destDir); err != nil {
		t.Fatalf("DownloadLatestBuild: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(destDir, "stamp"))
	if err != nil {
		t.Fatalf("reading stamp: %v", err)
	}
	if string(got) != "v2" {
		t.Errorf("stamp = %q, want %q", got, "v2")
	}
}

func TestLocalCorpusMissingIsNoop(t *testing.T) {
	store := newTestLocal(t)
	destDir := filepath.Join(t.TempDir(), "corpus")
	if err := store.DownloadCorpus(context.Background(), "corpus-curl_fuzzer", destDir); err != nil {
		t.Errorf("DownloadCorpus for absent corpus: %v", err)
	}
}

func TestLocalCorpusRoundTrip(t *testing.T) {
	store := newTestLocal(t)
	ctx := context.Background()

	srcDir := t.TempDir()
	writeTree(t, srcDir, map[string]string{"unit-a": "alpha", "unit-b": "beta"})
	if err := store.UploadCorpus(ctx, "corpus-curl_fuzzer", srcDir); err != nil {
		t.Fatalf("UploadCorpus: %v", err)
	}

	destDir := t.TempDir()
	writeTree(t, destDir, map[string]string{"existing": "kept"})
	if err := store.DownloadCorpus(ctx, "corpus-curl_fuzzer", destDir); err != nil {
		t.Fatalf("DownloadCorpus: %v", err)
	}

	for name, want := range map[string]string{"unit-a": "alpha", "unit-b": "beta", "existing": "kept"} {
		got, err := os.ReadFile(filepath.Join(destDir, name))
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		if string(got) != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
}

func TestLocalSealedRoundTrip(t *testing.T) {
	identity, recipient, err := sealed.GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	identityPath := filepath.Join(t.TempDir(), "identity.txt")
	if err := os.WriteFile(identityPath, []byte(identity.String()+"\n"), 0o600); err != nil {
		t.Fatalf("writing identity: %v", err)
	}
	identity.Close()

	root := t.TempDir()
	store, err := NewLocal(config.LocalStorageConfig{
		Root:           root,
		SealRecipients: []string{recipient},
		IdentityFile:   identityPath,
	})
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	ctx := context.Background()

	srcDir := t.TempDir()
	writeTree(t, srcDir, map[string]string{"unit": "sensitive crash input"})
	if err := store.UploadCorpus(ctx, "corpus-curl_fuzzer", srcDir); err != nil {
		t.Fatalf("UploadCorpus: %v", err)
	}

	// At rest: only the sealed archive exists.
	if _, err := os.Stat(filepath.Join(root, "corpus", "corpus-curl_fuzzer.zip.age")); err != nil {
		t.Errorf("sealed archive missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "corpus", "corpus-curl_fuzzer.zip")); !os.IsNotExist(err) {
		t.Errorf("plaintext archive present alongside sealed one")
	}

	destDir := t.TempDir()
	if err := store.DownloadCorpus(ctx, "corpus-curl_fuzzer", destDir); err != nil {
		t.Fatalf("DownloadCorpus: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(destDir, "unit"))
	if err != nil {
		t.Fatalf("reading unsealed unit: %v", err)
	}
	if string(got) != "sensitive crash input" {
		t.Errorf("unsealed unit = %q, want original content", got)
	}
}

func TestLocalSealedDownloadNeedsIdentity(t *testing.T) {
	identity, recipient, err := sealed.GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	identity.Close()

	root := t.TempDir()
	sealing, err := NewLocal(config.LocalStorageConfig{
		Root:           root,
		SealRecipients: []string{recipient},
	})
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	srcDir := t.TempDir()
	writeTree(t, srcDir, map[string]string{"unit": "data"})
	ctx := context.Background()
	if err := sealing.UploadCorpus(ctx, "corpus-x", srcDir); err != nil {
		t.Fatalf("UploadCorpus: %v", err)
	}

	if err := sealing.DownloadCorpus(ctx, "corpus-x", t.TempDir()); err == nil {
		t.Error("DownloadCorpus of sealed archive succeeded without an identity file")
	}
}

func TestNewLocalRejectsBadRecipient(t *testing.T) {
	_, err := NewLocal(config.LocalStorageConfig{
		Root:           t.TempDir(),
		SealRecipients: []string{"age1malformed"},
	})
	if err == nil {
		t.Error("NewLocal accepted a malformed seal recipient")
	}
}

func TestNewLocalRequiresRoot(t *testing.T) {
	if _, err := NewLocal(config.LocalStorageConfig{}); err == nil {
		t.Error("NewLocal accepted an empty root")
	}
}
