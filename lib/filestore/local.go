// Copyright 2026 The Fuzzdepot Authors
// SPDX-License-Identifier: Apache-2.0

package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fuzzdepot/fuzzdepot/lib/archive"
	"github.com/fuzzdepot/fuzzdepot/lib/config"
	"github.com/fuzzdepot/fuzzdepot/lib/sealed"
)

// sealedSuffix marks archives encrypted at rest.
const sealedSuffix = ".age"

// LocalStore keeps artifacts as zip archives under a root directory:
// builds/<name>.zip and corpus/<name>.zip. With seal recipients
// configured, new archives are written age-encrypted as .zip.age;
// downloads accept both forms, so a store can be migrated to sealing
// without rewriting history.
type LocalStore struct {
	root           string
	sealRecipients []string
	identityFile   string
}

// NewLocal returns a LocalStore rooted at cfg.Root, creating the
// directory if needed. Seal recipients are validated here so a typo
// fails at startup rather than at the first upload.
func NewLocal(cfg config.LocalStorageConfig) (*LocalStore, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("filestore: local store requires a root directory")
	}
	for _, recipient := range cfg.SealRecipients {
		if err := sealed.ValidateRecipient(recipient); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: creating store root: %w", err)
	}
	return &LocalStore{
		root:           cfg.Root,
		sealRecipients: cfg.SealRecipients,
		identityFile:   cfg.IdentityFile,
	}, nil
}

func (s *LocalStore) UploadCorpus(ctx context.Context, name, srcDir string) error {
	return s.upload(filepath.Join(s.root, "corpus", name+".zip"), srcDir)
}

func (s *LocalStore) DownloadCorpus(ctx context.Context, name, destDir string) error {
	err := s.download(filepath.Join(s.root, "corpus", name+".zip"), destDir)
	if errors.Is(err, ErrNotFound) {
		// No stored corpus yet: normal for a new target.
		return nil
	}
	return err
}

func (s *LocalStore) UploadLatestBuild(ctx context.Context, name, srcDir string) error {
	return s.upload(filepath.Join(s.root, "builds", name+".zip"), srcDir)
}

func (s *LocalStore) DownloadLatestBuild(ctx context.Context, name, destDir string) error {
	return s.download(filepath.Join(s.root, "builds", name+".zip"), destDir)
}

func (s *LocalStore) sealing() bool {
	return len(s.sealRecipients) > 0
}

// upload packs srcDir into an archive at archivePath (plus sealedSuffix
// when sealing). The previous archive of either form is replaced — a
// store migrated to sealing must not leave a stale plaintext archive
// shadowing the sealed one.
func (s *LocalStore) upload(archivePath, srcDir string) error {
	if _, err := os.Stat(srcDir); err != nil {
		return fmt.Errorf("filestore: reading upload source: %w", err)
	}

	if !s.sealing() {
		if err := archive.PackZipFile(srcDir, archivePath); err != nil {
			return err
		}
		os.Remove(archivePath + sealedSuffix)
		return nil
	}

	sealedPath := archivePath + sealedSuffix
	if err := os.MkdirAll(filepath.Dir(sealedPath), 0o755); err != nil {
		return fmt.Errorf("filestore: creating archive directory: %w", err)
	}
	file, err := os.Create(sealedPath)
	if err != nil {
		return fmt.Errorf("filestore: creating %s: %w", sealedPath, err)
	}

	sealer, err := sealed.SealTo(file, s.sealRecipients)
	if err != nil {
		file.Close()
		os.Remove(sealedPath)
		return err
	}
	if err := archive.PackZip(srcDir, sealer); err != nil {
		file.Close()
		os.Remove(sealedPath)
		return err
	}
	if err := sealer.Close(); err != nil {
		file.Close()
		os.Remove(sealedPath)
		return fmt.Errorf("filestore: finalizing sealed archive: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(sealedPath)
		return fmt.Errorf("filestore: closing sealed archive: %w", err)
	}

	os.Remove(archivePath)
	return nil
}

// download unpacks the archive at archivePath (or its sealed form) into
// destDir. Returns ErrNotFound when neither form exists.
func (s *LocalStore) download(archivePath, destDir string) error {
	if _, err := os.Stat(archivePath); err == nil {
		return archive.UnpackZip(archivePath, destDir)
	}

	sealedPath := archivePath + sealedSuffix
	if _, err := os.Stat(sealedPath); err != nil {
		return ErrNotFound
	}
	return s.downloadSealed(sealedPath, destDir)
}

func (s *LocalStore) downloadSealed(sealedPath, destDir string) error {
	if s.identityFile == "" {
		return fmt.Errorf("filestore: %s is sealed but no identity_file is configured", sealedPath)
	}
	identity, err := sealed.LoadIdentity(s.identityFile)
	if err != nil {
		return err
	}
	defer identity.Close()

	file, err := os.Open(sealedPath)
	if err != nil {
		return fmt.Errorf("filestore: opening %s: %w", sealedPath, err)
	}
	defer file.Close()

	plaintext, err := sealed.Unseal(file, identity)
	if err != nil {
		return err
	}

	// Unsealing yields a stream, but zip unpacking needs random access:
	// spool the decrypted archive to a temp file first.
	spool, err := os.CreateTemp("", "fuzzdepot-store-*.zip")
	if err != nil {
		return fmt.Errorf("filestore: creating spool file: %w", err)
	}
	spoolPath := spool.Name()
	defer os.Remove(spoolPath)

	if _, err := io.Copy(spool, plaintext); err != nil {
		spool.Close()
		return fmt.Errorf("filestore: unsealing %s: %w", sealedPath, err)
	}
	if err := spool.Close(); err != nil {
		return fmt.Errorf("filestore: finishing unseal of %s: %w", sealedPath, err)
	}

	return archive.UnpackZip(spoolPath, destDir)
}
