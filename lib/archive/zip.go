// Copyright 2026 The Fuzzdepot Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive packs directories into zip archives and unpacks them
// again. Zip is the wire format for every artifact this system moves:
// build archives, corpus snapshots, and the public corpus backups.
//
// File modes are preserved — build archives contain fuzz target binaries
// that must come back executable.
package archive

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
)

// PackZip writes the contents of srcDir to w as a zip archive. Entry names
// are forward-slash paths relative to srcDir. Only regular files are
// packed; directory structure is implied by entry names. Symlinks and
// other special files are skipped.
func PackZip(srcDir string, w io.Writer) error {
	zipWriter := zip.NewWriter(w)

	walkErr := filepath.WalkDir(srcDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.Type().IsRegular() {
			return nil
		}

		relative, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}

		header := &zip.FileHeader{
			Name:   filepath.ToSlash(relative),
			Method: zip.Deflate,
		}
		header.SetMode(info.Mode())

		entryWriter, err := zipWriter.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("creating entry %s: %w", relative, err)
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		if _, err := io.Copy(entryWriter, file); err != nil {
			return fmt.Errorf("writing entry %s: %w", relative, err)
		}
		return nil
	})
	if walkErr != nil {
		zipWriter.Close()
		return fmt.Errorf("archive: packing %s: %w", srcDir, walkErr)
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("archive: finalizing archive of %s: %w", srcDir, err)
	}
	return nil
}

// PackZipFile packs srcDir into a zip archive at archivePath, creating
// parent directories as needed.
func PackZipFile(srcDir, archivePath string) error {
	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return fmt.Errorf("archive: creating archive directory: %w", err)
	}
	file, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("archive: creating %s: %w", archivePath, err)
	}
	if err := PackZip(srcDir, file); err != nil {
		file.Close()
		os.Remove(archivePath)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(archivePath)
		return fmt.Errorf("archive: closing %s: %w", archivePath, err)
	}
	return nil
}

// UnpackZip extracts the archive at archivePath into destDir, creating
// destDir and any intermediate directories. Entry names that would escape
// destDir (absolute paths, ".." traversal) are rejected. Regular files and
// directories are restored with their recorded modes; other entry types
// are skipped.
func UnpackZip(archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("archive: opening %s: %w", archivePath, err)
	}
	defer reader.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("archive: creating %s: %w", destDir, err)
	}

	for _, entry := range reader.File {
		name := filepath.FromSlash(entry.Name)
		if !filepath.IsLocal(name) {
			return fmt.Errorf("archive: entry %q escapes the destination directory", entry.Name)
		}
		target := filepath.Join(destDir, name)

		mode := entry.Mode()
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, mode.Perm()|0o700); err != nil {
				return fmt.Errorf("archive: creating directory %s: %w", target, err)
			}
			continue
		}
		if !mode.IsRegular() {
			continue
		}

		if err := extractFile(entry, target); err != nil {
			return fmt.Errorf("archive: extracting %s: %w", entry.Name, err)
		}
	}
	return nil
}

func extractFile(entry *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	source, err := entry.Open()
	if err != nil {
		return err
	}
	defer source.Close()

	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, entry.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, source); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
