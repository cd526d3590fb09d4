// Copyright 2026 The Fuzzdepot Authors
// SPDX-License-Identifier: Apache-2.0

// Package corpus manages local corpus directories: flat collections of
// input files ("units") seeding a fuzz target.
//
// Units are content-named: a unit's filename is the hex BLAKE3 keyed hash
// of its bytes. Content naming makes merging corpora from different runs
// a matter of filename collision — identical inputs land on identical
// names — and keeps git-backed stores free of rename churn.
package corpus

import (
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

// unitDomainKey is the BLAKE3 keyed-hash domain for corpus units. The
// key bytes are the ASCII domain name zero-padded to 32 bytes, readable
// in hex dumps without weakening the hash (keyed mode treats the key as
// opaque). Changing it renames every stored unit.
var unitDomainKey = [32]byte{
	'f', 'u', 'z', 'z', 'd', 'e', 'p', 'o', 't', '.',
	'c', 'o', 'r', 'p', 'u', 's', '.', 'u', 'n', 'i', 't',
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// UnitName returns the content name for a unit: 64 hex characters of the
// unit-domain BLAKE3 hash.
func UnitName(data []byte) string {
	hasher, err := blake3.NewKeyed(unitDomainKey[:])
	if err != nil {
		panic("corpus: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}

// Normalize renames every regular file in dir to its content name.
// Files already bearing their content name are left alone; distinct
// files with identical content collapse into one. Subdirectories are
// not descended into (corpora are flat). Returns the number of files
// renamed and the number removed as duplicates.
func Normalize(dir string) (renamed, removed int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("corpus: reading %s: %w", dir, err)
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return renamed, removed, fmt.Errorf("corpus: reading unit %s: %w", path, err)
		}

		name := UnitName(data)
		if entry.Name() == name {
			continue
		}

		target := filepath.Join(dir, name)
		if _, err := os.Stat(target); err == nil {
			// Another unit with the same content already holds the name.
			if err := os.Remove(path); err != nil {
				return renamed, removed, fmt.Errorf("corpus: removing duplicate unit %s: %w", path, err)
			}
			removed++
			continue
		}
		if err := os.Rename(path, target); err != nil {
			return renamed, removed, fmt.Errorf("corpus: renaming unit %s: %w", path, err)
		}
		renamed++
	}
	return renamed, removed, nil
}

// MergeInto copies units from srcDir into dstDir, skipping units whose
// content name already exists in dstDir. Source units are read and
// content-named during the copy, so srcDir need not be normalized.
// Returns the number of units added.
func MergeInto(dstDir, srcDir string) (added int, err error) {
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return 0, fmt.Errorf("corpus: creating %s: %w", dstDir, err)
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return 0, fmt.Errorf("corpus: reading %s: %w", srcDir, err)
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(srcDir, entry.Name()))
		if err != nil {
			return added, fmt.Errorf("corpus: reading unit %s: %w", entry.Name(), err)
		}

		target := filepath.Join(dstDir, UnitName(data))
		if _, err := os.Stat(target); err == nil {
			continue
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return added, fmt.Errorf("corpus: writing unit %s: %w", target, err)
		}
		added++
	}
	return added, nil
}

// Stats returns the number of units in dir and their total size in
// bytes. Subdirectories are ignored.
func Stats(dir string) (units int, totalBytes int64, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("corpus: reading %s: %w", dir, err)
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if _, ok := err.(*fs.PathError); ok {
				continue
			}
			return units, totalBytes, err
		}
		units++
		totalBytes += info.Size()
	}
	return units, totalBytes, nil
}
