// Copyright 2026 The Fuzzdepot Authors
// SPDX-License-Identifier: Apache-2.0

package filestore

import (
	"context"
	"fmt"
)

// NoopStore is the "none" backend: runs that want fresh builds and
// corpora from nowhere, typically local experiments with no storage
// configured. Uploads succeed by discarding; build downloads report
// ErrNotFound; corpus downloads succeed leaving the directory empty.
type NoopStore struct{}

// NewNoop returns the no-op store.
func NewNoop() *NoopStore {
	return &NoopStore{}
}

func (*NoopStore) UploadCorpus(ctx context.Context, name, srcDir string) error {
	return nil
}

func (*NoopStore) DownloadCorpus(ctx context.Context, name, destDir string) error {
	return nil
}

func (*NoopStore) UploadLatestBuild(ctx context.Context, name, srcDir string) error {
	return nil
}

func (*NoopStore) DownloadLatestBuild(ctx context.Context, name, destDir string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, name)
}
