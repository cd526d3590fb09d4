// Copyright 2026 The Fuzzdepot Authors
// SPDX-License-Identifier: Apache-2.0

package deployment

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fuzzdepot/fuzzdepot/lib/clock"
	"github.com/fuzzdepot/fuzzdepot/lib/filestore"
)

func TestLiteDownloadLatestBuildCachesByExistence(t *testing.T) {
	store := &stubStore{}
	d := NewLite(testConfig(), store, testLogger())
	ctx := context.Background()
	parent := t.TempDir()

	first, err := d.DownloadLatestBuild(ctx, parent)
	if err != nil {
		t.Fatalf("first DownloadLatestBuild: %v", err)
	}
	if want := filepath.Join(parent, "cifuzz-latest-build"); first != want {
		t.Errorf("build dir = %q, want %q", first, want)
	}
	if len(store.buildDownloads) != 1 || store.buildDownloads[0] != "cifuzz-build-address" {
		t.Errorf("filestore downloads = %v, want one call for cifuzz-build-address", store.buildDownloads)
	}

	// The populated directory wins unconditionally; no further I/O.
	second, err := d.DownloadLatestBuild(ctx, parent)
	if err != nil {
		t.Fatalf("second DownloadLatestBuild: %v", err)
	}
	if second != first {
		t.Errorf("second call returned %q, want %q", second, first)
	}
	if len(store.buildDownloads) != 1 {
		t.Errorf("filestore downloads after cache hit = %d, want 1", len(store.buildDownloads))
	}
}

func TestLiteDownloadLatestBuildUnavailable(t *testing.T) {
	store := &stubStore{buildDownloadErr: filestore.ErrNotFound}
	d := NewLite(testConfig(), store, testLogger())

	dir, err := d.DownloadLatestBuild(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("DownloadLatestBuild: %v", err)
	}
	if dir != "" {
		t.Errorf("dir = %q, want empty for unavailable build", dir)
	}
}

func TestLiteDownloadLatestBuildAbsorbsStoreFailure(t *testing.T) {
	store := &stubStore{buildDownloadErr: errors.New("backend down")}
	d := NewLite(testConfig(), store, testLogger())

	dir, err := d.DownloadLatestBuild(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("DownloadLatestBuild: %v", err)
	}
	if dir != "" {
		t.Errorf("dir = %q, want empty when the store fails", dir)
	}
}

func TestLiteUploadLatestBuildPassesResultThrough(t *testing.T) {
	storeErr := errors.New("quota exceeded")
	store := &stubStore{buildUploadErr: storeErr}
	d := NewLite(testConfig(), store, testLogger())

	err := d.UploadLatestBuild(context.Background(), t.TempDir())
	if !errors.Is(err, storeErr) {
		t.Errorf("UploadLatestBuild error = %v, want the store's error verbatim", err)
	}
	if len(store.buildUploads) != 1 || store.buildUploads[0] != "cifuzz-build-address" {
		t.Errorf("filestore uploads = %v, want one call for cifuzz-build-address", store.buildUploads)
	}
}

func TestLiteDownloadCorpusRefetchesEveryCall(t *testing.T) {
	store := &stubStore{}
	d := NewLite(testConfig(), store, testLogger())
	ctx := context.Background()
	parent := t.TempDir()

	for i := 0; i < 2; i++ {
		dir, err := d.DownloadCorpus(ctx, "curl_fuzzer", parent)
		if err != nil {
			t.Fatalf("DownloadCorpus call %d: %v", i+1, err)
		}
		if want := filepath.Join(parent, "cifuzz-corpus", "curl_fuzzer"); dir != want {
			t.Errorf("corpus dir = %q, want %q", dir, want)
		}
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("corpus dir not created: %v", err)
		}
	}
	if len(store.corpusDownloads) != 2 {
		t.Errorf("filestore corpus downloads = %d, want 2 (no caching)", len(store.corpusDownloads))
	}
	if store.corpusDownloads[0] != "corpus-curl_fuzzer" {
		t.Errorf("corpus name = %q, want corpus-curl_fuzzer", store.corpusDownloads[0])
	}
}

func TestLiteDownloadCorpusPropagatesFailure(t *testing.T) {
	storeErr := errors.New("backend down")
	store := &stubStore{corpusDownloadErr: storeErr}
	d := NewLite(testConfig(), store, testLogger())

	dir, err := d.DownloadCorpus(context.Background(), "curl_fuzzer", t.TempDir())
	if !errors.Is(err, storeErr) {
		t.Errorf("DownloadCorpus error = %v, want wrapped store error", err)
	}
	if dir != "" {
		t.Errorf("dir = %q, want empty on corpus failure", dir)
	}
}

func TestLiteUploadCorpus(t *testing.T) {
	store := &stubStore{}
	d := NewLite(testConfig(), store, testLogger())

	d.UploadCorpus(context.Background(), "curl_fuzzer", t.TempDir())
	if len(store.corpusUploads) != 1 || store.corpusUploads[0] != "corpus-curl_fuzzer" {
		t.Errorf("filestore corpus uploads = %v, want exactly one call for corpus-curl_fuzzer", store.corpusUploads)
	}
}

func TestLiteUploadCorpusAbsorbsFailure(t *testing.T) {
	store := &stubStore{corpusUploadErr: errors.New("quota exceeded")}
	d := NewLite(testConfig(), store, testLogger())

	// Must neither panic nor abort; the failure is logged and dropped.
	d.UploadCorpus(context.Background(), "curl_fuzzer", t.TempDir())
}

func TestLiteBuildStampWritten(t *testing.T) {
	store := &stubStore{}
	d := NewLite(testConfig(), store, testLogger())
	downloadedAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	d.clk = clock.NewFake(downloadedAt)

	dir, err := d.DownloadLatestBuild(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("DownloadLatestBuild: %v", err)
	}

	stamp, err := ReadBuildStamp(dir)
	if err != nil {
		t.Fatalf("ReadBuildStamp: %v", err)
	}
	if stamp.BuildName != "cifuzz-build-address" {
		t.Errorf("stamp build name = %q, want cifuzz-build-address", stamp.BuildName)
	}
	if stamp.Source != "filestore" {
		t.Errorf("stamp source = %q, want filestore", stamp.Source)
	}
	if !stamp.DownloadedAt.Equal(downloadedAt) {
		t.Errorf("stamp time = %v, want %v", stamp.DownloadedAt, downloadedAt)
	}
}

func TestReadBuildStampMissing(t *testing.T) {
	_, err := ReadBuildStamp(t.TempDir())
	if !os.IsNotExist(err) {
		t.Errorf("error = %v, want os.IsNotExist", err)
	}
}
