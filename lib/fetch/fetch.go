// Copyright 2026 The Fuzzdepot Authors
// SPDX-License-Identifier: Apache-2.0

// Package fetch retrieves remote artifacts over plain HTTP: small text
// objects (version pointer files) and zip archives unpacked into local
// directories (builds, corpora).
//
// Non-2xx responses surface as *StatusError so callers can distinguish
// "the object is not there" from transport failures — build availability
// is routinely absent and must be a normal branch, not an error path.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fuzzdepot/fuzzdepot/lib/archive"
)

// MaxBodySize bounds in-memory response reads: 16 MB. Fetch is for small
// text objects (a version pointer file is a few dozen bytes); archive
// downloads stream to disk and are not subject to this limit. The bound
// only exists so a misbehaving server cannot exhaust memory.
const MaxBodySize int64 = 16 << 20

// StatusError reports a non-2xx HTTP response. The status code is carried
// so callers can treat "not found" as an expected outcome.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: GET %s returned %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsStatus reports whether err is (or wraps) a *StatusError.
func IsStatus(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr)
}

// Client performs HTTP artifact retrieval. The zero value is not usable;
// construct with New.
type Client struct {
	httpClient *http.Client
}

// New returns a Client. No request timeout is set on the underlying
// http.Client — archive downloads can legitimately take minutes, and
// callers control cancellation through the context.
func New() *Client {
	return &Client{
		httpClient: &http.Client{},
	}
}

// Fetch performs a GET and returns the response body. A non-2xx response
// returns a *StatusError. The body read is bounded by MaxBodySize.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	response, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("fetch: reading body of %s: %w", url, err)
	}
	return body, nil
}

// FetchAndUnpackZip performs a GET, spools the response to a temporary
// file, and unpacks it as a zip archive into destDir. A non-2xx response
// returns a *StatusError. destDir and any missing parents are created by
// the unpack step.
func (c *Client) FetchAndUnpackZip(ctx context.Context, url, destDir string) error {
	response, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	// Zip central directories live at the end of the archive, so the
	// payload has to land in a seekable file before unpacking.
	spool, err := os.CreateTemp("", "fuzzdepot-fetch-*.zip")
	if err != nil {
		return fmt.Errorf("fetch: creating spool file: %w", err)
	}
	spoolPath := spool.Name()
	defer os.Remove(spoolPath)

	if _, err := io.Copy(spool, response.Body); err != nil {
		spool.Close()
		return fmt.Errorf("fetch: downloading %s: %w", url, err)
	}
	if err := spool.Close(); err != nil {
		return fmt.Errorf("fetch: finishing download of %s: %w", url, err)
	}

	if err := archive.UnpackZip(spoolPath, destDir); err != nil {
		return fmt.Errorf("fetch: unpacking %s: %w", url, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: creating request for %s: %w", url, err)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("fetch: GET %s: %w", url, err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		// Drain a bounded amount so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(response.Body, MaxBodySize))
		response.Body.Close()
		return nil, &StatusError{URL: url, StatusCode: response.StatusCode}
	}
	return response, nil
}
