// Copyright 2026 The Fuzzdepot Authors
// SPDX-License-Identifier: Apache-2.0

// Package git provides typed access to the git CLI for the git-backed
// corpus store: clone-or-pull a corpus repository, commit new units,
// push with a CI token. All commands target a specific repository
// directory via the -C flag, injected by every Repository method.
package git

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fuzzdepot/fuzzdepot/lib/secret"
)

// Committer identity recorded on store commits. Corpus commits are
// machine-made; a fixed identity keeps history legible.
const (
	committerName  = "fuzzdepot"
	committerEmail = "fuzzdepot@localhost"
)

// Repository represents a git working tree at a specific directory. All
// operations target this directory via "git -C <dir>"; there is no
// default directory.
type Repository struct {
	dir string
}

// NewRepository returns a Repository targeting the given directory. The
// directory must already be a working tree (see Clone / IsRepository).
func NewRepository(dir string) *Repository {
	return &Repository{dir: dir}
}

// Dir returns the repository directory.
func (r *Repository) Dir() string {
	return r.dir
}

// Run executes a git command targeting this repository and returns
// stdout. Stderr is captured separately and included in error messages
// on failure.
func (r *Repository) Run(ctx context.Context, args ...string) (string, error) {
	fullArgs := append([]string{"-C", r.dir}, args...)
	return runGit(ctx, fullArgs...)
}

// IsRepository reports whether dir is a git working tree.
func IsRepository(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil && info.IsDir()
}

// Clone clones remoteURL into dir on the given branch, shallow. If the
// branch does not exist on the remote (a fresh corpus repository), the
// clone is retried without a branch pin and the branch is created
// locally, so the first push establishes it.
func Clone(ctx context.Context, remoteURL, branch, dir string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return nil, fmt.Errorf("git: creating clone parent: %w", err)
	}

	_, err := runGit(ctx, "clone", "--depth", "1", "--branch", branch, "--single-branch", remoteURL, dir)
	if err == nil {
		return &Repository{dir: dir}, nil
	}

	// Remote may be empty or missing the branch. Clone whatever is
	// there and create the branch locally.
	os.RemoveAll(dir)
	if _, cloneErr := runGit(ctx, "clone", "--depth", "1", remoteURL, dir); cloneErr != nil {
		return nil, cloneErr
	}
	repo := &Repository{dir: dir}
	if _, err := repo.Run(ctx, "checkout", "-B", branch); err != nil {
		return nil, err
	}
	return repo, nil
}

// Pull fast-forwards the working tree from the given remote (a name or
// URL; the corpus store passes a credentialed URL so nothing secret is
// persisted in .git/config). A missing remote ref (unborn branch on a
// fresh remote) is not an error.
func (r *Repository) Pull(ctx context.Context, remote, branch string) error {
	_, err := r.Run(ctx, "pull", "--ff-only", remote, branch)
	if err != nil && strings.Contains(err.Error(), "couldn't find remote ref") {
		return nil
	}
	return err
}

// CommitAll stages everything under pathspec and commits with the fixed
// store identity. Committing with nothing staged is not an error; ok
// reports whether a commit was created.
func (r *Repository) CommitAll(ctx context.Context, pathspec, message string) (ok bool, err error) {
	if _, err := r.Run(ctx, "add", "--all", "--", pathspec); err != nil {
		return false, err
	}

	status, err := r.Run(ctx, "status", "--porcelain", "--", pathspec)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(status) == "" {
		return false, nil
	}

	_, err = r.Run(ctx,
		"-c", "user.name="+committerName,
		"-c", "user.email="+committerEmail,
		"commit", "-m", message)
	if err != nil {
		return false, err
	}
	return true, nil
}

// Push pushes the current HEAD to the given branch on the remote (a
// name or URL).
func (r *Repository) Push(ctx context.Context, remote, branch string) error {
	_, err := r.Run(ctx, "push", remote, "HEAD:"+branch)
	return err
}

// CredentialURL embeds a bearer token into an http(s) remote URL using
// the x-access-token convention CI forges understand. Non-HTTP remotes
// (ssh) are returned unchanged — their credentials come from the agent.
// Any userinfo already present in the URL is replaced.
//
// The returned string contains the secret; pass it straight to git and
// do not log it.
func CredentialURL(remoteURL string, token *secret.Buffer) (string, error) {
	parsed, err := url.Parse(remoteURL)
	if err != nil {
		return "", fmt.Errorf("git: parsing remote URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return remoteURL, nil
	}
	parsed.User = url.UserPassword("x-access-token", token.String())
	return parsed.String(), nil
}

func runGit(ctx context.Context, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, "git", args...)
	command.Stdout = &stdout
	command.Stderr = &stderr
	// Pull matches git's stderr text, so keep the messages in English.
	command.Env = append(os.Environ(), "LC_ALL=C")

	if err := command.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w (stderr: %s)",
			strings.Join(redactArgs(args), " "), err, redact(strings.TrimSpace(stderr.String())))
	}
	return stdout.String(), nil
}

// credentialPattern matches the userinfo section of a URL
// ("://user:token@host"). Git repeats remote URLs in its stderr, so
// both arguments and stderr are scrubbed before entering an error.
var credentialPattern = regexp.MustCompile(`://[^@/\s]+@`)

func redactArgs(args []string) []string {
	redacted := make([]string, len(args))
	for i, arg := range args {
		redacted[i] = redact(arg)
	}
	return redacted
}

func redact(s string) string {
	return credentialPattern.ReplaceAllString(s, "://REDACTED@")
}
