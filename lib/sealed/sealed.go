// Copyright 2026 The Fuzzdepot Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed provides age encryption for artifacts held at rest in
// the local filestore. Build and corpus archives on shared CI runners can
// contain unreleased binaries and crash inputs; sealing them means a
// leaked store directory is unreadable without the identity key.
//
// Sealing is stream-oriented (archives can be large): SealTo wraps a
// destination writer, Unseal wraps a source reader. Identity keys are
// held in secret.Buffer values — locked memory, zeroed on close.
package sealed

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"filippo.io/age"

	"github.com/fuzzdepot/fuzzdepot/lib/secret"
)

// SealTo returns a WriteCloser that encrypts everything written to it to
// the given age recipients (age1... public keys) and writes the
// ciphertext to dst. The caller must Close the returned writer to flush
// the final chunk before closing dst. At least one recipient is required.
func SealTo(dst io.Writer, recipientKeys []string) (io.WriteCloser, error) {
	if len(recipientKeys) == 0 {
		return nil, fmt.Errorf("sealed: at least one recipient is required")
	}

	recipients := make([]age.Recipient, 0, len(recipientKeys))
	for _, key := range recipientKeys {
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return nil, fmt.Errorf("sealed: parsing recipient key %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}

	writer, err := age.Encrypt(dst, recipients...)
	if err != nil {
		return nil, fmt.Errorf("sealed: creating encryptor: %w", err)
	}
	return writer, nil
}

// Unseal returns a reader yielding the plaintext of the age ciphertext in
// src, decrypted with the given identity key (AGE-SECRET-KEY-1... held in
// a secret buffer). The identity is borrowed, not closed.
func Unseal(src io.Reader, identityKey *secret.Buffer) (io.Reader, error) {
	// The string conversion is a brief heap copy at the age API boundary.
	identity, err := age.ParseX25519Identity(identityKey.String())
	if err != nil {
		return nil, fmt.Errorf("sealed: parsing identity key: %w", err)
	}

	reader, err := age.Decrypt(src, identity)
	if err != nil {
		return nil, fmt.Errorf("sealed: decrypting: %w", err)
	}
	return reader, nil
}

// LoadIdentity reads an age identity file and returns the secret key line
// in a locked buffer. Identity files as written by age-keygen carry
// comment lines ("# created: ..."); those are skipped. The caller must
// Close the returned buffer.
func LoadIdentity(path string) (*secret.Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	defer secret.Zero(data)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.HasPrefix(line, "AGE-SECRET-KEY-1") {
			return nil, fmt.Errorf("sealed: %s does not look like an age identity file", path)
		}
		return secret.FromBytes([]byte(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("sealed: reading identity file: %w", err)
	}
	return nil, fmt.Errorf("sealed: no identity key in %s", path)
}

// GenerateIdentity generates a new age x25519 keypair, returning the
// secret key in a locked buffer alongside the public recipient key.
// Used by setup tooling and tests; production identities normally come
// from age-keygen.
func GenerateIdentity() (*secret.Buffer, string, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, "", fmt.Errorf("sealed: generating keypair: %w", err)
	}

	keyBytes := []byte(identity.String())
	key, err := secret.FromBytes(keyBytes)
	if err != nil {
		return nil, "", fmt.Errorf("sealed: protecting identity key: %w", err)
	}
	return key, identity.Recipient().String(), nil
}

// ValidateRecipient reports whether key parses as an age x25519 public
// key. Used by config validation so a typo fails at startup, not at the
// first upload.
func ValidateRecipient(key string) error {
	if _, err := age.ParseX25519Recipient(key); err != nil {
		return fmt.Errorf("sealed: invalid recipient key %q: %w", key, err)
	}
	return nil
}
