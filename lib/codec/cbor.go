// Copyright 2026 The Fuzzdepot Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding used for small on-disk records
// (build stamps, store manifests). Encoding is Core Deterministic (RFC
// 8949 §4.2) so the same logical record always produces identical bytes;
// decoding ignores unknown fields so old binaries read records written by
// newer ones.
package codec

import (
	"fmt"
	"os"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var encMode cbor.EncMode
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Record maps are always string-keyed. Any-typed decode targets
		// should produce map[string]any, not the CBOR default
		// map[interface{}]interface{}, so diagnostic tooling can hand
		// results straight to encoding/json.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// WriteFile encodes v and writes it to path with mode 0644. The write is
// not atomic; records written by this package are advisory and cheap to
// rewrite.
func WriteFile(path string, v any) error {
	data, err := Marshal(v)
	if err != nil {
		return fmt.Errorf("codec: encoding record for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("codec: writing record: %w", err)
	}
	return nil
}

// ReadFile reads the record at path and decodes it into v.
func ReadFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := Unmarshal(data, v); err != nil {
		return fmt.Errorf("codec: decoding record %s: %w", path, err)
	}
	return nil
}
