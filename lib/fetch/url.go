// Copyright 2026 The Fuzzdepot Authors
// SPDX-License-Identifier: Apache-2.0

package fetch

import "strings"

// JoinURL joins URL segments with exactly one slash at each boundary,
// POSIX-path style. Interior slashes within a segment are preserved, so a
// segment may itself carry a multi-element path ("bucket/corpus/libFuzzer/").
// Empty segments are skipped. The base is taken as-is; no escaping is
// performed.
func JoinURL(base string, parts ...string) string {
	result := base
	for _, part := range parts {
		if part == "" {
			continue
		}
		switch {
		case strings.HasSuffix(result, "/") && strings.HasPrefix(part, "/"):
			result += part[1:]
		case strings.HasSuffix(result, "/") || strings.HasPrefix(part, "/"):
			result += part
		default:
			result += "/" + part
		}
	}
	return result
}
