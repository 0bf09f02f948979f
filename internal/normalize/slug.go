// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

package normalize

import "strings"

// Slugify builds the canonical URL slug for a candidate as "last-first",
// lowercased, with every run of non-alphanumeric characters collapsed to a
// single hyphen and leading/trailing hyphens trimmed.
//
// Deterministic and side-effect-free; collision disambiguation is the
// promotion engine's responsibility.
func Slugify(first, last string) string {
	var b strings.Builder
	b.Grow(len(first) + len(last) + 1)

	pendingHyphen := false
	appendPart := func(part string) {
		for _, r := range strings.ToLower(part) {
			isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
			if !isAlnum {
				if b.Len() > 0 {
					pendingHyphen = true
				}
				continue
			}
			if pendingHyphen {
				b.WriteByte('-')
				pendingHyphen = false
			}
			b.WriteRune(r)
		}
	}

	appendPart(last)
	if b.Len() > 0 {
		pendingHyphen = true
	}
	appendPart(first)

	return b.String()
}
