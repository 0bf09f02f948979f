// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

// Package normalize provides pure string normalization for raw FEC data:
// name parsing, party mapping, and slug generation. No I/O, no state.
package normalize

import (
	"strings"
	"unicode"
)

// suffixFixes corrects tokens that naive title-casing breaks. Roman-numeral
// generational suffixes come out as "Ii"/"Iii"/"Iv"; uppercase "JR"/"SR"
// need the standard form.
var suffixFixes = map[string]string{
	"Ii":  "II",
	"Iii": "III",
	"Iv":  "IV",
}

// ParseName splits a raw FEC "LAST, FIRST MIDDLE" name (optionally with a
// quoted nickname, e.g. `CRUZ, RAFAEL EDWARD "TED"`) into title-cased first
// and last name parts.
//
// The split is on the first comma only; a string with no comma is treated
// as a bare last name with an empty first name. Empty input yields the
// sentinel ("Unknown", "Unknown").
func ParseName(raw string) (first, last string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "Unknown", "Unknown"
	}

	before, after, found := strings.Cut(raw, ",")
	if !found {
		return "", titleCase(raw)
	}
	return titleCase(after), titleCase(before)
}

// titleCase lowercases the input then capitalizes the first letter of each
// word, honoring quoted nicknames (the letter after an opening quote is
// capitalized) and fixing suffix tokens afterward.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	for i, w := range words {
		words[i] = capitalizeWord(w)
		if fixed, ok := suffixFixes[words[i]]; ok {
			words[i] = fixed
		}
	}
	return strings.Join(words, " ")
}

// capitalizeWord uppercases the first letter rune of w, skipping leading
// punctuation such as a quote character. Hyphenated names capitalize each
// segment ("smith-jones" -> "Smith-Jones").
func capitalizeWord(w string) string {
	runes := []rune(w)
	capNext := true
	for i, r := range runes {
		if !unicode.IsLetter(r) {
			if r == '-' || r == '"' {
				capNext = true
			}
			continue
		}
		if capNext {
			runes[i] = unicode.ToUpper(r)
			capNext = false
		}
	}
	return string(runes)
}
