// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

package normalize

import "testing"

func TestParseName(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantFirst string
		wantLast  string
	}{
		{
			name:      "standard last comma first",
			raw:       "FEINSTEIN, DIANNE",
			wantFirst: "Dianne",
			wantLast:  "Feinstein",
		},
		{
			name:      "middle name and quoted nickname",
			raw:       `CRUZ, RAFAEL EDWARD "TED"`,
			wantFirst: `Rafael Edward "Ted"`,
			wantLast:  "Cruz",
		},
		{
			name:      "no comma treated as last name",
			raw:       "NOCOMMA",
			wantFirst: "",
			wantLast:  "Nocomma",
		},
		{
			name:      "empty input yields sentinel",
			raw:       "",
			wantFirst: "Unknown",
			wantLast:  "Unknown",
		},
		{
			name:      "whitespace only yields sentinel",
			raw:       "   ",
			wantFirst: "Unknown",
			wantLast:  "Unknown",
		},
		{
			name:      "roman numeral suffix",
			raw:       "GALLEGO, RUBEN II",
			wantFirst: "Ruben II",
			wantLast:  "Gallego",
		},
		{
			name:      "third generation suffix",
			raw:       "JONES, WALTER B III",
			wantFirst: "Walter B III",
			wantLast:  "Jones",
		},
		{
			name:      "fourth generation suffix",
			raw:       "SMITH, JOHN IV",
			wantFirst: "John IV",
			wantLast:  "Smith",
		},
		{
			name:      "uppercase jr normalized",
			raw:       "ALLRED, COLIN JR",
			wantFirst: "Colin Jr",
			wantLast:  "Allred",
		},
		{
			name:      "hyphenated last name",
			raw:       "SMITH-JONES, MARY",
			wantFirst: "Mary",
			wantLast:  "Smith-Jones",
		},
		{
			name:      "extra whitespace around comma",
			raw:       "  WARREN ,  ELIZABETH ",
			wantFirst: "Elizabeth",
			wantLast:  "Warren",
		},
		{
			name:      "only comma",
			raw:       ",",
			wantFirst: "",
			wantLast:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := ParseName(tt.raw)
			if first != tt.wantFirst {
				t.Errorf("ParseName(%q) first = %q, want %q", tt.raw, first, tt.wantFirst)
			}
			if last != tt.wantLast {
				t.Errorf("ParseName(%q) last = %q, want %q", tt.raw, last, tt.wantLast)
			}
		})
	}
}
