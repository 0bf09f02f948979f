// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

package sync

import (
	"testing"
	"time"
)

func TestResolveWindow(t *testing.T) {
	now := time.Date(2026, 3, 15, 17, 42, 9, 0, time.UTC)

	tests := []struct {
		name      string
		lookback  int
		lookahead int
		wantFrom  string
		wantTo    string
	}{
		{"defaults", 30, 60, "2026-02-13", "2026-05-14"},
		{"zero window", 0, 0, "2026-03-15", "2026-03-15"},
		{"negative clamped", -5, -10, "2026-03-15", "2026-03-15"},
		{"lookback only", 7, 0, "2026-03-08", "2026-03-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := ResolveWindow(now, tt.lookback, tt.lookahead)
			if got := from.Format("2006-01-02"); got != tt.wantFrom {
				t.Errorf("from = %s, want %s", got, tt.wantFrom)
			}
			if got := to.Format("2006-01-02"); got != tt.wantTo {
				t.Errorf("to = %s, want %s", got, tt.wantTo)
			}
			if from.Hour() != 0 || to.Hour() != 0 {
				t.Error("window bounds should be anchored at midnight UTC")
			}
		})
	}
}

func TestResolveWindowNonUTCInput(t *testing.T) {
	loc := time.FixedZone("UTC+11", 11*3600)
	// 01:30 on March 16 in UTC+11 is still March 15 in UTC
	now := time.Date(2026, 3, 16, 1, 30, 0, 0, loc)

	from, _ := ResolveWindow(now, 0, 0)
	if got := from.Format("2006-01-02"); got != "2026-03-15" {
		t.Errorf("from = %s, want 2026-03-15 (UTC calendar day)", got)
	}
}
