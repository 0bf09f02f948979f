// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

package sync

import "time"

// ResolveWindow computes the inclusive primary-date window
// [today-lookback, today+lookahead] anchored on the calendar day of now
// in UTC. Negative day counts are clamped to zero so a misconfigured
// automation row degrades to a single-day window instead of an inverted
// one.
func ResolveWindow(now time.Time, lookbackDays, lookaheadDays int) (from, to time.Time) {
	if lookbackDays < 0 {
		lookbackDays = 0
	}
	if lookaheadDays < 0 {
		lookaheadDays = 0
	}
	day := now.UTC()
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -lookbackDays), day.AddDate(0, 0, lookaheadDays)
}
