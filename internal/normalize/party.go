// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

package normalize

import (
	"strings"

	"github.com/ballotscope/ballotscope/internal/models"
)

// partyCodes maps FEC three-letter party codes to normalized parties.
// NNE (none) and NPA (no party affiliation) are treated as Independent.
var partyCodes = map[string]models.Party{
	"DEM": models.PartyDemocrat,
	"REP": models.PartyRepublican,
	"LIB": models.PartyLibertarian,
	"GRE": models.PartyGreen,
	"IND": models.PartyIndependent,
	"NNE": models.PartyIndependent,
	"NPA": models.PartyIndependent,
	"UNK": models.PartyOther,
}

// MapParty normalizes a raw FEC party string (full name or short code) into
// a models.Party. Full-name substring matching runs first, then the code
// table; anything unmatched, including empty input, maps to PartyOther.
func MapParty(raw string) models.Party {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	if upper == "" {
		return models.PartyOther
	}

	switch {
	case strings.Contains(upper, "DEMOCRAT"):
		return models.PartyDemocrat
	case strings.Contains(upper, "REPUBLICAN"):
		return models.PartyRepublican
	case strings.Contains(upper, "LIBERTARIAN"):
		return models.PartyLibertarian
	case strings.Contains(upper, "GREEN"):
		return models.PartyGreen
	case strings.Contains(upper, "INDEPENDENT"):
		return models.PartyIndependent
	}

	if party, ok := partyCodes[upper]; ok {
		return party
	}
	return models.PartyOther
}

// MajorParty reports whether a normalized party passes the
// major-parties-only sync filter. Democrat, Republican and Independent
// qualify; an unset raw party is handled permissively by the caller before
// normalization.
func MajorParty(p models.Party) bool {
	switch p {
	case models.PartyDemocrat, models.PartyRepublican, models.PartyIndependent:
		return true
	}
	return false
}
