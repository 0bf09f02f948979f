// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

package sync

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ballotscope/ballotscope/internal/database"
	"github.com/ballotscope/ballotscope/internal/fec"
	"github.com/ballotscope/ballotscope/internal/logging"
	"github.com/ballotscope/ballotscope/internal/models"
	fecmodels "github.com/ballotscope/ballotscope/internal/models/fec"
	"github.com/ballotscope/ballotscope/internal/normalize"
)

// stateResult accumulates the outcome of reconciling one state.
type stateResult struct {
	created     int
	updated     int
	deactivated int
	errors      []string
}

// officeForChamber maps a configured chamber to its FEC office code.
func officeForChamber(chamber string) string {
	if chamber == string(models.ChamberHouse) {
		return "H"
	}
	return "S"
}

// reconcileState synchronizes all candidate filings for one state: fetch
// per configured chamber, dedup, filter, enrich with financials, upsert,
// then soft-deactivate active rows the source no longer reports.
//
// The deactivation sweep keys off presence in the API response, not off
// what this pass persisted: a candidate the source still reports stays
// active even when the funds floor or a row-level error kept this run
// from writing it. Only true disappearance from the API deactivates.
//
// A search failure aborts the state and is reported to the caller; row
// level failures (totals fetch aside, which degrades to zero financials)
// skip that candidate and are collected in the result.
func (m *Manager) reconcileState(ctx context.Context, cycle *models.ElectionCycle, primary models.StatePrimary, auto *models.AutomationConfig) (*stateResult, error) {
	log := logging.Ctx(ctx).With().
		Str("state", primary.StateCode).
		Int("cycle", cycle.Year).
		Logger()

	var candidates []fecmodels.Candidate
	for _, chamber := range m.cfg.Sync.Chambers {
		found, err := m.client.SearchCandidates(ctx, fec.SearchParams{
			Cycle:          cycle.Year,
			Office:         officeForChamber(chamber),
			State:          primary.StateCode,
			ActiveOnly:     auto.ActiveOnly,
			HasRaisedFunds: auto.MinFundsRaised > 0,
		})
		if err != nil {
			return nil, fmt.Errorf("candidate search (%s): %w", chamber, err)
		}
		candidates = append(candidates, found...)
	}

	// First occurrence wins when the source repeats a candidate id.
	deduped := candidates[:0]
	seenIDs := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if c.CandidateID == "" || seenIDs[c.CandidateID] {
			continue
		}
		seenIDs[c.CandidateID] = true
		deduped = append(deduped, c)
	}

	result := &stateResult{}
	now := m.now().UTC()
	reported := make([]string, 0, len(deduped))
	for _, c := range deduped {
		reported = append(reported, c.CandidateID)
	}

	for _, c := range deduped {
		party := normalize.MapParty(c.Party)
		// An empty raw party is kept: filers without a party on record
		// should not silently vanish under the major-parties filter.
		if auto.MajorPartiesOnly && c.Party != "" && !normalize.MajorParty(party) {
			continue
		}

		totals, err := m.client.GetFinancialTotals(ctx, c.CandidateID, cycle.Year)
		if err != nil {
			// Missing financials are not worth losing the filing over.
			log.Warn().Err(err).
				Str("fec_candidate_id", c.CandidateID).
				Msg("Financial totals fetch failed, storing zero financials")
			totals = nil
		}

		var raised, spent, cashOnHand float64
		if totals != nil {
			raised = totals.Receipts
			spent = totals.Disbursements
			cashOnHand = totals.LastCashOnHandEndPeriod
		}

		if auto.MinFundsRaised > 0 && raised < auto.MinFundsRaised {
			continue
		}

		first, last := normalize.ParseName(c.Name)
		filing := &models.StagedFiling{
			CycleID:        cycle.ID,
			FECCandidateID: c.CandidateID,
			StateID:        primary.StateID,
			FirstName:      first,
			LastName:       last,
			Party:          party,
			Chamber:        chamberForOffice(c.Office),
			DistrictNumber: parseDistrictNumber(c.Office, c.District),
			IsIncumbent:    c.Incumbent(),
			Raised:         raised,
			Spent:          spent,
			CashOnHand:     cashOnHand,
			LastSyncedAt:   now,
		}

		outcome, err := m.store.UpsertFiling(ctx, filing)
		if err != nil {
			result.errors = append(result.errors,
				fmt.Sprintf("%s: upsert %s: %v", primary.StateCode, c.CandidateID, err))
			continue
		}
		switch outcome {
		case database.UpsertCreated:
			result.created++
		case database.UpsertUpdated:
			result.updated++
		}
	}

	deactivated, err := m.store.DeactivateMissing(ctx, cycle.ID, primary.StateID, reported, now)
	if err != nil {
		return nil, fmt.Errorf("deactivation sweep: %w", err)
	}
	result.deactivated = deactivated

	log.Info().
		Int("fetched", len(deduped)).
		Int("created", result.created).
		Int("updated", result.updated).
		Int("deactivated", result.deactivated).
		Int("row_errors", len(result.errors)).
		Msg("State reconciliation complete")

	return result, nil
}

// chamberForOffice maps an FEC office code back to a chamber. Sync only
// requests "S" and "H", so anything else defaults to senate.
func chamberForOffice(office string) models.Chamber {
	if office == "H" {
		return models.ChamberHouse
	}
	return models.ChamberSenate
}

// parseDistrictNumber interprets the FEC district field. Senate seats are
// statewide (nil); the house placeholder "00" (at-large reported as a real
// district elsewhere) and unparseable values also map to nil.
func parseDistrictNumber(office, district string) *int {
	if office != "H" || district == "" {
		return nil
	}
	n, err := strconv.Atoi(district)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}
