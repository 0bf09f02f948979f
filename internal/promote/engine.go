// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

// Package promote turns staged FEC filings into public candidates: it
// creates the candidate row, ensures the district and race exist, links
// the candidate to the race, and claims the filing, all inside one
// transaction.
package promote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ballotscope/ballotscope/internal/database"
	"github.com/ballotscope/ballotscope/internal/logging"
	"github.com/ballotscope/ballotscope/internal/metrics"
	"github.com/ballotscope/ballotscope/internal/models"
	"github.com/ballotscope/ballotscope/internal/normalize"
)

// maxSlugAttempts bounds collision resolution: base slug, state-suffixed
// slug, then numbered state-suffixed slugs.
const maxSlugAttempts = 10

// Legislator is the directory record for a sitting member of Congress.
type Legislator struct {
	Website   string
	Twitter   string
	RoleTitle string
}

// Directory resolves incumbent enrichment data by FEC candidate id.
// Lookups returning (nil, nil) mean the id is not a sitting legislator.
type Directory interface {
	Lookup(ctx context.Context, fecCandidateID string) (*Legislator, error)
}

// Enrichment is the operator-supplied data layered onto a promotion.
type Enrichment struct {
	PhotoURL  string
	Website   string
	Twitter   string
	Bio       string
	RoleTitle string
	Status    models.RaceCandidateStatus
}

// Engine executes promotions against the database.
type Engine struct {
	db        *database.DB
	directory Directory
}

// NewEngine wires the promotion engine. The directory may be nil, which
// disables incumbent auto-enrichment.
func NewEngine(db *database.DB, directory Directory) *Engine {
	return &Engine{db: db, directory: directory}
}

// Promote converts one staged filing into a candidate. Already-promoted
// filings return database.ErrAlreadyPromoted; missing filings return
// database.ErrNotFound.
func (e *Engine) Promote(ctx context.Context, filingID int64, enrich Enrichment) (*models.Candidate, error) {
	filing, err := e.db.GetFiling(ctx, filingID)
	if err != nil {
		metrics.PromotionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if filing.Promoted() {
		metrics.PromotionsTotal.WithLabelValues("skipped").Inc()
		return nil, database.ErrAlreadyPromoted
	}

	e.enrichIncumbent(ctx, filing, &enrich)

	candidate, err := e.promoteTx(ctx, filing, enrich)
	if err != nil {
		outcome := "error"
		if errors.Is(err, database.ErrAlreadyPromoted) {
			outcome = "skipped"
		}
		metrics.PromotionsTotal.WithLabelValues(outcome).Inc()
		return nil, err
	}

	metrics.PromotionsTotal.WithLabelValues("promoted").Inc()
	logging.Ctx(ctx).Info().
		Int64("filing_id", filingID).
		Int64("candidate_id", candidate.ID).
		Str("slug", candidate.Slug).
		Msg("Filing promoted")
	return candidate, nil
}

// enrichIncumbent fills empty enrichment fields from the legislator
// directory for incumbents. Directory failures are logged and ignored:
// enrichment is best-effort, promotion must not depend on it.
func (e *Engine) enrichIncumbent(ctx context.Context, filing *models.StagedFiling, enrich *Enrichment) {
	if e.directory == nil || !filing.IsIncumbent {
		return
	}

	leg, err := e.directory.Lookup(ctx, filing.FECCandidateID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("fec_candidate_id", filing.FECCandidateID).
			Msg("Legislator directory lookup failed")
		return
	}
	if leg == nil {
		return
	}

	if enrich.Website == "" {
		enrich.Website = leg.Website
	}
	if enrich.Twitter == "" {
		enrich.Twitter = leg.Twitter
	}
	if enrich.RoleTitle == "" {
		enrich.RoleTitle = leg.RoleTitle
	}
}

// promoteTx runs the transactional body of a promotion.
func (e *Engine) promoteTx(ctx context.Context, filing *models.StagedFiling, enrich Enrichment) (*models.Candidate, error) {
	tx, err := e.db.BeginPromotion(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	slug, err := resolveSlug(ctx, tx, filing)
	if err != nil {
		return nil, err
	}

	status := enrich.Status
	if status == "" {
		status = models.RaceStatusAnnounced
	}

	candidate := &models.Candidate{
		Slug:           slug,
		FirstName:      filing.FirstName,
		LastName:       filing.LastName,
		Party:          filing.Party,
		StateID:        filing.StateID,
		Bio:            enrich.Bio,
		PhotoURL:       enrich.PhotoURL,
		Website:        enrich.Website,
		Twitter:        enrich.Twitter,
		RoleTitle:      enrich.RoleTitle,
		Raised:         filing.Raised,
		Spent:          filing.Spent,
		CashOnHand:     filing.CashOnHand,
		FECCandidateID: filing.FECCandidateID,
		IsIncumbent:    filing.IsIncumbent,
	}
	if err := tx.InsertCandidate(ctx, candidate); err != nil {
		return nil, err
	}

	district, err := tx.FindDistrict(ctx, filing.StateID, filing.Chamber, filing.DistrictNumber)
	if errors.Is(err, database.ErrNotFound) {
		district = &models.District{
			StateID:        filing.StateID,
			Chamber:        filing.Chamber,
			DistrictNumber: filing.DistrictNumber,
		}
		err = tx.InsertDistrict(ctx, district)
	}
	if err != nil {
		return nil, err
	}

	race, err := tx.FindRace(ctx, district.ID, filing.CycleID)
	if errors.Is(err, database.ErrNotFound) {
		race = &models.Race{DistrictID: district.ID, CycleID: filing.CycleID}
		err = tx.InsertRace(ctx, race)
	}
	if err != nil {
		return nil, err
	}

	rc := &models.RaceCandidate{
		RaceID:      race.ID,
		CandidateID: candidate.ID,
		Status:      status,
		IsIncumbent: filing.IsIncumbent,
	}
	if err := tx.InsertRaceCandidate(ctx, rc); err != nil {
		return nil, err
	}

	if err := tx.ClaimFiling(ctx, filing.ID, candidate.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return candidate, nil
}

// resolveSlug finds a free slug: "last-first", then "last-first-tx", then
// "last-first-tx-2" and so on.
func resolveSlug(ctx context.Context, tx *database.PromotionTx, filing *models.StagedFiling) (string, error) {
	base := normalize.Slugify(filing.FirstName, filing.LastName)
	stateSuffix := strings.ToLower(filing.StateCode)

	candidate := base
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		switch attempt {
		case 0:
		case 1:
			candidate = base + "-" + stateSuffix
		default:
			candidate = fmt.Sprintf("%s-%s-%d", base, stateSuffix, attempt)
		}

		exists, err := tx.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free slug for %s after %d attempts", base, maxSlugAttempts)
}

// PromoteBulk promotes a batch with shared default enrichment. Promoted
// ids, skipped (already promoted) ids and per-filing errors are all
// reported; one bad filing never aborts the batch.
func (e *Engine) PromoteBulk(ctx context.Context, filingIDs []int64, status models.RaceCandidateStatus) *models.BulkPromotionResult {
	result := &models.BulkPromotionResult{
		Promoted: []int64{},
		Skipped:  []int64{},
	}

	for _, id := range filingIDs {
		_, err := e.Promote(ctx, id, Enrichment{Status: status})
		switch {
		case errors.Is(err, database.ErrAlreadyPromoted):
			logging.Ctx(ctx).Warn().Int64("filing_id", id).Msg("Filing already promoted, skipping")
			result.Skipped = append(result.Skipped, id)
		case err != nil:
			result.Errors = append(result.Errors, fmt.Sprintf("filing %d: %v", id, err))
		default:
			result.Promoted = append(result.Promoted, id)
		}
	}
	return result
}
