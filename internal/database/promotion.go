// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ballotscope/ballotscope/internal/models"
)

// PromotionTx is a database transaction scoped to one filing promotion.
// Candidate, district, race and race-candidate creation plus the filing
// claim all commit or roll back together, so a failure mid-promotion never
// leaves an orphan candidate behind.
type PromotionTx struct {
	tx *sql.Tx
}

// BeginPromotion opens the promotion transaction.
func (db *DB) BeginPromotion(ctx context.Context) (*PromotionTx, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin promotion transaction: %w", err)
	}
	return &PromotionTx{tx: tx}, nil
}

// Commit commits the promotion.
func (pt *PromotionTx) Commit() error {
	if err := pt.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit promotion: %w", err)
	}
	return nil
}

// Rollback aborts the promotion. Safe to call after Commit.
func (pt *PromotionTx) Rollback() error {
	err := pt.tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to roll back promotion: %w", err)
	}
	return nil
}

// SlugExists reports whether a candidate already owns the slug.
func (pt *PromotionTx) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := pt.tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM candidates WHERE slug = ?)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug %s: %w", slug, err)
	}
	return exists, nil
}

// InsertCandidate creates the candidate row and fills in its id.
func (pt *PromotionTx) InsertCandidate(ctx context.Context, c *models.Candidate) error {
	err := pt.tx.QueryRowContext(ctx,
		`INSERT INTO candidates (
			slug, first_name, last_name, party, state_id,
			bio, photo_url, website, twitter, role_title,
			raised, spent, cash_on_hand, fec_candidate_id, is_incumbent
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		c.Slug, c.FirstName, c.LastName, string(c.Party), c.StateID,
		c.Bio, c.PhotoURL, c.Website, c.Twitter, c.RoleTitle,
		c.Raised, c.Spent, c.CashOnHand, c.FECCandidateID, c.IsIncumbent).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to insert candidate %s: %w", c.Slug, err)
	}
	return nil
}

// FindDistrict looks up a district by its natural key (state, chamber,
// district number). Returns ErrNotFound when absent.
func (pt *PromotionTx) FindDistrict(ctx context.Context, stateID int64, chamber models.Chamber, districtNumber *int) (*models.District, error) {
	query := `SELECT id, state_id, chamber, district_number FROM districts
		WHERE state_id = ? AND chamber = ?`
	args := []interface{}{stateID, string(chamber)}
	if districtNumber == nil {
		query += ` AND district_number IS NULL`
	} else {
		query += ` AND district_number = ?`
		args = append(args, *districtNumber)
	}

	var d models.District
	var number sql.NullInt32
	err := pt.tx.QueryRowContext(ctx, query, args...).
		Scan(&d.ID, &d.StateID, &d.Chamber, &number)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find district: %w", err)
	}
	if number.Valid {
		n := int(number.Int32)
		d.DistrictNumber = &n
	}
	return &d, nil
}

// InsertDistrict creates a district row and fills in its id.
func (pt *PromotionTx) InsertDistrict(ctx context.Context, d *models.District) error {
	err := pt.tx.QueryRowContext(ctx,
		`INSERT INTO districts (state_id, chamber, district_number)
		 VALUES (?, ?, ?) RETURNING id`,
		d.StateID, string(d.Chamber), d.DistrictNumber).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("failed to insert district: %w", err)
	}
	return nil
}

// FindRace looks up a race by (district, cycle). Returns ErrNotFound when
// absent.
func (pt *PromotionTx) FindRace(ctx context.Context, districtID, cycleID int64) (*models.Race, error) {
	var r models.Race
	var rating sql.NullString
	err := pt.tx.QueryRowContext(ctx,
		`SELECT id, district_id, cycle_id, rating FROM races
		 WHERE district_id = ? AND cycle_id = ?`, districtID, cycleID).
		Scan(&r.ID, &r.DistrictID, &r.CycleID, &rating)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find race: %w", err)
	}
	if rating.Valid {
		s := rating.String
		r.Rating = &s
	}
	return &r, nil
}

// InsertRace creates a race row with a null rating (ratings are assigned
// editorially later) and fills in its id.
func (pt *PromotionTx) InsertRace(ctx context.Context, r *models.Race) error {
	err := pt.tx.QueryRowContext(ctx,
		`INSERT INTO races (district_id, cycle_id, rating)
		 VALUES (?, ?, NULL) RETURNING id`,
		r.DistrictID, r.CycleID).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("failed to insert race: %w", err)
	}
	return nil
}

// InsertRaceCandidate links the candidate to the race.
func (pt *PromotionTx) InsertRaceCandidate(ctx context.Context, rc *models.RaceCandidate) error {
	err := pt.tx.QueryRowContext(ctx,
		`INSERT INTO race_candidates (race_id, candidate_id, status, is_incumbent)
		 VALUES (?, ?, ?, ?) RETURNING id`,
		rc.RaceID, rc.CandidateID, string(rc.Status), rc.IsIncumbent).Scan(&rc.ID)
	if err != nil {
		return fmt.Errorf("failed to insert race candidate: %w", err)
	}
	return nil
}

// ClaimFiling writes promoted_to_candidate_id onto the filing with an
// atomic conditional update. A second concurrent promotion of the same
// filing sees zero affected rows and gets ErrAlreadyPromoted, rolling its
// whole transaction back.
func (pt *PromotionTx) ClaimFiling(ctx context.Context, filingID, candidateID int64) error {
	result, err := pt.tx.ExecContext(ctx,
		`UPDATE staged_filings SET promoted_to_candidate_id = ?
		 WHERE id = ? AND promoted_to_candidate_id IS NULL`,
		candidateID, filingID)
	if err != nil {
		return fmt.Errorf("failed to claim filing %d: %w", filingID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to count claimed filings: %w", err)
	}
	if affected == 0 {
		return ErrAlreadyPromoted
	}
	return nil
}

// GetCandidate retrieves one promoted candidate by id.
func (db *DB) GetCandidate(ctx context.Context, id int64) (*models.Candidate, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var c models.Candidate
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, slug, first_name, last_name, party, state_id,
		        bio, photo_url, website, twitter, role_title,
		        raised, spent, cash_on_hand, fec_candidate_id, is_incumbent, created_at
		 FROM candidates WHERE id = ?`, id).
		Scan(&c.ID, &c.Slug, &c.FirstName, &c.LastName, &c.Party, &c.StateID,
			&c.Bio, &c.PhotoURL, &c.Website, &c.Twitter, &c.RoleTitle,
			&c.Raised, &c.Spent, &c.CashOnHand, &c.FECCandidateID, &c.IsIncumbent, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate %d: %w", id, err)
	}
	return &c, nil
}
