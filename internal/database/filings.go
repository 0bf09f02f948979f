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
	"strings"
	"time"

	"github.com/ballotscope/ballotscope/internal/models"
)

// UpsertOutcome classifies the result of a filing upsert for the run
// counters.
type UpsertOutcome int

const (
	UpsertCreated UpsertOutcome = iota
	UpsertUpdated
	UpsertSkippedPromoted
)

// filingColumns is the shared select list for staged filing scans,
// including the joined state code.
const filingColumns = `
	f.id, f.cycle_id, f.fec_candidate_id, f.state_id, s.code,
	f.first_name, f.last_name, f.party, f.chamber, f.district_number,
	f.is_incumbent, f.raised, f.spent, f.cash_on_hand,
	f.is_active, f.last_synced_at, f.deactivated_at,
	f.promoted_to_candidate_id, f.created_at`

// UpsertFiling inserts or updates one staged filing keyed by
// (cycle_id, fec_candidate_id). The write itself is a single atomic
// ON CONFLICT upsert guarded by the natural-key unique constraint.
// Promoted filings are never touched: their row is left as-is and the
// outcome reports the skip.
func (db *DB) UpsertFiling(ctx context.Context, f *models.StagedFiling) (UpsertOutcome, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var existingID int64
	var promotedTo sql.NullInt64
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, promoted_to_candidate_id FROM staged_filings
		 WHERE cycle_id = ? AND fec_candidate_id = ?`,
		f.CycleID, f.FECCandidateID).Scan(&existingID, &promotedTo)

	exists := true
	switch {
	case errors.Is(err, sql.ErrNoRows):
		exists = false
	case err != nil:
		return 0, fmt.Errorf("failed to check existing filing: %w", err)
	case promotedTo.Valid:
		return UpsertSkippedPromoted, nil
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO staged_filings (
			cycle_id, fec_candidate_id, state_id, first_name, last_name,
			party, chamber, district_number, is_incumbent,
			raised, spent, cash_on_hand, is_active, last_synced_at, deactivated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, true, ?, NULL)
		ON CONFLICT (cycle_id, fec_candidate_id) DO UPDATE SET
			state_id = EXCLUDED.state_id,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			party = EXCLUDED.party,
			chamber = EXCLUDED.chamber,
			district_number = EXCLUDED.district_number,
			is_incumbent = EXCLUDED.is_incumbent,
			raised = EXCLUDED.raised,
			spent = EXCLUDED.spent,
			cash_on_hand = EXCLUDED.cash_on_hand,
			is_active = true,
			deactivated_at = NULL,
			last_synced_at = EXCLUDED.last_synced_at
		WHERE staged_filings.promoted_to_candidate_id IS NULL`,
		f.CycleID, f.FECCandidateID, f.StateID, f.FirstName, f.LastName,
		string(f.Party), string(f.Chamber), f.DistrictNumber, f.IsIncumbent,
		f.Raised, f.Spent, f.CashOnHand, f.LastSyncedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert filing %s: %w", f.FECCandidateID, err)
	}

	if exists {
		f.ID = existingID
		return UpsertUpdated, nil
	}

	if err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM staged_filings WHERE cycle_id = ? AND fec_candidate_id = ?`,
		f.CycleID, f.FECCandidateID).Scan(&f.ID); err != nil {
		return 0, fmt.Errorf("failed to read back filing id: %w", err)
	}
	return UpsertCreated, nil
}

// DeactivateMissing soft-deletes every active, not-yet-promoted filing for
// the state and cycle whose fec_candidate_id is absent from seen. Returns
// the number of rows deactivated. Rows are never hard-deleted here.
func (db *DB) DeactivateMissing(ctx context.Context, cycleID, stateID int64, seen []string, now time.Time) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `UPDATE staged_filings
		SET is_active = false, deactivated_at = ?
		WHERE cycle_id = ? AND state_id = ?
		  AND is_active = true
		  AND promoted_to_candidate_id IS NULL`
	args := []interface{}{now, cycleID, stateID}

	if len(seen) > 0 {
		placeholders, inArgs := buildInClause(seen)
		query += fmt.Sprintf(" AND fec_candidate_id NOT IN (%s)", placeholders)
		args = append(args, inArgs...)
	}

	result, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate missing filings: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deactivated filings: %w", err)
	}
	return int(affected), nil
}

// ListActiveFilings returns active, not-yet-promoted filings for the cycle,
// optionally filtered by state code, newest-synced first.
func (db *DB) ListActiveFilings(ctx context.Context, cycleID int64, stateCode string) ([]models.StagedFiling, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + filingColumns + `
		FROM staged_filings f
		JOIN states s ON s.id = f.state_id
		WHERE f.cycle_id = ?
		  AND f.is_active = true
		  AND f.promoted_to_candidate_id IS NULL`
	args := []interface{}{cycleID}

	if stateCode != "" {
		query += ` AND s.code = ?`
		args = append(args, strings.ToUpper(stateCode))
	}
	query += ` ORDER BY f.last_synced_at DESC, f.id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query active filings: %w", err)
	}
	defer rows.Close()

	return scanFilings(rows)
}

// GetFiling retrieves one staged filing by id. Returns ErrNotFound when no
// row matches.
func (db *DB) GetFiling(ctx context.Context, id int64) (*models.StagedFiling, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+filingColumns+`
		 FROM staged_filings f
		 JOIN states s ON s.id = f.state_id
		 WHERE f.id = ?`, id)

	f, err := scanFiling(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get filing %d: %w", id, err)
	}
	return f, nil
}

// DeleteFiling hard-deletes one staged filing. Only reachable through the
// admin API; sync never deletes rows.
func (db *DB) DeleteFiling(ctx context.Context, id int64) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx, `DELETE FROM staged_filings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete filing %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to count deleted filings: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanFiling(s scanner) (*models.StagedFiling, error) {
	var f models.StagedFiling
	var districtNumber sql.NullInt32
	var deactivatedAt sql.NullTime
	var promotedTo sql.NullInt64

	err := s.Scan(
		&f.ID, &f.CycleID, &f.FECCandidateID, &f.StateID, &f.StateCode,
		&f.FirstName, &f.LastName, &f.Party, &f.Chamber, &districtNumber,
		&f.IsIncumbent, &f.Raised, &f.Spent, &f.CashOnHand,
		&f.IsActive, &f.LastSyncedAt, &deactivatedAt,
		&promotedTo, &f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if districtNumber.Valid {
		n := int(districtNumber.Int32)
		f.DistrictNumber = &n
	}
	if deactivatedAt.Valid {
		t := deactivatedAt.Time
		f.DeactivatedAt = &t
	}
	if promotedTo.Valid {
		id := promotedTo.Int64
		f.PromotedToCandidateID = &id
	}
	return &f, nil
}

func scanFilings(rows *sql.Rows) ([]models.StagedFiling, error) {
	var filings []models.StagedFiling
	for rows.Next() {
		f, err := scanFiling(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan filing: %w", err)
		}
		filings = append(filings, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating filings: %w", err)
	}
	return filings, nil
}

// buildInClause builds a parameterized IN clause for the given values.
func buildInClause(values []string) (string, []interface{}) {
	placeholders := make([]string, len(values))
	args := make([]interface{}, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		args[i] = v
	}
	return strings.Join(placeholders, ", "), args
}
