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

// ActiveCycle returns the single active election cycle. Returns ErrNotFound
// when no cycle is flagged active.
func (db *DB) ActiveCycle(ctx context.Context) (*models.ElectionCycle, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var cycle models.ElectionCycle
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, year, is_active FROM election_cycles WHERE is_active = true LIMIT 1`).
		Scan(&cycle.ID, &cycle.Year, &cycle.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active cycle: %w", err)
	}
	return &cycle, nil
}

// StateByCode looks up a state by its two-letter code.
func (db *DB) StateByCode(ctx context.Context, code string) (*models.State, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var state models.State
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, code, name FROM states WHERE code = ?`, strings.ToUpper(code)).
		Scan(&state.ID, &state.Code, &state.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get state %s: %w", code, err)
	}
	return &state, nil
}

// PrimariesInWindow returns the distinct states with a primary calendar
// event for the cycle whose date falls inside [from, to] inclusive, each
// with its earliest primary date, ordered by date then state code.
func (db *DB) PrimariesInWindow(ctx context.Context, cycleID int64, from, to time.Time) ([]models.StatePrimary, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT e.state_id, s.code, MIN(e.event_date)
		 FROM calendar_events e
		 JOIN states s ON s.id = e.state_id
		 WHERE e.cycle_id = ?
		   AND e.event_type = 'primary'
		   AND e.event_date >= ? AND e.event_date <= ?
		 GROUP BY e.state_id, s.code
		 ORDER BY MIN(e.event_date), s.code`,
		cycleID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query primaries in window: %w", err)
	}
	defer rows.Close()

	var primaries []models.StatePrimary
	for rows.Next() {
		var p models.StatePrimary
		if err := rows.Scan(&p.StateID, &p.StateCode, &p.PrimaryDate); err != nil {
			return nil, fmt.Errorf("failed to scan primary: %w", err)
		}
		primaries = append(primaries, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating primaries: %w", err)
	}
	return primaries, nil
}

// InsertElectionCycle creates a cycle row, used by operational tooling and
// tests; the admin UI owns cycle management in production.
func (db *DB) InsertElectionCycle(ctx context.Context, year int, isActive bool) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var id int64
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO election_cycles (year, is_active) VALUES (?, ?) RETURNING id`,
		year, isActive).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert election cycle %d: %w", year, err)
	}
	return id, nil
}

// InsertCalendarEvent creates a calendar event row.
func (db *DB) InsertCalendarEvent(ctx context.Context, cycleID, stateID int64, eventType string, eventDate time.Time) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var id int64
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO calendar_events (cycle_id, state_id, event_type, event_date)
		 VALUES (?, ?, ?, ?) RETURNING id`,
		cycleID, stateID, eventType, eventDate).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert calendar event: %w", err)
	}
	return id, nil
}
