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
	"time"

	json "github.com/goccy/go-json"

	"github.com/ballotscope/ballotscope/internal/models"
)

const syncRunColumns = `
	id, correlation_id, sync_type, status, started_at, completed_at,
	states_synced, created_count, updated_count, deactivated_count,
	api_requests, error_message, details, triggered_rebuild`

// CreateSyncRun inserts the ledger row for a starting run with status
// "running" and returns its id. Called before any external API call.
func (db *DB) CreateSyncRun(ctx context.Context, correlationID, syncType string, startedAt time.Time) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var id int64
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO sync_runs (correlation_id, sync_type, status, started_at)
		 VALUES (?, ?, ?, ?) RETURNING id`,
		correlationID, syncType, models.SyncStatusRunning, startedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create sync run: %w", err)
	}
	return id, nil
}

// FinalizeSyncRun applies the single terminal update to a ledger row.
// Completed rows are never mutated again.
func (db *DB) FinalizeSyncRun(ctx context.Context, run *models.SyncRun) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	statesJSON, err := json.Marshal(run.StatesSynced)
	if err != nil {
		return fmt.Errorf("failed to marshal states synced: %w", err)
	}
	detailsJSON, err := json.Marshal(run.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal run details: %w", err)
	}

	var errorMessage interface{}
	if run.ErrorMessage != "" {
		errorMessage = run.ErrorMessage
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE sync_runs SET
			status = ?,
			completed_at = ?,
			states_synced = ?,
			created_count = ?,
			updated_count = ?,
			deactivated_count = ?,
			api_requests = ?,
			error_message = ?,
			details = ?,
			triggered_rebuild = ?
		 WHERE id = ? AND status = ?`,
		run.Status, run.CompletedAt, string(statesJSON),
		run.Created, run.Updated, run.Deactivated,
		run.APIRequests, errorMessage, string(detailsJSON),
		run.TriggeredRebuild, run.ID, models.SyncStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to finalize sync run %d: %w", run.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to count finalized runs: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("sync run %d is not in running state", run.ID)
	}
	return nil
}

// GetSyncRun retrieves one ledger row by id.
func (db *DB) GetSyncRun(ctx context.Context, id int64) (*models.SyncRun, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+syncRunColumns+` FROM sync_runs WHERE id = ?`, id)

	run, err := scanSyncRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync run %d: %w", id, err)
	}
	return run, nil
}

// ListSyncRuns returns the most recent ledger rows, newest first.
func (db *DB) ListSyncRuns(ctx context.Context, limit int) ([]models.SyncRun, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit <= 0 || limit > 500 {
		limit = 50
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+syncRunColumns+` FROM sync_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []models.SyncRun
	for rows.Next() {
		run, err := scanSyncRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync runs: %w", err)
	}
	return runs, nil
}

// RunningSyncRun returns the newest ledger row still in "running" state
// that started after the stale cutoff, or nil when none exists. Rows older
// than the cutoff are treated as abandoned by a crashed process and do not
// block new runs.
func (db *DB) RunningSyncRun(ctx context.Context, staleCutoff time.Time) (*models.SyncRun, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+syncRunColumns+` FROM sync_runs
		 WHERE status = ? AND started_at > ?
		 ORDER BY started_at DESC LIMIT 1`,
		models.SyncStatusRunning, staleCutoff)

	run, err := scanSyncRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check running sync run: %w", err)
	}
	return run, nil
}

func scanSyncRun(s scanner) (*models.SyncRun, error) {
	var run models.SyncRun
	var completedAt sql.NullTime
	var statesJSON, detailsJSON string
	var errorMessage sql.NullString

	err := s.Scan(
		&run.ID, &run.CorrelationID, &run.SyncType, &run.Status,
		&run.StartedAt, &completedAt, &statesJSON,
		&run.Created, &run.Updated, &run.Deactivated,
		&run.APIRequests, &errorMessage, &detailsJSON, &run.TriggeredRebuild,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	if errorMessage.Valid {
		run.ErrorMessage = errorMessage.String
	}
	if err := json.Unmarshal([]byte(statesJSON), &run.StatesSynced); err != nil {
		return nil, fmt.Errorf("failed to unmarshal states synced: %w", err)
	}
	if err := json.Unmarshal([]byte(detailsJSON), &run.Details); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run details: %w", err)
	}
	return &run, nil
}
