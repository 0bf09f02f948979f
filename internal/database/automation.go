// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/ballotscope/ballotscope/internal/models"
)

// GetAutomationConfig reads the operator-tunable singleton. The sync
// manager reads it fresh at the start of every run; this service otherwise
// treats it as externally owned.
func (db *DB) GetAutomationConfig(ctx context.Context) (*models.AutomationConfig, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var cfg models.AutomationConfig
	err := db.conn.QueryRowContext(ctx,
		`SELECT sync_enabled, lookahead_days, lookback_days, min_funds_raised,
		        major_parties_only, active_only, rebuild_hook_url, webhook_secret,
		        updated_at
		 FROM automation_config WHERE id = 1`).
		Scan(&cfg.SyncEnabled, &cfg.LookaheadDays, &cfg.LookbackDays, &cfg.MinFundsRaised,
			&cfg.MajorPartiesOnly, &cfg.ActiveOnly, &cfg.RebuildHookURL, &cfg.WebhookSecret,
			&cfg.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get automation config: %w", err)
	}
	return &cfg, nil
}

// UpdateAutomationConfig overwrites the singleton row. Exposed for
// operational tooling; the admin UI is the normal writer.
func (db *DB) UpdateAutomationConfig(ctx context.Context, cfg *models.AutomationConfig) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		`UPDATE automation_config SET
			sync_enabled = ?,
			lookahead_days = ?,
			lookback_days = ?,
			min_funds_raised = ?,
			major_parties_only = ?,
			active_only = ?,
			rebuild_hook_url = ?,
			webhook_secret = ?,
			updated_at = ?
		 WHERE id = 1`,
		cfg.SyncEnabled, cfg.LookaheadDays, cfg.LookbackDays, cfg.MinFundsRaised,
		cfg.MajorPartiesOnly, cfg.ActiveOnly, cfg.RebuildHookURL, cfg.WebhookSecret,
		time.Now())
	if err != nil {
		return fmt.Errorf("failed to update automation config: %w", err)
	}
	return nil
}
