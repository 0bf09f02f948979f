// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createSchema creates sequences, tables and indexes. All statements are
// idempotent (IF NOT EXISTS) so startup is safe against an existing store.
//
// The staged_filings natural key (cycle_id, fec_candidate_id) carries a
// UNIQUE constraint: it is the upsert conflict target and the last line of
// defense against overlapping sync runs.
func (db *DB) createSchema() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range schemaStatements() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema statement: %s: %w", query, err)
		}
	}
	return nil
}

func schemaStatements() []string {
	return []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_states_id`,
		`CREATE SEQUENCE IF NOT EXISTS seq_election_cycles_id`,
		`CREATE SEQUENCE IF NOT EXISTS seq_calendar_events_id`,
		`CREATE SEQUENCE IF NOT EXISTS seq_staged_filings_id`,
		`CREATE SEQUENCE IF NOT EXISTS seq_sync_runs_id`,
		`CREATE SEQUENCE IF NOT EXISTS seq_candidates_id`,
		`CREATE SEQUENCE IF NOT EXISTS seq_districts_id`,
		`CREATE SEQUENCE IF NOT EXISTS seq_races_id`,
		`CREATE SEQUENCE IF NOT EXISTS seq_race_candidates_id`,

		`CREATE TABLE IF NOT EXISTS states (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_states_id'),
			code TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS election_cycles (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_election_cycles_id'),
			year INTEGER NOT NULL UNIQUE,
			is_active BOOLEAN NOT NULL DEFAULT false
		)`,

		`CREATE TABLE IF NOT EXISTS calendar_events (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_calendar_events_id'),
			cycle_id BIGINT NOT NULL,
			state_id BIGINT NOT NULL,
			event_type TEXT NOT NULL,
			event_date DATE NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS automation_config (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			sync_enabled BOOLEAN NOT NULL DEFAULT false,
			lookahead_days INTEGER NOT NULL DEFAULT 60,
			lookback_days INTEGER NOT NULL DEFAULT 30,
			min_funds_raised DOUBLE NOT NULL DEFAULT 0,
			major_parties_only BOOLEAN NOT NULL DEFAULT false,
			active_only BOOLEAN NOT NULL DEFAULT true,
			rebuild_hook_url TEXT NOT NULL DEFAULT '',
			webhook_secret TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMP NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS staged_filings (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_staged_filings_id'),
			cycle_id BIGINT NOT NULL,
			fec_candidate_id TEXT NOT NULL,
			state_id BIGINT NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			party TEXT NOT NULL,
			chamber TEXT NOT NULL,
			district_number INTEGER,
			is_incumbent BOOLEAN NOT NULL DEFAULT false,
			raised DOUBLE NOT NULL DEFAULT 0,
			spent DOUBLE NOT NULL DEFAULT 0,
			cash_on_hand DOUBLE NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT true,
			last_synced_at TIMESTAMP NOT NULL,
			deactivated_at TIMESTAMP,
			promoted_to_candidate_id BIGINT,
			created_at TIMESTAMP NOT NULL DEFAULT now(),
			UNIQUE (cycle_id, fec_candidate_id)
		)`,

		`CREATE TABLE IF NOT EXISTS sync_runs (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_sync_runs_id'),
			correlation_id TEXT NOT NULL,
			sync_type TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP,
			states_synced TEXT NOT NULL DEFAULT '[]',
			created_count INTEGER NOT NULL DEFAULT 0,
			updated_count INTEGER NOT NULL DEFAULT 0,
			deactivated_count INTEGER NOT NULL DEFAULT 0,
			api_requests INTEGER NOT NULL DEFAULT 0,
			error_message TEXT,
			details TEXT NOT NULL DEFAULT '{}',
			triggered_rebuild BOOLEAN NOT NULL DEFAULT false
		)`,

		`CREATE TABLE IF NOT EXISTS candidates (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_candidates_id'),
			slug TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			party TEXT NOT NULL,
			state_id BIGINT NOT NULL,
			bio TEXT NOT NULL DEFAULT '',
			photo_url TEXT NOT NULL DEFAULT '',
			website TEXT NOT NULL DEFAULT '',
			twitter TEXT NOT NULL DEFAULT '',
			role_title TEXT NOT NULL DEFAULT '',
			raised DOUBLE NOT NULL DEFAULT 0,
			spent DOUBLE NOT NULL DEFAULT 0,
			cash_on_hand DOUBLE NOT NULL DEFAULT 0,
			fec_candidate_id TEXT NOT NULL DEFAULT '',
			is_incumbent BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS districts (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_districts_id'),
			state_id BIGINT NOT NULL,
			chamber TEXT NOT NULL,
			district_number INTEGER
		)`,

		`CREATE TABLE IF NOT EXISTS races (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_races_id'),
			district_id BIGINT NOT NULL,
			cycle_id BIGINT NOT NULL,
			rating TEXT,
			UNIQUE (district_id, cycle_id)
		)`,

		`CREATE TABLE IF NOT EXISTS race_candidates (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_race_candidates_id'),
			race_id BIGINT NOT NULL,
			candidate_id BIGINT NOT NULL,
			status TEXT NOT NULL DEFAULT 'announced',
			is_incumbent BOOLEAN NOT NULL DEFAULT false,
			UNIQUE (race_id, candidate_id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_staged_filings_state
			ON staged_filings (cycle_id, state_id, is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_calendar_events_window
			ON calendar_events (cycle_id, event_type, event_date)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_runs_status
			ON sync_runs (status, started_at)`,
	}
}

// stateSeed is the fixed set of states and territories with Senate or
// House representation tracked by the application.
var stateSeed = [][2]string{
	{"AL", "Alabama"}, {"AK", "Alaska"}, {"AZ", "Arizona"}, {"AR", "Arkansas"},
	{"CA", "California"}, {"CO", "Colorado"}, {"CT", "Connecticut"}, {"DE", "Delaware"},
	{"FL", "Florida"}, {"GA", "Georgia"}, {"HI", "Hawaii"}, {"ID", "Idaho"},
	{"IL", "Illinois"}, {"IN", "Indiana"}, {"IA", "Iowa"}, {"KS", "Kansas"},
	{"KY", "Kentucky"}, {"LA", "Louisiana"}, {"ME", "Maine"}, {"MD", "Maryland"},
	{"MA", "Massachusetts"}, {"MI", "Michigan"}, {"MN", "Minnesota"}, {"MS", "Mississippi"},
	{"MO", "Missouri"}, {"MT", "Montana"}, {"NE", "Nebraska"}, {"NV", "Nevada"},
	{"NH", "New Hampshire"}, {"NJ", "New Jersey"}, {"NM", "New Mexico"}, {"NY", "New York"},
	{"NC", "North Carolina"}, {"ND", "North Dakota"}, {"OH", "Ohio"}, {"OK", "Oklahoma"},
	{"OR", "Oregon"}, {"PA", "Pennsylvania"}, {"RI", "Rhode Island"}, {"SC", "South Carolina"},
	{"SD", "South Dakota"}, {"TN", "Tennessee"}, {"TX", "Texas"}, {"UT", "Utah"},
	{"VT", "Vermont"}, {"VA", "Virginia"}, {"WA", "Washington"}, {"WV", "West Virginia"},
	{"WI", "Wisconsin"}, {"WY", "Wyoming"}, {"DC", "District of Columbia"},
}

// seedStates inserts the fixed state list, skipping codes already present.
func (db *DB) seedStates() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, s := range stateSeed {
		_, err := db.conn.ExecContext(ctx,
			`INSERT INTO states (code, name)
			 SELECT ?, ?
			 WHERE NOT EXISTS (SELECT 1 FROM states WHERE code = ?)`,
			s[0], s[1], s[0])
		if err != nil {
			return fmt.Errorf("failed to seed state %s: %w", s[0], err)
		}
	}
	return nil
}

// ensureAutomationConfig inserts the singleton automation_config row with
// conservative defaults (sync disabled) if it does not exist.
func (db *DB) ensureAutomationConfig() error {
	ctx, cancel := schemaContext()
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO automation_config (id)
		 SELECT 1
		 WHERE NOT EXISTS (SELECT 1 FROM automation_config WHERE id = 1)`)
	if err != nil {
		return fmt.Errorf("failed to ensure automation config: %w", err)
	}
	return nil
}
