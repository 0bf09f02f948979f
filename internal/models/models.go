// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

package models

import "time"

// Party is the normalized party affiliation stored for filings and candidates.
// Raw FEC party codes and full names are mapped into this set by the
// normalize package; anything unrecognized becomes PartyOther.
type Party string

const (
	PartyDemocrat    Party = "Democrat"
	PartyRepublican  Party = "Republican"
	PartyIndependent Party = "Independent"
	PartyLibertarian Party = "Libertarian"
	PartyGreen       Party = "Green"
	PartyOther       Party = "Other"
)

// Chamber identifies a legislative body. FEC office codes "S" and "H" map to
// ChamberSenate and ChamberHouse respectively.
type Chamber string

const (
	ChamberSenate Chamber = "senate"
	ChamberHouse  Chamber = "house"
)

// State is a US state or territory row. Seeded at schema creation.
type State struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// ElectionCycle is a two-year election period. Exactly one cycle is active at
// a time; the sync and promotion flows both resolve the active cycle first.
type ElectionCycle struct {
	ID       int64 `json:"id"`
	Year     int   `json:"year"`
	IsActive bool  `json:"is_active"`
}

// CalendarEvent is a dated electoral event for a state within a cycle.
// The sync window resolver only consumes events of type "primary".
type CalendarEvent struct {
	ID        int64     `json:"id"`
	CycleID   int64     `json:"cycle_id"`
	StateID   int64     `json:"state_id"`
	StateCode string    `json:"state_code"`
	EventType string    `json:"event_type"`
	EventDate time.Time `json:"event_date"`
}

// StatePrimary is a distinct state with its nearest primary date inside the
// resolved sync window.
type StatePrimary struct {
	StateID     int64     `json:"state_id"`
	StateCode   string    `json:"state_code"`
	PrimaryDate time.Time `json:"primary_date"`
}

// AutomationConfig is the operator-tunable singleton controlling sync
// behavior. It is read at the start of every run; this service never writes
// it (the admin UI owns mutation).
type AutomationConfig struct {
	SyncEnabled      bool      `json:"sync_enabled"`
	LookaheadDays    int       `json:"lookahead_days"`
	LookbackDays     int       `json:"lookback_days"`
	MinFundsRaised   float64   `json:"min_funds_raised"`
	MajorPartiesOnly bool      `json:"major_parties_only"`
	ActiveOnly       bool      `json:"active_only"`
	RebuildHookURL   string    `json:"rebuild_hook_url"`
	WebhookSecret    string    `json:"-"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// StagedFiling is the core staging entity: one FEC candidate filing scoped to
// an election cycle. The (CycleID, FECCandidateID) pair is the natural key;
// the store enforces it with a unique constraint and all sync writes upsert
// against it.
//
// Lifecycle: created on first sight, updated in place on every later sync
// that still reports the candidate, soft-deactivated (IsActive=false) when
// the candidate disappears from the source result set. Never hard-deleted by
// sync; an administrator may delete a row through the API.
type StagedFiling struct {
	ID                    int64      `json:"id"`
	CycleID               int64      `json:"cycle_id"`
	FECCandidateID        string     `json:"fec_candidate_id"`
	StateID               int64      `json:"state_id"`
	StateCode             string     `json:"state_code"`
	FirstName             string     `json:"first_name"`
	LastName              string     `json:"last_name"`
	Party                 Party      `json:"party"`
	Chamber               Chamber    `json:"chamber"`
	DistrictNumber        *int       `json:"district_number,omitempty"`
	IsIncumbent           bool       `json:"is_incumbent"`
	Raised                float64    `json:"raised"`
	Spent                 float64    `json:"spent"`
	CashOnHand            float64    `json:"cash_on_hand"`
	IsActive              bool       `json:"is_active"`
	LastSyncedAt          time.Time  `json:"last_synced_at"`
	DeactivatedAt         *time.Time `json:"deactivated_at,omitempty"`
	PromotedToCandidateID *int64     `json:"promoted_to_candidate_id,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
}

// Promoted reports whether this filing has been consumed by the promotion
// engine. Promoted filings are excluded from active-filing listings, from
// sync upserts, and from the deactivation sweep.
func (f *StagedFiling) Promoted() bool {
	return f.PromotedToCandidateID != nil
}

// Sync run terminal and in-flight statuses.
const (
	SyncStatusRunning = "running"
	SyncStatusSuccess = "success"
	SyncStatusPartial = "partial"
	SyncStatusError   = "error"
)

// Sync trigger types.
const (
	SyncTypeAuto   = "auto"
	SyncTypeManual = "manual"
)

// SyncRun is one row of the run ledger. A row is inserted with status
// "running" before any external call and receives exactly one terminal
// update (success/partial/error). Rows are never mutated after completion
// and never deleted by this service.
type SyncRun struct {
	ID               int64      `json:"id"`
	CorrelationID    string     `json:"correlation_id"`
	SyncType         string     `json:"sync_type"`
	Status           string     `json:"status"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	StatesSynced     []string   `json:"states_synced"`
	Created          int        `json:"created"`
	Updated          int        `json:"updated"`
	Deactivated      int        `json:"deactivated"`
	APIRequests      int        `json:"api_requests"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	Details          RunDetails `json:"details"`
	TriggeredRebuild bool       `json:"triggered_rebuild"`
}

// RunDetails is the structured diagnostic blob stored alongside a sync run:
// the resolved window bounds, the target states, and a snapshot of the
// AutomationConfig fields that influenced the run.
type RunDetails struct {
	WindowStart      string   `json:"window_start,omitempty"`
	WindowEnd        string   `json:"window_end,omitempty"`
	TargetStates     []string `json:"target_states,omitempty"`
	CycleYear        int      `json:"cycle_year,omitempty"`
	LookaheadDays    int      `json:"lookahead_days,omitempty"`
	LookbackDays     int      `json:"lookback_days,omitempty"`
	MinFundsRaised   float64  `json:"min_funds_raised,omitempty"`
	MajorPartiesOnly bool     `json:"major_parties_only,omitempty"`
	ActiveOnly       bool     `json:"active_only,omitempty"`
	Message          string   `json:"message,omitempty"`
	Errors           []string `json:"errors,omitempty"`
}

// Candidate is the full public-facing entity produced by promotion.
type Candidate struct {
	ID             int64     `json:"id"`
	Slug           string    `json:"slug"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Party          Party     `json:"party"`
	StateID        int64     `json:"state_id"`
	Bio            string    `json:"bio,omitempty"`
	PhotoURL       string    `json:"photo_url,omitempty"`
	Website        string    `json:"website,omitempty"`
	Twitter        string    `json:"twitter,omitempty"`
	RoleTitle      string    `json:"role_title,omitempty"`
	Raised         float64   `json:"raised"`
	Spent          float64   `json:"spent"`
	CashOnHand     float64   `json:"cash_on_hand"`
	FECCandidateID string    `json:"fec_candidate_id"`
	IsIncumbent    bool      `json:"is_incumbent"`
	CreatedAt      time.Time `json:"created_at"`
}

// District is (state, chamber, district number). DistrictNumber is nil for
// statewide Senate seats. Auto-created by the promotion engine when absent.
type District struct {
	ID             int64   `json:"id"`
	StateID        int64   `json:"state_id"`
	Chamber        Chamber `json:"chamber"`
	DistrictNumber *int    `json:"district_number,omitempty"`
}

// Race is (district, cycle). Rating is assigned editorially and starts null.
type Race struct {
	ID         int64   `json:"id"`
	DistrictID int64   `json:"district_id"`
	CycleID    int64   `json:"cycle_id"`
	Rating     *string `json:"rating,omitempty"`
}

// RaceCandidateStatus is the lifecycle status of a candidate within a race.
type RaceCandidateStatus string

const (
	RaceStatusAnnounced     RaceCandidateStatus = "announced"
	RaceStatusPrimaryWinner RaceCandidateStatus = "primary_winner"
	RaceStatusRunoff        RaceCandidateStatus = "runoff"
	RaceStatusWithdrawn     RaceCandidateStatus = "withdrawn"
	RaceStatusWon           RaceCandidateStatus = "won"
	RaceStatusLost          RaceCandidateStatus = "lost"
)

// RaceCandidate links a Candidate to a Race.
type RaceCandidate struct {
	ID          int64               `json:"id"`
	RaceID      int64               `json:"race_id"`
	CandidateID int64               `json:"candidate_id"`
	Status      RaceCandidateStatus `json:"status"`
	IsIncumbent bool                `json:"is_incumbent"`
}
