// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

package models

import (
	"time"
)

// APIResponse is the standardized response wrapper used by all HTTP
// endpoints except the sync trigger webhook, whose body shape is a fixed
// contract with the cron caller (see SyncTriggerResponse).
//
// Status is "success" or "error". Data carries the payload on success;
// Error is populated only on failure.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is a structured error payload.
//
// Common codes: VALIDATION_ERROR, DATABASE_ERROR, AUTHENTICATION_ERROR,
// NOT_FOUND, CONFLICT, SYNC_ERROR, PROMOTION_ERROR.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SyncTriggerResponse is the webhook response body consumed by the cron
// service and the admin UI. Field names are part of the external contract
// and intentionally camelCase.
type SyncTriggerResponse struct {
	Status           string   `json:"status"`
	StatesSynced     []string `json:"statesSynced"`
	Created          int      `json:"created"`
	Updated          int      `json:"updated"`
	Deactivated      int      `json:"deactivated"`
	APIRequests      int      `json:"apiRequests"`
	RebuildTriggered bool     `json:"rebuildTriggered"`
	Errors           []string `json:"errors,omitempty"`
	Message          string   `json:"message,omitempty"`
}

// PromotionRequest is the operator-supplied body for a single promotion.
// Enrichment fields are optional; Status defaults to "announced".
type PromotionRequest struct {
	FilingID  int64  `json:"filing_id" validate:"required,gt=0"`
	PhotoURL  string `json:"photo_url,omitempty" validate:"omitempty,url"`
	Website   string `json:"website,omitempty" validate:"omitempty,url"`
	Twitter   string `json:"twitter,omitempty" validate:"omitempty,max=64"`
	Bio       string `json:"bio,omitempty" validate:"omitempty,max=10000"`
	RoleTitle string `json:"role_title,omitempty" validate:"omitempty,max=200"`
	Status    string `json:"status,omitempty" validate:"omitempty,oneof=announced primary_winner runoff withdrawn won lost"`
}

// BulkPromotionRequest promotes a selected set of filings with default
// enrichment. Already-promoted filings are skipped with a warning.
type BulkPromotionRequest struct {
	FilingIDs []int64 `json:"filing_ids" validate:"required,min=1,max=500,dive,gt=0"`
	Status    string  `json:"status,omitempty" validate:"omitempty,oneof=announced primary_winner runoff withdrawn won lost"`
}

// BulkPromotionResult reports per-filing outcomes of a bulk promotion.
type BulkPromotionResult struct {
	Promoted []int64  `json:"promoted"`
	Skipped  []int64  `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// SyncStatusResponse summarizes the sync subsystem for the admin dashboard.
type SyncStatusResponse struct {
	Running bool     `json:"running"`
	LastRun *SyncRun `json:"last_run,omitempty"`
}

// FECTestResponse is the connectivity probe result.
type FECTestResponse struct {
	OK         bool   `json:"ok"`
	TotalCount int    `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}
