// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ballotscope/ballotscope/internal/logging"
	"github.com/ballotscope/ballotscope/internal/models"
	syncpkg "github.com/ballotscope/ballotscope/internal/sync"
)

// TriggerSync is the webhook the external cron service calls. Its response
// body shape (SyncTriggerResponse) is a fixed contract; it does not use
// the standard API envelope.
//
// The shared secret is accepted as a "secret" query parameter or an
// X-Sync-Secret header. An instance with no secret configured rejects all
// calls: the webhook is unusable until an operator sets one.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	auto, err := h.store.GetAutomationConfig(ctx)
	if err != nil {
		respondRaw(w, http.StatusInternalServerError, &models.SyncTriggerResponse{
			Status:  "error",
			Message: "failed to read automation config",
		})
		return
	}

	supplied := r.URL.Query().Get("secret")
	if supplied == "" {
		supplied = r.Header.Get("X-Sync-Secret")
	}
	if auto.WebhookSecret == "" ||
		subtle.ConstantTimeCompare([]byte(supplied), []byte(auto.WebhookSecret)) != 1 {
		logging.Ctx(ctx).Warn().Str("remote", r.RemoteAddr).Msg("Sync trigger rejected: bad secret")
		respondRaw(w, http.StatusUnauthorized, &models.SyncTriggerResponse{
			Status:  "error",
			Message: "unauthorized",
		})
		return
	}

	run, err := h.syncer.Run(ctx, models.SyncTypeManual)
	switch {
	case errors.Is(err, syncpkg.ErrSyncDisabled):
		// Disabled is a deliberate operator state, not a caller error
		respondRaw(w, http.StatusOK, &models.SyncTriggerResponse{
			Status:  "disabled",
			Message: "FEC sync is disabled",
		})
		return
	case errors.Is(err, syncpkg.ErrSyncRunning):
		respondRaw(w, http.StatusConflict, &models.SyncTriggerResponse{
			Status:  "conflict",
			Message: "a sync run is already in progress",
		})
		return
	case err != nil && run == nil:
		respondRaw(w, http.StatusInternalServerError, &models.SyncTriggerResponse{
			Status:  "error",
			Message: err.Error(),
		})
		return
	}

	status := http.StatusOK
	if run.Status == models.SyncStatusError {
		status = http.StatusInternalServerError
	}
	respondRaw(w, status, triggerResponse(run))
}

// triggerResponse converts a finalized run to the webhook contract body.
func triggerResponse(run *models.SyncRun) *models.SyncTriggerResponse {
	resp := &models.SyncTriggerResponse{
		Status:           run.Status,
		StatesSynced:     run.StatesSynced,
		Created:          run.Created,
		Updated:          run.Updated,
		Deactivated:      run.Deactivated,
		APIRequests:      run.APIRequests,
		RebuildTriggered: run.TriggeredRebuild,
		Errors:           run.Details.Errors,
		Message:          run.Details.Message,
	}
	if resp.StatesSynced == nil {
		resp.StatesSynced = []string{}
	}
	if resp.Message == "" && run.ErrorMessage != "" {
		resp.Message = run.ErrorMessage
	}
	return resp
}

// SyncStatus summarizes the sync subsystem for the admin dashboard.
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := &models.SyncStatusResponse{Running: h.syncer.Running()}

	runs, err := h.store.ListSyncRuns(ctx, 1)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to read sync runs", err)
		return
	}
	if len(runs) > 0 {
		status.LastRun = &runs[0]
	}

	respondData(w, http.StatusOK, status)
}

// ListSyncRuns returns recent ledger rows, newest first.
func (h *Handler) ListSyncRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be a positive integer", nil)
			return
		}
		limit = parsed
	}

	runs, err := h.store.ListSyncRuns(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to list sync runs", err)
		return
	}
	if runs == nil {
		runs = []models.SyncRun{}
	}
	respondData(w, http.StatusOK, runs)
}

// GetSyncRun returns one ledger row by id.
func (h *Handler) GetSyncRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid run id", nil)
		return
	}

	run, err := h.store.GetSyncRun(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "sync run")
		return
	}
	respondData(w, http.StatusOK, run)
}

// TestFECConnection runs the cheap OpenFEC connectivity probe against the
// active cycle.
func (h *Handler) TestFECConnection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cycle, err := h.store.ActiveCycle(ctx)
	if err != nil {
		respondStoreError(w, err, "active election cycle")
		return
	}

	status, err := h.client.TestConnection(ctx, cycle.Year)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "SYNC_ERROR", "connection test failed", err)
		return
	}

	respondData(w, http.StatusOK, &models.FECTestResponse{
		OK:         status.OK,
		TotalCount: status.TotalCount,
		Error:      status.Error,
	})
}
