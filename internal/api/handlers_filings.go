// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ballotscope/ballotscope/internal/logging"
	"github.com/ballotscope/ballotscope/internal/models"
)

// ListFilings returns active, unpromoted staged filings for the active
// cycle, optionally filtered to one state with ?state=XX.
func (h *Handler) ListFilings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cycle, err := h.store.ActiveCycle(ctx)
	if err != nil {
		respondStoreError(w, err, "active election cycle")
		return
	}

	stateCode := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("state")))
	if stateCode != "" && len(stateCode) != 2 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "state must be a two-letter code", nil)
		return
	}

	filings, err := h.store.ListActiveFilings(ctx, cycle.ID, stateCode)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to list filings", err)
		return
	}
	if filings == nil {
		filings = []models.StagedFiling{}
	}
	respondData(w, http.StatusOK, filings)
}

// DeleteFiling removes one staged filing. Sync never hard-deletes; this is
// the administrator escape hatch for junk filings.
func (h *Handler) DeleteFiling(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid filing id", nil)
		return
	}

	if err := h.store.DeleteFiling(r.Context(), id); err != nil {
		respondStoreError(w, err, "filing")
		return
	}

	logging.Ctx(r.Context()).Info().Int64("filing_id", id).Msg("Filing deleted")
	respondData(w, http.StatusOK, map[string]interface{}{"deleted": id})
}
