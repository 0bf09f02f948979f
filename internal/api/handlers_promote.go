// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

package api

import (
	"errors"
	"net/http"

	"github.com/ballotscope/ballotscope/internal/database"
	"github.com/ballotscope/ballotscope/internal/models"
	"github.com/ballotscope/ballotscope/internal/promote"
)

// Promote converts one staged filing into a public candidate.
func (h *Handler) Promote(w http.ResponseWriter, r *http.Request) {
	var req models.PromotionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	candidate, err := h.promoter.Promote(r.Context(), req.FilingID, promote.Enrichment{
		PhotoURL:  req.PhotoURL,
		Website:   req.Website,
		Twitter:   req.Twitter,
		Bio:       req.Bio,
		RoleTitle: req.RoleTitle,
		Status:    models.RaceCandidateStatus(req.Status),
	})
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "filing not found", nil)
		return
	case errors.Is(err, database.ErrAlreadyPromoted):
		respondError(w, http.StatusConflict, "CONFLICT", "filing is already promoted", nil)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "PROMOTION_ERROR", "promotion failed", err)
		return
	}

	respondData(w, http.StatusCreated, candidate)
}

// PromoteBulk promotes a batch of filings with default enrichment.
func (h *Handler) PromoteBulk(w http.ResponseWriter, r *http.Request) {
	var req models.BulkPromotionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	result := h.promoter.PromoteBulk(r.Context(), req.FilingIDs, models.RaceCandidateStatus(req.Status))
	respondData(w, http.StatusOK, result)
}
