// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

package api

import (
	"net/http"
)

// HealthLive is the liveness probe: the process is up.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondData(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady is the readiness probe: the database answers.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "DATABASE_ERROR", "database not ready", err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"status": "ready"})
}
