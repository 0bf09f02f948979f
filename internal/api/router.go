// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ballotscope/ballotscope/internal/middleware"
)

// NewRouter assembles the full HTTP surface.
//
// The CORS layer is global so OPTIONS preflights (including on the sync
// trigger webhook) get their 204 before any method routing; chi answers
// 405 for wrong methods on known paths.
func (h *Handler) NewRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:     h.cfg.Security.CORSOrigins,
		AllowedMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:     []string{"Accept", "Content-Type", "X-Sync-Secret", "X-Request-ID"},
		MaxAge:             300,
		OptionsPassthrough: true,
	}))
	r.Use(httprate.LimitByIP(h.cfg.Security.RateLimitReqs, h.cfg.Security.RateLimitWindow))
	r.Use(middleware.PrometheusMetrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sync/trigger", h.TriggerSync)
		// Preflights pass through the CORS layer; the webhook answers
		// them with an empty 204
		r.Options("/sync/trigger", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		r.Get("/sync/status", h.SyncStatus)
		r.Get("/sync/runs", h.ListSyncRuns)
		r.Get("/sync/runs/{id}", h.GetSyncRun)

		r.Get("/filings", h.ListFilings)
		r.Delete("/filings/{id}", h.DeleteFiling)

		r.Post("/promote", h.Promote)
		r.Post("/promote/bulk", h.PromoteBulk)

		r.Post("/fec/test", h.TestFECConnection)

		r.Get("/health/live", h.HealthLive)
		r.Get("/health/ready", h.HealthReady)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
