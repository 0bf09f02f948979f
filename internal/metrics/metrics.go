// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

// Package metrics provides Prometheus instrumentation for the FEC sync
// pipeline: OpenFEC client request accounting, reconciliation counters,
// circuit breaker state, promotion outcomes, and API endpoint latency.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OpenFEC client metrics
	FECRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fec_api_requests_total",
			Help: "Total number of OpenFEC API requests",
		},
		[]string{"endpoint", "status"},
	)

	FECRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fec_api_request_duration_seconds",
			Help:    "Duration of OpenFEC API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total requests through the circuit breaker by outcome",
		},
		[]string{"name", "outcome"}, // "success", "failure", "rejected"
	)

	// Sync reconciliation metrics
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Total number of sync runs by trigger type and terminal status",
		},
		[]string{"type", "status"},
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_run_duration_seconds",
			Help:    "Duration of complete sync runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	SyncFilingsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_filings_created_total",
			Help: "Total staged filings created by sync runs",
		},
	)

	SyncFilingsUpdated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_filings_updated_total",
			Help: "Total staged filings updated by sync runs",
		},
	)

	SyncFilingsDeactivated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_filings_deactivated_total",
			Help: "Total staged filings deactivated by sync runs",
		},
	)

	SyncStateErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_state_errors_total",
			Help: "Total per-state reconciliation failures",
		},
		[]string{"state"},
	)

	SyncLastSuccessTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last sync run that finished without errors",
		},
	)

	// Promotion metrics
	PromotionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promotions_total",
			Help: "Total filing promotions by outcome",
		},
		[]string{"outcome"}, // "promoted", "skipped", "error"
	)

	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)
)

// RecordFECRequest records one OpenFEC API call.
func RecordFECRequest(endpoint, status string, duration time.Duration) {
	FECRequestsTotal.WithLabelValues(endpoint, status).Inc()
	FECRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordAPIRequest records an inbound API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordSyncRun records the terminal outcome of one sync run.
func RecordSyncRun(syncType, status string, duration time.Duration, created, updated, deactivated int) {
	SyncRunsTotal.WithLabelValues(syncType, status).Inc()
	SyncDuration.Observe(duration.Seconds())
	SyncFilingsCreated.Add(float64(created))
	SyncFilingsUpdated.Add(float64(updated))
	SyncFilingsDeactivated.Add(float64(deactivated))
	if status == "success" {
		SyncLastSuccessTimestamp.SetToCurrentTime()
	}
}

// TrackActiveRequest increments or decrements the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
