// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

// Package sync implements the FEC filing synchronization pipeline: the
// primary-date window resolver, per-state reconciliation against OpenFEC,
// the run ledger lifecycle, and the optional site rebuild trigger.
package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	stdsync "sync"
	"time"

	"github.com/ballotscope/ballotscope/internal/config"
	"github.com/ballotscope/ballotscope/internal/database"
	"github.com/ballotscope/ballotscope/internal/fec"
	"github.com/ballotscope/ballotscope/internal/logging"
	"github.com/ballotscope/ballotscope/internal/metrics"
	"github.com/ballotscope/ballotscope/internal/models"
)

var (
	// ErrSyncDisabled is returned when automation has sync switched off.
	// Disabled runs leave no ledger row.
	ErrSyncDisabled = errors.New("sync: disabled by automation config")

	// ErrSyncRunning is returned when another run holds the sync slot,
	// either in this process or recorded as running in the ledger.
	ErrSyncRunning = errors.New("sync: a run is already in progress")
)

// Store is the slice of the database layer the sync manager consumes.
type Store interface {
	GetAutomationConfig(ctx context.Context) (*models.AutomationConfig, error)
	ActiveCycle(ctx context.Context) (*models.ElectionCycle, error)
	PrimariesInWindow(ctx context.Context, cycleID int64, from, to time.Time) ([]models.StatePrimary, error)
	CreateSyncRun(ctx context.Context, correlationID, syncType string, startedAt time.Time) (int64, error)
	FinalizeSyncRun(ctx context.Context, run *models.SyncRun) error
	RunningSyncRun(ctx context.Context, staleCutoff time.Time) (*models.SyncRun, error)
	UpsertFiling(ctx context.Context, f *models.StagedFiling) (database.UpsertOutcome, error)
	DeactivateMissing(ctx context.Context, cycleID, stateID int64, seen []string, now time.Time) (int, error)
}

// Manager owns the end-to-end sync run. One run at a time: an in-process
// mutex guards this instance and a ledger check guards against a second
// process sharing the database.
type Manager struct {
	store  Store
	client fec.ClientInterface
	cfg    *config.Config

	running stdsync.Mutex // held for the duration of a run; TryLock is the gate

	// Injection points for tests.
	now     func() time.Time
	rebuild func(ctx context.Context, hookURL string) error
}

// NewManager wires the sync manager.
func NewManager(store Store, client fec.ClientInterface, cfg *config.Config) *Manager {
	return &Manager{
		store:   store,
		client:  client,
		cfg:     cfg,
		now:     time.Now,
		rebuild: triggerRebuild,
	}
}

// Running reports whether this process currently has a sync run in flight.
func (m *Manager) Running() bool {
	if m.running.TryLock() {
		m.running.Unlock()
		return false
	}
	return true
}

// Run executes one full sync run and returns its finalized ledger row.
//
// Pre-flight failures (disabled automation, a concurrent run, a config
// read error) return before any ledger row exists. Once the "running" row
// is inserted every path, including panics upstream of the reconcile loop,
// funnels into exactly one terminal update.
func (m *Manager) Run(ctx context.Context, syncType string) (*models.SyncRun, error) {
	if !m.running.TryLock() {
		return nil, ErrSyncRunning
	}
	defer m.running.Unlock()

	auto, err := m.store.GetAutomationConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("read automation config: %w", err)
	}
	if !auto.SyncEnabled {
		return nil, ErrSyncDisabled
	}

	// Without a key every OpenFEC call fails identically; surface one
	// configuration error before the ledger row exists.
	if m.cfg.FEC.APIKey == "" {
		return nil, fec.ErrMissingAPIKey
	}

	startedAt := m.now().UTC()

	// Another process may share the database: a fresh "running" ledger row
	// blocks us, one older than the stale cutoff is treated as abandoned.
	inflight, err := m.store.RunningSyncRun(ctx, startedAt.Add(-m.cfg.Sync.StaleRunAge))
	if err != nil {
		return nil, fmt.Errorf("check running sync run: %w", err)
	}
	if inflight != nil {
		return nil, ErrSyncRunning
	}

	correlationID := logging.CorrelationIDFromContext(ctx)
	if correlationID == "" {
		correlationID = logging.GenerateCorrelationID()
		ctx = logging.ContextWithCorrelationID(ctx, correlationID)
	}

	runID, err := m.store.CreateSyncRun(ctx, correlationID, syncType, startedAt)
	if err != nil {
		return nil, fmt.Errorf("create sync run: %w", err)
	}

	run := &models.SyncRun{
		ID:            runID,
		CorrelationID: correlationID,
		SyncType:      syncType,
		Status:        models.SyncStatusRunning,
		StartedAt:     startedAt,
		StatesSynced:  []string{},
		Details: models.RunDetails{
			LookaheadDays:    auto.LookaheadDays,
			LookbackDays:     auto.LookbackDays,
			MinFundsRaised:   auto.MinFundsRaised,
			MajorPartiesOnly: auto.MajorPartiesOnly,
			ActiveOnly:       auto.ActiveOnly,
		},
	}

	if err := m.execute(ctx, run, auto); err != nil {
		run.Status = models.SyncStatusError
		run.ErrorMessage = err.Error()
		run.Details.Errors = append(run.Details.Errors, err.Error())
	}

	return m.finalize(ctx, run)
}

// execute drives the run body; any returned error marks the whole run as
// failed. Per-state failures are absorbed into the run as partial status
// and do not surface here.
func (m *Manager) execute(ctx context.Context, run *models.SyncRun, auto *models.AutomationConfig) error {
	log := logging.Ctx(ctx)

	cycle, err := m.store.ActiveCycle(ctx)
	if errors.Is(err, database.ErrNotFound) {
		return errors.New("no active election cycle")
	}
	if err != nil {
		return fmt.Errorf("resolve active cycle: %w", err)
	}
	run.Details.CycleYear = cycle.Year

	from, to := ResolveWindow(run.StartedAt, auto.LookbackDays, auto.LookaheadDays)
	run.Details.WindowStart = from.Format("2006-01-02")
	run.Details.WindowEnd = to.Format("2006-01-02")

	primaries, err := m.store.PrimariesInWindow(ctx, cycle.ID, from, to)
	if err != nil {
		return fmt.Errorf("resolve sync window: %w", err)
	}

	// An empty window is a successful no-op: nothing to sync, zero API
	// calls spent.
	if len(primaries) == 0 {
		run.Status = models.SyncStatusSuccess
		run.Details.Message = "no primaries in sync window"
		log.Info().
			Str("window_start", run.Details.WindowStart).
			Str("window_end", run.Details.WindowEnd).
			Msg("No primaries in sync window, nothing to do")
		return nil
	}

	for _, p := range primaries {
		run.Details.TargetStates = append(run.Details.TargetStates, p.StateCode)
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.Sync.RunTimeout)
	defer cancel()

	requestsBefore := m.client.RequestCount()

	for _, primary := range primaries {
		if ctx.Err() != nil {
			run.Details.Errors = append(run.Details.Errors,
				fmt.Sprintf("run deadline reached before %s", primary.StateCode))
			metrics.SyncStateErrors.WithLabelValues(primary.StateCode).Inc()
			continue
		}

		result, err := m.reconcileState(ctx, cycle, primary, auto)
		if err != nil {
			run.Details.Errors = append(run.Details.Errors,
				fmt.Sprintf("%s: %v", primary.StateCode, err))
			metrics.SyncStateErrors.WithLabelValues(primary.StateCode).Inc()
			log.Error().Err(err).Str("state", primary.StateCode).Msg("State reconciliation failed")
			continue
		}

		run.StatesSynced = append(run.StatesSynced, primary.StateCode)
		run.Created += result.created
		run.Updated += result.updated
		run.Deactivated += result.deactivated
		run.Details.Errors = append(run.Details.Errors, result.errors...)
	}

	run.APIRequests = int(m.client.RequestCount() - requestsBefore)

	switch {
	case len(run.StatesSynced) == 0:
		run.Status = models.SyncStatusError
		run.ErrorMessage = "all states failed"
	case len(run.Details.Errors) > 0:
		run.Status = models.SyncStatusPartial
		run.ErrorMessage = strings.Join(run.Details.Errors, "; ")
	default:
		run.Status = models.SyncStatusSuccess
	}

	m.maybeTriggerRebuild(ctx, run, auto)
	return nil
}

// maybeTriggerRebuild fires the site rebuild hook when the run changed any
// rows. A hook failure is logged and recorded but never degrades the run.
func (m *Manager) maybeTriggerRebuild(ctx context.Context, run *models.SyncRun, auto *models.AutomationConfig) {
	if auto.RebuildHookURL == "" {
		return
	}
	if run.Created+run.Updated+run.Deactivated == 0 {
		return
	}

	if err := m.rebuild(ctx, auto.RebuildHookURL); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Rebuild hook failed")
		run.Details.Errors = append(run.Details.Errors,
			fmt.Sprintf("rebuild hook: %v", err))
		return
	}
	run.TriggeredRebuild = true
}

// finalize applies the single terminal ledger update and records run
// metrics. Uses a fresh timeout so a run killed by its own deadline can
// still write its outcome.
func (m *Manager) finalize(ctx context.Context, run *models.SyncRun) (*models.SyncRun, error) {
	completedAt := m.now().UTC()
	run.CompletedAt = &completedAt

	finalizeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if err := m.store.FinalizeSyncRun(finalizeCtx, run); err != nil {
		return run, fmt.Errorf("finalize sync run %d: %w", run.ID, err)
	}

	metrics.RecordSyncRun(run.SyncType, run.Status,
		completedAt.Sub(run.StartedAt), run.Created, run.Updated, run.Deactivated)

	logging.Ctx(ctx).Info().
		Int64("run_id", run.ID).
		Str("status", run.Status).
		Strs("states", run.StatesSynced).
		Int("created", run.Created).
		Int("updated", run.Updated).
		Int("deactivated", run.Deactivated).
		Int("api_requests", run.APIRequests).
		Bool("rebuild_triggered", run.TriggeredRebuild).
		Msg("Sync run finished")

	if run.Status == models.SyncStatusError {
		return run, fmt.Errorf("sync run %d failed: %s", run.ID, run.ErrorMessage)
	}
	return run, nil
}
