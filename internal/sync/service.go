// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

package sync

import (
	"context"
	"errors"
	"time"

	"github.com/ballotscope/ballotscope/internal/logging"
	"github.com/ballotscope/ballotscope/internal/models"
)

// Service is the optional scheduler: a suture-supervised ticker that
// triggers an automatic sync run every interval. It is only mounted when
// the sync interval is configured above zero; the webhook remains the
// primary trigger either way.
type Service struct {
	manager  *Manager
	interval time.Duration
}

// NewService creates the periodic sync service.
func NewService(manager *Manager, interval time.Duration) *Service {
	return &Service{manager: manager, interval: interval}
}

// Serve runs the ticker loop until the supervisor cancels the context.
// Runs that are skipped because sync is disabled or already in flight are
// routine, not failures.
func (s *Service) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logging.Info().Dur("interval", s.interval).Msg("Periodic sync scheduler started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			runCtx := logging.ContextWithNewCorrelationID(ctx)
			if _, err := s.manager.Run(runCtx, models.SyncTypeAuto); err != nil {
				if errors.Is(err, ErrSyncDisabled) || errors.Is(err, ErrSyncRunning) {
					logging.Ctx(runCtx).Debug().Err(err).Msg("Scheduled sync skipped")
					continue
				}
				logging.Ctx(runCtx).Error().Err(err).Msg("Scheduled sync failed")
			}
		}
	}
}

// String names the service in supervisor logs.
func (s *Service) String() string {
	return "fec-sync-scheduler"
}
