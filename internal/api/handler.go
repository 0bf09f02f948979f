// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

// Package api exposes the admin HTTP surface: the sync trigger webhook,
// staged filing management, the run ledger, promotion, and health probes.
package api

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/ballotscope/ballotscope/internal/config"
	"github.com/ballotscope/ballotscope/internal/fec"
	"github.com/ballotscope/ballotscope/internal/models"
	"github.com/ballotscope/ballotscope/internal/promote"
)

// SyncRunner is the slice of the sync manager the handlers consume.
type SyncRunner interface {
	Run(ctx context.Context, syncType string) (*models.SyncRun, error)
	Running() bool
}

// Promoter is the slice of the promotion engine the handlers consume.
type Promoter interface {
	Promote(ctx context.Context, filingID int64, enrich promote.Enrichment) (*models.Candidate, error)
	PromoteBulk(ctx context.Context, filingIDs []int64, status models.RaceCandidateStatus) *models.BulkPromotionResult
}

// Store is the slice of the database layer the handlers consume.
type Store interface {
	Ping(ctx context.Context) error
	GetAutomationConfig(ctx context.Context) (*models.AutomationConfig, error)
	ActiveCycle(ctx context.Context) (*models.ElectionCycle, error)
	ListActiveFilings(ctx context.Context, cycleID int64, stateCode string) ([]models.StagedFiling, error)
	DeleteFiling(ctx context.Context, id int64) error
	GetSyncRun(ctx context.Context, id int64) (*models.SyncRun, error)
	ListSyncRuns(ctx context.Context, limit int) ([]models.SyncRun, error)
}

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	cfg      *config.Config
	store    Store
	syncer   SyncRunner
	client   fec.ClientInterface
	promoter Promoter
	validate *validator.Validate
}

// NewHandler wires the API handler set.
func NewHandler(cfg *config.Config, store Store, syncer SyncRunner, client fec.ClientInterface, promoter Promoter) *Handler {
	return &Handler{
		cfg:      cfg,
		store:    store,
		syncer:   syncer,
		client:   client,
		promoter: promoter,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}
