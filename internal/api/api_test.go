// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/ballotscope/ballotscope/internal/config"
	"github.com/ballotscope/ballotscope/internal/database"
	"github.com/ballotscope/ballotscope/internal/fec"
	"github.com/ballotscope/ballotscope/internal/models"
	fecmodels "github.com/ballotscope/ballotscope/internal/models/fec"
	"github.com/ballotscope/ballotscope/internal/promote"
	syncpkg "github.com/ballotscope/ballotscope/internal/sync"
)

type fakeStore struct {
	auto     *models.AutomationConfig
	autoErr  error
	cycle    *models.ElectionCycle
	filings  []models.StagedFiling
	runs     []models.SyncRun
	pingErr  error
	deleted  []int64
	missing  bool
}

func (s *fakeStore) Ping(context.Context) error { return s.pingErr }

func (s *fakeStore) GetAutomationConfig(context.Context) (*models.AutomationConfig, error) {
	return s.auto, s.autoErr
}

func (s *fakeStore) ActiveCycle(context.Context) (*models.ElectionCycle, error) {
	if s.cycle == nil {
		return nil, database.ErrNotFound
	}
	return s.cycle, nil
}

func (s *fakeStore) ListActiveFilings(context.Context, int64, string) ([]models.StagedFiling, error) {
	return s.filings, nil
}

func (s *fakeStore) DeleteFiling(_ context.Context, id int64) error {
	if s.missing {
		return database.ErrNotFound
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeStore) GetSyncRun(_ context.Context, id int64) (*models.SyncRun, error) {
	for i := range s.runs {
		if s.runs[i].ID == id {
			return &s.runs[i], nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *fakeStore) ListSyncRuns(context.Context, int) ([]models.SyncRun, error) {
	return s.runs, nil
}

type fakeSyncer struct {
	run     *models.SyncRun
	err     error
	running bool
}

func (s *fakeSyncer) Run(context.Context, string) (*models.SyncRun, error) {
	return s.run, s.err
}

func (s *fakeSyncer) Running() bool { return s.running }

type fakePromoter struct {
	candidate *models.Candidate
	err       error
	bulk      *models.BulkPromotionResult
}

func (p *fakePromoter) Promote(context.Context, int64, promote.Enrichment) (*models.Candidate, error) {
	return p.candidate, p.err
}

func (p *fakePromoter) PromoteBulk(context.Context, []int64, models.RaceCandidateStatus) *models.BulkPromotionResult {
	return p.bulk
}

type fakeFEC struct {
	status *fec.ConnectionStatus
}

func (c *fakeFEC) SearchCandidates(context.Context, fec.SearchParams) ([]fecmodels.Candidate, error) {
	return nil, nil
}

func (c *fakeFEC) GetFinancialTotals(context.Context, string, int) (*fecmodels.Totals, error) {
	return nil, nil
}

func (c *fakeFEC) TestConnection(context.Context, int) (*fec.ConnectionStatus, error) {
	return c.status, nil
}

func (c *fakeFEC) RequestCount() int64 { return 0 }

func testRouter(store *fakeStore, syncer *fakeSyncer, promoter *fakePromoter, client fec.ClientInterface) http.Handler {
	cfg := &config.Config{
		Security: config.SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   1000,
			RateLimitWindow: time.Minute,
		},
	}
	if client == nil {
		client = &fakeFEC{status: &fec.ConnectionStatus{OK: true}}
	}
	return NewHandler(cfg, store, syncer, client, promoter).NewRouter()
}

func secretStore() *fakeStore {
	return &fakeStore{
		auto: &models.AutomationConfig{SyncEnabled: true, WebhookSecret: "hunter2"},
	}
}

func TestTriggerRejectsBadSecret(t *testing.T) {
	router := testRouter(secretStore(), &fakeSyncer{}, &fakePromoter{}, nil)

	tests := []struct {
		name   string
		target string
		header string
	}{
		{"no secret", "/api/v1/sync/trigger", ""},
		{"wrong query secret", "/api/v1/sync/trigger?secret=wrong", ""},
		{"wrong header secret", "/api/v1/sync/trigger", "wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("X-Sync-Secret", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestTriggerRejectsWhenNoSecretConfigured(t *testing.T) {
	store := secretStore()
	store.auto.WebhookSecret = ""
	router := testRouter(store, &fakeSyncer{}, &fakePromoter{}, nil)

	// Even an empty supplied secret must not match an empty configured one
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/trigger?secret=", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 until a secret is configured", rec.Code)
	}
}

func TestTriggerDisabled(t *testing.T) {
	router := testRouter(secretStore(), &fakeSyncer{err: syncpkg.ErrSyncDisabled}, &fakePromoter{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/trigger?secret=hunter2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for disabled sync", rec.Code)
	}
	var body models.SyncTriggerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "disabled" || body.Message != "FEC sync is disabled" {
		t.Errorf("body = %+v, want disabled message", body)
	}
}

func TestTriggerConflict(t *testing.T) {
	router := testRouter(secretStore(), &fakeSyncer{err: syncpkg.ErrSyncRunning}, &fakePromoter{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/trigger?secret=hunter2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409 while a run is in flight", rec.Code)
	}
}

func TestTriggerSuccessBodyContract(t *testing.T) {
	run := &models.SyncRun{
		Status:           models.SyncStatusPartial,
		StatesSynced:     []string{"TX", "CA"},
		Created:          3,
		Updated:          5,
		Deactivated:      1,
		APIRequests:      42,
		TriggeredRebuild: true,
		Details:          models.RunDetails{Errors: []string{"OH: candidate search: 503"}},
	}
	router := testRouter(secretStore(), &fakeSyncer{run: run}, &fakePromoter{}, nil)

	// Secret accepted via header too
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/trigger", nil)
	req.Header.Set("X-Sync-Secret", "hunter2")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	// The body field names are an external contract: camelCase, exact
	var raw map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	for _, key := range []string{"status", "statesSynced", "created", "updated", "deactivated", "apiRequests", "rebuildTriggered", "errors"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("body missing contract field %q (got %v)", key, raw)
		}
	}
	if raw["status"] != "partial" || raw["apiRequests"] != float64(42) {
		t.Errorf("body = %v, want partial with 42 api requests", raw)
	}
}

func TestTriggerRunFailure(t *testing.T) {
	run := &models.SyncRun{Status: models.SyncStatusError, ErrorMessage: "no active election cycle"}
	syncer := &fakeSyncer{run: run, err: errors.New("sync run 1 failed: no active election cycle")}
	router := testRouter(secretStore(), syncer, &fakePromoter{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/trigger?secret=hunter2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 for a failed run", rec.Code)
	}
	var body models.SyncTriggerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "error" || !strings.Contains(body.Message, "no active election cycle") {
		t.Errorf("body = %+v, want error with cause", body)
	}
}

func TestTriggerMethodNotAllowed(t *testing.T) {
	router := testRouter(secretStore(), &fakeSyncer{}, &fakePromoter{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/trigger?secret=hunter2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405 for GET on the webhook", rec.Code)
	}
}

func TestTriggerOptionsPreflight(t *testing.T) {
	router := testRouter(secretStore(), &fakeSyncer{}, &fakePromoter{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sync/trigger", nil)
	req.Header.Set("Origin", "https://admin.example.net")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204 for preflight", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("preflight response missing CORS headers")
	}
}

func TestPromoteEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		promoter   *fakePromoter
		wantStatus int
	}{
		{
			name:       "created",
			body:       `{"filing_id": 12, "bio": "Challenger"}`,
			promoter:   &fakePromoter{candidate: &models.Candidate{ID: 5, Slug: "smith-pat"}},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing filing",
			body:       `{"filing_id": 999}`,
			promoter:   &fakePromoter{err: database.ErrNotFound},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "already promoted",
			body:       `{"filing_id": 12}`,
			promoter:   &fakePromoter{err: database.ErrAlreadyPromoted},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "invalid id",
			body:       `{"filing_id": 0}`,
			promoter:   &fakePromoter{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid status value",
			body:       `{"filing_id": 12, "status": "champion"}`,
			promoter:   &fakePromoter{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       `{"filing_id": `,
			promoter:   &fakePromoter{},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := testRouter(secretStore(), &fakeSyncer{}, tt.promoter, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/promote", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestPromoteBulkEndpoint(t *testing.T) {
	promoter := &fakePromoter{bulk: &models.BulkPromotionResult{
		Promoted: []int64{1, 2},
		Skipped:  []int64{3},
	}}
	router := testRouter(secretStore(), &fakeSyncer{}, promoter, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/promote/bulk",
		bytes.NewBufferString(`{"filing_ids": [1, 2, 3]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	// Empty list fails validation
	req = httptest.NewRequest(http.MethodPost, "/api/v1/promote/bulk",
		bytes.NewBufferString(`{"filing_ids": []}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for empty filing_ids", rec.Code)
	}
}

func TestListFilings(t *testing.T) {
	store := secretStore()
	store.cycle = &models.ElectionCycle{ID: 1, Year: 2026, IsActive: true}
	store.filings = []models.StagedFiling{{ID: 1, FECCandidateID: "S6TX00001", StateCode: "TX"}}
	router := testRouter(store, &fakeSyncer{}, &fakePromoter{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/filings?state=tx", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Status != "success" {
		t.Errorf("envelope status = %q, want success", resp.Status)
	}

	// Bad state filter
	req = httptest.NewRequest(http.MethodGet, "/api/v1/filings?state=TEX", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for a bad state code", rec.Code)
	}
}

func TestListFilingsNoActiveCycle(t *testing.T) {
	router := testRouter(secretStore(), &fakeSyncer{}, &fakePromoter{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/filings", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 without an active cycle", rec.Code)
	}
}

func TestDeleteFiling(t *testing.T) {
	store := secretStore()
	router := testRouter(store, &fakeSyncer{}, &fakePromoter{}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/filings/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || len(store.deleted) != 1 || store.deleted[0] != 42 {
		t.Errorf("delete = %d %v, want 200 deleting id 42", rec.Code, store.deleted)
	}

	store.missing = true
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/filings/43", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for a missing filing", rec.Code)
	}
}

func TestSyncStatus(t *testing.T) {
	store := secretStore()
	store.runs = []models.SyncRun{{ID: 9, Status: models.SyncStatusSuccess}}
	router := testRouter(store, &fakeSyncer{running: true}, &fakePromoter{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Data models.SyncStatusResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !resp.Data.Running || resp.Data.LastRun == nil || resp.Data.LastRun.ID != 9 {
		t.Errorf("status payload = %+v, want running with last run 9", resp.Data)
	}
}

func TestFECTestEndpoint(t *testing.T) {
	store := secretStore()
	store.cycle = &models.ElectionCycle{ID: 1, Year: 2026, IsActive: true}
	client := &fakeFEC{status: &fec.ConnectionStatus{OK: true, TotalCount: 1234}}
	router := testRouter(store, &fakeSyncer{}, &fakePromoter{}, client)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/fec/test", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Data models.FECTestResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !resp.Data.OK || resp.Data.TotalCount != 1234 {
		t.Errorf("probe = %+v, want ok with count 1234", resp.Data)
	}
}

func TestHealthEndpoints(t *testing.T) {
	store := secretStore()
	router := testRouter(store, &fakeSyncer{}, &fakePromoter{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("live = %d, want 200", rec.Code)
	}

	store.pingErr = errors.New("database closed")
	req = httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready = %d, want 503 when the database is down", rec.Code)
	}
}
