// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	stdsync "sync"
	"testing"
	"time"

	"github.com/ballotscope/ballotscope/internal/config"
	"github.com/ballotscope/ballotscope/internal/database"
	"github.com/ballotscope/ballotscope/internal/fec"
	"github.com/ballotscope/ballotscope/internal/models"
	fecmodels "github.com/ballotscope/ballotscope/internal/models/fec"
)

type fakeClient struct {
	mu        stdsync.Mutex
	requests  int64
	results   map[string][]fecmodels.Candidate // keyed "STATE/OFFICE"
	searchErr map[string]error                 // keyed by state
	totals    map[string]*fecmodels.Totals
	totalsErr map[string]error
}

func (c *fakeClient) SearchCandidates(_ context.Context, params fec.SearchParams) ([]fecmodels.Candidate, error) {
	c.mu.Lock()
	c.requests++
	c.mu.Unlock()
	if err := c.searchErr[params.State]; err != nil {
		return nil, err
	}
	return c.results[params.State+"/"+params.Office], nil
}

func (c *fakeClient) GetFinancialTotals(_ context.Context, candidateID string, _ int) (*fecmodels.Totals, error) {
	c.mu.Lock()
	c.requests++
	c.mu.Unlock()
	if err := c.totalsErr[candidateID]; err != nil {
		return nil, err
	}
	return c.totals[candidateID], nil
}

func (c *fakeClient) TestConnection(context.Context, int) (*fec.ConnectionStatus, error) {
	return &fec.ConnectionStatus{OK: true}, nil
}

func (c *fakeClient) RequestCount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests
}

type fakeStore struct {
	auto       *models.AutomationConfig
	cycle      *models.ElectionCycle
	primaries  []models.StatePrimary
	runningRow *models.SyncRun

	createdRuns int
	finalized   []*models.SyncRun

	upsertOutcome map[string]database.UpsertOutcome
	upsertErr     map[string]error
	upserted      []*models.StagedFiling

	deactivateSeen   map[int64][]string
	deactivateReturn map[int64]int
}

func (s *fakeStore) GetAutomationConfig(context.Context) (*models.AutomationConfig, error) {
	return s.auto, nil
}

func (s *fakeStore) ActiveCycle(context.Context) (*models.ElectionCycle, error) {
	if s.cycle == nil {
		return nil, database.ErrNotFound
	}
	return s.cycle, nil
}

func (s *fakeStore) PrimariesInWindow(context.Context, int64, time.Time, time.Time) ([]models.StatePrimary, error) {
	return s.primaries, nil
}

func (s *fakeStore) CreateSyncRun(context.Context, string, string, time.Time) (int64, error) {
	s.createdRuns++
	return int64(s.createdRuns), nil
}

func (s *fakeStore) FinalizeSyncRun(_ context.Context, run *models.SyncRun) error {
	s.finalized = append(s.finalized, run)
	return nil
}

func (s *fakeStore) RunningSyncRun(context.Context, time.Time) (*models.SyncRun, error) {
	return s.runningRow, nil
}

func (s *fakeStore) UpsertFiling(_ context.Context, f *models.StagedFiling) (database.UpsertOutcome, error) {
	if err := s.upsertErr[f.FECCandidateID]; err != nil {
		return 0, err
	}
	s.upserted = append(s.upserted, f)
	return s.upsertOutcome[f.FECCandidateID], nil
}

func (s *fakeStore) DeactivateMissing(_ context.Context, _ int64, stateID int64, seen []string, _ time.Time) (int, error) {
	if s.deactivateSeen == nil {
		s.deactivateSeen = make(map[int64][]string)
	}
	s.deactivateSeen[stateID] = seen
	return s.deactivateReturn[stateID], nil
}

func enabledAutomation() *models.AutomationConfig {
	return &models.AutomationConfig{
		SyncEnabled:      true,
		LookaheadDays:    60,
		LookbackDays:     30,
		MajorPartiesOnly: true,
		ActiveOnly:       true,
	}
}

func testManager(store *fakeStore, client *fakeClient, chambers ...string) *Manager {
	if len(chambers) == 0 {
		chambers = []string{"senate"}
	}
	cfg := &config.Config{
		FEC: config.FECConfig{APIKey: "test-key"},
		Sync: config.SyncConfig{
			RunTimeout:  time.Minute,
			StaleRunAge: 15 * time.Minute,
			Chambers:    chambers,
		},
	}
	m := NewManager(store, client, cfg)
	m.now = func() time.Time {
		return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	}
	m.rebuild = func(context.Context, string) error { return nil }
	return m
}

func TestRunDisabledLeavesNoLedgerRow(t *testing.T) {
	store := &fakeStore{auto: &models.AutomationConfig{SyncEnabled: false}}
	m := testManager(store, &fakeClient{})

	_, err := m.Run(context.Background(), models.SyncTypeManual)
	if !errors.Is(err, ErrSyncDisabled) {
		t.Fatalf("Run() = %v, want ErrSyncDisabled", err)
	}
	if store.createdRuns != 0 {
		t.Errorf("ledger rows created = %d, want 0 for a disabled run", store.createdRuns)
	}
}

func TestRunBlockedByLedgerRow(t *testing.T) {
	store := &fakeStore{
		auto:       enabledAutomation(),
		runningRow: &models.SyncRun{ID: 7, Status: models.SyncStatusRunning},
	}
	m := testManager(store, &fakeClient{})

	_, err := m.Run(context.Background(), models.SyncTypeManual)
	if !errors.Is(err, ErrSyncRunning) {
		t.Fatalf("Run() = %v, want ErrSyncRunning", err)
	}
	if store.createdRuns != 0 {
		t.Errorf("ledger rows created = %d, want 0 when another run holds the slot", store.createdRuns)
	}
}

func TestRunNoActiveCycle(t *testing.T) {
	store := &fakeStore{auto: enabledAutomation()}
	m := testManager(store, &fakeClient{})

	run, err := m.Run(context.Background(), models.SyncTypeManual)
	if err == nil {
		t.Fatal("Run() = nil error, want failure without an active cycle")
	}
	if run.Status != models.SyncStatusError {
		t.Errorf("status = %s, want error", run.Status)
	}
	if !strings.Contains(run.ErrorMessage, "no active election cycle") {
		t.Errorf("error message = %q, want mention of missing cycle", run.ErrorMessage)
	}
	if len(store.finalized) != 1 {
		t.Errorf("finalized runs = %d, want exactly 1", len(store.finalized))
	}
}

func TestRunEmptyWindowIsSuccessfulNoOp(t *testing.T) {
	store := &fakeStore{
		auto:  enabledAutomation(),
		cycle: &models.ElectionCycle{ID: 1, Year: 2026, IsActive: true},
	}
	client := &fakeClient{}
	m := testManager(store, client)

	run, err := m.Run(context.Background(), models.SyncTypeManual)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if run.Status != models.SyncStatusSuccess {
		t.Errorf("status = %s, want success", run.Status)
	}
	if run.Details.Message == "" {
		t.Error("details message empty, want a no-op explanation")
	}
	if run.APIRequests != 0 || client.RequestCount() != 0 {
		t.Errorf("api requests = %d/%d, want 0 for an empty window", run.APIRequests, client.RequestCount())
	}
	if run.Created+run.Updated+run.Deactivated != 0 {
		t.Errorf("counters = %d/%d/%d, want all zero", run.Created, run.Updated, run.Deactivated)
	}
	if run.Details.WindowStart != "2026-02-13" || run.Details.WindowEnd != "2026-05-14" {
		t.Errorf("window = %s..%s, want 2026-02-13..2026-05-14", run.Details.WindowStart, run.Details.WindowEnd)
	}
}

func TestRunReconcilesState(t *testing.T) {
	store := &fakeStore{
		auto:      enabledAutomation(),
		cycle:     &models.ElectionCycle{ID: 1, Year: 2026, IsActive: true},
		primaries: []models.StatePrimary{{StateID: 43, StateCode: "TX"}},
		upsertOutcome: map[string]database.UpsertOutcome{
			"S6TX00001": database.UpsertCreated,
			"S6TX00003": database.UpsertUpdated,
			"H6TX07001": database.UpsertCreated,
		},
		deactivateReturn: map[int64]int{43: 2},
	}
	store.auto.MinFundsRaised = 1000
	store.auto.RebuildHookURL = "https://hooks.example.net/build"

	client := &fakeClient{
		results: map[string][]fecmodels.Candidate{
			"TX/S": {
				{CandidateID: "S6TX00001", Name: "ALLRED, COLIN", Party: "DEM", Office: "S"},
				{CandidateID: "S6TX00002", Name: "CRUZ, RAFAEL EDWARD \"TED\"", Party: "REP", Office: "S", IncumbentChallenge: "I"},
				{CandidateID: "S6TX00003", Name: "GARZA, ANA", Party: "", Office: "S"},
				{CandidateID: "S6TX00004", Name: "GREEN, GARY", Party: "GRE", Office: "S"},
			},
			"TX/H": {
				// Duplicate id from the senate page: first occurrence wins
				{CandidateID: "S6TX00001", Name: "ALLRED, COLIN", Party: "DEM", Office: "S"},
				{CandidateID: "H6TX07001", Name: "DOE, JANE", Party: "DEM", Office: "H", District: "07"},
			},
		},
		totals: map[string]*fecmodels.Totals{
			"S6TX00001": {Receipts: 5000, Disbursements: 1200, LastCashOnHandEndPeriod: 3800},
			"S6TX00003": {Receipts: 2000},
			"H6TX07001": {Receipts: 1500},
		},
		// Totals failure degrades to zero financials, which the funds
		// floor then drops
		totalsErr: map[string]error{
			"S6TX00002": errors.New("upstream 502"),
		},
	}

	var rebuilt []string
	m := testManager(store, client, "senate", "house")
	m.rebuild = func(_ context.Context, url string) error {
		rebuilt = append(rebuilt, url)
		return nil
	}

	run, err := m.Run(context.Background(), models.SyncTypeManual)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if run.Status != models.SyncStatusSuccess {
		t.Errorf("status = %s, want success (row errors: %v)", run.Status, run.Details.Errors)
	}
	if run.Created != 2 || run.Updated != 1 || run.Deactivated != 2 {
		t.Errorf("counters = %d/%d/%d, want 2/1/2", run.Created, run.Updated, run.Deactivated)
	}
	if len(run.StatesSynced) != 1 || run.StatesSynced[0] != "TX" {
		t.Errorf("states synced = %v, want [TX]", run.StatesSynced)
	}

	// 2 searches + 4 totals (the Green filing never reaches the totals
	// fetch)
	if run.APIRequests != 6 {
		t.Errorf("api requests = %d, want 6", run.APIRequests)
	}

	// The deactivation sweep sees every deduped API id, including the
	// filtered and below-floor ones: only disappearance deactivates
	wantSeen := []string{"S6TX00001", "S6TX00002", "S6TX00003", "S6TX00004", "H6TX07001"}
	if got := store.deactivateSeen[43]; fmt.Sprint(got) != fmt.Sprint(wantSeen) {
		t.Errorf("deactivation seen set = %v, want %v", got, wantSeen)
	}

	byID := make(map[string]*models.StagedFiling)
	for _, f := range store.upserted {
		byID[f.FECCandidateID] = f
	}
	if len(byID) != 3 {
		t.Fatalf("persisted filings = %v, want 3", store.upserted)
	}

	allred := byID["S6TX00001"]
	if allred.FirstName != "Colin" || allred.LastName != "Allred" {
		t.Errorf("name = %s %s, want Colin Allred", allred.FirstName, allred.LastName)
	}
	if allred.Party != models.PartyDemocrat || allred.Chamber != models.ChamberSenate {
		t.Errorf("party/chamber = %s/%s, want Democrat/senate", allred.Party, allred.Chamber)
	}
	if allred.Raised != 5000 || allred.CashOnHand != 3800 {
		t.Errorf("financials = %v/%v, want 5000/3800", allred.Raised, allred.CashOnHand)
	}
	if allred.DistrictNumber != nil {
		t.Error("senate filing should have nil district number")
	}

	// Empty raw party passes the major-parties filter
	if byID["S6TX00003"] == nil {
		t.Error("empty-party filing was dropped by the major-parties filter")
	}
	// Below the funds floor after a failed totals fetch
	if byID["S6TX00002"] != nil {
		t.Error("filing below the funds floor was persisted")
	}
	// Non-major party filtered
	if byID["S6TX00004"] != nil {
		t.Error("Green filing persisted despite major-parties filter")
	}

	doe := byID["H6TX07001"]
	if doe.Chamber != models.ChamberHouse || doe.DistrictNumber == nil || *doe.DistrictNumber != 7 {
		t.Errorf("house filing = %s district %v, want house district 7", doe.Chamber, doe.DistrictNumber)
	}

	if !run.TriggeredRebuild || len(rebuilt) != 1 || rebuilt[0] != store.auto.RebuildHookURL {
		t.Errorf("rebuild = %v (%v), want one trigger of the configured hook", run.TriggeredRebuild, rebuilt)
	}
}

func TestRunPartialOnStateFailure(t *testing.T) {
	store := &fakeStore{
		auto:  enabledAutomation(),
		cycle: &models.ElectionCycle{ID: 1, Year: 2026, IsActive: true},
		primaries: []models.StatePrimary{
			{StateID: 43, StateCode: "TX"},
			{StateID: 35, StateCode: "OH"},
			{StateID: 5, StateCode: "CA"},
		},
	}
	client := &fakeClient{
		results: map[string][]fecmodels.Candidate{
			"TX/S": {{CandidateID: "S6TX00001", Name: "ALLRED, COLIN", Party: "DEM", Office: "S"}},
			"CA/S": {{CandidateID: "S6CA00001", Name: "SMITH, PAT", Party: "REP", Office: "S"}},
		},
		searchErr: map[string]error{"OH": errors.New("openfec returned status 503")},
	}
	m := testManager(store, client)

	run, err := m.Run(context.Background(), models.SyncTypeManual)
	if err != nil {
		t.Fatalf("Run() error: %v (partial runs should not error)", err)
	}
	if run.Status != models.SyncStatusPartial {
		t.Errorf("status = %s, want partial", run.Status)
	}
	if fmt.Sprint(run.StatesSynced) != fmt.Sprint([]string{"TX", "CA"}) {
		t.Errorf("states synced = %v, want [TX CA]", run.StatesSynced)
	}
	if len(run.Details.Errors) != 1 || !strings.Contains(run.Details.Errors[0], "OH") {
		t.Errorf("errors = %v, want single error naming OH", run.Details.Errors)
	}
	if !strings.Contains(run.ErrorMessage, "OH") {
		t.Errorf("error message = %q, want first error surfaced", run.ErrorMessage)
	}
}

func TestRunErrorWhenAllStatesFail(t *testing.T) {
	store := &fakeStore{
		auto:      enabledAutomation(),
		cycle:     &models.ElectionCycle{ID: 1, Year: 2026, IsActive: true},
		primaries: []models.StatePrimary{{StateID: 43, StateCode: "TX"}},
	}
	client := &fakeClient{
		searchErr: map[string]error{"TX": errors.New("connection refused")},
	}
	m := testManager(store, client)

	run, err := m.Run(context.Background(), models.SyncTypeManual)
	if err == nil {
		t.Fatal("Run() = nil error, want failure when every state fails")
	}
	if run.Status != models.SyncStatusError {
		t.Errorf("status = %s, want error", run.Status)
	}
	if len(run.StatesSynced) != 0 {
		t.Errorf("states synced = %v, want none", run.StatesSynced)
	}
}

func TestRunRebuildFailureIsNonFatal(t *testing.T) {
	store := &fakeStore{
		auto:      enabledAutomation(),
		cycle:     &models.ElectionCycle{ID: 1, Year: 2026, IsActive: true},
		primaries: []models.StatePrimary{{StateID: 43, StateCode: "TX"}},
		upsertOutcome: map[string]database.UpsertOutcome{
			"S6TX00001": database.UpsertCreated,
		},
	}
	store.auto.RebuildHookURL = "https://hooks.example.net/build"
	client := &fakeClient{
		results: map[string][]fecmodels.Candidate{
			"TX/S": {{CandidateID: "S6TX00001", Name: "ALLRED, COLIN", Party: "DEM", Office: "S"}},
		},
	}
	m := testManager(store, client)
	m.rebuild = func(context.Context, string) error {
		return errors.New("hook returned status 500")
	}

	run, err := m.Run(context.Background(), models.SyncTypeManual)
	if err != nil {
		t.Fatalf("Run() error: %v (rebuild failures must not fail the run)", err)
	}
	if run.Status != models.SyncStatusSuccess {
		t.Errorf("status = %s, want success", run.Status)
	}
	if run.TriggeredRebuild {
		t.Error("TriggeredRebuild = true, want false after a failed hook")
	}
	if len(run.Details.Errors) == 0 {
		t.Error("rebuild failure should be recorded in run details")
	}
}

func TestRunSkipsRebuildWhenNothingChanged(t *testing.T) {
	store := &fakeStore{
		auto:      enabledAutomation(),
		cycle:     &models.ElectionCycle{ID: 1, Year: 2026, IsActive: true},
		primaries: []models.StatePrimary{{StateID: 43, StateCode: "TX"}},
	}
	store.auto.RebuildHookURL = "https://hooks.example.net/build"
	client := &fakeClient{} // no candidates anywhere

	called := false
	m := testManager(store, client)
	m.rebuild = func(context.Context, string) error {
		called = true
		return nil
	}

	run, err := m.Run(context.Background(), models.SyncTypeManual)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if called || run.TriggeredRebuild {
		t.Error("rebuild hook fired with zero created/updated/deactivated")
	}
}

func TestDeactivationKeyedOnAPIPresence(t *testing.T) {
	// A candidate the source still reports must stay in the sweep's seen
	// set even when the funds floor or a transient upsert error kept this
	// run from persisting it; only absence from the response deactivates.
	store := &fakeStore{
		auto:      enabledAutomation(),
		cycle:     &models.ElectionCycle{ID: 1, Year: 2026, IsActive: true},
		primaries: []models.StatePrimary{{StateID: 43, StateCode: "TX"}},
		upsertOutcome: map[string]database.UpsertOutcome{
			"S6TX00001": database.UpsertUpdated,
		},
		upsertErr: map[string]error{
			"S6TX00003": errors.New("database locked"),
		},
		// Simulates one previously staged filing absent from the response
		deactivateReturn: map[int64]int{43: 1},
	}
	store.auto.MinFundsRaised = 5000

	client := &fakeClient{
		results: map[string][]fecmodels.Candidate{
			"TX/S": {
				{CandidateID: "S6TX00001", Name: "ALLRED, COLIN", Party: "DEM", Office: "S"},
				{CandidateID: "S6TX00002", Name: "CRUZ, RAFAEL EDWARD \"TED\"", Party: "REP", Office: "S"},
				{CandidateID: "S6TX00003", Name: "GARZA, ANA", Party: "DEM", Office: "S"},
			},
		},
		totals: map[string]*fecmodels.Totals{
			"S6TX00001": {Receipts: 10000},
			"S6TX00002": {Receipts: 2000}, // below the floor, still reported
			"S6TX00003": {Receipts: 8000},
		},
	}
	m := testManager(store, client)

	run, err := m.Run(context.Background(), models.SyncTypeManual)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	wantSeen := []string{"S6TX00001", "S6TX00002", "S6TX00003"}
	if got := store.deactivateSeen[43]; fmt.Sprint(got) != fmt.Sprint(wantSeen) {
		t.Errorf("deactivation seen set = %v, want %v", got, wantSeen)
	}
	if run.Deactivated != 1 {
		t.Errorf("deactivated = %d, want 1 (the absent filing)", run.Deactivated)
	}
	for _, f := range store.upserted {
		if f.FECCandidateID == "S6TX00002" {
			t.Error("filing below the funds floor was persisted")
		}
	}
}

func TestRunPartialJoinsStateErrors(t *testing.T) {
	store := &fakeStore{
		auto:  enabledAutomation(),
		cycle: &models.ElectionCycle{ID: 1, Year: 2026, IsActive: true},
		primaries: []models.StatePrimary{
			{StateID: 43, StateCode: "TX"},
			{StateID: 35, StateCode: "OH"},
			{StateID: 5, StateCode: "CA"},
		},
	}
	client := &fakeClient{
		results: map[string][]fecmodels.Candidate{
			"TX/S": {{CandidateID: "S6TX00001", Name: "ALLRED, COLIN", Party: "DEM", Office: "S"}},
		},
		searchErr: map[string]error{
			"OH": errors.New("openfec returned status 503"),
			"CA": errors.New("connection refused"),
		},
	}
	m := testManager(store, client)

	run, err := m.Run(context.Background(), models.SyncTypeManual)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if run.Status != models.SyncStatusPartial {
		t.Errorf("status = %s, want partial", run.Status)
	}
	if !strings.Contains(run.ErrorMessage, "OH") || !strings.Contains(run.ErrorMessage, "CA") {
		t.Errorf("error message = %q, want every failed state's error joined in", run.ErrorMessage)
	}
	if !strings.Contains(run.ErrorMessage, "; ") {
		t.Errorf("error message = %q, want errors separated with %q", run.ErrorMessage, "; ")
	}
}

func TestRunMissingAPIKeyFailsFast(t *testing.T) {
	store := &fakeStore{
		auto:      enabledAutomation(),
		cycle:     &models.ElectionCycle{ID: 1, Year: 2026, IsActive: true},
		primaries: []models.StatePrimary{{StateID: 43, StateCode: "TX"}},
	}
	client := &fakeClient{}
	m := testManager(store, client)
	m.cfg.FEC.APIKey = ""

	_, err := m.Run(context.Background(), models.SyncTypeManual)
	if !errors.Is(err, fec.ErrMissingAPIKey) {
		t.Fatalf("Run() = %v, want ErrMissingAPIKey", err)
	}
	if store.createdRuns != 0 {
		t.Errorf("ledger rows created = %d, want 0 for a configuration error", store.createdRuns)
	}
	if client.RequestCount() != 0 {
		t.Errorf("api requests = %d, want 0 before the key check", client.RequestCount())
	}
}
