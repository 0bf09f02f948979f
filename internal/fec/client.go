// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

// Package fec implements the OpenFEC API client: paginated candidate
// search, per-candidate financial totals, and a connectivity probe. A
// circuit breaker wrapper (circuit_breaker.go) guards the sync path
// against a degraded upstream.
package fec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/ballotscope/ballotscope/internal/config"
	"github.com/ballotscope/ballotscope/internal/logging"
	"github.com/ballotscope/ballotscope/internal/metrics"
	fecmodels "github.com/ballotscope/ballotscope/internal/models/fec"
)

// maxErrorBodySize limits how much of an error response body is read for
// diagnostics.
const maxErrorBodySize = 64 * 1024

// ErrMissingAPIKey is returned when a request is attempted without a
// configured API key.
var ErrMissingAPIKey = errors.New("fec: api key not configured")

// SearchParams are the pass-through filters for candidate search. Office is
// the FEC office code ("S" or "H").
type SearchParams struct {
	Cycle          int
	Office         string
	State          string
	ActiveOnly     bool
	HasRaisedFunds bool
}

// ConnectionStatus is the result of the connectivity probe.
type ConnectionStatus struct {
	OK         bool
	TotalCount int
	Error      string
}

// ClientInterface abstracts the OpenFEC client so the sync manager and API
// handlers can be tested against fakes, and so the circuit breaker wrapper
// is a drop-in replacement.
type ClientInterface interface {
	SearchCandidates(ctx context.Context, params SearchParams) ([]fecmodels.Candidate, error)
	GetFinancialTotals(ctx context.Context, candidateID string, cycle int) (*fecmodels.Totals, error)
	TestConnection(ctx context.Context, cycle int) (*ConnectionStatus, error)
	RequestCount() int64
}

// Client is the concrete OpenFEC HTTP client. Request pacing honors the
// 1000 req/hour api.data.gov budget via a token bucket; every request
// increments an atomic counter the sync ledger snapshots for rate-limit
// accounting.
type Client struct {
	baseURL  string
	apiKey   string
	pageSize int
	client   *http.Client
	limiter  *rate.Limiter
	requests atomic.Int64
}

// NewClient creates an OpenFEC client from configuration.
func NewClient(cfg *config.FECConfig) *Client {
	perSecond := rate.Limit(float64(cfg.RequestsPerHour) / 3600.0)
	return &Client{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		pageSize: cfg.PageSize,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		// Burst sized for one full pagination loop without throttling
		limiter: rate.NewLimiter(perSecond, 30),
	}
}

// RequestCount returns the total number of HTTP requests issued by this
// client since creation.
func (c *Client) RequestCount() int64 {
	return c.requests.Load()
}

// SearchCandidates fetches all candidates matching the filters, following
// pagination until every page is consumed.
func (c *Client) SearchCandidates(ctx context.Context, params SearchParams) ([]fecmodels.Candidate, error) {
	query := url.Values{}
	query.Set("cycle", strconv.Itoa(params.Cycle))
	query.Set("office", params.Office)
	query.Set("per_page", strconv.Itoa(c.pageSize))
	query.Set("sort", "name")
	if params.State != "" {
		query.Set("state", params.State)
	}
	if params.ActiveOnly {
		query.Set("is_active_candidate", "true")
	}
	if params.HasRaisedFunds {
		query.Set("has_raised_funds", "true")
	}

	var all []fecmodels.Candidate
	page := 1
	for {
		query.Set("page", strconv.Itoa(page))

		var resp fecmodels.CandidateListResponse
		if err := c.get(ctx, "/candidates/", query, &resp); err != nil {
			return nil, fmt.Errorf("search candidates page %d: %w", page, err)
		}

		all = append(all, resp.Results...)

		if page >= resp.Pagination.Pages || len(resp.Results) == 0 {
			break
		}
		page++
	}

	logging.Ctx(ctx).Debug().
		Str("state", params.State).
		Str("office", params.Office).
		Int("cycle", params.Cycle).
		Int("candidates", len(all)).
		Int("pages", page).
		Msg("Fetched candidates from OpenFEC")

	return all, nil
}

// GetFinancialTotals fetches the financial summary for one candidate and
// cycle. A response with no results returns (nil, nil): financial data for
// new candidates legitimately does not exist yet.
func (c *Client) GetFinancialTotals(ctx context.Context, candidateID string, cycle int) (*fecmodels.Totals, error) {
	query := url.Values{}
	query.Set("cycle", strconv.Itoa(cycle))

	var resp fecmodels.TotalsResponse
	path := fmt.Sprintf("/candidate/%s/totals/", url.PathEscape(candidateID))
	if err := c.get(ctx, path, query, &resp); err != nil {
		return nil, fmt.Errorf("financial totals for %s: %w", candidateID, err)
	}

	if len(resp.Results) == 0 {
		return nil, nil
	}
	return &resp.Results[0], nil
}

// TestConnection issues a single cheap probe (per_page=1) used to validate
// a credential before a larger run. A failing probe is reported in the
// status, not as an error return.
func (c *Client) TestConnection(ctx context.Context, cycle int) (*ConnectionStatus, error) {
	query := url.Values{}
	query.Set("cycle", strconv.Itoa(cycle))
	query.Set("per_page", "1")

	var resp fecmodels.CandidateListResponse
	if err := c.get(ctx, "/candidates/", query, &resp); err != nil {
		return &ConnectionStatus{OK: false, Error: err.Error()}, nil
	}

	return &ConnectionStatus{
		OK:         true,
		TotalCount: resp.Pagination.Count,
	}, nil
}

// get issues one authenticated GET request and decodes the JSON response
// into result. It waits on the rate limiter, increments the request
// counter, and records request metrics keyed by endpoint path.
func (c *Client) get(ctx context.Context, path string, query url.Values, result interface{}) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("api_key", c.apiKey)

	reqURL := c.baseURL + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	c.requests.Add(1)

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordFECRequest(path, "network_error", time.Since(start))
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	metrics.RecordFECRequest(path, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := readBodyForError(resp.Body)
		return fmt.Errorf("openfec returned status %d for %s: %s", resp.StatusCode, path, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response from %s: %w", path, err)
	}

	return nil
}

// readBodyForError reads a bounded prefix of a response body for inclusion
// in error messages.
func readBodyForError(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil || len(body) == 0 {
		return "<no body>"
	}
	return string(body)
}
