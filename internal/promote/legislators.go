// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

package promote

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/ballotscope/ballotscope/internal/logging"
)

// DefaultLegislatorsURL is the unitedstates/congress-legislators dataset
// of current members, which carries FEC ids alongside official websites.
const DefaultLegislatorsURL = "https://unitedstates.github.io/congress-legislators/legislators-current.json"

// legislatorsCacheTTL bounds how long one dataset download is reused.
const legislatorsCacheTTL = 24 * time.Hour

// legislatorRecord is the subset of the dataset schema this service reads.
type legislatorRecord struct {
	ID struct {
		FEC []string `json:"fec"`
	} `json:"id"`
	Terms []struct {
		Type string `json:"type"`
		URL  string `json:"url"`
	} `json:"terms"`
}

// HTTPDirectory implements Directory against the congress-legislators
// dataset. The full file is downloaded once, indexed by FEC candidate id,
// and cached for the TTL; individual lookups never hit the network.
type HTTPDirectory struct {
	url    string
	client *http.Client
	now    func() time.Time

	mu        sync.Mutex
	cache     map[string]Legislator
	fetchedAt time.Time
}

// NewHTTPDirectory creates a directory backed by the given dataset URL.
// An empty url selects DefaultLegislatorsURL.
func NewHTTPDirectory(url string) *HTTPDirectory {
	if url == "" {
		url = DefaultLegislatorsURL
	}
	return &HTTPDirectory{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
		now:    time.Now,
	}
}

// Lookup returns the directory record for a sitting legislator, or
// (nil, nil) when the FEC id does not belong to one.
func (d *HTTPDirectory) Lookup(ctx context.Context, fecCandidateID string) (*Legislator, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cache == nil || d.now().Sub(d.fetchedAt) > legislatorsCacheTTL {
		if err := d.refreshLocked(ctx); err != nil {
			return nil, err
		}
	}

	leg, ok := d.cache[fecCandidateID]
	if !ok {
		return nil, nil
	}
	return &leg, nil
}

// refreshLocked downloads and re-indexes the dataset. Caller holds d.mu.
func (d *HTTPDirectory) refreshLocked(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return fmt.Errorf("create legislators request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch legislators dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("legislators dataset returned status %d", resp.StatusCode)
	}

	var records []legislatorRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return fmt.Errorf("decode legislators dataset: %w", err)
	}

	cache := make(map[string]Legislator, len(records))
	for _, rec := range records {
		if len(rec.Terms) == 0 {
			continue
		}
		// The last term is the current one in this dataset.
		term := rec.Terms[len(rec.Terms)-1]

		leg := Legislator{Website: term.URL}
		switch term.Type {
		case "sen":
			leg.RoleTitle = "U.S. Senator"
		case "rep":
			leg.RoleTitle = "U.S. Representative"
		}

		for _, fecID := range rec.ID.FEC {
			cache[fecID] = leg
		}
	}

	d.cache = cache
	d.fetchedAt = d.now()
	logging.Ctx(ctx).Debug().
		Int("legislators", len(records)).
		Int("fec_ids", len(cache)).
		Msg("Refreshed legislator directory")
	return nil
}
