// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

// Package fec contains the OpenFEC API wire types. Fields mirror the
// api.open.fec.gov JSON schema; only the fields this service consumes are
// declared.
package fec

// Pagination is the envelope pagination block returned by every list
// endpoint. Clients loop while page < pages.
type Pagination struct {
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	PerPage int `json:"per_page"`
	Count   int `json:"count"`
}

// CandidateListResponse is the /v1/candidates/ response envelope.
type CandidateListResponse struct {
	Results    []Candidate `json:"results"`
	Pagination Pagination  `json:"pagination"`
}

// Candidate is one raw candidate record from OpenFEC. Name arrives as
// "LAST, FIRST MIDDLE" and is normalized downstream; no local identity is
// kept, the record is re-fetched each run.
type Candidate struct {
	CandidateID        string `json:"candidate_id"`
	Name               string `json:"name"`
	Party              string `json:"party"`
	PartyFull          string `json:"party_full"`
	State              string `json:"state"`
	Office             string `json:"office"`
	District           string `json:"district"`
	IncumbentChallenge string `json:"incumbent_challenge"`
	CandidateStatus    string `json:"candidate_status"`
	Cycles             []int  `json:"cycles"`
}

// Incumbent reports whether OpenFEC flags this candidate as the incumbent
// ("I"; challengers are "C", open seats "O").
func (c *Candidate) Incumbent() bool {
	return c.IncumbentChallenge == "I"
}

// TotalsResponse is the /v1/candidate/{id}/totals/ response envelope.
// An empty Results slice is legitimate for new candidates with no
// financial reports yet.
type TotalsResponse struct {
	Results    []Totals   `json:"results"`
	Pagination Pagination `json:"pagination"`
}

// Totals is one financial summary row for a candidate and cycle.
type Totals struct {
	Receipts                float64 `json:"receipts"`
	Disbursements           float64 `json:"disbursements"`
	LastCashOnHandEndPeriod float64 `json:"last_cash_on_hand_end_period"`
	CoverageStartDate       string  `json:"coverage_start_date,omitempty"`
	CoverageEndDate         string  `json:"coverage_end_date,omitempty"`
}
