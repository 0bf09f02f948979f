// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

package fec

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/ballotscope/ballotscope/internal/logging"
	"github.com/ballotscope/ballotscope/internal/metrics"
	fecmodels "github.com/ballotscope/ballotscope/internal/models/fec"
)

// CircuitBreakerClient wraps a Client with the circuit breaker pattern to
// prevent cascading failures when the OpenFEC API is unavailable or slow.
//
// The breaker uses real time for its interval and timeout calculations;
// unit tests should exercise the wrapped client directly.
type CircuitBreakerClient struct {
	client ClientInterface
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewCircuitBreakerClient wraps client with a circuit breaker:
// max 3 concurrent requests in half-open state, 1 minute measurement
// window, 2 minute recovery timeout, opens at >=60% failure rate over at
// least 10 requests.
func NewCircuitBreakerClient(client ClientInterface) *CircuitBreakerClient {
	cbName := "openfec-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &CircuitBreakerClient{
		client: client,
		cb:     cb,
		name:   cbName,
	}
}

// execute wraps one OpenFEC call with circuit breaker protection.
func (cbc *CircuitBreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := cbc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	return result, nil
}

// castResult safely type-casts the circuit breaker result.
func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// SearchCandidates delegates through the circuit breaker.
func (cbc *CircuitBreakerClient) SearchCandidates(ctx context.Context, params SearchParams) ([]fecmodels.Candidate, error) {
	result, err := cbc.execute(func() (interface{}, error) {
		return cbc.client.SearchCandidates(ctx, params)
	})
	if err != nil {
		return nil, err
	}
	candidates, ok := result.([]fecmodels.Candidate)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return candidates, nil
}

// GetFinancialTotals delegates through the circuit breaker. A nil totals
// result (no financial data yet) passes through untouched.
func (cbc *CircuitBreakerClient) GetFinancialTotals(ctx context.Context, candidateID string, cycle int) (*fecmodels.Totals, error) {
	result, err := cbc.execute(func() (interface{}, error) {
		return cbc.client.GetFinancialTotals(ctx, candidateID, cycle)
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	if totals, ok := result.(*fecmodels.Totals); ok {
		return totals, nil
	}
	return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
}

// TestConnection delegates through the circuit breaker.
func (cbc *CircuitBreakerClient) TestConnection(ctx context.Context, cycle int) (*ConnectionStatus, error) {
	result, err := cbc.execute(func() (interface{}, error) {
		return cbc.client.TestConnection(ctx, cycle)
	})
	return castResult[ConnectionStatus](result, err)
}

// RequestCount exposes the wrapped client's request counter.
func (cbc *CircuitBreakerClient) RequestCount() int64 {
	return cbc.client.RequestCount()
}

// stateToString converts a gobreaker state to its label value.
func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// stateToFloat converts a gobreaker state to its gauge value.
func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
