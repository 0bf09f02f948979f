// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks configuration consistency. It is called by Load() after
// all layers are applied; a missing FEC API key is intentionally NOT a
// validation error here (the server can run in read-only mode), the sync
// manager rejects runs without a key at trigger time instead.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}

	if c.FEC.BaseURL == "" {
		return fmt.Errorf("fec.base_url must not be empty")
	}
	if u, err := url.Parse(c.FEC.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("fec.base_url is not a valid URL: %q", c.FEC.BaseURL)
	}
	if c.FEC.PageSize < 1 || c.FEC.PageSize > 100 {
		return fmt.Errorf("fec.page_size must be between 1 and 100, got %d", c.FEC.PageSize)
	}
	if c.FEC.RequestsPerHour < 1 {
		return fmt.Errorf("fec.requests_per_hour must be positive, got %d", c.FEC.RequestsPerHour)
	}
	if c.FEC.Timeout <= 0 {
		return fmt.Errorf("fec.timeout must be positive, got %s", c.FEC.Timeout)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}

	if c.Sync.Interval < 0 {
		return fmt.Errorf("sync.interval must not be negative, got %s", c.Sync.Interval)
	}
	if c.Sync.RunTimeout <= 0 {
		return fmt.Errorf("sync.run_timeout must be positive, got %s", c.Sync.RunTimeout)
	}
	if c.Sync.StaleRunAge <= 0 {
		return fmt.Errorf("sync.stale_run_age must be positive, got %s", c.Sync.StaleRunAge)
	}
	if len(c.Sync.Chambers) == 0 {
		return fmt.Errorf("sync.chambers must name at least one chamber")
	}
	for _, chamber := range c.Sync.Chambers {
		switch strings.ToLower(chamber) {
		case "senate", "house":
		default:
			return fmt.Errorf("sync.chambers contains unknown chamber %q (want senate or house)", chamber)
		}
	}

	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("security.rate_limit_reqs must be positive, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("security.rate_limit_window must be positive, got %s", c.Security.RateLimitWindow)
	}

	return nil
}
