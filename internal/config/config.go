// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

// Package config loads service-level configuration with Koanf v2 layering:
// built-in defaults, then an optional YAML config file, then environment
// variables. The operator-tunable sync policy (window bounds, funds floor,
// party filter, webhook secret) lives in the database as AutomationConfig
// and is NOT part of this package — it is read fresh at the start of every
// sync run.
package config

import (
	"time"
)

// Config holds all service configuration. Immutable after Load() and safe
// for concurrent reads.
type Config struct {
	FEC      FECConfig      `koanf:"fec"`
	Database DatabaseConfig `koanf:"database"`
	Sync     SyncConfig     `koanf:"sync"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// FECConfig holds OpenFEC API client settings.
//
// Environment Variables:
//   - FEC_API_KEY: api.data.gov key (required for sync to run)
//   - FEC_BASE_URL: API base URL (default: https://api.open.fec.gov/v1)
//   - FEC_TIMEOUT: per-request HTTP timeout
//   - FEC_PAGE_SIZE: candidates page size, 1-100
//   - FEC_REQUESTS_PER_HOUR: client-side budget matching the API key quota
type FECConfig struct {
	BaseURL         string        `koanf:"base_url"`
	APIKey          string        `koanf:"api_key"`
	Timeout         time.Duration `koanf:"timeout"`
	PageSize        int           `koanf:"page_size"`
	RequestsPerHour int           `koanf:"requests_per_hour"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path to the DuckDB database file. ":memory:" for an in-memory store.
	Path string `koanf:"path"`

	// MaxMemory limits DuckDB memory usage (e.g. "1GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads for DuckDB query execution. 0 = DuckDB default.
	Threads int `koanf:"threads"`
}

// SyncConfig holds sync scheduling settings. The inbound webhook is the
// primary trigger; the internal ticker is opt-in.
type SyncConfig struct {
	// Interval between automatic sync runs. 0 disables the internal
	// scheduler entirely (webhook-only operation, the default).
	Interval time.Duration `koanf:"interval"`

	// RunTimeout is the overall deadline for a single sync run. A run
	// exceeding it is finalized as "error" in the ledger.
	RunTimeout time.Duration `koanf:"run_timeout"`

	// StaleRunAge is the watchdog window for the overlapping-run guard: a
	// ledger row still "running" after this long is considered abandoned
	// and no longer blocks new runs.
	StaleRunAge time.Duration `koanf:"stale_run_age"`

	// Chambers to sync: "senate", "house", or both.
	Chambers []string `koanf:"chambers"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// SecurityConfig holds inbound rate limiting and CORS settings.
type SecurityConfig struct {
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load loads, layers and validates the configuration.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
