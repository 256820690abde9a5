// Ticketwatch - Ticket Inventory Tracking and Sales Analytics
// Copyright 2026 The Ticketwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ticketwatch/ticketwatch

package config

import (
	"time"
)

// Config holds all application configuration loaded from environment
// variables and an optional YAML config file.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any setting
//
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Vendor   VendorConfig   `koanf:"vendor"`
	Poll     PollConfig     `koanf:"poll"`
	Matches  []MatchConfig  `koanf:"matches"`
	Database DatabaseConfig `koanf:"database"`
	Snapshot SnapshotConfig `koanf:"snapshot"`
	Events   EventsConfig   `koanf:"events"`
	Server   ServerConfig   `koanf:"server"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// VendorConfig holds the connection settings for the vendor inventory API.
//
// Environment Variables:
//   - VENDOR_BASE_URL: Base URL of the vendor JSON-RPC endpoint (required)
//   - VENDOR_REFERER: Referer header sent with each request
//   - VENDOR_TIMEOUT: Per-request HTTP timeout (default: 30s)
//   - VENDOR_RETRY_ATTEMPTS: Retries per fetch before giving up (default: 3)
//   - VENDOR_RETRY_DELAY: Base delay for exponential backoff (default: 2s)
//   - VENDOR_RATE_LIMIT: Max requests per second across all matches (default: 2)
type VendorConfig struct {
	// BaseURL is the vendor endpoint up to and including the RPC method,
	// e.g. https://billets.example.com/proxy.cls
	BaseURL string `koanf:"base_url"`

	// Referer is sent with every request. Some vendor gateways reject
	// requests without a storefront referer.
	Referer string `koanf:"referer"`

	// UserAgent overrides the default browser-like user agent.
	UserAgent string `koanf:"user_agent"`

	Timeout       time.Duration `koanf:"timeout"`
	RetryAttempts int           `koanf:"retry_attempts"`
	RetryDelay    time.Duration `koanf:"retry_delay"`

	// RateLimit is the maximum request rate (requests/second) shared by
	// all match pollers. Burst allows short spikes above the rate.
	RateLimit float64 `koanf:"rate_limit"`
	Burst     int     `koanf:"burst"`

	// CircuitBreaker guards the vendor endpoint against sustained failure.
	CircuitBreakerEnabled bool `koanf:"circuit_breaker_enabled"`
}

// PollConfig controls the per-match polling loop.
//
// Environment Variables:
//   - POLL_INTERVAL: Time between inventory polls per match (default: 2m)
//   - POLL_INITIAL_DELAY: Delay before the first poll after startup (default: 0)
//   - MATCH_ID / VENUE_ID: Shorthand for a single-match deployment; appended
//     to the matches list when both are set.
type PollConfig struct {
	Interval     time.Duration `koanf:"interval"`
	InitialDelay time.Duration `koanf:"initial_delay"`

	// MatchID and VenueID configure a single match without a config file.
	// Multi-match deployments use the matches list in YAML instead.
	MatchID string `koanf:"match_id"`
	VenueID string `koanf:"venue_id"`
	Schema  string `koanf:"schema"`
}

// MatchConfig identifies one match to poll.
type MatchConfig struct {
	// MatchID is the vendor's event identifier, e.g. CFM2221IND.
	MatchID string `koanf:"match_id"`

	// VenueID is the vendor's venue UUID.
	VenueID string `koanf:"venue_id"`

	// Schema selects the payload adapter. Defaults to eventinventory3.
	Schema string `koanf:"schema"`

	// Interval overrides poll.interval for this match when non-zero.
	Interval time.Duration `koanf:"interval"`

	// Buckets names the inventory buckets to collect seats from.
	// Empty means all buckets in the payload.
	Buckets []string `koanf:"buckets"`

	// SectionAliases maps vendor section names to canonical ones,
	// applied after space normalization.
	SectionAliases map[string]string `koanf:"section_aliases"`

	// PremiumSection is the GA subsection counted separately in stats,
	// e.g. 132_Supporters.
	PremiumSection string `koanf:"premium_section"`
}

// DatabaseConfig holds DuckDB settings.
//
// Environment Variables:
//   - DUCKDB_PATH: Database file path (default: /data/ticketwatch.duckdb)
//   - DUCKDB_MAX_MEMORY: DuckDB memory limit (default: 1GB)
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = use runtime.NumCPU()
}

// SnapshotConfig holds the Badger snapshot store settings.
//
// Environment Variables:
//   - SNAPSHOT_PATH: Badger directory (default: /data/snapshots)
//   - SNAPSHOT_IN_MEMORY: Use an in-memory store, snapshots lost on restart
type SnapshotConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// EventsConfig holds the optional NATS JetStream event publishing settings.
//
// Environment Variables:
//   - EVENTS_ENABLED: Enable sale/release event publishing (default: false)
//   - NATS_URL: NATS server URL (default: nats://127.0.0.1:4222)
//   - NATS_EMBEDDED: Run an embedded NATS server (default: true when enabled)
type EventsConfig struct {
	Enabled        bool   `koanf:"enabled"`
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	Topic          string `koanf:"topic"`
	StatsTopic     string `koanf:"stats_topic"`
}

// ServerConfig holds the HTTP API server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// APIConfig holds API behavior settings.
type APIConfig struct {
	DefaultPageSize   int           `koanf:"default_page_size"`
	MaxPageSize       int           `koanf:"max_page_size"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // json, console
	Caller bool   `koanf:"caller"`
}

// IntervalFor returns the effective poll interval for a match,
// falling back to the global poll interval.
func (c *Config) IntervalFor(m MatchConfig) time.Duration {
	if m.Interval > 0 {
		return m.Interval
	}
	return c.Poll.Interval
}
