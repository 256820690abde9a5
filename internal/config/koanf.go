// Ticketwatch - Ticket Inventory Tracking and Sales Analytics
// Copyright 2026 The Ticketwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ticketwatch/ticketwatch

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/ticketwatch/config.yaml",
	"/etc/ticketwatch/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultSchema is the payload adapter used when a match does not name one.
const DefaultSchema = "eventinventory3"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Vendor: VendorConfig{
			BaseURL:               "",
			Referer:               "",
			UserAgent:             "",
			Timeout:               30 * time.Second,
			RetryAttempts:         3,
			RetryDelay:            2 * time.Second,
			RateLimit:             2,
			Burst:                 2,
			CircuitBreakerEnabled: true,
		},
		Poll: PollConfig{
			Interval:     2 * time.Minute,
			InitialDelay: 0,
			Schema:       DefaultSchema,
		},
		Matches: nil,
		Database: DatabaseConfig{
			Path:      "/data/ticketwatch.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = use runtime.NumCPU()
		},
		Snapshot: SnapshotConfig{
			Path:     "/data/snapshots",
			InMemory: false,
		},
		Events: EventsConfig{
			Enabled:        false,
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			StoreDir:       "/data/nats/jetstream",
			Topic:          "tickets",
			StatsTopic:     "tickets.stats",
		},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    3000,
			Timeout: 30 * time.Second,
		},
		API: APIConfig{
			DefaultPageSize:   50,
			MaxPageSize:       500,
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// Precedence: ENV > File > Defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// Transform environment variable names to koanf paths:
	// VENDOR_BASE_URL -> vendor.base_url
	// POLL_INTERVAL   -> poll.interval
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyDefaults normalizes the match list after unmarshaling. The
// MATCH_ID/VENUE_ID shorthand becomes a matches entry, and matches
// without a schema inherit the poll default.
func (c *Config) applyDefaults() {
	if c.Poll.MatchID != "" && c.Poll.VenueID != "" {
		c.Matches = append(c.Matches, MatchConfig{
			MatchID: c.Poll.MatchID,
			VenueID: c.Poll.VenueID,
			Schema:  c.Poll.Schema,
		})
	}

	for i := range c.Matches {
		if c.Matches[i].Schema == "" {
			c.Matches[i].Schema = c.Poll.Schema
		}
		if c.Matches[i].Schema == "" {
			c.Matches[i].Schema = DefaultSchema
		}
	}
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as
// comma-separated slices when set via environment variables.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML file)
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config
// paths. Unmapped variables are dropped so stray environment variables do
// not pollute the config.
//
// Examples:
//   - VENDOR_BASE_URL -> vendor.base_url
//   - POLL_INTERVAL -> poll.interval
//   - DUCKDB_PATH -> database.path
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Vendor mappings
		"vendor_base_url":        "vendor.base_url",
		"vendor_referer":         "vendor.referer",
		"vendor_user_agent":      "vendor.user_agent",
		"vendor_timeout":         "vendor.timeout",
		"vendor_retry_attempts":  "vendor.retry_attempts",
		"vendor_retry_delay":     "vendor.retry_delay",
		"vendor_rate_limit":      "vendor.rate_limit",
		"vendor_burst":           "vendor.burst",
		"vendor_circuit_breaker": "vendor.circuit_breaker_enabled",

		// Poll mappings
		"poll_interval":      "poll.interval",
		"poll_initial_delay": "poll.initial_delay",
		"poll_schema":        "poll.schema",
		"match_id":           "poll.match_id",
		"venue_id":           "poll.venue_id",

		// Database mappings
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		// Snapshot mappings
		"snapshot_path":      "snapshot.path",
		"snapshot_in_memory": "snapshot.in_memory",

		// Events mappings
		"events_enabled":     "events.enabled",
		"nats_url":           "events.url",
		"nats_embedded":      "events.embedded_server",
		"nats_store_dir":     "events.store_dir",
		"events_topic":       "events.topic",
		"stats_events_topic": "events.stats_topic",

		// Server mappings
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",

		// API mappings
		"api_default_page_size": "api.default_page_size",
		"api_max_page_size":     "api.max_page_size",
		"rate_limit_requests":   "api.rate_limit_reqs",
		"rate_limit_window":     "api.rate_limit_window",
		"disable_rate_limit":    "api.rate_limit_disabled",
		"cors_origins":          "api.cors_origins",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// Unmapped keys are skipped
	return ""
}
