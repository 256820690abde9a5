// Ticketwatch - Ticket Inventory Tracking and Sales Analytics
// Copyright 2026 The Ticketwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ticketwatch/ticketwatch

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateVendor(); err != nil {
		return err
	}

	if err := c.validatePoll(); err != nil {
		return err
	}

	if err := c.validateMatches(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateEvents(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateVendor() error {
	if c.Vendor.BaseURL == "" {
		return fmt.Errorf("VENDOR_BASE_URL is required")
	}
	if err := validateHTTPURL(c.Vendor.BaseURL, "VENDOR_BASE_URL"); err != nil {
		return err
	}
	if c.Vendor.Timeout <= 0 {
		return fmt.Errorf("VENDOR_TIMEOUT must be positive, got %v", c.Vendor.Timeout)
	}
	if c.Vendor.RetryAttempts < 0 {
		return fmt.Errorf("VENDOR_RETRY_ATTEMPTS must not be negative, got %d", c.Vendor.RetryAttempts)
	}
	if c.Vendor.RateLimit <= 0 {
		return fmt.Errorf("VENDOR_RATE_LIMIT must be positive, got %v", c.Vendor.RateLimit)
	}
	return nil
}

func (c *Config) validatePoll() error {
	if c.Poll.Interval < 10*time.Second {
		return fmt.Errorf("POLL_INTERVAL must be at least 10s, got %v", c.Poll.Interval)
	}
	return nil
}

func (c *Config) validateMatches() error {
	if len(c.Matches) == 0 {
		return fmt.Errorf("at least one match must be configured (set MATCH_ID and VENUE_ID, or a matches list in the config file)")
	}

	seen := make(map[string]bool, len(c.Matches))
	for i, m := range c.Matches {
		if m.MatchID == "" {
			return fmt.Errorf("matches[%d]: match_id is required", i)
		}
		if seen[m.MatchID] {
			return fmt.Errorf("matches[%d]: duplicate match_id %q", i, m.MatchID)
		}
		seen[m.MatchID] = true

		if m.VenueID == "" {
			return fmt.Errorf("matches[%d] (%s): venue_id is required", i, m.MatchID)
		}
		if _, err := uuid.Parse(m.VenueID); err != nil {
			return fmt.Errorf("matches[%d] (%s): venue_id must be a UUID: %w", i, m.MatchID, err)
		}
		if m.Interval != 0 && m.Interval < 10*time.Second {
			return fmt.Errorf("matches[%d] (%s): interval must be at least 10s, got %v", i, m.MatchID, m.Interval)
		}
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH must not be empty")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative, got %d", c.Database.Threads)
	}
	return nil
}

func (c *Config) validateEvents() error {
	if !c.Events.Enabled {
		return nil
	}
	if c.Events.URL == "" {
		return fmt.Errorf("NATS_URL is required when EVENTS_ENABLED=true")
	}
	if c.Events.Topic == "" {
		return fmt.Errorf("EVENTS_TOPIC must not be empty when EVENTS_ENABLED=true")
	}
	if c.Events.EmbeddedServer && c.Events.StoreDir == "" {
		return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED=true")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace/debug/info/warn/error/fatal, got %q", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// validateHTTPURL checks that a URL is parseable and uses http or https.
func validateHTTPURL(raw, name string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", name, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host", name)
	}
	return nil
}
