// Ticketwatch - Ticket Inventory Tracking and Sales Analytics
// Copyright 2026 The Ticketwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ticketwatch/ticketwatch

// Package adapter normalizes venue-specific inventory payloads into a
// canonical list of seat identifiers.
//
// The vendor's payload shape has changed across venue configuration
// versions, so parsing is versioned: each schema registers an Adapter
// factory under its name, and matches select a schema in configuration.
// Physical seats keep their vendor identifiers; GA sections reported
// only as counts are expanded into synthesized {section}_{index} slots
// so the downstream diff treats both kinds uniformly.
package adapter

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ticketwatch/ticketwatch/internal/config"
	"github.com/ticketwatch/ticketwatch/internal/vendor"
)

// ErrSkipCycle signals that the vendor reported no inventory payload
// (sold out or event closed). The cycle must leave the snapshot and
// stats untouched; this is not an error condition.
var ErrSkipCycle = errors.New("no inventory payload, cycle skipped")

// ParseError reports a payload that decoded as JSON but does not match
// the schema the adapter expects.
type ParseError struct {
	Schema string
	Path   string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed %s payload at %s: %v", e.Schema, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Adapter converts one raw vendor response into the canonical seat
// identifier list for a match. Output must be deterministic for a given
// input so synthesized GA indices stay consistent within a cycle.
type Adapter interface {
	// Normalize returns the currently available seat identifiers, or
	// ErrSkipCycle when the payload carries no result.
	Normalize(resp *vendor.InventoryResponse) ([]string, error)
}

// factory builds an Adapter bound to one match's configuration.
type factory func(match config.MatchConfig) Adapter

var registry = map[string]factory{}

// register adds a schema to the registry. Called from schema file init
// functions; not safe for concurrent use after startup.
func register(name string, f factory) {
	registry[name] = f
}

// New resolves the adapter for the match's configured schema.
func New(match config.MatchConfig) (Adapter, error) {
	f, ok := registry[match.Schema]
	if !ok {
		return nil, fmt.Errorf("unknown adapter schema %q for match %s", match.Schema, match.MatchID)
	}
	return f(match), nil
}

// Schemas returns the registered schema names, sorted.
func Schemas() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// canonicalSection normalizes a vendor section name: spaces become
// underscores, then the match's alias map is applied.
func canonicalSection(name string, aliases map[string]string) string {
	s := strings.ReplaceAll(name, " ", "_")
	if alias, ok := aliases[s]; ok {
		return alias
	}
	return s
}

// synthesizeGA expands a GA count into {section}_{0..count-1} slot
// identifiers. Indices are rebuilt from the live count every cycle, so
// slot-level attribution across cycles is approximate by design.
func synthesizeGA(section string, count int) []string {
	if count <= 0 {
		return nil
	}
	slots := make([]string, count)
	for i := 0; i < count; i++ {
		slots[i] = fmt.Sprintf("%s_%d", section, i)
	}
	return slots
}

// sortedKeys returns map keys in sorted order. Go map iteration is
// randomized, and Normalize output must be deterministic.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
