// Ticketwatch - Ticket Inventory Tracking and Sales Analytics
// Copyright 2026 The Ticketwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ticketwatch/ticketwatch

package adapter

import (
	json "github.com/goccy/go-json"

	"github.com/ticketwatch/ticketwatch/internal/config"
	"github.com/ticketwatch/ticketwatch/internal/vendor"
)

func init() {
	register("eventinventory2", func(match config.MatchConfig) Adapter {
		return &inventoryV2{match: match}
	})
}

// inventoryV2 parses the older flat payload shape still served for
// matches pinned to a previous venue configuration: a single seats list
// and a plain section-to-count GA map.
type inventoryV2 struct {
	match config.MatchConfig
}

func (a *inventoryV2) Normalize(resp *vendor.InventoryResponse) ([]string, error) {
	if !resp.HasResult() {
		return nil, ErrSkipCycle
	}

	var result vendor.ResultV2
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, &ParseError{Schema: "eventinventory2", Path: "result", Err: err}
	}

	seats := make([]string, 0, len(result.Seats))
	seats = append(seats, result.Seats...)

	for _, section := range sortedKeys(result.GACounts) {
		canonical := canonicalSection(section, a.match.SectionAliases)
		seats = append(seats, synthesizeGA(canonical, result.GACounts[section])...)
	}

	return seats, nil
}
