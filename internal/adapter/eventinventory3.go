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
	register("eventinventory3", func(match config.MatchConfig) Adapter {
		return &inventoryV3{match: match}
	})
}

// inventoryV3 parses the current vendor payload: named buckets under
// result.primary, each with per-section physical seats and GA count
// objects grouped by price level.
type inventoryV3 struct {
	match config.MatchConfig
}

func (a *inventoryV3) Normalize(resp *vendor.InventoryResponse) ([]string, error) {
	if !resp.HasResult() {
		return nil, ErrSkipCycle
	}

	var result vendor.ResultV3
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, &ParseError{Schema: "eventinventory3", Path: "result", Err: err}
	}

	buckets := a.match.Buckets
	if len(buckets) == 0 {
		buckets = sortedKeys(result.Primary)
	}

	var seats []string
	for _, bucketName := range buckets {
		bucket, ok := result.Primary[bucketName]
		if !ok {
			// Configured buckets come and go as the vendor opens and
			// closes price tiers; an absent bucket holds no seats.
			continue
		}

		for _, section := range sortedKeys(bucket.Seats) {
			seats = append(seats, bucket.Seats[section]...)
		}

		for _, section := range sortedKeys(bucket.GASeats) {
			count := firstGACount(bucket.GASeats[section])
			canonical := canonicalSection(section, a.match.SectionAliases)
			seats = append(seats, synthesizeGA(canonical, count)...)
		}
	}

	return seats, nil
}

// firstGACount extracts the live count from a GA count object. The
// vendor nests the count under a price-level key and the first value is
// the one that tracks availability; the remaining entries are grouping
// artifacts. Keys are sorted to keep the pick deterministic.
func firstGACount(levels map[string]int) int {
	keys := sortedKeys(levels)
	if len(keys) == 0 {
		return 0
	}
	return levels[keys[0]]
}
