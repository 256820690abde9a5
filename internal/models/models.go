// Ticketwatch - Ticket Inventory Tracking and Sales Analytics
// Copyright 2026 The Ticketwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ticketwatch/ticketwatch

// Package models defines the core data structures shared across the
// Ticketwatch engine, database, and API layers.
package models

import (
	"strings"
	"time"
)

// TicketSale records a single seat whose availability changed.
// A row exists for every seat ever observed sold; the Released flag
// flips when the seat returns to inventory. (seat, match_id) is unique,
// so re-observing a sale updates the existing row instead of creating
// a duplicate.
type TicketSale struct {
	ID        int64     `json:"id"`
	Seat      string    `json:"seat"`
	Section   string    `json:"section"`
	MatchID   string    `json:"matchId"`
	Released  bool      `json:"released"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MatchStats is an append-only point-in-time reading of remaining
// inventory for a match. Rows are never updated; the time series they
// form drives the sales-over-time view.
type MatchStats struct {
	ID                 string    `json:"id"`
	MatchID            string    `json:"matchId"`
	TicketsLeft        int       `json:"ticketsLeft"`
	TicketsLeftPremium int       `json:"ticketsLeftPremium"`
	RecordedAt         time.Time `json:"recordedAt"`
}

// InventoryDelta is the outcome of diffing a fresh inventory fetch
// against the previous snapshot for one match.
type InventoryDelta struct {
	MatchID  string   `json:"matchId"`
	Sold     []string `json:"sold"`
	Released []string `json:"released"`

	// Total and Premium are the counts persisted as MatchStats
	// alongside the delta.
	Total   int `json:"total"`
	Premium int `json:"premium"`
}

// Changed reports whether the delta contains any sold or released seats.
func (d *InventoryDelta) Changed() bool {
	return len(d.Sold) > 0 || len(d.Released) > 0
}

// SectionOf extracts the section component from a canonical seat
// identifier. The section is the leading token before the first
// underscore: "132_Rangee-EE_Siege-12" yields "132". Identifiers
// without an underscore are their own section.
func SectionOf(seatID string) string {
	if i := strings.IndexByte(seatID, '_'); i >= 0 {
		return seatID[:i]
	}
	return seatID
}

// SaleEvent is the payload published when seats are sold or released.
type SaleEvent struct {
	MatchID    string    `json:"matchId"`
	Seat       string    `json:"seat"`
	Section    string    `json:"section"`
	Released   bool      `json:"released"`
	ObservedAt time.Time `json:"observedAt"`
}
