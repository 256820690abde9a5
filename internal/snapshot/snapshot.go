// Ticketwatch - Ticket Inventory Tracking and Sales Analytics
// Copyright 2026 The Ticketwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ticketwatch/ticketwatch

// Package snapshot stores the last fully-reconciled inventory per match.
// The snapshot is the diff baseline for the next poll cycle and is only
// advanced by the reconciliation engine after persistence succeeds.
package snapshot

import (
	"context"
)

// Store holds the most recently committed seat inventory per match.
//
// Get returns an empty slice and nil error for a match with no snapshot
// yet; the engine treats that as an empty baseline, not a failure.
// Only one writer per match exists at a time (one poller per match), so
// last-write-wins semantics are sufficient.
type Store interface {
	Get(ctx context.Context, matchID string) ([]string, error)
	Set(ctx context.Context, matchID string, seats []string) error
	Close() error
}

// key builds the store key for a match. The allSeats prefix keeps
// snapshots distinct from any future key families in the same store.
func key(matchID string) []byte {
	return []byte("allSeats:" + matchID)
}
