// Ticketwatch - Ticket Inventory Tracking and Sales Analytics
// Copyright 2026 The Ticketwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ticketwatch/ticketwatch

package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"

	"github.com/ticketwatch/ticketwatch/internal/logging"
	"github.com/ticketwatch/ticketwatch/internal/metrics"
)

// BadgerStore is the durable snapshot store. Snapshots survive process
// restarts so a redeploy does not replay the full inventory as sales.
// Values are JSON arrays of seat identifiers, no TTL.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a Badger-backed snapshot store at
// path. An empty path with inMemory=true keeps everything in RAM.
func NewBadgerStore(path string, inMemory bool) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).
		WithInMemory(inMemory).
		WithLogger(nil) // badger's own logger is noisy; errors surface via returns

	if inMemory {
		opts = opts.WithDir("").WithValueDir("")
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}

	logging.Info().Str("path", path).Bool("in_memory", inMemory).Msg("Snapshot store opened")
	return &BadgerStore{db: db}, nil
}

// Get returns the last committed inventory for a match. A match with no
// snapshot yet yields an empty slice and nil error.
func (s *BadgerStore) Get(_ context.Context, matchID string) ([]string, error) {
	var seats []string

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(matchID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get snapshot: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &seats)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot read for match %s: %w", matchID, err)
	}

	return seats, nil
}

// Set overwrites the snapshot for a match.
func (s *BadgerStore) Set(_ context.Context, matchID string, seats []string) error {
	data, err := json.Marshal(seats)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(matchID), data)
	})
	if err != nil {
		return fmt.Errorf("snapshot write for match %s: %w", matchID, err)
	}

	metrics.SnapshotSize.WithLabelValues(matchID).Set(float64(len(seats)))
	return nil
}

// Close flushes and closes the underlying Badger database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
