// Ticketwatch - Ticket Inventory Tracking and Sales Analytics
// Copyright 2026 The Ticketwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ticketwatch/ticketwatch

package snapshot

import (
	"context"
	"sync"
)

// MemoryStore is an in-process snapshot store for tests. Snapshots do
// not survive restarts.
type MemoryStore struct {
	mu    sync.RWMutex
	seats map[string][]string
}

// NewMemoryStore creates an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seats: make(map[string][]string)}
}

func (s *MemoryStore) Get(_ context.Context, matchID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.seats[matchID]
	if !ok {
		return []string{}, nil
	}

	out := make([]string, len(stored))
	copy(out, stored)
	return out, nil
}

func (s *MemoryStore) Set(_ context.Context, matchID string, seats []string) error {
	stored := make([]string, len(seats))
	copy(stored, seats)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seats[matchID] = stored
	return nil
}

func (s *MemoryStore) Close() error { return nil }
