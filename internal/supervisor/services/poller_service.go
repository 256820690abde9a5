// Ticketwatch - Ticket Inventory Tracking and Sales Analytics
// Copyright 2026 The Ticketwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ticketwatch/ticketwatch

package services

import (
	"context"
	"fmt"
)

// Poller matches the scheduler's Start/Stop lifecycle.
type Poller interface {
	Start(ctx context.Context) error
	Stop()
}

// PollerService runs the match scheduler under supervision. The
// scheduler manages its own goroutines; this wrapper only translates
// its lifecycle into suture's blocking Serve.
type PollerService struct {
	poller Poller
}

// NewPollerService wraps the scheduler as a supervised service.
func NewPollerService(poller Poller) *PollerService {
	return &PollerService{poller: poller}
}

// Serve implements suture.Service: start the pollers, block until the
// context is canceled, then stop them and wait for in-flight cycles.
func (p *PollerService) Serve(ctx context.Context) error {
	if err := p.poller.Start(ctx); err != nil {
		return fmt.Errorf("start pollers: %w", err)
	}

	<-ctx.Done()
	p.poller.Stop()
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor log messages.
func (p *PollerService) String() string {
	return "match-pollers"
}
