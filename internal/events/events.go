// Ticketwatch - Ticket Inventory Tracking and Sales Analytics
// Copyright 2026 The Ticketwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ticketwatch/ticketwatch

// Package events publishes sale/release notifications over NATS
// JetStream. Publishing is best-effort: the database is the source of
// truth, and the reconciliation engine never fails a cycle on a publish
// error. Disabled deployments use the Noop publisher.
package events

import (
	"context"

	"github.com/ticketwatch/ticketwatch/internal/models"
)

// Publisher is the event sink the reconciliation engine hands committed
// changes to.
type Publisher interface {
	// PublishSale publishes one seat sale or release.
	PublishSale(ctx context.Context, event models.SaleEvent) error

	// PublishStats publishes a committed per-cycle stats row.
	PublishStats(ctx context.Context, stats models.MatchStats) error

	Close() error
}

// Noop discards all events. Used when event publishing is disabled.
type Noop struct{}

func (Noop) PublishSale(context.Context, models.SaleEvent) error   { return nil }
func (Noop) PublishStats(context.Context, models.MatchStats) error { return nil }
func (Noop) Close() error                                          { return nil }

// saleTopic derives the subject for a sale event from the configured
// base topic: {base}.sold or {base}.released.
func saleTopic(base string, released bool) string {
	if released {
		return base + ".released"
	}
	return base + ".sold"
}
