// Ticketwatch - Ticket Inventory Tracking and Sales Analytics
// Copyright 2026 The Ticketwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ticketwatch/ticketwatch

/*
engine.go - Inventory Reconciliation Engine

Diffs each freshly normalized inventory against the last committed
snapshot and persists the outcome. Order of operations per cycle:

 1. Load the previous snapshot (missing snapshot = empty baseline).
 2. Equal counts mean no change: refresh the snapshot to absorb
    synthesized GA index churn, write nothing else.
 3. Unequal counts: sold = previous - current, released = current - previous.
 4. Upsert a sale row per sold seat (released=false).
 5. Upsert a sale row per released seat (released=true).
 6. Append one match_stats row.
 7. Commit the new snapshot.

Steps 4-6 are one logical unit: any persistence failure aborts the cycle
before step 7 so the next cycle recomputes the same diff against the old
baseline instead of silently advancing past lost writes. Change detection
is by count delta, not set equality; an equal-count swap of seats is
invisible. That trade-off is long-standing observed behavior the
dashboard depends on, so it is kept and tested rather than fixed.

Event publishing happens only after the snapshot commit and is
best-effort; a publish failure is logged and never fails the cycle.
*/
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ticketwatch/ticketwatch/internal/config"
	"github.com/ticketwatch/ticketwatch/internal/events"
	"github.com/ticketwatch/ticketwatch/internal/logging"
	"github.com/ticketwatch/ticketwatch/internal/metrics"
	"github.com/ticketwatch/ticketwatch/internal/models"
	"github.com/ticketwatch/ticketwatch/internal/snapshot"
)

// SaleStore is the persistence contract the engine writes through.
// database.DB implements it.
type SaleStore interface {
	UpsertTicketSale(ctx context.Context, seat, matchID string, released bool) error
	InsertMatchStats(ctx context.Context, matchID string, ticketsLeft, ticketsLeftPremium int) error
}

// Outcome summarizes one reconcile call.
type Outcome struct {
	Changed            bool
	Sold               []string
	Released           []string
	TicketsLeft        int
	TicketsLeftPremium int
}

// Reconciler owns the diff-and-persist cycle for all matches.
type Reconciler struct {
	snapshots snapshot.Store
	sales     SaleStore
	publisher events.Publisher
}

// NewReconciler creates a reconciler. A nil publisher disables event
// publishing.
func NewReconciler(snapshots snapshot.Store, sales SaleStore, publisher events.Publisher) *Reconciler {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Reconciler{
		snapshots: snapshots,
		sales:     sales,
		publisher: publisher,
	}
}

// Reconcile diffs current against the stored snapshot for the match,
// persists sale/release rows and a stats row when the count changed,
// and commits the new snapshot last.
func (r *Reconciler) Reconcile(ctx context.Context, match config.MatchConfig, current []string) (*Outcome, error) {
	previous, err := r.snapshots.Get(ctx, match.MatchID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot for %s: %w", match.MatchID, err)
	}

	outcome := &Outcome{
		TicketsLeft:        len(current),
		TicketsLeftPremium: premiumCount(current, match.PremiumSection),
	}

	// Count delta is the change trigger. Equal counts refresh the
	// snapshot (synthesized GA indices churn between polls) and write
	// nothing else.
	if len(previous) == len(current) {
		if err := r.snapshots.Set(ctx, match.MatchID, current); err != nil {
			return nil, fmt.Errorf("refresh snapshot for %s: %w", match.MatchID, err)
		}
		return outcome, nil
	}

	outcome.Changed = true
	outcome.Sold = diff(previous, current)
	outcome.Released = diff(current, previous)

	for _, seat := range outcome.Sold {
		if err := r.sales.UpsertTicketSale(ctx, seat, match.MatchID, false); err != nil {
			return nil, fmt.Errorf("persist sale of %s for %s: %w", seat, match.MatchID, err)
		}
	}
	for _, seat := range outcome.Released {
		if err := r.sales.UpsertTicketSale(ctx, seat, match.MatchID, true); err != nil {
			return nil, fmt.Errorf("persist release of %s for %s: %w", seat, match.MatchID, err)
		}
	}

	if err := r.sales.InsertMatchStats(ctx, match.MatchID, outcome.TicketsLeft, outcome.TicketsLeftPremium); err != nil {
		return nil, fmt.Errorf("persist stats for %s: %w", match.MatchID, err)
	}

	// Snapshot advances only after all persistence succeeded.
	if err := r.snapshots.Set(ctx, match.MatchID, current); err != nil {
		return nil, fmt.Errorf("commit snapshot for %s: %w", match.MatchID, err)
	}

	metrics.TicketsSoldTotal.WithLabelValues(match.MatchID).Add(float64(len(outcome.Sold)))
	metrics.TicketsReleasedTotal.WithLabelValues(match.MatchID).Add(float64(len(outcome.Released)))

	logging.Info().
		Str("match_id", match.MatchID).
		Int("sold", len(outcome.Sold)).
		Int("released", len(outcome.Released)).
		Int("tickets_left", outcome.TicketsLeft).
		Msg("Inventory change committed")

	r.publishEvents(ctx, match.MatchID, outcome)

	return outcome, nil
}

// publishEvents hands the committed delta to the publisher. Failures
// are logged only; persistence is the source of truth.
func (r *Reconciler) publishEvents(ctx context.Context, matchID string, outcome *Outcome) {
	now := time.Now().UTC()

	emit := func(seat string, released bool) {
		ev := models.SaleEvent{
			MatchID:    matchID,
			Seat:       seat,
			Section:    models.SectionOf(seat),
			Released:   released,
			ObservedAt: now,
		}
		if err := r.publisher.PublishSale(ctx, ev); err != nil {
			logging.Warn().Err(err).Str("match_id", matchID).Str("seat", seat).Msg("Sale event publish failed")
		}
	}

	for _, seat := range outcome.Sold {
		emit(seat, false)
	}
	for _, seat := range outcome.Released {
		emit(seat, true)
	}

	stats := models.MatchStats{
		MatchID:            matchID,
		TicketsLeft:        outcome.TicketsLeft,
		TicketsLeftPremium: outcome.TicketsLeftPremium,
		RecordedAt:         now,
	}
	if err := r.publisher.PublishStats(ctx, stats); err != nil {
		logging.Warn().Err(err).Str("match_id", matchID).Msg("Stats event publish failed")
	}
}

// diff returns the elements of a not present in b, preserving a's order.
func diff(a, b []string) []string {
	inB := make(map[string]struct{}, len(b))
	for _, s := range b {
		inB[s] = struct{}{}
	}

	var out []string
	for _, s := range a {
		if _, ok := inB[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}

// premiumCount counts identifiers in the configured premium subsection.
// GA slots carry the subsection as a prefix ("132_Supporters_4"), so
// matching is by prefix, not by the leading section token.
func premiumCount(seats []string, premiumSection string) int {
	if premiumSection == "" {
		return 0
	}

	prefix := premiumSection + "_"
	count := 0
	for _, seat := range seats {
		if seat == premiumSection || strings.HasPrefix(seat, prefix) {
			count++
		}
	}
	return count
}
