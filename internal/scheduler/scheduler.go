// Ticketwatch - Ticket Inventory Tracking and Sales Analytics
// Copyright 2026 The Ticketwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ticketwatch/ticketwatch

// Package scheduler drives the poll cycles: one recurring poller per
// configured match, each running fetch -> normalize -> reconcile on its
// own interval. Cycles for one match never overlap (an atomic in-flight
// flag skips ticks while the previous cycle runs), and every cycle
// error is logged, counted, and contained to that cycle.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ticketwatch/ticketwatch/internal/adapter"
	"github.com/ticketwatch/ticketwatch/internal/config"
	"github.com/ticketwatch/ticketwatch/internal/engine"
	"github.com/ticketwatch/ticketwatch/internal/logging"
	"github.com/ticketwatch/ticketwatch/internal/metrics"
	"github.com/ticketwatch/ticketwatch/internal/vendor"
)

// Reconciler is the engine contract the scheduler drives.
// engine.Reconciler implements it.
type Reconciler interface {
	Reconcile(ctx context.Context, match config.MatchConfig, current []string) (*engine.Outcome, error)
}

// Scheduler owns one poller per tracked match.
type Scheduler struct {
	pollers []*matchPoller

	started atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New builds a scheduler from the configured matches. Adapter schemas
// are resolved here so a misconfigured match fails at startup, not on
// the first tick.
func New(cfg *config.Config, fetcher vendor.Fetcher, reconciler Reconciler) (*Scheduler, error) {
	pollers := make([]*matchPoller, 0, len(cfg.Matches))
	for _, match := range cfg.Matches {
		a, err := adapter.New(match)
		if err != nil {
			return nil, fmt.Errorf("build poller for %s: %w", match.MatchID, err)
		}

		pollers = append(pollers, &matchPoller{
			match:        match,
			interval:     cfg.IntervalFor(match),
			initialDelay: cfg.Poll.InitialDelay,
			adapter:      a,
			fetcher:      fetcher,
			reconciler:   reconciler,
		})
	}

	return &Scheduler{pollers: pollers}, nil
}

// Start launches all match pollers. Calling Start twice is an error;
// the poller set must never be duplicated.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("scheduler already started")
	}

	ctx, s.cancel = context.WithCancel(ctx)

	for _, p := range s.pollers {
		s.wg.Add(1)
		go func(p *matchPoller) {
			defer s.wg.Done()
			p.run(ctx)
		}(p)
	}

	logging.Info().Int("matches", len(s.pollers)).Msg("Scheduler started")
	return nil
}

// Stop cancels all pollers and waits for in-flight cycles to finish.
// The scheduler can be started again afterwards, which supervision
// relies on across restarts.
func (s *Scheduler) Stop() {
	if !s.started.Load() || s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.started.Store(false)
	logging.Info().Msg("Scheduler stopped")
}

// matchPoller runs the recurring cycle for one match.
type matchPoller struct {
	match        config.MatchConfig
	interval     time.Duration
	initialDelay time.Duration
	adapter      adapter.Adapter
	fetcher      vendor.Fetcher
	reconciler   Reconciler

	inFlight atomic.Bool
	cycles   sync.WaitGroup
}

func (p *matchPoller) run(ctx context.Context) {
	// A cycle spawned from a tick can outlive the ticker loop; run must
	// not return to the scheduler until it has finished, or shutdown
	// would close the stores under it.
	defer p.cycles.Wait()

	if p.initialDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.initialDelay):
		}
	}

	logging.Info().
		Str("match_id", p.match.MatchID).
		Dur("interval", p.interval).
		Str("schema", p.match.Schema).
		Msg("Match poller started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Initial poll so a fresh process observes inventory immediately.
	p.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.cycles.Add(1)
			go func() {
				defer p.cycles.Done()
				p.poll(ctx)
			}()
		}
	}
}

// poll runs one cycle unless the previous one is still in flight.
func (p *matchPoller) poll(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		metrics.CyclesSkippedInFlight.WithLabelValues(p.match.MatchID).Inc()
		logging.Warn().Str("match_id", p.match.MatchID).Msg("Previous cycle still running, tick skipped")
		return
	}
	defer p.inFlight.Store(false)

	start := time.Now()
	result := p.cycle(ctx)
	metrics.RecordCycle(p.match.MatchID, result, time.Since(start))
}

// cycle executes fetch -> normalize -> reconcile once and classifies
// the outcome. All errors are handled here; nothing propagates to the
// ticker loop.
func (p *matchPoller) cycle(ctx context.Context) (result string) {
	// Adapter field access on a hostile payload must not kill the
	// poller; a panic is a malformed-payload skip.
	defer func() {
		if r := recover(); r != nil {
			logging.Error().
				Str("match_id", p.match.MatchID).
				Interface("panic", r).
				Msg("Cycle panicked, treating as malformed payload")
			result = metrics.CycleResultParseError
		}
	}()

	resp, err := p.fetcher.FetchInventory(ctx, p.match)
	if err != nil {
		logging.Error().Err(err).Str("match_id", p.match.MatchID).Msg("Inventory fetch failed, cycle skipped")
		return metrics.CycleResultFetchError
	}

	current, err := p.adapter.Normalize(resp)
	if err != nil {
		if errors.Is(err, adapter.ErrSkipCycle) {
			logging.Debug().Str("match_id", p.match.MatchID).Msg("No inventory payload, cycle skipped")
			return metrics.CycleResultSkipped
		}

		var pe *adapter.ParseError
		if errors.As(err, &pe) {
			logging.Error().Err(err).Str("match_id", p.match.MatchID).Msg("Malformed inventory payload, cycle skipped")
			return metrics.CycleResultParseError
		}

		logging.Error().Err(err).Str("match_id", p.match.MatchID).Msg("Normalize failed, cycle skipped")
		return metrics.CycleResultParseError
	}

	outcome, err := p.reconciler.Reconcile(ctx, p.match, current)
	if err != nil {
		logging.Error().Err(err).Str("match_id", p.match.MatchID).Msg("Reconcile failed, snapshot not advanced")
		return metrics.CycleResultPersistError
	}

	if outcome.Changed {
		return metrics.CycleResultChanged
	}
	return metrics.CycleResultUnchanged
}
