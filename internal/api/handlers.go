// Ticketwatch - Ticket Inventory Tracking and Sales Analytics
// Copyright 2026 The Ticketwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ticketwatch/ticketwatch

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ticketwatch/ticketwatch/internal/config"
	"github.com/ticketwatch/ticketwatch/internal/database"
	"github.com/ticketwatch/ticketwatch/internal/models"
)

// Store is the read side of the database the handlers serve from.
// database.DB implements it.
type Store interface {
	GetTicketSales(ctx context.Context, matchID string, releasedFilter *bool, limit, offset int) ([]models.TicketSale, error)
	CountTicketSales(ctx context.Context, matchID string, releasedFilter *bool) (int, error)
	GetLatestMatchStats(ctx context.Context, matchID string) (*models.MatchStats, error)
	GetMatchStats(ctx context.Context, matchID string) ([]models.MatchStats, error)
	Ping(ctx context.Context) error
}

// Handler serves the read-only inventory API.
type Handler struct {
	cfg   *config.Config
	store Store
}

// NewHandler creates an API handler.
func NewHandler(cfg *config.Config, store Store) *Handler {
	return &Handler{cfg: cfg, store: store}
}

// matchInfo is the public view of a configured match.
type matchInfo struct {
	MatchID  string `json:"match_id"`
	VenueID  string `json:"venue_id"`
	Schema   string `json:"schema"`
	Interval string `json:"interval"`
}

// Matches returns the configured matches.
//
// GET /api/v1/matches
func (h *Handler) Matches(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	matches := make([]matchInfo, 0, len(h.cfg.Matches))
	for _, m := range h.cfg.Matches {
		matches = append(matches, matchInfo{
			MatchID:  m.MatchID,
			VenueID:  m.VenueID,
			Schema:   m.Schema,
			Interval: h.cfg.IntervalFor(m).String(),
		})
	}

	rw.Success(matches)
}

// Tickets returns the recorded sale rows for a match, newest first.
// The released query parameter filters by state: "false" (the default)
// shows sold seats, "true" shows released seats, "all" shows both.
//
// GET /api/v1/matches/{matchID}/tickets
func (h *Handler) Tickets(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	matchID := chi.URLParam(r, "matchID")
	if !h.knownMatch(matchID) {
		rw.NotFound("unknown match: " + matchID)
		return
	}

	var releasedFilter *bool
	switch r.URL.Query().Get("released") {
	case "", "false":
		f := false
		releasedFilter = &f
	case "true":
		f := true
		releasedFilter = &f
	case "all":
		releasedFilter = nil
	default:
		rw.BadRequest("released must be true, false, or all")
		return
	}

	limit, offset, err := h.pagination(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	total, err := h.store.CountTicketSales(r.Context(), matchID, releasedFilter)
	if err != nil {
		rw.DatabaseError("failed to count ticket sales")
		return
	}

	sales, err := h.store.GetTicketSales(r.Context(), matchID, releasedFilter, limit, offset)
	if err != nil {
		rw.DatabaseError("failed to query ticket sales")
		return
	}

	rw.SuccessWithPagination(sales, &PaginationMeta{
		Total:   total,
		Count:   len(sales),
		Offset:  offset,
		Limit:   limit,
		HasMore: offset+len(sales) < total,
	})
}

// Stats returns the full statistics history for a match in
// time-ascending order.
//
// GET /api/v1/matches/{matchID}/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	matchID := chi.URLParam(r, "matchID")
	if !h.knownMatch(matchID) {
		rw.NotFound("unknown match: " + matchID)
		return
	}

	stats, err := h.store.GetMatchStats(r.Context(), matchID)
	if err != nil {
		rw.DatabaseError("failed to query match stats")
		return
	}

	rw.Success(stats)
}

// StatsLatest returns the most recent statistics row for a match.
//
// GET /api/v1/matches/{matchID}/stats/latest
func (h *Handler) StatsLatest(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	matchID := chi.URLParam(r, "matchID")
	if !h.knownMatch(matchID) {
		rw.NotFound("unknown match: " + matchID)
		return
	}

	stats, err := h.store.GetLatestMatchStats(r.Context(), matchID)
	if err != nil {
		if errors.Is(err, database.ErrNoStats) {
			rw.NotFound("no stats recorded for match: " + matchID)
			return
		}
		rw.DatabaseError("failed to query match stats")
		return
	}

	rw.Success(stats)
}

// HealthLive reports process liveness. It never touches dependencies.
//
// GET /api/v1/health/live
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	rw.Success(map[string]string{"status": "alive"})
}

// HealthReady reports readiness: the database must answer a ping.
//
// GET /api/v1/health/ready
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		rw.ServiceUnavailable("database not reachable")
		return
	}

	rw.Success(map[string]string{"status": "ready"})
}

// knownMatch reports whether the match is in the configured set.
// Unconfigured matches 404 instead of returning empty result sets.
func (h *Handler) knownMatch(matchID string) bool {
	for _, m := range h.cfg.Matches {
		if m.MatchID == matchID {
			return true
		}
	}
	return false
}

// pagination extracts and clamps limit/offset query parameters.
func (h *Handler) pagination(r *http.Request) (limit, offset int, err error) {
	limit = h.cfg.API.DefaultPageSize

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, errors.New("limit must be a positive integer")
		}
	}
	if limit > h.cfg.API.MaxPageSize {
		limit = h.cfg.API.MaxPageSize
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, errors.New("offset must be a non-negative integer")
		}
	}

	return limit, offset, nil
}
