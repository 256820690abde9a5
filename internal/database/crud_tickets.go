// Ticketwatch - Ticket Inventory Tracking and Sales Analytics
// Copyright 2026 The Ticketwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ticketwatch/ticketwatch

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ticketwatch/ticketwatch/internal/metrics"
	"github.com/ticketwatch/ticketwatch/internal/models"
)

// ErrNoStats is returned when a match has no statistics rows yet.
var ErrNoStats = errors.New("no match stats recorded")

// UpsertTicketSale inserts or updates the sale record for one seat.
// Uniqueness on (seat, match_id) makes replays after a crash idempotent:
// re-upserting the same seat updates the existing row in place.
func (db *DB) UpsertTicketSale(ctx context.Context, seat, matchID string, released bool) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO ticket_sales (seat, section, match_id, released, created_at, updated_at)
		VALUES (?, ?, ?, ?, current_timestamp, current_timestamp)
		ON CONFLICT (seat, match_id) DO UPDATE SET
			released = EXCLUDED.released,
			updated_at = now()`,
		seat, models.SectionOf(seat), matchID, released)
	metrics.RecordDBQuery("upsert", "ticket_sales", time.Since(start), err)

	if err != nil {
		return fmt.Errorf("upsert ticket sale %s/%s: %w", matchID, seat, err)
	}
	return nil
}

// InsertMatchStats appends one statistics row for a match. Rows are
// never updated.
func (db *DB) InsertMatchStats(ctx context.Context, matchID string, ticketsLeft, ticketsLeftPremium int) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO match_stats (id, match_id, tickets_left, tickets_left_premium, recorded_at)
		VALUES (?, ?, ?, ?, current_timestamp)`,
		uuid.NewString(), matchID, ticketsLeft, ticketsLeftPremium)
	metrics.RecordDBQuery("insert", "match_stats", time.Since(start), err)

	if err != nil {
		return fmt.Errorf("insert match stats for %s: %w", matchID, err)
	}
	return nil
}

// GetTicketSales returns the sale records for a match, newest update
// first. When releasedFilter is non-nil only rows with that released
// state are returned (the dashboard default hides released seats).
// A positive limit bounds the result window at offset; limit <= 0
// returns everything.
func (db *DB) GetTicketSales(ctx context.Context, matchID string, releasedFilter *bool, limit, offset int) ([]models.TicketSale, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT id, seat, section, match_id, released, created_at, updated_at
		FROM ticket_sales
		WHERE match_id = ?`
	args := []interface{}{matchID}

	if releasedFilter != nil {
		query += ` AND released = ?`
		args = append(args, *releasedFilter)
	}
	query += ` ORDER BY updated_at DESC, seat`
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("select", "ticket_sales", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query ticket sales for %s: %w", matchID, err)
	}
	defer func() { _ = rows.Close() }()

	sales := []models.TicketSale{}
	for rows.Next() {
		var s models.TicketSale
		if err := rows.Scan(&s.ID, &s.Seat, &s.Section, &s.MatchID, &s.Released, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan ticket sale: %w", err)
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticket sales: %w", err)
	}

	return sales, nil
}

// CountTicketSales returns the number of sale records for a match under
// the same released filter GetTicketSales applies. Pagination totals
// come from here so list queries stay bounded.
func (db *DB) CountTicketSales(ctx context.Context, matchID string, releasedFilter *bool) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT count(*) FROM ticket_sales WHERE match_id = ?`
	args := []interface{}{matchID}

	if releasedFilter != nil {
		query += ` AND released = ?`
		args = append(args, *releasedFilter)
	}

	start := time.Now()
	row := db.conn.QueryRowContext(ctx, query, args...)

	var total int
	err := row.Scan(&total)
	metrics.RecordDBQuery("select", "ticket_sales", time.Since(start), err)

	if err != nil {
		return 0, fmt.Errorf("count ticket sales for %s: %w", matchID, err)
	}
	return total, nil
}

// GetLatestMatchStats returns the most recent statistics row for a
// match, or ErrNoStats when none exists.
func (db *DB) GetLatestMatchStats(ctx context.Context, matchID string) (*models.MatchStats, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	start := time.Now()
	row := db.conn.QueryRowContext(ctx, `
		SELECT CAST(id AS VARCHAR), match_id, tickets_left, tickets_left_premium, recorded_at
		FROM match_stats
		WHERE match_id = ?
		ORDER BY recorded_at DESC
		LIMIT 1`, matchID)

	var st models.MatchStats
	err := row.Scan(&st.ID, &st.MatchID, &st.TicketsLeft, &st.TicketsLeftPremium, &st.RecordedAt)
	metrics.RecordDBQuery("select", "match_stats", time.Since(start), err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoStats
	}
	if err != nil {
		return nil, fmt.Errorf("query latest stats for %s: %w", matchID, err)
	}

	return &st, nil
}

// GetMatchStats returns the full statistics history for a match in
// time-ascending order, ready for charting.
func (db *DB) GetMatchStats(ctx context.Context, matchID string) ([]models.MatchStats, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT CAST(id AS VARCHAR), match_id, tickets_left, tickets_left_premium, recorded_at
		FROM match_stats
		WHERE match_id = ?
		ORDER BY recorded_at ASC`, matchID)
	metrics.RecordDBQuery("select", "match_stats", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query stats history for %s: %w", matchID, err)
	}
	defer func() { _ = rows.Close() }()

	stats := []models.MatchStats{}
	for rows.Next() {
		var st models.MatchStats
		if err := rows.Scan(&st.ID, &st.MatchID, &st.TicketsLeft, &st.TicketsLeftPremium, &st.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan match stats: %w", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match stats: %w", err)
	}

	return stats, nil
}
