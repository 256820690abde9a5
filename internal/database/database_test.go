// Ticketwatch - Ticket Inventory Tracking and Sales Analytics
// Copyright 2026 The Ticketwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ticketwatch/ticketwatch

package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ticketwatch/ticketwatch/internal/config"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(config.DatabaseConfig{
		Path:      filepath.Join(t.TempDir(), "test.duckdb"),
		MaxMemory: "256MB",
		Threads:   1,
	})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUpsertTicketSaleCreatesRecord(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.UpsertTicketSale(ctx, "117_Rangee-A_Siege-1", "CFM2221IND", false); err != nil {
		t.Fatalf("UpsertTicketSale() = %v", err)
	}

	sales, err := db.GetTicketSales(ctx, "CFM2221IND", nil, 0, 0)
	if err != nil {
		t.Fatalf("GetTicketSales() = %v", err)
	}
	if len(sales) != 1 {
		t.Fatalf("expected 1 sale, got %d", len(sales))
	}
	if sales[0].Seat != "117_Rangee-A_Siege-1" {
		t.Errorf("seat = %q", sales[0].Seat)
	}
	if sales[0].Section != "117" {
		t.Errorf("section = %q, want 117", sales[0].Section)
	}
	if sales[0].Released {
		t.Error("fresh sale must not be released")
	}
	if sales[0].CreatedAt.IsZero() || sales[0].UpdatedAt.IsZero() {
		t.Error("timestamps must be set")
	}
}

func TestUpsertTicketSaleIsIdempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := db.UpsertTicketSale(ctx, "132_Supporters_4", "CFM2221IND", false); err != nil {
			t.Fatalf("upsert %d = %v", i, err)
		}
	}

	sales, err := db.GetTicketSales(ctx, "CFM2221IND", nil, 0, 0)
	if err != nil {
		t.Fatalf("GetTicketSales() = %v", err)
	}
	if len(sales) != 1 {
		t.Errorf("replayed upserts must not duplicate, got %d rows", len(sales))
	}
}

func TestUpsertTicketSaleFlipsReleased(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.UpsertTicketSale(ctx, "117_Rangee-A_Siege-1", "CFM2221IND", false); err != nil {
		t.Fatalf("UpsertTicketSale() = %v", err)
	}
	if err := db.UpsertTicketSale(ctx, "117_Rangee-A_Siege-1", "CFM2221IND", true); err != nil {
		t.Fatalf("UpsertTicketSale() = %v", err)
	}

	sales, err := db.GetTicketSales(ctx, "CFM2221IND", nil, 0, 0)
	if err != nil {
		t.Fatalf("GetTicketSales() = %v", err)
	}
	if len(sales) != 1 {
		t.Fatalf("expected 1 row after release, got %d", len(sales))
	}
	if !sales[0].Released {
		t.Error("released flag must be updated in place")
	}
}

func TestUpsertTicketSaleAdvancesUpdatedAt(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.UpsertTicketSale(ctx, "117_Rangee-A_Siege-1", "CFM2221IND", false); err != nil {
		t.Fatalf("UpsertTicketSale() = %v", err)
	}
	first, err := db.GetTicketSales(ctx, "CFM2221IND", nil, 0, 0)
	if err != nil {
		t.Fatalf("GetTicketSales() = %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	if err := db.UpsertTicketSale(ctx, "117_Rangee-A_Siege-1", "CFM2221IND", true); err != nil {
		t.Fatalf("conflict-path upsert = %v", err)
	}

	after, err := db.GetTicketSales(ctx, "CFM2221IND", nil, 0, 0)
	if err != nil {
		t.Fatalf("GetTicketSales() = %v", err)
	}
	if !after[0].UpdatedAt.After(first[0].UpdatedAt) {
		t.Errorf("updated_at = %v, must advance past %v on conflict", after[0].UpdatedAt, first[0].UpdatedAt)
	}
	if !after[0].CreatedAt.Equal(first[0].CreatedAt) {
		t.Errorf("created_at changed on conflict: %v -> %v", first[0].CreatedAt, after[0].CreatedAt)
	}
}

func TestGetTicketSalesWindow(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	seats := []string{
		"117_Rangee-A_Siege-1",
		"117_Rangee-A_Siege-2",
		"117_Rangee-A_Siege-3",
		"117_Rangee-A_Siege-4",
		"117_Rangee-A_Siege-5",
	}
	for _, seat := range seats {
		if err := db.UpsertTicketSale(ctx, seat, "CFM2221IND", false); err != nil {
			t.Fatal(err)
		}
	}

	total, err := db.CountTicketSales(ctx, "CFM2221IND", nil)
	if err != nil {
		t.Fatalf("CountTicketSales() = %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}

	page, err := db.GetTicketSales(ctx, "CFM2221IND", nil, 2, 3)
	if err != nil {
		t.Fatalf("GetTicketSales() = %v", err)
	}
	if len(page) != 2 {
		t.Errorf("window of 2 at offset 3 returned %d rows", len(page))
	}

	tail, err := db.GetTicketSales(ctx, "CFM2221IND", nil, 2, 4)
	if err != nil {
		t.Fatalf("GetTicketSales() = %v", err)
	}
	if len(tail) != 1 {
		t.Errorf("window past the end must truncate, got %d rows", len(tail))
	}
}

func TestGetTicketSalesReleasedFilter(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.UpsertTicketSale(ctx, "117_Rangee-A_Siege-1", "CFM2221IND", false); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertTicketSale(ctx, "117_Rangee-A_Siege-2", "CFM2221IND", true); err != nil {
		t.Fatal(err)
	}

	unreleased := false
	sales, err := db.GetTicketSales(ctx, "CFM2221IND", &unreleased, 0, 0)
	if err != nil {
		t.Fatalf("GetTicketSales() = %v", err)
	}
	if len(sales) != 1 || sales[0].Seat != "117_Rangee-A_Siege-1" {
		t.Errorf("released filter failed: %v", sales)
	}
}

func TestGetTicketSalesScopedByMatch(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.UpsertTicketSale(ctx, "117_Rangee-A_Siege-1", "CFM2221IND", false); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertTicketSale(ctx, "117_Rangee-A_Siege-1", "CFM1915TOR", false); err != nil {
		t.Fatal(err)
	}

	sales, err := db.GetTicketSales(ctx, "CFM1915TOR", nil, 0, 0)
	if err != nil {
		t.Fatalf("GetTicketSales() = %v", err)
	}
	if len(sales) != 1 || sales[0].MatchID != "CFM1915TOR" {
		t.Errorf("same seat in two matches must be independent rows: %v", sales)
	}
}

func TestMatchStatsAppendAndLatest(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.InsertMatchStats(ctx, "CFM2221IND", 500, 16); err != nil {
		t.Fatalf("InsertMatchStats() = %v", err)
	}
	time.Sleep(10 * time.Millisecond) // recorded_at must differ for ordering
	if err := db.InsertMatchStats(ctx, "CFM2221IND", 498, 15); err != nil {
		t.Fatalf("InsertMatchStats() = %v", err)
	}

	latest, err := db.GetLatestMatchStats(ctx, "CFM2221IND")
	if err != nil {
		t.Fatalf("GetLatestMatchStats() = %v", err)
	}
	if latest.TicketsLeft != 498 || latest.TicketsLeftPremium != 15 {
		t.Errorf("latest = %+v, want tickets_left 498 / premium 15", latest)
	}
	if latest.ID == "" {
		t.Error("stats id must be set")
	}

	history, err := db.GetMatchStats(ctx, "CFM2221IND")
	if err != nil {
		t.Fatalf("GetMatchStats() = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history rows, got %d", len(history))
	}
	if history[0].TicketsLeft != 500 {
		t.Errorf("history must be time-ascending, first row = %+v", history[0])
	}
}

func TestGetLatestMatchStatsNoRows(t *testing.T) {
	db := testDB(t)

	_, err := db.GetLatestMatchStats(context.Background(), "CFM0000XXX")
	if !errors.Is(err, ErrNoStats) {
		t.Errorf("expected ErrNoStats, got %v", err)
	}
}

func TestPing(t *testing.T) {
	db := testDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() = %v", err)
	}
}
