// Ticketwatch - Ticket Inventory Tracking and Sales Analytics
// Copyright 2026 The Ticketwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ticketwatch/ticketwatch

package events

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/ticketwatch/ticketwatch/internal/logging"
	"github.com/ticketwatch/ticketwatch/internal/models"
)

func TestSaleTopic(t *testing.T) {
	tests := []struct {
		released bool
		want     string
	}{
		{false, "tickets.sold"},
		{true, "tickets.released"},
	}

	for _, tt := range tests {
		if got := saleTopic("tickets", tt.released); got != tt.want {
			t.Errorf("saleTopic(released=%v) = %q, want %q", tt.released, got, tt.want)
		}
	}
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = Noop{}
	ctx := context.Background()

	if err := p.PublishSale(ctx, models.SaleEvent{MatchID: "CFM2221IND"}); err != nil {
		t.Errorf("PublishSale() = %v", err)
	}
	if err := p.PublishStats(ctx, models.MatchStats{MatchID: "CFM2221IND"}); err != nil {
		t.Errorf("PublishStats() = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestWMLoggerWritesThroughZerolog(t *testing.T) {
	var buf bytes.Buffer
	orig := logging.Logger()
	logging.SetLogger(logging.NewTestLogger(&buf))
	defer logging.SetLogger(orig)

	logger := newWMLogger().With(watermill.LogFields{"component": "publisher"})
	logger.Info("stream ready", watermill.LogFields{"topic": "tickets.sold"})

	out := buf.String()
	if !strings.Contains(out, `"component":"publisher"`) {
		t.Errorf("expected With field in output, got %q", out)
	}
	if !strings.Contains(out, `"topic":"tickets.sold"`) {
		t.Errorf("expected call field in output, got %q", out)
	}
	if !strings.Contains(out, "stream ready") {
		t.Errorf("expected message in output, got %q", out)
	}
}
