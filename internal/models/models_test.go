// Ticketwatch - Ticket Inventory Tracking and Sales Analytics
// Copyright 2026 The Ticketwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ticketwatch/ticketwatch

package models

import "testing"

func TestSectionOf(t *testing.T) {
	tests := []struct {
		seatID string
		want   string
	}{
		{"132_Rangee-EE_Siege-12", "132"},
		{"132_Supporters_0", "132"},
		{"GA-East_41", "GA-East"},
		{"117_12", "117"},
		{"117", "117"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SectionOf(tt.seatID); got != tt.want {
			t.Errorf("SectionOf(%q) = %q, want %q", tt.seatID, got, tt.want)
		}
	}
}

func TestInventoryDeltaChanged(t *testing.T) {
	d := &InventoryDelta{MatchID: "CFM2221IND"}
	if d.Changed() {
		t.Error("empty delta should not report changed")
	}

	d.Sold = []string{"132_Rangee-EE_Siege-12"}
	if !d.Changed() {
		t.Error("delta with sold seats should report changed")
	}

	d = &InventoryDelta{MatchID: "CFM2221IND", Released: []string{"117_12"}}
	if !d.Changed() {
		t.Error("delta with released seats should report changed")
	}
}
