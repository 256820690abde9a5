// Ticketwatch - Ticket Inventory Tracking and Sales Analytics
// Copyright 2026 The Ticketwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ticketwatch/ticketwatch

package adapter

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/ticketwatch/ticketwatch/internal/config"
	"github.com/ticketwatch/ticketwatch/internal/vendor"
)

func respWithResult(t *testing.T, result string) *vendor.InventoryResponse {
	t.Helper()
	return &vendor.InventoryResponse{
		JSONRPC: "2.0",
		ID:      1,
		Result:  json.RawMessage(result),
	}
}

func v3Adapter(t *testing.T, match config.MatchConfig) Adapter {
	t.Helper()
	match.Schema = "eventinventory3"
	a, err := New(match)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	return a
}

func TestNewUnknownSchema(t *testing.T) {
	_, err := New(config.MatchConfig{MatchID: "CFM2221IND", Schema: "eventinventory9"})
	if err == nil {
		t.Fatal("expected error for unknown schema")
	}
}

func TestSchemasRegistered(t *testing.T) {
	want := []string{"eventinventory2", "eventinventory3"}
	if got := Schemas(); !reflect.DeepEqual(got, want) {
		t.Errorf("Schemas() = %v, want %v", got, want)
	}
}

func TestNormalizeSkipsOnMissingResult(t *testing.T) {
	a := v3Adapter(t, config.MatchConfig{MatchID: "CFM2221IND"})

	_, err := a.Normalize(&vendor.InventoryResponse{JSONRPC: "2.0", ID: 1})
	if !errors.Is(err, ErrSkipCycle) {
		t.Errorf("expected ErrSkipCycle, got %v", err)
	}

	_, err = a.Normalize(respWithResult(t, "null"))
	if !errors.Is(err, ErrSkipCycle) {
		t.Errorf("expected ErrSkipCycle for null result, got %v", err)
	}
}

func TestNormalizeMalformedPayload(t *testing.T) {
	a := v3Adapter(t, config.MatchConfig{MatchID: "CFM2221IND"})

	_, err := a.Normalize(respWithResult(t, `{"primary":{"Unrestricted-imp":{"seats":"not-a-map"}}}`))

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Schema != "eventinventory3" {
		t.Errorf("ParseError.Schema = %q", pe.Schema)
	}
}

func TestNormalizeCollectsPhysicalSeats(t *testing.T) {
	a := v3Adapter(t, config.MatchConfig{MatchID: "CFM2221IND"})

	resp := respWithResult(t, `{"primary":{
		"Unrestricted-imp":{"seats":{"117":["117_Rangee-A_Siege-1","117_Rangee-A_Siege-2"]}},
		"Temporary-IMP":{"seats":{"132":["132_Rangee-EE_Siege-12"]}}
	}}`)

	got, err := a.Normalize(resp)
	if err != nil {
		t.Fatalf("Normalize() = %v", err)
	}

	// Buckets and sections iterate in sorted order.
	want := []string{
		"132_Rangee-EE_Siege-12",
		"117_Rangee-A_Siege-1",
		"117_Rangee-A_Siege-2",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize() = %v, want %v", got, want)
	}
}

func TestNormalizeSynthesizesGASlots(t *testing.T) {
	a := v3Adapter(t, config.MatchConfig{MatchID: "CFM2221IND"})

	resp := respWithResult(t, `{"primary":{
		"Unrestricted-imp":{"GASeats":{"132 Supporters":{"P1":16}}}
	}}`)

	got, err := a.Normalize(resp)
	if err != nil {
		t.Fatalf("Normalize() = %v", err)
	}

	if len(got) != 16 {
		t.Fatalf("expected 16 synthesized slots, got %d", len(got))
	}
	for i := 0; i < 16; i++ {
		want := fmt.Sprintf("132_Supporters_%d", i)
		if got[i] != want {
			t.Errorf("slot[%d] = %q, want %q", i, got[i], want)
		}
	}
}

func TestNormalizeGAFirstPriceLevelWins(t *testing.T) {
	a := v3Adapter(t, config.MatchConfig{MatchID: "CFM2221IND"})

	// Count comes from the first price level in sorted key order.
	resp := respWithResult(t, `{"primary":{
		"Unrestricted-imp":{"GASeats":{"132 Supporters":{"P2":99,"P1":3}}}
	}}`)

	got, err := a.Normalize(resp)
	if err != nil {
		t.Fatalf("Normalize() = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected count from first sorted price level (3), got %d slots", len(got))
	}
}

func TestNormalizeAppliesSectionAliases(t *testing.T) {
	a := v3Adapter(t, config.MatchConfig{
		MatchID:        "CFM2221IND",
		SectionAliases: map[string]string{"GA_East": "132_Supporters"},
	})

	resp := respWithResult(t, `{"primary":{
		"Unrestricted-imp":{"GASeats":{"GA East":{"P1":2}}}
	}}`)

	got, err := a.Normalize(resp)
	if err != nil {
		t.Fatalf("Normalize() = %v", err)
	}
	want := []string{"132_Supporters_0", "132_Supporters_1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize() = %v, want %v", got, want)
	}
}

func TestNormalizeRespectsConfiguredBuckets(t *testing.T) {
	a := v3Adapter(t, config.MatchConfig{
		MatchID: "CFM2221IND",
		Buckets: []string{"Unrestricted-imp", "Closed-Bucket"},
	})

	resp := respWithResult(t, `{"primary":{
		"Unrestricted-imp":{"seats":{"117":["117_Rangee-A_Siege-1"]}},
		"Scalper-Hold":{"seats":{"117":["117_Rangee-Z_Siege-9"]}}
	}}`)

	got, err := a.Normalize(resp)
	if err != nil {
		t.Fatalf("Normalize() = %v", err)
	}
	want := []string{"117_Rangee-A_Siege-1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unconfigured bucket leaked into output: %v", got)
	}
}

func TestNormalizeDeterministicAcrossRuns(t *testing.T) {
	a := v3Adapter(t, config.MatchConfig{MatchID: "CFM2221IND"})

	raw := `{"primary":{
		"B-bucket":{"seats":{"201":["201_a"],"105":["105_a","105_b"]},"GASeats":{"GA South":{"P1":2}}},
		"A-bucket":{"seats":{"310":["310_a"]},"GASeats":{"GA North":{"P1":1},"GA West":{"P1":1}}}
	}}`

	first, err := a.Normalize(respWithResult(t, raw))
	if err != nil {
		t.Fatalf("Normalize() = %v", err)
	}

	for i := 0; i < 20; i++ {
		again, err := a.Normalize(respWithResult(t, raw))
		if err != nil {
			t.Fatalf("Normalize() = %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d produced different order:\n%v\nvs\n%v", i, first, again)
		}
	}
}

func TestNormalizeV2FlatShape(t *testing.T) {
	a, err := New(config.MatchConfig{MatchID: "CFM1915TOR", Schema: "eventinventory2"})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	resp := respWithResult(t, `{
		"seats":["117_Rangee-A_Siege-1","132_Rangee-EE_Siege-12"],
		"gaCounts":{"GA East":2}
	}`)

	got, err := a.Normalize(resp)
	if err != nil {
		t.Fatalf("Normalize() = %v", err)
	}
	want := []string{
		"117_Rangee-A_Siege-1",
		"132_Rangee-EE_Siege-12",
		"GA_East_0",
		"GA_East_1",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize() = %v, want %v", got, want)
	}
}

func TestNormalizeV2SkipsOnMissingResult(t *testing.T) {
	a, err := New(config.MatchConfig{MatchID: "CFM1915TOR", Schema: "eventinventory2"})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	_, err = a.Normalize(&vendor.InventoryResponse{JSONRPC: "2.0", ID: 1})
	if !errors.Is(err, ErrSkipCycle) {
		t.Errorf("expected ErrSkipCycle, got %v", err)
	}
}
