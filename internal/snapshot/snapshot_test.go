// Ticketwatch - Ticket Inventory Tracking and Sales Analytics
// Copyright 2026 The Ticketwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ticketwatch/ticketwatch

package snapshot

import (
	"context"
	"reflect"
	"testing"
)

// storeUnderTest runs the shared Store contract tests against an
// implementation.
func storeUnderTest(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key yields empty slice", func(t *testing.T) {
		got, err := s.Get(ctx, "CFM0000XXX")
		if err != nil {
			t.Fatalf("Get() = %v, want nil", err)
		}
		if len(got) != 0 {
			t.Errorf("Get() = %v, want empty", got)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		seats := []string{"117_Rangee-A_Siege-1", "132_Supporters_0", "132_Supporters_1"}
		if err := s.Set(ctx, "CFM2221IND", seats); err != nil {
			t.Fatalf("Set() = %v", err)
		}

		got, err := s.Get(ctx, "CFM2221IND")
		if err != nil {
			t.Fatalf("Get() = %v", err)
		}
		if !reflect.DeepEqual(got, seats) {
			t.Errorf("Get() = %v, want %v", got, seats)
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		if err := s.Set(ctx, "CFM2221IND", []string{"117_Rangee-A_Siege-1"}); err != nil {
			t.Fatalf("Set() = %v", err)
		}

		got, err := s.Get(ctx, "CFM2221IND")
		if err != nil {
			t.Fatalf("Get() = %v", err)
		}
		if len(got) != 1 || got[0] != "117_Rangee-A_Siege-1" {
			t.Errorf("Get() after overwrite = %v", got)
		}
	})

	t.Run("matches are key scoped", func(t *testing.T) {
		if err := s.Set(ctx, "CFM1915TOR", []string{"201_a"}); err != nil {
			t.Fatalf("Set() = %v", err)
		}

		got, err := s.Get(ctx, "CFM2221IND")
		if err != nil {
			t.Fatalf("Get() = %v", err)
		}
		if len(got) != 1 || got[0] != "117_Rangee-A_Siege-1" {
			t.Errorf("other match's write leaked: %v", got)
		}
	})

	t.Run("empty inventory is storable", func(t *testing.T) {
		if err := s.Set(ctx, "CFM2221IND", []string{}); err != nil {
			t.Fatalf("Set() = %v", err)
		}

		got, err := s.Get(ctx, "CFM2221IND")
		if err != nil {
			t.Fatalf("Get() = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Get() = %v, want empty", got)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer func() { _ = s.Close() }()
	storeUnderTest(t, s)
}

func TestBadgerStore(t *testing.T) {
	s, err := NewBadgerStore(t.TempDir(), false)
	if err != nil {
		t.Fatalf("NewBadgerStore() = %v", err)
	}
	defer func() { _ = s.Close() }()
	storeUnderTest(t, s)
}

func TestBadgerStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	seats := []string{"117_Rangee-A_Siege-1", "132_Supporters_0"}

	s, err := NewBadgerStore(dir, false)
	if err != nil {
		t.Fatalf("NewBadgerStore() = %v", err)
	}
	if err := s.Set(ctx, "CFM2221IND", seats); err != nil {
		t.Fatalf("Set() = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	reopened, err := NewBadgerStore(dir, false)
	if err != nil {
		t.Fatalf("reopen = %v", err)
	}
	defer func() { _ = reopened.Close() }()

	got, err := reopened.Get(ctx, "CFM2221IND")
	if err != nil {
		t.Fatalf("Get() = %v", err)
	}
	if !reflect.DeepEqual(got, seats) {
		t.Errorf("snapshot lost across reopen: %v", got)
	}
}

func TestMemoryStoreReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Set(ctx, "CFM2221IND", []string{"a", "b"}); err != nil {
		t.Fatalf("Set() = %v", err)
	}

	got, _ := s.Get(ctx, "CFM2221IND")
	got[0] = "mutated"

	again, _ := s.Get(ctx, "CFM2221IND")
	if again[0] != "a" {
		t.Error("Get() must return a copy, caller mutation leaked into store")
	}
}
