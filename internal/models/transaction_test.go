package models

import (
	"testing"
	"time"
)

func TestDedupKeyFor(t *testing.T) {
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	tx := FuelTransaction{
		CardID:      "64f0c2a1b3d4e5f6a7b8c9d0",
		Date:        date,
		TimeOfDay:   "08:45",
		TotalCost:   72.499,
		StationName: "Shell Watford Gap",
	}

	key := DedupKeyFor(tx)
	if key.CardID != tx.CardID {
		t.Errorf("expected card %s, got %s", tx.CardID, key.CardID)
	}
	if key.Date != "2026-03-14" {
		t.Errorf("expected date 2026-03-14, got %s", key.Date)
	}
	if key.TimeOfDay != "08:45" {
		t.Errorf("expected time 08:45, got %s", key.TimeOfDay)
	}
	// cost is keyed at two decimals so equal purchases collide
	if key.TotalCost != 72.50 {
		t.Errorf("expected cost 72.50, got %f", key.TotalCost)
	}
}

func TestDedupKeyFor_SameKeyForEqualPurchases(t *testing.T) {
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	a := FuelTransaction{CardID: "c1", Date: date, TotalCost: 45.004, StationName: "BP Heathrow"}
	b := FuelTransaction{CardID: "c1", Date: date, TotalCost: 45.0, StationName: "BP Heathrow"}

	if DedupKeyFor(a) != DedupKeyFor(b) {
		t.Errorf("expected identical keys, got %s vs %s", DedupKeyFor(a), DedupKeyFor(b))
	}
}

func TestDedupKeyFor_TimePresenceDistinguishes(t *testing.T) {
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	withTime := FuelTransaction{CardID: "c1", Date: date, TimeOfDay: "08:45", TotalCost: 45.0, StationName: "BP Heathrow"}
	withoutTime := FuelTransaction{CardID: "c1", Date: date, TotalCost: 45.0, StationName: "BP Heathrow"}

	if DedupKeyFor(withTime) == DedupKeyFor(withoutTime) {
		t.Error("expected time-of-day to distinguish keys")
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{45.004, 45.00},
		{45.006, 45.01},
		{45.0, 45.0},
		{72.499, 72.50},
		{0, 0},
	}

	for _, tt := range tests {
		if got := Round2(tt.input); got != tt.expected {
			t.Errorf("Round2(%f) = %f, want %f", tt.input, got, tt.expected)
		}
	}
}
