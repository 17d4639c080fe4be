package model

import (
	"math"
	"testing"
	"time"
)

func TestNewTickerItem(t *testing.T) {
	tests := []struct {
		name         string
		price        float64
		change       float64
		wantPct      float64
		wantPositive bool
	}{
		{name: "gain", price: 101, change: 1, wantPct: 1, wantPositive: true},
		{name: "loss", price: 95, change: -5, wantPct: -5, wantPositive: false},
		{name: "flat", price: 100, change: 0, wantPct: 0, wantPositive: true},
		{name: "zero previous close", price: 10, change: 10, wantPct: 0, wantPositive: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := NewTickerItem("NIFTY", "NIFTY 50", tt.price, tt.change)

			if item.Symbol != "NIFTY" || item.Name != "NIFTY 50" {
				t.Errorf("Symbol/Name = %q/%q, want NIFTY/NIFTY 50", item.Symbol, item.Name)
			}
			if math.Abs(item.PercentChange-tt.wantPct) > 1e-9 {
				t.Errorf("PercentChange = %v, want %v", item.PercentChange, tt.wantPct)
			}
			if item.IsPositive != tt.wantPositive {
				t.Errorf("IsPositive = %v, want %v", item.IsPositive, tt.wantPositive)
			}
		})
	}
}

func TestNewPollerState(t *testing.T) {
	s := NewPollerState()

	if s.Items == nil || len(s.Items) != 0 {
		t.Errorf("Items = %v, want empty non-nil slice", s.Items)
	}
	if !s.IsLoading {
		t.Error("IsLoading = false, want true")
	}
	if s.HasError() {
		t.Errorf("Error = %q, want empty", s.Error)
	}
	if !s.LastUpdated.IsZero() {
		t.Errorf("LastUpdated = %v, want zero", s.LastUpdated)
	}
	if s.Status != StatusIdle {
		t.Errorf("Status = %v, want %v", s.Status, StatusIdle)
	}
}

func TestPollerState_Clone(t *testing.T) {
	orig := PollerState{
		Items:       []TickerItem{{Symbol: "NIFTY", Price: 22000}},
		LastUpdated: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
		Status:      StatusReady,
	}

	c := orig.Clone()
	c.Items[0].Price = 1

	if orig.Items[0].Price != 22000 {
		t.Errorf("original mutated through clone: Price = %v", orig.Items[0].Price)
	}
	if !c.LastUpdated.Equal(orig.LastUpdated) || c.Status != orig.Status {
		t.Error("clone did not copy scalar fields")
	}
}

func TestStatus_String(t *testing.T) {
	tests := map[Status]string{
		StatusIdle:    "idle",
		StatusLoading: "loading",
		StatusReady:   "ready",
		StatusErrored: "errored",
		StatusStopped: "stopped",
		Status(42):    "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}
