package model

import "time"

// -----------------------------------------------------------------------------
// Market Data Types
// -----------------------------------------------------------------------------

// TickerItem is one instrument's latest price snapshot at fetch time.
type TickerItem struct {
	Symbol        string  `json:"symbol"`        // Display symbol (e.g., "NIFTY")
	Name          string  `json:"name"`          // Display name (e.g., "NIFTY 50")
	Price         float64 `json:"price"`         // Last traded price
	Change        float64 `json:"change"`        // Absolute change vs previous close
	PercentChange float64 `json:"percentChange"` // Change vs previous close, in percent
	IsPositive    bool    `json:"isPositive"`    // Change >= 0
}

// NewTickerItem builds a TickerItem, deriving PercentChange and IsPositive
// from price and change. The previous close is price - change.
func NewTickerItem(symbol, name string, price, change float64) TickerItem {
	var pct float64
	if prevClose := price - change; prevClose != 0 {
		pct = change / prevClose * 100
	}
	return TickerItem{
		Symbol:        symbol,
		Name:          name,
		Price:         price,
		Change:        change,
		PercentChange: pct,
		IsPositive:    change >= 0,
	}
}

// -----------------------------------------------------------------------------
// Poller State
// -----------------------------------------------------------------------------

// Status is the lifecycle state of a poller.
type Status int

const (
	StatusIdle    Status = iota // Constructed, not started
	StatusLoading               // Fetch outstanding
	StatusReady                 // Last fetch succeeded
	StatusErrored               // Last fetch failed
	StatusStopped               // Timer cancelled
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusErrored:
		return "errored"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// PollerState is the view of ticker data exposed to consumers.
type PollerState struct {
	Items       []TickerItem // Latest successfully fetched items, in provider order
	IsLoading   bool         // True while the latest fetch is outstanding
	Error       string       // Message of the latest failed fetch, "" if none
	LastUpdated time.Time    // Completion time of the latest successful fetch
	Status      Status
}

// NewPollerState returns the state of a freshly constructed poller.
func NewPollerState() PollerState {
	return PollerState{
		Items:     []TickerItem{},
		IsLoading: true,
		Status:    StatusIdle,
	}
}

// Clone returns a copy that shares no memory with s.
func (s PollerState) Clone() PollerState {
	out := s
	out.Items = make([]TickerItem, len(s.Items))
	copy(out.Items, s.Items)
	return out
}

// HasError reports whether the latest fetch failed.
func (s PollerState) HasError() bool {
	return s.Error != ""
}
