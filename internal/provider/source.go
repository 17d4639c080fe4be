package provider

import (
	"context"
	"time"

	"github.com/rickgao/ticker-feed/internal/model"
)

// Symbol maps a display symbol to the identifier used by a Source.
type Symbol struct {
	Symbol       string `yaml:"symbol"`        // Display symbol (e.g., "NIFTY")
	Name         string `yaml:"name"`          // Display name (e.g., "NIFTY 50")
	SourceSymbol string `yaml:"source_symbol"` // Vendor identifier (e.g., "^NSEI", "NSE:NIFTY 50")
}

// Source fetches quotes from a market data vendor.
//
// Implementations return items with Symbol and Name taken from the requested
// Symbol entries. Order and completeness are not required; the Provider
// reorders by the configured symbol list.
type Source interface {
	Name() string
	Quotes(ctx context.Context, symbols []Symbol) ([]model.TickerItem, error)
}

// Store is a shared cache for the latest fetched items.
type Store interface {
	// Load returns the cached items and when they were fetched.
	// ok is false on a cache miss.
	Load(ctx context.Context) (items []model.TickerItem, fetchedAt time.Time, ok bool, err error)
	Save(ctx context.Context, items []model.TickerItem, fetchedAt time.Time) error
	Delete(ctx context.Context) error
}
