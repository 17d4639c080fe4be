package api

import (
	"context"
	"math"

	"github.com/rickgao/ticker-feed/internal/model"
	"github.com/rickgao/ticker-feed/internal/provider"
)

// QuoteSource adapts Client to provider.Source.
type QuoteSource struct {
	client *Client
}

var _ provider.Source = (*QuoteSource)(nil)

// NewQuoteSource creates a Source backed by the quote service.
func NewQuoteSource(client *Client) *QuoteSource {
	return &QuoteSource{client: client}
}

// Name identifies the source in logs.
func (s *QuoteSource) Name() string {
	return "http"
}

// Quotes fetches all symbols in one request and maps vendor symbols back to
// display symbols.
func (s *QuoteSource) Quotes(ctx context.Context, symbols []provider.Symbol) ([]model.TickerItem, error) {
	vendor := make([]string, 0, len(symbols))
	byVendor := make(map[string]provider.Symbol, len(symbols))
	for _, sym := range symbols {
		vendor = append(vendor, sym.SourceSymbol)
		byVendor[sym.SourceSymbol] = sym
	}

	quotes, err := s.client.GetQuotes(ctx, vendor)
	if err != nil {
		return nil, err
	}

	items := make([]model.TickerItem, 0, len(quotes))
	for _, q := range quotes {
		sym, ok := byVendor[q.Symbol]
		if !ok {
			continue
		}
		items = append(items, q.ToTickerItem(sym))
	}
	return items, nil
}

// ToTickerItem converts a quote to a TickerItem using the display symbol.
// The service's own percent change is preferred when present.
func (q APIQuote) ToTickerItem(sym provider.Symbol) model.TickerItem {
	name := sym.Name
	if name == "" {
		name = q.ShortName
	}
	if name == "" {
		name = q.LongName
	}

	change := q.RegularMarketChange
	if change == 0 && q.RegularMarketPreviousClose != 0 {
		change = q.RegularMarketPrice - q.RegularMarketPreviousClose
	}

	item := model.NewTickerItem(sym.Symbol, name, q.RegularMarketPrice, change)
	if q.RegularMarketChangePercent != 0 {
		item.PercentChange = q.RegularMarketChangePercent
	}
	item.PercentChange = round2(item.PercentChange)
	return item
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
