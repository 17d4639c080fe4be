package kite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"github.com/rickgao/ticker-feed/internal/model"
	"github.com/rickgao/ticker-feed/internal/provider"
)

// ErrMissingCredentials is returned by New when the API key or access token is empty.
var ErrMissingCredentials = errors.New("kite: api key and access token are required")

// Config holds Kite Connect settings.
type Config struct {
	APIKey      string
	AccessToken string
	BaseURL     string        // Optional override of the Kite API root
	Timeout     time.Duration // HTTP client timeout (default: 10s)
}

// quoteGetter is the subset of kiteconnect.Client used by Source.
type quoteGetter interface {
	GetQuote(instruments ...string) (kiteconnect.Quote, error)
}

// Source fetches quotes through Kite Connect.
type Source struct {
	client quoteGetter
	logger *slog.Logger
}

var _ provider.Source = (*Source)(nil)

// New creates a Source from credentials.
func New(cfg Config, logger *slog.Logger) (*Source, error) {
	if cfg.APIKey == "" || cfg.AccessToken == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	kc := kiteconnect.New(cfg.APIKey)
	kc.SetAccessToken(cfg.AccessToken)
	kc.SetHTTPClient(&http.Client{Timeout: cfg.Timeout})
	if cfg.BaseURL != "" {
		kc.SetBaseURI(cfg.BaseURL)
	}

	return &Source{client: kc, logger: logger}, nil
}

// Name identifies the source in logs.
func (s *Source) Name() string {
	return "kite"
}

// Quotes fetches every symbol in one GetQuote call. The Kite client has no
// context support, so the call runs in its own goroutine and is abandoned
// when ctx ends.
func (s *Source) Quotes(ctx context.Context, symbols []provider.Symbol) ([]model.TickerItem, error) {
	instruments := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		instruments = append(instruments, sym.SourceSymbol)
	}

	type result struct {
		quote kiteconnect.Quote
		err   error
	}
	done := make(chan result, 1)
	start := time.Now()
	go func() {
		q, err := s.client.GetQuote(instruments...)
		done <- result{quote: q, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("get kite quote: %w", ctx.Err())
	case res = <-done:
	}
	if res.err != nil {
		return nil, fmt.Errorf("get kite quote: %w", res.err)
	}

	s.logger.Debug("kite quote fetched",
		"instruments", len(instruments),
		"returned", len(res.quote),
		"duration", time.Since(start),
	)

	items := make([]model.TickerItem, 0, len(symbols))
	for _, sym := range symbols {
		q, ok := res.quote[sym.SourceSymbol]
		if !ok {
			continue
		}
		change := q.NetChange
		if change == 0 && q.OHLC.Close != 0 {
			change = q.LastPrice - q.OHLC.Close
		}
		item := model.NewTickerItem(sym.Symbol, sym.Name, q.LastPrice, change)
		item.PercentChange = round2(item.PercentChange)
		items = append(items, item)
	}
	return items, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
