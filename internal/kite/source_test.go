package kite

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rickgao/ticker-feed/internal/provider"
)

var testSymbols = []provider.Symbol{
	{Symbol: "NIFTY", Name: "NIFTY 50", SourceSymbol: "NSE:NIFTY 50"},
	{Symbol: "SENSEX", Name: "S&P BSE SENSEX", SourceSymbol: "BSE:SENSEX"},
	{Symbol: "BANKNIFTY", Name: "NIFTY BANK", SourceSymbol: "NSE:NIFTY BANK"},
}

const quoteBody = `{
	"status": "success",
	"data": {
		"BSE:SENSEX": {
			"instrument_token": 265,
			"last_price": 72500,
			"net_change": -250,
			"ohlc": {"open": 72800, "high": 72900, "low": 72400, "close": 72750}
		},
		"NSE:NIFTY 50": {
			"instrument_token": 256265,
			"last_price": 22100,
			"net_change": 0,
			"ohlc": {"open": 22010, "high": 22150, "low": 21990, "close": 22000}
		}
	}
}`

func newTestSource(t *testing.T, handler http.HandlerFunc) *Source {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s, err := New(Config{APIKey: "key", AccessToken: "token", BaseURL: server.URL}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestNew_RequiresCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "empty", cfg: Config{}},
		{name: "missing token", cfg: Config{APIKey: "key"}},
		{name: "missing key", cfg: Config{AccessToken: "token"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg, nil); !errors.Is(err, ErrMissingCredentials) {
				t.Errorf("New() error = %v, want ErrMissingCredentials", err)
			}
		})
	}
}

func TestSource_Quotes(t *testing.T) {
	var gotPath string
	var gotInstruments []string
	var gotAuth string
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotInstruments = r.URL.Query()["i"]
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(quoteBody))
	})

	items, err := s.Quotes(context.Background(), testSymbols)
	if err != nil {
		t.Fatalf("Quotes failed: %v", err)
	}

	if gotPath != "/quote" {
		t.Errorf("path = %q, want /quote", gotPath)
	}
	if len(gotInstruments) != 3 || gotInstruments[0] != "NSE:NIFTY 50" {
		t.Errorf("instruments = %v", gotInstruments)
	}
	if gotAuth != "token key:token" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "token key:token")
	}

	// BANKNIFTY was not returned and is omitted; order follows the request.
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	nifty := items[0]
	if nifty.Symbol != "NIFTY" || nifty.Name != "NIFTY 50" {
		t.Errorf("items[0] = %+v, want NIFTY", nifty)
	}
	if nifty.Price != 22100 || nifty.Change != 100 {
		t.Errorf("NIFTY price/change = %v/%v, want 22100/100 (derived from close)", nifty.Price, nifty.Change)
	}
	if nifty.PercentChange != 0.45 || !nifty.IsPositive {
		t.Errorf("NIFTY percent = %v positive = %v, want 0.45 true", nifty.PercentChange, nifty.IsPositive)
	}

	sensex := items[1]
	if sensex.Symbol != "SENSEX" || sensex.Change != -250 {
		t.Errorf("items[1] = %+v, want SENSEX with change -250", sensex)
	}
	if sensex.PercentChange != -0.34 || sensex.IsPositive {
		t.Errorf("SENSEX percent = %v positive = %v, want -0.34 false", sensex.PercentChange, sensex.IsPositive)
	}
}

func TestSource_QuotesError(t *testing.T) {
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"status":"error","message":"Incorrect api_key or access_token.","error_type":"TokenException"}`))
	})

	_, err := s.Quotes(context.Background(), testSymbols)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Incorrect api_key or access_token.") {
		t.Errorf("error = %q, want vendor message", err)
	}
}

func TestSource_QuotesContextCancelled(t *testing.T) {
	release := make(chan struct{})
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.Quotes(ctx, testSymbols)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Quotes returned after %v, want prompt return on ctx timeout", elapsed)
	}
}
