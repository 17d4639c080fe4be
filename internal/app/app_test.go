package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rickgao/ticker-feed/internal/api"
	"github.com/rickgao/ticker-feed/internal/config"
	"github.com/rickgao/ticker-feed/internal/kite"
	"github.com/rickgao/ticker-feed/internal/provider"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.LogConfig
		check  func(string) bool
		silent bool
	}{
		{
			name:  "json",
			cfg:   config.LogConfig{Level: "info", Format: "json"},
			check: func(out string) bool { return json.Valid([]byte(strings.TrimSpace(out))) },
		},
		{
			name:  "text",
			cfg:   config.LogConfig{Level: "info", Format: "text"},
			check: func(out string) bool { return strings.Contains(out, "msg=hello") },
		},
		{
			name:   "level filters",
			cfg:    config.LogConfig{Level: "error", Format: "text"},
			silent: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewLogger(tt.cfg, &buf).Info("hello")
			out := buf.String()
			if tt.silent {
				if out != "" {
					t.Errorf("output = %q, want nothing", out)
				}
				return
			}
			if !tt.check(out) {
				t.Errorf("unexpected output: %q", out)
			}
		})
	}
}

func TestNewSource(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		wantName string
		wantErr  bool
	}{
		{
			name:     "http",
			cfg:      config.Config{Provider: config.ProviderConfig{Kind: "http", BaseURL: "http://localhost"}},
			wantName: "http",
		},
		{
			name: "kite",
			cfg: config.Config{
				Provider: config.ProviderConfig{Kind: "kite"},
				Kite:     config.KiteConfig{APIKey: "key", AccessToken: "token"},
			},
			wantName: "kite",
		},
		{
			name:    "kite without credentials",
			cfg:     config.Config{Provider: config.ProviderConfig{Kind: "kite"}},
			wantErr: true,
		},
		{
			name:    "unknown",
			cfg:     config.Config{Provider: config.ProviderConfig{Kind: "scrape"}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewSource(&tt.cfg, nil)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewSource failed: %v", err)
			}
			if src.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", src.Name(), tt.wantName)
			}
		})
	}

	var _ provider.Source = (*api.QuoteSource)(nil)
	var _ provider.Source = (*kite.Source)(nil)
}

func TestNewProvider_EndToEnd(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"quoteResponse":{"result":[
			{"symbol":"^BSESN","regularMarketPrice":72500,"regularMarketChange":-250},
			{"symbol":"^NSEI","regularMarketPrice":22100,"regularMarketChange":100}
		],"error":null}}`)
	}))
	defer server.Close()

	cfg := &config.Config{
		Provider: config.ProviderConfig{
			Kind:     "http",
			BaseURL:  server.URL,
			Timeout:  time.Second,
			CacheTTL: time.Minute,
			Symbols: []provider.Symbol{
				{Symbol: "NIFTY", Name: "NIFTY 50", SourceSymbol: "^NSEI"},
				{Symbol: "SENSEX", Name: "S&P BSE SENSEX", SourceSymbol: "^BSESN"},
			},
		},
	}

	p, closer, err := NewProvider(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	defer closer()

	items, err := p.FetchTickerData(context.Background())
	if err != nil {
		t.Fatalf("FetchTickerData failed: %v", err)
	}
	if len(items) != 2 || items[0].Symbol != "NIFTY" || items[1].Symbol != "SENSEX" {
		t.Errorf("items = %+v, want NIFTY then SENSEX", items)
	}

	if _, err := p.FetchTickerData(context.Background()); err != nil {
		t.Fatalf("second FetchTickerData failed: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1 (cached)", got)
	}
}
