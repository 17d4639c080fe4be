package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rickgao/ticker-feed/internal/provider"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: ticker-1
provider:
  kind: http
  base_url: https://quotes.example.com
  symbols:
    - symbol: NIFTY
      name: NIFTY 50
      source_symbol: ^NSEI
    - symbol: SENSEX
      name: S&P BSE SENSEX
      source_symbol: ^BSESN
poller:
  refresh_interval: 1m
  fetch_timeout: 5s
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "ticker-1" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "ticker-1")
	}
	if cfg.Provider.BaseURL != "https://quotes.example.com" {
		t.Errorf("Provider.BaseURL = %q, want %q", cfg.Provider.BaseURL, "https://quotes.example.com")
	}
	if len(cfg.Provider.Symbols) != 2 {
		t.Fatalf("len(Provider.Symbols) = %d, want 2", len(cfg.Provider.Symbols))
	}
	want := provider.Symbol{Symbol: "SENSEX", Name: "S&P BSE SENSEX", SourceSymbol: "^BSESN"}
	if cfg.Provider.Symbols[1] != want {
		t.Errorf("Provider.Symbols[1] = %+v, want %+v", cfg.Provider.Symbols[1], want)
	}
	if cfg.Poller.RefreshInterval != time.Minute {
		t.Errorf("Poller.RefreshInterval = %v, want 1m", cfg.Poller.RefreshInterval)
	}
	if cfg.Poller.FetchTimeout != 5*time.Second {
		t.Errorf("Poller.FetchTimeout = %v, want 5s", cfg.Poller.FetchTimeout)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_KITE_TOKEN", "secret123")

	yaml := `
instance:
  id: ticker-1
provider:
  kind: kite
kite:
  api_key: key
  access_token: ${TEST_KITE_TOKEN}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Kite.AccessToken != "secret123" {
		t.Errorf("Kite.AccessToken = %q, want %q", cfg.Kite.AccessToken, "secret123")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr string
	}{
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.yaml") },
			wantErr: "config file not found",
		},
		{
			name:    "empty file",
			path:    func(t *testing.T) string { return writeTempFile(t, "") },
			wantErr: "is empty",
		},
		{
			name:    "bad yaml",
			path:    func(t *testing.T) string { return writeTempFile(t, "provider: [unterminated") },
			wantErr: "parse config yaml",
		},
		{
			name:    "unknown key",
			path:    func(t *testing.T) string { return writeTempFile(t, "poller:\n  refresh_intervl: 1m\n") },
			wantErr: "refresh_intervl",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file error = %v, want ErrNotFound", err)
	}
}

func TestLoad_ExampleConfig(t *testing.T) {
	cfg, err := LoadWithDefaults(filepath.Join("..", "..", "configs", "tickerd.example.yaml"))
	if err != nil {
		t.Fatalf("LoadWithDefaults(example) failed: %v", err)
	}
	if len(cfg.Provider.Symbols) == 0 {
		t.Error("example config has no symbols")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
instance:
  id: ticker-1
provider:
  symbols:
    - symbol: NIFTY
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.Provider.Kind != DefaultProviderKind {
		t.Errorf("Provider.Kind = %q, want default %q", cfg.Provider.Kind, DefaultProviderKind)
	}
	if cfg.Provider.CacheTTL != DefaultCacheTTL {
		t.Errorf("Provider.CacheTTL = %v, want default %v", cfg.Provider.CacheTTL, DefaultCacheTTL)
	}
	if cfg.Provider.Symbols[0].SourceSymbol != "NIFTY" {
		t.Errorf("Provider.Symbols[0].SourceSymbol = %q, want symbol fallback %q", cfg.Provider.Symbols[0].SourceSymbol, "NIFTY")
	}
	if cfg.Poller.RefreshInterval != DefaultRefreshInterval {
		t.Errorf("Poller.RefreshInterval = %v, want default %v", cfg.Poller.RefreshInterval, DefaultRefreshInterval)
	}
	if cfg.Database.Port != DefaultDBPort {
		t.Errorf("Database.Port = %d, want default %d", cfg.Database.Port, DefaultDBPort)
	}
	if cfg.History.PruneSchedule != DefaultPruneSchedule {
		t.Errorf("History.PruneSchedule = %q, want default %q", cfg.History.PruneSchedule, DefaultPruneSchedule)
	}
	if cfg.Server.Port != DefaultServerPort {
		t.Errorf("Server.Port = %d, want default %d", cfg.Server.Port, DefaultServerPort)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() after defaults: %v", err)
	}
}

func TestLoadAndValidate_NegativeInterval(t *testing.T) {
	yaml := `
instance:
  id: ticker-1
provider:
  symbols:
    - symbol: NIFTY
poller:
  refresh_interval: -5s
`
	_, err := LoadAndValidate(writeTempFile(t, yaml))
	if err == nil {
		t.Fatal("LoadAndValidate expected error")
	}
	if want := "validate config: poller.refresh_interval must be > 0"; err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

// validConfig returns a config that passes Validate.
func validConfig() Config {
	cfg := Config{
		Instance: InstanceConfig{ID: "test"},
		Provider: ProviderConfig{
			Symbols: []provider.Symbol{{Symbol: "NIFTY", Name: "NIFTY 50", SourceSymbol: "^NSEI"}},
		},
	}
	cfg.applyDefaults()
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "missing instance id",
			mutate:  func(c *Config) { c.Instance.ID = "" },
			wantErr: "instance.id is required",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "trace" },
			wantErr: `log.level must be one of debug, info, warn, error, got "trace"`,
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: `log.format must be text or json, got "xml"`,
		},
		{
			name:    "unknown provider kind",
			mutate:  func(c *Config) { c.Provider.Kind = "scrape" },
			wantErr: `provider.kind must be http or kite, got "scrape"`,
		},
		{
			name:    "kite without api key",
			mutate:  func(c *Config) { c.Provider.Kind = "kite" },
			wantErr: "kite.api_key is required for provider kind kite",
		},
		{
			name: "kite without access token",
			mutate: func(c *Config) {
				c.Provider.Kind = "kite"
				c.Kite.APIKey = "key"
			},
			wantErr: "kite.access_token is required for provider kind kite",
		},
		{
			name:    "no symbols",
			mutate:  func(c *Config) { c.Provider.Symbols = nil },
			wantErr: "provider.symbols must contain at least one symbol",
		},
		{
			name: "duplicate symbol",
			mutate: func(c *Config) {
				c.Provider.Symbols = append(c.Provider.Symbols, provider.Symbol{Symbol: "NIFTY", SourceSymbol: "NSE:NIFTY 50"})
			},
			wantErr: `provider.symbols[1]: duplicate symbol "NIFTY"`,
		},
		{
			name:    "zero refresh interval",
			mutate:  func(c *Config) { c.Poller.RefreshInterval = 0 },
			wantErr: "poller.refresh_interval must be > 0",
		},
		{
			name:    "negative fetch timeout",
			mutate:  func(c *Config) { c.Poller.FetchTimeout = -time.Second },
			wantErr: "poller.fetch_timeout must be >= 0",
		},
		{
			name: "database enabled without host",
			mutate: func(c *Config) {
				c.Database.Enabled = true
			},
			wantErr: "database.host is required",
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *Config) {
				c.Database = DBConfig{Enabled: true, Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 5, MinConns: 10}
			},
			wantErr: "database.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name: "bad prune schedule",
			mutate: func(c *Config) {
				c.Database = DBConfig{Enabled: true, Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 5, MinConns: 1}
				c.History.PruneSchedule = "every day"
			},
			wantErr: "history.prune_schedule is invalid",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "server.port must be between 1 and 65535, got 70000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErr)
			}
			if got := err.Error(); len(got) < len(tt.wantErr) || got[:len(tt.wantErr)] != tt.wantErr {
				t.Errorf("Validate() error = %q, want prefix %q", got, tt.wantErr)
			}
		})
	}
}

func TestLogConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := (LogConfig{Level: tt.level}).SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
