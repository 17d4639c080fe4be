package config

import (
	"log/slog"
	"time"

	"github.com/rickgao/ticker-feed/internal/provider"
)

// Config is the root configuration for a ticker-feed instance.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	Log      LogConfig      `yaml:"log"`
	Provider ProviderConfig `yaml:"provider"`
	Kite     KiteConfig     `yaml:"kite"`
	Redis    RedisConfig    `yaml:"redis"`
	Poller   PollerConfig   `yaml:"poller"`
	Database DBConfig       `yaml:"database"`
	History  HistoryConfig  `yaml:"history"`
	Server   ServerConfig   `yaml:"server"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

// InstanceConfig identifies this instance.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// SlogLevel maps Level to a slog.Level, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ProviderConfig selects the quote source and the symbols to track.
type ProviderConfig struct {
	Kind       string            `yaml:"kind"` // http or kite
	BaseURL    string            `yaml:"base_url"`
	APIKey     string            `yaml:"api_key"`
	Timeout    time.Duration     `yaml:"timeout"`
	MaxRetries int               `yaml:"max_retries"`
	CacheTTL   time.Duration     `yaml:"cache_ttl"`
	Symbols    []provider.Symbol `yaml:"symbols"`
}

// KiteConfig holds Zerodha Kite Connect credentials.
type KiteConfig struct {
	APIKey      string `yaml:"api_key"`
	AccessToken string `yaml:"access_token"`
	BaseURL     string `yaml:"base_url"`
}

// RedisConfig holds the shared quote cache settings.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Key      string        `yaml:"key"`
	TTL      time.Duration `yaml:"ttl"`
}

// PollerConfig holds ticker poller settings.
type PollerConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`
}

// DBConfig holds the history database connection.
type DBConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// HistoryConfig holds snapshot writer and retention settings.
type HistoryConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	Retention     time.Duration `yaml:"retention"`      // 0 disables pruning
	PruneSchedule string        `yaml:"prune_schedule"` // Standard 5-field cron expression
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`
	PingInterval time.Duration `yaml:"ping_interval"`
}

// TracingConfig toggles OpenTelemetry tracing.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}
