package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultProviderKind    = "http"
	DefaultBaseURL         = "https://query1.finance.yahoo.com"
	DefaultAPITimeout      = 10 * time.Second
	DefaultMaxRetries      = 2
	DefaultCacheTTL        = 30 * time.Second
	DefaultRedisAddr       = "localhost:6379"
	DefaultRedisKey        = "ticker-feed:quotes"
	DefaultRedisTTL        = 5 * time.Minute
	DefaultRefreshInterval = 60 * time.Second
	DefaultFetchTimeout    = 10 * time.Second
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultMaxConns        = 10
	DefaultMinConns        = 2
	DefaultBatchSize       = 500
	DefaultFlushInterval   = 5 * time.Second
	DefaultRetention       = 30 * 24 * time.Hour
	DefaultPruneSchedule   = "0 3 * * *"
	DefaultServerPort      = 8080
	DefaultPingInterval    = 30 * time.Second
)

func (c *Config) applyDefaults() {
	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}

	// Provider defaults
	if c.Provider.Kind == "" {
		c.Provider.Kind = DefaultProviderKind
	}
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = DefaultBaseURL
	}
	if c.Provider.Timeout == 0 {
		c.Provider.Timeout = DefaultAPITimeout
	}
	if c.Provider.MaxRetries == 0 {
		c.Provider.MaxRetries = DefaultMaxRetries
	}
	if c.Provider.CacheTTL == 0 {
		c.Provider.CacheTTL = DefaultCacheTTL
	}
	for i := range c.Provider.Symbols {
		if c.Provider.Symbols[i].SourceSymbol == "" {
			c.Provider.Symbols[i].SourceSymbol = c.Provider.Symbols[i].Symbol
		}
	}

	// Redis defaults
	if c.Redis.Addr == "" {
		c.Redis.Addr = DefaultRedisAddr
	}
	if c.Redis.Key == "" {
		c.Redis.Key = DefaultRedisKey
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = DefaultRedisTTL
	}

	// Poller defaults
	if c.Poller.RefreshInterval == 0 {
		c.Poller.RefreshInterval = DefaultRefreshInterval
	}
	if c.Poller.FetchTimeout == 0 {
		c.Poller.FetchTimeout = DefaultFetchTimeout
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// History defaults
	if c.History.BatchSize == 0 {
		c.History.BatchSize = DefaultBatchSize
	}
	if c.History.FlushInterval == 0 {
		c.History.FlushInterval = DefaultFlushInterval
	}
	if c.History.Retention == 0 {
		c.History.Retention = DefaultRetention
	}
	if c.History.PruneSchedule == "" {
		c.History.PruneSchedule = DefaultPruneSchedule
	}

	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.PingInterval == 0 {
		c.Server.PingInterval = DefaultPingInterval
	}
}
