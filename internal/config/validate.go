package config

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	if err := c.validateProvider(); err != nil {
		return err
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("redis.addr is required when redis is enabled")
	}
	if c.Redis.TTL < 0 {
		return errors.New("redis.ttl must be >= 0")
	}

	if c.Poller.RefreshInterval <= 0 {
		return errors.New("poller.refresh_interval must be > 0")
	}
	if c.Poller.FetchTimeout < 0 {
		return errors.New("poller.fetch_timeout must be >= 0")
	}

	if c.Database.Enabled {
		if err := c.Database.validate("database"); err != nil {
			return err
		}
		if err := c.History.validate(); err != nil {
			return err
		}
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.PingInterval <= 0 {
		return errors.New("server.ping_interval must be > 0")
	}

	return nil
}

func (c *Config) validateProvider() error {
	p := c.Provider
	switch p.Kind {
	case "http":
		if p.BaseURL == "" {
			return errors.New("provider.base_url is required for kind http")
		}
	case "kite":
		if c.Kite.APIKey == "" {
			return errors.New("kite.api_key is required for provider kind kite")
		}
		if c.Kite.AccessToken == "" {
			return errors.New("kite.access_token is required for provider kind kite")
		}
	default:
		return fmt.Errorf("provider.kind must be http or kite, got %q", p.Kind)
	}

	if p.MaxRetries < 0 {
		return errors.New("provider.max_retries must be >= 0")
	}
	if p.CacheTTL < 0 {
		return errors.New("provider.cache_ttl must be >= 0")
	}

	if len(p.Symbols) == 0 {
		return errors.New("provider.symbols must contain at least one symbol")
	}
	seen := make(map[string]bool, len(p.Symbols))
	for i, s := range p.Symbols {
		if s.Symbol == "" {
			return fmt.Errorf("provider.symbols[%d].symbol is required", i)
		}
		if s.SourceSymbol == "" {
			return fmt.Errorf("provider.symbols[%d].source_symbol is required", i)
		}
		if seen[s.Symbol] {
			return fmt.Errorf("provider.symbols[%d]: duplicate symbol %q", i, s.Symbol)
		}
		seen[s.Symbol] = true
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

func (h *HistoryConfig) validate() error {
	if h.BatchSize < 1 {
		return errors.New("history.batch_size must be >= 1")
	}
	if h.FlushInterval <= 0 {
		return errors.New("history.flush_interval must be > 0")
	}
	if h.Retention < 0 {
		return errors.New("history.retention must be >= 0")
	}
	if h.Retention > 0 {
		if _, err := cron.ParseStandard(h.PruneSchedule); err != nil {
			return fmt.Errorf("history.prune_schedule is invalid: %w", err)
		}
	}
	return nil
}
