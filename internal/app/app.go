package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rickgao/ticker-feed/internal/api"
	"github.com/rickgao/ticker-feed/internal/cache"
	"github.com/rickgao/ticker-feed/internal/config"
	"github.com/rickgao/ticker-feed/internal/kite"
	"github.com/rickgao/ticker-feed/internal/provider"
	"github.com/rickgao/ticker-feed/internal/trace"
)

// retryBackoff is the base delay between quote API retries.
const retryBackoff = 500 * time.Millisecond

// NewLogger builds the process logger. Records logged inside a span carry
// trace_id and span_id.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(trace.NewLogHandler(h))
}

// NewSource creates the quote source selected by provider.kind.
func NewSource(cfg *config.Config, logger *slog.Logger) (provider.Source, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Provider.Kind {
	case "http":
		client := api.NewClient(
			cfg.Provider.BaseURL,
			cfg.Provider.APIKey,
			api.WithLogger(logger),
			api.WithTimeout(cfg.Provider.Timeout),
			api.WithRetries(cfg.Provider.MaxRetries, retryBackoff),
		)
		return api.NewQuoteSource(client), nil
	case "kite":
		src, err := kite.New(kite.Config{
			APIKey:      cfg.Kite.APIKey,
			AccessToken: cfg.Kite.AccessToken,
			BaseURL:     cfg.Kite.BaseURL,
			Timeout:     cfg.Provider.Timeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("create kite source: %w", err)
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Provider.Kind)
	}
}

// NewProvider wires the source and caches. The returned func releases the
// shared cache connection.
func NewProvider(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*provider.Provider, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	src, err := NewSource(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	opts := []provider.Option{
		provider.WithTTL(cfg.Provider.CacheTTL),
		provider.WithLogger(logger),
	}
	closer := func() {}

	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		store := cache.NewRedisStore(client, cfg.Redis.Key, cfg.Redis.TTL)
		opts = append(opts, provider.WithSharedCache(store))
		closer = func() { client.Close() }

		logger.Info("shared quote cache enabled", "addr", cfg.Redis.Addr, "key", store.Key())
	}

	return provider.New(src, cfg.Provider.Symbols, opts...), closer, nil
}
