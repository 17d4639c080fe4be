// tickerd polls index quotes on an interval and serves the latest state over
// HTTP and WebSocket. Snapshots are optionally persisted to PostgreSQL.
//
// Usage: tickerd --config configs/tickerd.example.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/ticker-feed/internal/app"
	"github.com/rickgao/ticker-feed/internal/config"
	"github.com/rickgao/ticker-feed/internal/database"
	"github.com/rickgao/ticker-feed/internal/history"
	"github.com/rickgao/ticker-feed/internal/poller"
	"github.com/rickgao/ticker-feed/internal/server"
	"github.com/rickgao/ticker-feed/internal/trace"
	"github.com/rickgao/ticker-feed/internal/version"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "configs/tickerd.example.yaml", "path to config file")
	envPath := flag.String("env", ".env", "path to .env file (optional)")
	flag.Parse()

	// Bootstrap logger until the configured one is built
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Error("failed to load env file", "path", *envPath, "error", err)
		os.Exit(1)
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = app.NewLogger(cfg.Log, os.Stdout).With("instance_id", cfg.Instance.ID)
	slog.SetDefault(logger)

	logger.Info("starting tickerd",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"provider", cfg.Provider.Kind,
		"symbols", len(cfg.Provider.Symbols),
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("tickerd failed", "error", err)
		os.Exit(1)
	}
	logger.Info("tickerd stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	err := trace.Init(ctx, trace.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    "tickerd",
		ServiceVersion: version.Version,
		InstanceID:     cfg.Instance.ID,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := trace.Shutdown(shutdownCtx); err != nil {
			logger.Warn("trace shutdown failed", "error", err)
		}
	}()

	prov, closeCache, err := app.NewProvider(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("create provider: %w", err)
	}
	defer closeCache()

	tickerPoller, err := poller.New(poller.Config{
		Interval:     cfg.Poller.RefreshInterval,
		FetchTimeout: cfg.Poller.FetchTimeout,
	}, prov, logger)
	if err != nil {
		return fmt.Errorf("create poller: %w", err)
	}

	// History is optional
	var (
		pool      *pgxpool.Pool
		writer    *history.Writer
		retention *history.Retention
	)
	if cfg.Database.Enabled {
		logger.Info("connecting to database",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Name,
		)
		pool, err = database.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		if err := database.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}

		writer = history.NewWriter(history.WriterConfig{
			BatchSize:     cfg.History.BatchSize,
			FlushInterval: cfg.History.FlushInterval,
			InstanceID:    cfg.Instance.ID,
		}, pool, logger)
		updates, _ := tickerPoller.Subscribe()
		if err := writer.Start(ctx, updates); err != nil {
			return fmt.Errorf("start history writer: %w", err)
		}

		if cfg.History.Retention > 0 {
			retention = history.NewRetention(pool, cfg.History.Retention, cfg.History.PruneSchedule, logger)
			if err := retention.Start(); err != nil {
				return fmt.Errorf("start retention: %w", err)
			}
		}
	}

	var db server.Pinger
	if pool != nil {
		db = pool
	}
	srv := server.New(server.Config{
		Port:         cfg.Server.Port,
		InstanceID:   cfg.Instance.ID,
		PingInterval: cfg.Server.PingInterval,
	}, tickerPoller, db, logger)

	if err := tickerPoller.Start(ctx); err != nil {
		return fmt.Errorf("start poller: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(tickerPoller, writer, retention, logger)
	})

	logger.Info("tickerd running",
		"port", cfg.Server.Port,
		"refresh_interval", cfg.Poller.RefreshInterval,
		"history", cfg.Database.Enabled,
	)

	return g.Wait()
}

// shutdown stops the poller first so subscribers drain, then the history
// components.
func shutdown(p *poller.Poller, w *history.Writer, r *history.Retention, logger *slog.Logger) error {
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := p.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop poller: %w", err))
	}
	if w != nil {
		if err := w.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop history writer: %w", err))
		}
		stats := w.Stats()
		logger.Info("history writer stats",
			"snapshots", stats.Snapshots,
			"inserts", stats.Inserts,
			"conflicts", stats.Conflicts,
			"errors", stats.Errors,
		)
	}
	if r != nil {
		if err := r.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop retention: %w", err))
		}
	}
	return errors.Join(errs...)
}
