package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rickgao/ticker-feed/internal/model"
)

// Poller is the subset of poller.Poller served over HTTP.
type Poller interface {
	State() model.PollerState
	Refresh() error
	Subscribe() (<-chan model.PollerState, func())
}

// Pinger reports database reachability. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds server settings.
type Config struct {
	Port         int
	InstanceID   string
	PingInterval time.Duration // WebSocket keepalive (default: 30s)
	WriteTimeout time.Duration // WebSocket write deadline (default: 10s)
}

// Server serves the ticker API.
type Server struct {
	cfg    Config
	poller Poller
	db     Pinger
	logger *slog.Logger

	router http.Handler

	// Closed on shutdown so hijacked stream connections exit.
	done     chan struct{}
	doneOnce sync.Once
}

// New creates a Server. db may be nil when history is disabled.
func New(cfg Config, p Poller, db Pinger, logger *slog.Logger) *Server {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:    cfg,
		poller: p,
		db:     db,
		logger: logger,
		done:   make(chan struct{}),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/api/ticker", s.handleState)
	r.Post("/api/ticker/refresh", s.handleRefresh)
	r.Get("/api/ticker/stream", s.handleStream)
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", "port", s.cfg.Port)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.Close()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

// Close ends open streams.
func (s *Server) Close() {
	s.doneOnce.Do(func() { close(s.done) })
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
