package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/rickgao/ticker-feed/internal/model"
	"github.com/rickgao/ticker-feed/internal/poller"
	"github.com/rickgao/ticker-feed/internal/version"
)

const (
	healthHealthy   = "healthy"
	healthDegraded  = "degraded"
	healthUnhealthy = "unhealthy"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	state := s.poller.State()
	health := HealthResponse{
		Status:     healthHealthy,
		InstanceID: s.cfg.InstanceID,
		Version:    version.Version,
		Components: make(map[string]any),
	}

	poll := map[string]any{
		"status": state.Status.String(),
		"items":  len(state.Items),
	}
	if !state.LastUpdated.IsZero() {
		poll["last_updated"] = state.LastUpdated.UTC()
	}
	if state.HasError() {
		poll["error"] = state.Error
	}
	health.Components["poller"] = poll

	switch {
	case state.Status == model.StatusStopped:
		health.Status = healthUnhealthy
	case state.Status == model.StatusErrored, len(state.Items) == 0:
		health.Status = healthDegraded
	}

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			health.Status = healthUnhealthy
			health.Components["database"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["database"] = "connected"
		}
	}

	status := http.StatusOK
	if health.Status == healthUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NewStateResponse(s.poller.State()))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.poller.Refresh(); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, poller.ErrNotStarted) || errors.Is(err, poller.ErrStopped) {
			status = http.StatusConflict
		}
		s.logger.Warn("refresh rejected",
			"error", err,
			"request_id", middleware.GetReqID(r.Context()),
		)
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	s.logger.Info("manual refresh requested", "request_id", middleware.GetReqID(r.Context()))
	writeJSON(w, http.StatusAccepted, NewStateResponse(s.poller.State()))
}
