package server

import (
	"time"

	"github.com/rickgao/ticker-feed/internal/model"
)

// StateResponse is the wire form of model.PollerState.
type StateResponse struct {
	Items       []model.TickerItem `json:"items"`
	IsLoading   bool               `json:"isLoading"`
	Error       *string            `json:"error"`
	LastUpdated *time.Time         `json:"lastUpdated"`
	Status      string             `json:"status"`
}

// NewStateResponse converts a snapshot. Empty error and zero time encode as null.
func NewStateResponse(s model.PollerState) StateResponse {
	resp := StateResponse{
		Items:     s.Items,
		IsLoading: s.IsLoading,
		Status:    s.Status.String(),
	}
	if resp.Items == nil {
		resp.Items = []model.TickerItem{}
	}
	if s.HasError() {
		msg := s.Error
		resp.Error = &msg
	}
	if !s.LastUpdated.IsZero() {
		t := s.LastUpdated.UTC()
		resp.LastUpdated = &t
	}
	return resp
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status     string         `json:"status"`
	InstanceID string         `json:"instance_id,omitempty"`
	Version    string         `json:"version"`
	Components map[string]any `json:"components"`
}

// errorResponse is returned for rejected requests.
type errorResponse struct {
	Error string `json:"error"`
}
