package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/rickgao/ticker-feed/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleStream pushes the current state and then every update until the
// client goes away, the poller stops, or the server shuts down.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	logger := s.logger.With(
		"remote_addr", r.RemoteAddr,
		"request_id", middleware.GetReqID(r.Context()),
	)
	logger.Debug("stream client connected")

	updates, unsubscribe := s.poller.Subscribe()
	defer unsubscribe()

	// Reader: handles control frames and detects client close.
	gone := make(chan struct{})
	pongWait := 2 * s.cfg.PingInterval
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := s.writeState(conn, s.poller.State()); err != nil {
		logger.Debug("stream write failed", "error", err)
		return
	}

	ping := time.NewTicker(s.cfg.PingInterval)
	defer ping.Stop()

	for {
		select {
		case st, ok := <-updates:
			if !ok {
				s.writeClose(conn, websocket.CloseGoingAway, "poller stopped")
				return
			}
			if err := s.writeState(conn, st); err != nil {
				logger.Debug("stream write failed", "error", err)
				return
			}
		case <-ping.C:
			deadline := time.Now().Add(s.cfg.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
				logger.Debug("stream ping failed", "error", err)
				return
			}
		case <-gone:
			logger.Debug("stream client disconnected")
			return
		case <-s.done:
			s.writeClose(conn, websocket.CloseGoingAway, "server shutting down")
			return
		}
	}
}

func (s *Server) writeState(conn *websocket.Conn, st model.PollerState) error {
	conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	return conn.WriteJSON(NewStateResponse(st))
}

func (s *Server) writeClose(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(s.cfg.WriteTimeout)
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
}
