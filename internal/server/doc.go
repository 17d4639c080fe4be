// Package server exposes the ticker state over HTTP and WebSocket.
//
// Routes:
//   - GET  /health               liveness plus poller and database status
//   - GET  /api/ticker           current state
//   - POST /api/ticker/refresh   manual refresh (202), 409 when the poller is not running
//   - GET  /api/ticker/stream    WebSocket: current state, then every update
//
// State is encoded as
//
//	{"items": [...], "isLoading": false, "error": null, "lastUpdated": "...", "status": "ready"}
//
// with error and lastUpdated null until set.
package server
