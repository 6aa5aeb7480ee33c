// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/worktrace/worktrace/internal/audit"
	"github.com/worktrace/worktrace/internal/auth"
	"github.com/worktrace/worktrace/internal/config"
	"github.com/worktrace/worktrace/internal/database"
	"github.com/worktrace/worktrace/internal/events"
	"github.com/worktrace/worktrace/internal/logging"
	"github.com/worktrace/worktrace/internal/sessions"
	ws "github.com/worktrace/worktrace/internal/websocket"
)

// Handler carries the dependencies shared by all HTTP handlers.
//
// Handler methods are split across files:
//   - handlers_auth.go: signup, login, logout
//   - handlers_admin.go: tenant CRUD (employees, sites, departments, areas)
//   - handlers_tracking.go: check-in/out, location ingest, live-map reads
//   - handlers_health.go: liveness and readiness
//   - handlers_websocket.go: realtime upgrade
type Handler struct {
	db         *database.DB
	config     *config.Config
	jwtManager *auth.JWTManager
	sessions   *sessions.Store
	publisher  *events.Publisher
	wsHub      *ws.Hub
	audit      *audit.Trail
	throttle   *locationThrottle
	startTime  time.Time
}

// NewHandler creates the API handler.
func NewHandler(db *database.DB, cfg *config.Config, jwtManager *auth.JWTManager, store *sessions.Store, publisher *events.Publisher, hub *ws.Hub) *Handler {
	return &Handler{
		db:         db,
		config:     cfg,
		jwtManager: jwtManager,
		sessions:   store,
		publisher:  publisher,
		wsHub:      hub,
		throttle:   newLocationThrottle(cfg.Tracking.LocationMinInterval),
		startTime:  time.Now(),
	}
}

// WithAudit attaches the audit trail. Without it handlers still work;
// recording is a no-op on a nil trail.
func (h *Handler) WithAudit(trail *audit.Trail) *Handler {
	h.audit = trail
	return h
}

// getUpgrader builds the websocket upgrader with origin checking and a
// handshake timeout against slow-client attacks.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates upgrade origins. Requests without an
// Origin header are allowed: native mobile clients and the Go SDK do not
// send one, and their auth is the token itself.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if h.config == nil {
		return true
	}

	for _, allowed := range h.config.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("websocket connection rejected from unauthorized origin")
	return false
}

// sanitizeLogValue strips control characters so attacker-supplied values
// cannot inject log lines.
func sanitizeLogValue(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}
