// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/worktrace/worktrace/internal/logging"
	"github.com/worktrace/worktrace/internal/metrics"
	"github.com/worktrace/worktrace/internal/middleware"
	"github.com/worktrace/worktrace/internal/models"
	ws "github.com/worktrace/worktrace/internal/websocket"
)

// WebSocket upgrades an authenticated connection and registers it with
// the hub. The route runs behind the Authenticate middleware; browser
// clients pass the token as a query parameter since they cannot set
// headers on websocket open.
//
// The connection is scoped to a tenant: admins see their own tenant's
// events, employees see the tenant they belong to.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, ErrCodeAuthentication, "missing authentication token")
		return
	}

	tenant, err := h.resolveTenant(r, claims.ActorType)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		metrics.WSErrors.WithLabelValues("upgrade_failed").Inc()
		logging.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(h.wsHub, conn, tenant)
	h.wsHub.Register <- client
	client.Start()
}

// resolveTenant maps the authenticated actor to its tenant admin ID.
func (h *Handler) resolveTenant(r *http.Request, actorType string) (uuid.UUID, error) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	actorID, err := claims.ActorID()
	if err != nil {
		return uuid.Nil, err
	}

	if actorType == models.ActorAdmin {
		return actorID, nil
	}

	emp, err := h.db.GetEmployeeByID(r.Context(), actorID)
	if err != nil {
		return uuid.Nil, err
	}
	return emp.AdminID, nil
}
