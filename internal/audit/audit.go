// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

// Package audit records security-relevant actions for later review:
// logins, logouts, and every admin mutation of tenant data. Entries are
// written asynchronously to DuckDB and queried per tenant.
package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Action categorizes an audit entry.
type Action string

const (
	ActionSignup      Action = "auth.signup"
	ActionLogin       Action = "auth.login"
	ActionLoginFailed Action = "auth.login_failed"
	ActionLogout      Action = "auth.logout"

	ActionAdminActivated   Action = "admin.activated"
	ActionAdminDeactivated Action = "admin.deactivated"

	ActionEmployeeCreated     Action = "employee.created"
	ActionEmployeeUpdated     Action = "employee.updated"
	ActionEmployeeDeactivated Action = "employee.deactivated"

	ActionSiteCreated     Action = "site.created"
	ActionSiteUpdated     Action = "site.updated"
	ActionSiteDeactivated Action = "site.deactivated"

	ActionDepartmentCreated Action = "department.created"
	ActionDepartmentDeleted Action = "department.deleted"

	ActionAreaCreated Action = "area.created"
	ActionAreaDeleted Action = "area.deleted"
)

// Entry is one recorded action. AdminID is the owning tenant; for
// tenant-less events (a failed login against an unknown account) it is
// uuid.Nil and the entry is only visible to operators with database
// access.
type Entry struct {
	ID         uuid.UUID       `json:"id"`
	AdminID    uuid.UUID       `json:"admin_id"`
	ActorID    string          `json:"actor_id"`
	ActorType  string          `json:"actor_type"`
	Action     Action          `json:"action"`
	TargetID   string          `json:"target_id,omitempty"`
	TargetType string          `json:"target_type,omitempty"`
	SourceIP   string          `json:"source_ip,omitempty"`
	Details    json.RawMessage `json:"details,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Filter narrows tenant-scoped audit queries.
type Filter struct {
	Actions  []Action
	ActorID  string
	TargetID string
	Since    *time.Time
	Until    *time.Time
	Limit    int
	Offset   int
}

// DefaultFilter returns the filter applied when a query gives none.
func DefaultFilter() Filter {
	return Filter{Limit: 100}
}

// Store persists audit entries.
type Store interface {
	// Save persists one entry.
	Save(ctx context.Context, entry *Entry) error

	// Query returns a tenant's entries matching the filter, newest first.
	Query(ctx context.Context, tenant uuid.UUID, filter Filter) ([]Entry, error)

	// Count returns the number of a tenant's entries matching the filter.
	Count(ctx context.Context, tenant uuid.UUID, filter Filter) (int64, error)

	// Purge removes entries older than the cutoff and reports how many.
	Purge(ctx context.Context, olderThan time.Time) (int64, error)
}

// ClientIP extracts the originating address of a request, preferring
// proxy-set headers over the socket peer.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// Details marshals action-specific metadata, returning an empty object
// when marshalling fails so an entry is never lost to bad metadata.
func Details(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}
