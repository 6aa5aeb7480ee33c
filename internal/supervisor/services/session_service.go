// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package services

import (
	"context"
	"time"
)

// SessionMaintainer matches *sessions.Store's maintenance loop.
type SessionMaintainer interface {
	RunMaintenance(ctx context.Context, interval time.Duration) error
}

// SessionMaintenanceService runs the session store's expiry gauge and
// badger value log GC loop under supervision.
type SessionMaintenanceService struct {
	store    SessionMaintainer
	interval time.Duration
	name     string
}

// NewSessionMaintenanceService wraps a session store for supervision.
func NewSessionMaintenanceService(store SessionMaintainer, interval time.Duration) *SessionMaintenanceService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SessionMaintenanceService{
		store:    store,
		interval: interval,
		name:     "session-maintenance",
	}
}

// Serve implements suture.Service.
func (s *SessionMaintenanceService) Serve(ctx context.Context) error {
	return s.store.RunMaintenance(ctx, s.interval)
}

// String identifies the service in suture log messages.
func (s *SessionMaintenanceService) String() string {
	return s.name
}
