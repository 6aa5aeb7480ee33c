// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package services

import (
	"context"
	"time"
)

// RetentionRunner matches *audit.Trail's retention loop.
type RetentionRunner interface {
	RunRetention(ctx context.Context, retention, interval time.Duration) error
}

// AuditRetentionService purges expired audit entries under supervision.
type AuditRetentionService struct {
	trail     RetentionRunner
	retention time.Duration
	interval  time.Duration
	name      string
}

// NewAuditRetentionService wraps an audit trail for supervision.
func NewAuditRetentionService(trail RetentionRunner, retention, interval time.Duration) *AuditRetentionService {
	return &AuditRetentionService{
		trail:     trail,
		retention: retention,
		interval:  interval,
		name:      "audit-retention",
	}
}

// Serve implements suture.Service.
func (s *AuditRetentionService) Serve(ctx context.Context) error {
	return s.trail.RunRetention(ctx, s.retention, s.interval)
}

// String identifies the service in suture log messages.
func (s *AuditRetentionService) String() string {
	return s.name
}
