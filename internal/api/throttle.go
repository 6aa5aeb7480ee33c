// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// locationThrottle rate-limits location ingest per employee. Mobile
// clients in a retry loop can flood the feed; excess samples are
// accepted and dropped rather than rejected, since the location stream
// is best-effort supplementary data.
type locationThrottle struct {
	mu       sync.Mutex
	limiters map[uuid.UUID]*rate.Limiter
	limit    rate.Limit
}

// newLocationThrottle allows one sample per minInterval per employee,
// with a burst of one. A non-positive interval disables throttling.
func newLocationThrottle(minInterval time.Duration) *locationThrottle {
	t := &locationThrottle{limiters: make(map[uuid.UUID]*rate.Limiter)}
	if minInterval > 0 {
		t.limit = rate.Every(minInterval)
	}
	return t
}

// Allow reports whether a sample from the employee should be ingested.
func (t *locationThrottle) Allow(employeeID uuid.UUID) bool {
	if t.limit == 0 {
		return true
	}

	t.mu.Lock()
	limiter, ok := t.limiters[employeeID]
	if !ok {
		limiter = rate.NewLimiter(t.limit, 1)
		t.limiters[employeeID] = limiter
	}
	t.mu.Unlock()

	return limiter.Allow()
}
