// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

// Package middleware provides the HTTP middleware shared by all API
// routes: request IDs, Prometheus instrumentation, and JWT plus session
// authentication. CORS and rate limiting come from the go-chi ecosystem
// and are wired directly in the router.
package middleware
