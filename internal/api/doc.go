// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

// Package api provides the HTTP surface of Worktrace on the chi router.
//
// Route groups:
//   - /api/v1/auth: signup, login, logout (strict per-IP rate limits)
//   - /api/v1/admin: tenant CRUD, live-map snapshot, attendance listings
//   - /api/v1/employee: check-in, check-out, location reports, profile
//   - /ws: websocket upgrade for realtime tracking events
//   - /api/v1/health, /metrics: unauthenticated operational endpoints
//
// Every response uses the models.APIResponse envelope. Handlers validate
// request bodies with the validation package, enforce tenant boundaries
// through the database layer, and publish realtime events after the
// durable write succeeds.
package api
