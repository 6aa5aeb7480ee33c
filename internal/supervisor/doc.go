// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

// Package supervisor provides suture-based process supervision for the
// Worktrace server.
//
// The tree has three layers with independent restart budgets:
//
//   - data: session store maintenance
//   - messaging: websocket hub and the bus-to-websocket bridge
//   - api: the HTTP server
//
// A crash in the messaging layer restarts the realtime feed without
// taking down the HTTP API; dashboards recover state from the snapshot
// endpoint after reconnecting.
package supervisor
