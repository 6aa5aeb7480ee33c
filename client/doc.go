// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

// Package client is the Go SDK for the Worktrace realtime feed.
//
// It has four pieces that compose but can be used independently:
//
//   - TokenStore: file-backed session state (token, user, role) read
//     fresh on every call, so concurrent consumers always see the
//     current session.
//   - Realtime: a single reconnecting websocket connection to /ws.
//     Connection attempts are driven by token availability; transport
//     failures retry with capped exponential backoff and jitter.
//   - Notifier: turns check-in/check-out events into a newest-first
//     notification feed.
//   - LiveMap: reconciles polled location snapshots with realtime
//     deltas using per-employee sequence numbers, so a stale update
//     never overwrites a newer position.
//
// The realtime feed is best-effort supplementary data: authoritative
// state is always the polled snapshot endpoint.
package client
