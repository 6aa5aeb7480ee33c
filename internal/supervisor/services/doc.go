// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

// Package services wraps the server's long-running components as
// suture.Service implementations. Each wrapper depends on a small
// interface rather than the concrete type, so tests can substitute
// mocks and the package stays free of import cycles.
package services
