// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package database

import "errors"

// Sentinel errors returned by the data access layer. Handlers map these to
// HTTP status codes (NOT_FOUND, CONFLICT) without string matching.
var (
	// ErrNotFound is returned when a requested row does not exist or
	// belongs to a different tenant.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when an insert would violate the email
	// uniqueness constraint on admins or employees.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrOpenSession is returned by check-in when the employee already has
	// an open attendance record.
	ErrOpenSession = errors.New("attendance session already open")

	// ErrNoOpenSession is returned by check-out when the employee has no
	// open attendance record.
	ErrNoOpenSession = errors.New("no open attendance session")

	// ErrNoAssignedSite is returned when an operation requires the
	// employee to have a work site assignment and none exists.
	ErrNoAssignedSite = errors.New("employee has no assigned work site")
)
