// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package client

import (
	"time"
)

// Event kinds pushed by the server. Unknown kinds are passed through to
// the message hook and ignored by the higher-level consumers.
const (
	KindCheckin  = "employee_checkin"
	KindCheckout = "employee_checkout"
	KindLocation = "employee_location"
)

// Event is the payload of a tracking frame.
type Event struct {
	Kind         string    `json:"kind"`
	AdminID      string    `json:"admin_id"`
	EmployeeID   string    `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	SiteID       string    `json:"site_id,omitempty"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	OnSite       bool      `json:"on_site"`
	Seq          int64     `json:"seq,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Frame is the wire envelope: a type discriminator plus the event.
type Frame struct {
	Type string `json:"type"`
	Data Event  `json:"data"`
}
