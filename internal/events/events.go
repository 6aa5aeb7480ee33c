// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

// Package events carries attendance and location changes from the API
// handlers to the websocket hub over an in-process Watermill bus. Events
// are scoped to a tenant: the hub only forwards an event to sockets
// authenticated for the same admin.
package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Event kinds published on the tracking topic.
const (
	KindCheckin  = "employee_checkin"
	KindCheckout = "employee_checkout"
	KindLocation = "employee_location"
)

// TrackingTopic is the single bus topic for all tenant tracking events.
const TrackingTopic = "worktrace.tracking"

// Event is one realtime update. Location events carry Seq from the same
// sequence that orders live-map snapshot rows, so consumers can drop
// deltas older than what they already applied for an employee.
type Event struct {
	Kind         string     `json:"kind"`
	AdminID      uuid.UUID  `json:"admin_id"`
	EmployeeID   uuid.UUID  `json:"employee_id"`
	EmployeeName string     `json:"employee_name"`
	SiteID       *uuid.UUID `json:"site_id,omitempty"`
	Latitude     float64    `json:"latitude"`
	Longitude    float64    `json:"longitude"`
	OnSite       bool       `json:"on_site"`
	Seq          int64      `json:"seq,omitempty"`
	OccurredAt   time.Time  `json:"occurred_at"`
}

// Validate checks the fields every consumer depends on.
func (e *Event) Validate() error {
	switch e.Kind {
	case KindCheckin, KindCheckout, KindLocation:
	default:
		return fmt.Errorf("unknown event kind: %q", e.Kind)
	}
	if e.AdminID == uuid.Nil {
		return fmt.Errorf("event missing admin_id")
	}
	if e.EmployeeID == uuid.Nil {
		return fmt.Errorf("event missing employee_id")
	}
	return nil
}

// Serialize encodes the event for the wire.
func Serialize(e *Event) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// Deserialize decodes an event payload and revalidates it.
func Deserialize(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
