// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package client

import (
	"fmt"
	"sync"
	"time"
)

// Notification is one entry in the feed.
type Notification struct {
	Type         string    `json:"type"`
	Message      string    `json:"message"`
	EmployeeID   string    `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	SiteID       string    `json:"site_id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// connectionState exposes the realtime connection's liveness, so a UI
// can distinguish an empty feed from a disconnected one. Realtime
// satisfies it.
type connectionState interface {
	IsConnected() bool
}

// Notifier aggregates check-in and check-out events into a bounded,
// newest-first notification feed. Location events and unknown kinds
// are ignored, not errors.
type Notifier struct {
	mu            sync.Mutex
	notifications []Notification
	conn          connectionState
}

// NewNotifier creates an empty feed tracking the given connection.
// conn may be nil when liveness pass-through is not needed.
func NewNotifier(conn connectionState) *Notifier {
	return &Notifier{conn: conn}
}

// Handle consumes one frame. Wire it as the Realtime OnMessage hook or
// call it directly.
func (n *Notifier) Handle(frame Frame) {
	var message string
	switch frame.Type {
	case KindCheckin:
		message = fmt.Sprintf("%s checked in", frame.Data.EmployeeName)
	case KindCheckout:
		message = fmt.Sprintf("%s checked out", frame.Data.EmployeeName)
	default:
		return
	}

	entry := Notification{
		Type:         frame.Type,
		Message:      message,
		EmployeeID:   frame.Data.EmployeeID,
		EmployeeName: frame.Data.EmployeeName,
		SiteID:       frame.Data.SiteID,
		Timestamp:    frame.Data.OccurredAt,
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	// Newest first; arrival order is the only ordering guarantee.
	n.notifications = append([]Notification{entry}, n.notifications...)
}

// Notifications returns a copy of the feed, newest first.
func (n *Notifier) Notifications() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Notification, len(n.notifications))
	copy(out, n.notifications)
	return out
}

// Unread returns the current feed length.
func (n *Notifier) Unread() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notifications)
}

// Clear empties the feed. Local state only; nothing on the server
// changes.
func (n *Notifier) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = nil
}

// MarkAsRead removes exactly one entry by position. An out-of-range
// index is a no-op.
func (n *Notifier) MarkAsRead(index int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if index < 0 || index >= len(n.notifications) {
		return
	}
	n.notifications = append(n.notifications[:index], n.notifications[index+1:]...)
}

// IsConnected passes through the realtime connection's state. False
// when no connection was supplied.
func (n *Notifier) IsConnected() bool {
	if n.conn == nil {
		return false
	}
	return n.conn.IsConnected()
}
