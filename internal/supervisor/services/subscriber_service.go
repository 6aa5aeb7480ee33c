// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package services

import (
	"context"
	"fmt"
)

// EventBridge matches *websocket.BusSubscriber's lifecycle methods.
type EventBridge interface {
	Start(ctx context.Context) error
	Stop()
}

// EventBridgeService runs the bus-to-websocket bridge under
// supervision. Start is non-blocking, so Serve holds until the context
// is cancelled and then stops the bridge.
type EventBridgeService struct {
	bridge EventBridge
	name   string
}

// NewEventBridgeService wraps a bridge for supervision.
func NewEventBridgeService(bridge EventBridge) *EventBridgeService {
	return &EventBridgeService{
		bridge: bridge,
		name:   "event-bridge",
	}
}

// Serve implements suture.Service.
func (e *EventBridgeService) Serve(ctx context.Context) error {
	if err := e.bridge.Start(ctx); err != nil {
		return fmt.Errorf("event bridge start failed: %w", err)
	}
	<-ctx.Done()
	e.bridge.Stop()
	return ctx.Err()
}

// String identifies the service in suture log messages.
func (e *EventBridgeService) String() string {
	return e.name
}
