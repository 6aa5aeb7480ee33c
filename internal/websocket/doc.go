// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

// Package websocket delivers realtime tracking updates to connected
// dashboards.
//
// The Hub keeps the set of open connections, each bound to one tenant,
// and fans tenant events out to matching clients. Events arrive from the
// in-process bus through the BusSubscriber; the durable record is always
// written to the database before the event is published, so a dropped
// websocket message is recoverable by refetching the snapshot.
//
// Delivery model:
//
//	handler -> events.Publisher -> events.Bus -> BusSubscriber -> Hub -> Client
//
// Location messages carry the same sequence number that orders the
// live-map snapshot; clients keep the highest applied sequence per
// employee and discard anything older, so late or duplicated deltas
// cannot move a marker backwards.
package websocket
