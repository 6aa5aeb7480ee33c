// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package client

import (
	"sort"
	"sync"
	"time"
)

// Marker is one employee's position on the live map.
type Marker struct {
	EmployeeID   string    `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	OnSite       bool      `json:"on_site"`
	Seq          int64     `json:"seq"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// Viewport is the map camera. It changes only through SetCenter, never
// as a side effect of a data refresh, so the map does not jump while
// positions stream in.
type Viewport struct {
	Latitude  float64
	Longitude float64
	Zoom      int
}

// LiveMap reconciles periodically polled snapshots with realtime
// location deltas. Every update carries a sequence number from the
// server's single location feed; a marker only moves forward in that
// order, so a delayed delta or an older snapshot row never overwrites
// a newer position.
type LiveMap struct {
	mu       sync.Mutex
	markers  map[string]Marker
	viewport Viewport
	centered bool
}

// NewLiveMap creates an empty map view.
func NewLiveMap() *LiveMap {
	return &LiveMap{markers: make(map[string]Marker)}
}

// ApplySnapshot replaces the marker set wholesale, keeping an existing
// marker only where it is newer than the snapshot row for the same
// employee. Employees absent from the snapshot are removed. The
// viewport centers once, on the first non-empty snapshot.
func (m *LiveMap) ApplySnapshot(rows []Marker) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := make(map[string]Marker, len(rows))
	for _, row := range rows {
		if existing, ok := m.markers[row.EmployeeID]; ok && existing.Seq > row.Seq {
			next[row.EmployeeID] = existing
			continue
		}
		next[row.EmployeeID] = row
	}
	m.markers = next

	if !m.centered && len(rows) > 0 {
		m.viewport.Latitude = rows[0].Latitude
		m.viewport.Longitude = rows[0].Longitude
		m.centered = true
	}
}

// ApplyDelta merges one realtime location event. Non-location kinds
// are ignored. A delta with a sequence number at or below the marker's
// current one is stale and dropped; an unknown employee (arrived
// between polls) is appended.
func (m *LiveMap) ApplyDelta(frame Frame) bool {
	if frame.Type != KindLocation {
		return false
	}
	ev := frame.Data

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.markers[ev.EmployeeID]; ok && ev.Seq <= existing.Seq {
		return false
	}
	m.markers[ev.EmployeeID] = Marker{
		EmployeeID:   ev.EmployeeID,
		EmployeeName: ev.EmployeeName,
		Latitude:     ev.Latitude,
		Longitude:    ev.Longitude,
		OnSite:       ev.OnSite,
		Seq:          ev.Seq,
		RecordedAt:   ev.OccurredAt,
	}
	return true
}

// Markers returns the current marker set ordered by employee ID for
// stable rendering.
func (m *LiveMap) Markers() []Marker {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Marker, 0, len(m.markers))
	for _, marker := range m.markers {
		out = append(out, marker)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out
}

// Marker returns one employee's marker.
func (m *LiveMap) Marker(employeeID string) (Marker, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	marker, ok := m.markers[employeeID]
	return marker, ok
}

// SetCenter moves the viewport. This is the only way the camera moves.
func (m *LiveMap) SetCenter(lat, lon float64, zoom int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewport = Viewport{Latitude: lat, Longitude: lon, Zoom: zoom}
	m.centered = true
}

// Center returns the current viewport.
func (m *LiveMap) Center() Viewport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewport
}
