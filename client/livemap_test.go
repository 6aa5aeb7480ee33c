// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package client

import (
	"testing"
	"time"
)

func snapshotRow(id string, seq int64, lat, lon float64) Marker {
	return Marker{
		EmployeeID:   id,
		EmployeeName: "emp " + id,
		Latitude:     lat,
		Longitude:    lon,
		OnSite:       true,
		Seq:          seq,
		RecordedAt:   time.Now(),
	}
}

func locationFrame(id string, seq int64, lat, lon float64) Frame {
	return Frame{
		Type: KindLocation,
		Data: Event{
			Kind:         KindLocation,
			EmployeeID:   id,
			EmployeeName: "emp " + id,
			Latitude:     lat,
			Longitude:    lon,
			OnSite:       true,
			Seq:          seq,
			OccurredAt:   time.Now(),
		},
	}
}

func TestLiveMapSnapshotReplaces(t *testing.T) {
	m := NewLiveMap()
	m.ApplySnapshot([]Marker{
		snapshotRow("e-1", 1, 28.60, 77.20),
		snapshotRow("e-2", 4, 28.61, 77.21),
	})

	if got := m.Markers(); len(got) != 2 {
		t.Fatalf("Markers() len = %d, want 2", len(got))
	}

	// e-2 disappears from the next poll: the marker goes with it.
	m.ApplySnapshot([]Marker{snapshotRow("e-1", 2, 28.62, 77.22)})

	got := m.Markers()
	if len(got) != 1 {
		t.Fatalf("Markers() len after second snapshot = %d, want 1", len(got))
	}
	if got[0].EmployeeID != "e-1" || got[0].Seq != 2 {
		t.Errorf("surviving marker = %+v", got[0])
	}
	if _, ok := m.Marker("e-2"); ok {
		t.Error("absent employee still has a marker")
	}
}

func TestLiveMapSnapshotKeepsNewerMarker(t *testing.T) {
	m := NewLiveMap()
	m.ApplySnapshot([]Marker{snapshotRow("e-1", 1, 28.60, 77.20)})

	// A realtime delta races ahead of the poll.
	if !m.ApplyDelta(locationFrame("e-1", 7, 28.65, 77.25)) {
		t.Fatal("ApplyDelta rejected a fresh event")
	}

	// The stale poll result must not move the marker backwards.
	m.ApplySnapshot([]Marker{snapshotRow("e-1", 3, 28.61, 77.21)})

	marker, ok := m.Marker("e-1")
	if !ok {
		t.Fatal("marker missing after snapshot")
	}
	if marker.Seq != 7 || marker.Latitude != 28.65 {
		t.Errorf("marker = %+v, want the seq 7 position kept", marker)
	}
}

func TestLiveMapDelta(t *testing.T) {
	m := NewLiveMap()
	m.ApplySnapshot([]Marker{snapshotRow("e-1", 5, 28.60, 77.20)})

	tests := []struct {
		name    string
		frame   Frame
		applied bool
	}{
		{"newer seq moves the marker", locationFrame("e-1", 6, 28.61, 77.21), true},
		{"equal seq is stale", locationFrame("e-1", 6, 28.99, 77.99), false},
		{"older seq is stale", locationFrame("e-1", 2, 28.99, 77.99), false},
		{"unknown employee is appended", locationFrame("e-9", 1, 28.70, 77.30), true},
		{"checkin frames are not positions", Frame{Type: KindCheckin, Data: Event{EmployeeID: "e-1", Seq: 99}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.ApplyDelta(tt.frame); got != tt.applied {
				t.Errorf("ApplyDelta() = %v, want %v", got, tt.applied)
			}
		})
	}

	marker, _ := m.Marker("e-1")
	if marker.Seq != 6 || marker.Latitude != 28.61 {
		t.Errorf("e-1 marker = %+v, want seq 6 at 28.61", marker)
	}
	if _, ok := m.Marker("e-9"); !ok {
		t.Error("unknown employee was not appended")
	}
}

func TestLiveMapMarkersSorted(t *testing.T) {
	m := NewLiveMap()
	m.ApplySnapshot([]Marker{
		snapshotRow("e-3", 1, 28.60, 77.20),
		snapshotRow("e-1", 1, 28.61, 77.21),
		snapshotRow("e-2", 1, 28.62, 77.22),
	})

	got := m.Markers()
	want := []string{"e-1", "e-2", "e-3"}
	for i, id := range want {
		if got[i].EmployeeID != id {
			t.Errorf("Markers()[%d].EmployeeID = %q, want %q", i, got[i].EmployeeID, id)
		}
	}
}

func TestLiveMapViewportCentersOnce(t *testing.T) {
	m := NewLiveMap()

	// An empty snapshot gives the camera nothing to aim at.
	m.ApplySnapshot(nil)
	if got := m.Center(); got.Latitude != 0 || got.Longitude != 0 {
		t.Errorf("Center() after empty snapshot = %+v, want origin", got)
	}

	m.ApplySnapshot([]Marker{snapshotRow("e-1", 1, 28.60, 77.20)})
	first := m.Center()
	if first.Latitude != 28.60 || first.Longitude != 77.20 {
		t.Fatalf("Center() after first snapshot = %+v", first)
	}

	// Later data never moves the camera.
	m.ApplySnapshot([]Marker{snapshotRow("e-1", 2, 10.0, 20.0)})
	m.ApplyDelta(locationFrame("e-1", 3, 11.0, 21.0))
	if got := m.Center(); got != first {
		t.Errorf("Center() moved to %+v on data refresh", got)
	}
}

func TestLiveMapSetCenter(t *testing.T) {
	m := NewLiveMap()
	m.SetCenter(12.97, 77.59, 14)

	got := m.Center()
	if got.Latitude != 12.97 || got.Longitude != 77.59 || got.Zoom != 14 {
		t.Errorf("Center() = %+v", got)
	}

	// Explicit centering also suppresses the first-snapshot auto-center.
	m.ApplySnapshot([]Marker{snapshotRow("e-1", 1, 28.60, 77.20)})
	if m.Center() != got {
		t.Errorf("Center() moved after snapshot, = %+v", m.Center())
	}
}
