// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package websocket

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/worktrace/worktrace/internal/events"
	"github.com/worktrace/worktrace/internal/logging"
)

func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

// setupHub starts a hub under a canceled-on-cleanup context.
func setupHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.RunWithContext(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	time.Sleep(10 * time.Millisecond)
	return hub
}

func createTestClient(hub *Hub, adminID uuid.UUID) *Client {
	return &Client{
		id:      clientIDCounter.Add(1),
		adminID: adminID,
		hub:     hub,
		send:    make(chan Message, 256),
	}
}

func registerClient(hub *Hub, client *Client) {
	hub.Register <- client
	time.Sleep(20 * time.Millisecond)
}

func testTrackingEvent(adminID uuid.UUID, kind string, seq int64) *events.Event {
	return &events.Event{
		Kind:         kind,
		AdminID:      adminID,
		EmployeeID:   uuid.New(),
		EmployeeName: "Priya Singh",
		Latitude:     28.6315,
		Longitude:    77.2167,
		OnSite:       true,
		Seq:          seq,
		OccurredAt:   time.Now().UTC(),
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub()
	if hub == nil {
		t.Fatal("NewHub returned nil")
	}

	checks := []struct {
		name   string
		check  bool
		errMsg string
	}{
		{"clients map", hub.clients != nil, "clients map not initialized"},
		{"broadcast channel", hub.broadcast != nil, "broadcast channel not initialized"},
		{"Register channel", hub.Register != nil, "Register channel not initialized"},
		{"Unregister channel", hub.Unregister != nil, "Unregister channel not initialized"},
		{"empty clients", len(hub.clients) == 0, "clients map should be empty"},
	}

	for _, c := range checks {
		if !c.check {
			t.Error(c.errMsg)
		}
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub, uuid.New())

	registerClient(hub, client)
	if got := hub.GetClientCount(); got != 1 {
		t.Fatalf("client count after register = %d, want 1", got)
	}

	hub.Unregister <- client
	time.Sleep(20 * time.Millisecond)
	if got := hub.GetClientCount(); got != 0 {
		t.Fatalf("client count after unregister = %d, want 0", got)
	}

	// Re-sending Unregister for an unknown client must not panic or
	// double-close the send channel.
	hub.Unregister <- client
	time.Sleep(20 * time.Millisecond)
}

func TestHub_BroadcastReachesTenantClients(t *testing.T) {
	hub := setupHub(t)
	adminID := uuid.New()

	first := createTestClient(hub, adminID)
	second := createTestClient(hub, adminID)
	registerClient(hub, first)
	registerClient(hub, second)

	event := testTrackingEvent(adminID, events.KindLocation, 7)
	hub.BroadcastEvent(event)

	for _, client := range []*Client{first, second} {
		select {
		case msg := <-client.send:
			if msg.Type != MessageTypeLocation {
				t.Errorf("message type = %q, want %q", msg.Type, MessageTypeLocation)
			}
			got, ok := msg.Data.(*events.Event)
			if !ok {
				t.Fatalf("message data has type %T, want *events.Event", msg.Data)
			}
			if got.Seq != 7 {
				t.Errorf("event seq = %d, want 7", got.Seq)
			}
		case <-time.After(time.Second):
			t.Fatal("client never received broadcast")
		}
	}
}

func TestHub_BroadcastIsolatedByTenant(t *testing.T) {
	hub := setupHub(t)

	tenantA := uuid.New()
	tenantB := uuid.New()
	clientA := createTestClient(hub, tenantA)
	clientB := createTestClient(hub, tenantB)
	registerClient(hub, clientA)
	registerClient(hub, clientB)

	hub.BroadcastEvent(testTrackingEvent(tenantA, events.KindCheckin, 0))
	time.Sleep(50 * time.Millisecond)

	select {
	case <-clientA.send:
	default:
		t.Error("tenant A client did not receive its event")
	}

	select {
	case msg := <-clientB.send:
		t.Errorf("tenant B client received foreign event: %+v", msg)
	default:
	}

	if got := hub.TenantClientCount(tenantA); got != 1 {
		t.Errorf("TenantClientCount(A) = %d, want 1", got)
	}
}

func TestHub_BroadcastRaw(t *testing.T) {
	hub := setupHub(t)
	adminID := uuid.New()
	client := createTestClient(hub, adminID)
	registerClient(hub, client)

	event := testTrackingEvent(adminID, events.KindCheckout, 12)
	payload, err := events.Serialize(event)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	hub.BroadcastRaw(payload)

	select {
	case msg := <-client.send:
		if msg.Type != MessageTypeCheckout {
			t.Errorf("message type = %q, want %q", msg.Type, MessageTypeCheckout)
		}
	case <-time.After(time.Second):
		t.Fatal("client never received raw broadcast")
	}

	// Garbage payloads are dropped without panicking.
	hub.BroadcastRaw([]byte("not an event"))
	time.Sleep(20 * time.Millisecond)
}

func TestHub_SlowClientDropped(t *testing.T) {
	hub := setupHub(t)
	adminID := uuid.New()

	slow := createTestClient(hub, adminID)
	slow.send = make(chan Message) // no buffer, nobody reading
	registerClient(hub, slow)

	hub.BroadcastEvent(testTrackingEvent(adminID, events.KindLocation, 1))
	time.Sleep(50 * time.Millisecond)

	if got := hub.GetClientCount(); got != 0 {
		t.Errorf("client count after dropping slow client = %d, want 0", got)
	}
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub := NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- hub.RunWithContext(ctx)
	}()
	time.Sleep(10 * time.Millisecond)

	client := createTestClient(hub, uuid.New())
	registerClient(hub, client)

	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("hub did not stop after cancel")
	}

	if got := hub.GetClientCount(); got != 0 {
		t.Errorf("client count after shutdown = %d, want 0", got)
	}

	if _, open := <-client.send; open {
		t.Error("client send channel still open after shutdown")
	}
}

func TestMarshalMessage(t *testing.T) {
	event := testTrackingEvent(uuid.New(), events.KindLocation, 3)
	data, err := MarshalMessage(Message{Type: MessageTypeLocation, Data: event})
	if err != nil {
		t.Fatalf("MarshalMessage() error = %v", err)
	}
	if len(data) == 0 {
		t.Error("MarshalMessage() returned empty payload")
	}
}
