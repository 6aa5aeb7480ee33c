// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package events

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/worktrace/worktrace/internal/config"
	"github.com/worktrace/worktrace/internal/logging"
)

func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

func testEventsConfig() *config.EventsConfig {
	return &config.EventsConfig{
		BufferSize:        16,
		PublishTimeout:    time.Second,
		BreakerMaxFails:   3,
		BreakerOpenPeriod: time.Minute,
	}
}

func testEvent(kind string) *Event {
	return &Event{
		Kind:         kind,
		AdminID:      uuid.New(),
		EmployeeID:   uuid.New(),
		EmployeeName: "Asha Sharma",
		Latitude:     28.6315,
		Longitude:    77.2167,
		OnSite:       true,
		Seq:          42,
		OccurredAt:   time.Now().UTC(),
	}
}

func TestEventValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Event)
		wantErr bool
	}{
		{"valid checkin", func(e *Event) { e.Kind = KindCheckin }, false},
		{"valid checkout", func(e *Event) { e.Kind = KindCheckout }, false},
		{"valid location", func(e *Event) { e.Kind = KindLocation }, false},
		{"unknown kind", func(e *Event) { e.Kind = "employee_teleport" }, true},
		{"missing admin", func(e *Event) { e.AdminID = uuid.Nil }, true},
		{"missing employee", func(e *Event) { e.EmployeeID = uuid.Nil }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testEvent(KindLocation)
			tt.mutate(e)
			err := e.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSerializeDeserialize(t *testing.T) {
	siteID := uuid.New()
	e := testEvent(KindCheckin)
	e.SiteID = &siteID

	data, err := Serialize(e)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}

	if got.Kind != e.Kind || got.EmployeeID != e.EmployeeID || got.Seq != e.Seq {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", got, e)
	}
	if got.SiteID == nil || *got.SiteID != siteID {
		t.Errorf("SiteID = %v, want %v", got.SiteID, siteID)
	}
}

func TestDeserializeRejectsGarbage(t *testing.T) {
	if _, err := Deserialize([]byte("not json")); err == nil {
		t.Error("Deserialize() accepted malformed payload")
	}
	if _, err := Deserialize([]byte(`{"kind":"bogus"}`)); err == nil {
		t.Error("Deserialize() accepted unknown kind")
	}
}

func TestPublishSubscribeRoundtrip(t *testing.T) {
	cfg := testEventsConfig()
	bus := NewBus(cfg, nil)
	defer func() {
		if err := bus.Close(); err != nil {
			t.Errorf("bus.Close() error = %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	pub := NewPublisher(bus, cfg, nil)
	want := testEvent(KindLocation)
	if err := pub.Publish(want); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case msg := <-messages:
		msg.Ack()
		got, err := Deserialize(msg.Payload)
		if err != nil {
			t.Fatalf("Deserialize() error = %v", err)
		}
		if got.EmployeeID != want.EmployeeID || got.Seq != want.Seq {
			t.Errorf("received event = %+v, want %+v", got, want)
		}
		if msg.Metadata.Get("kind") != KindLocation {
			t.Errorf("metadata kind = %q, want %q", msg.Metadata.Get("kind"), KindLocation)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestPublisherClosed(t *testing.T) {
	cfg := testEventsConfig()
	bus := NewBus(cfg, nil)
	defer bus.Close()

	pub := NewPublisher(bus, cfg, nil)
	pub.Close()

	if err := pub.Publish(testEvent(KindCheckin)); err == nil {
		t.Error("Publish() on closed publisher returned nil error")
	}
}

type failingPublisher struct{}

func (f *failingPublisher) Publish(topic string, messages ...*message.Message) error {
	return errors.New("bus down")
}

func (f *failingPublisher) Close() error { return nil }

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cfg := testEventsConfig()
	pub := &Publisher{
		publisher: &failingPublisher{},
		logger:    NewLoggerAdapter(),
	}
	pub.circuitBreaker = newCircuitBreaker(cfg, pub.logger)

	for i := 0; i < cfg.BreakerMaxFails; i++ {
		if err := pub.Publish(testEvent(KindLocation)); err == nil {
			t.Fatalf("publish %d: expected failure", i)
		}
	}

	if got := pub.BreakerState(); got != gobreaker.StateOpen {
		t.Fatalf("breaker state = %v, want open", got)
	}

	err := pub.Publish(testEvent(KindLocation))
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("publish while open: error = %v, want %v", err, gobreaker.ErrOpenState)
	}
}
