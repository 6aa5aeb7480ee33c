// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/worktrace/worktrace/internal/logging"
	"github.com/worktrace/worktrace/internal/metrics"
)

// EventSource is the bus side of the bridge. events.Bus satisfies it;
// tests substitute an in-memory implementation.
type EventSource interface {
	Subscribe(ctx context.Context) (<-chan *message.Message, error)
}

// BusSubscriber bridges the in-process event bus to websocket broadcasts.
// It subscribes to the tracking topic and forwards each event payload to
// the hub, which resolves the tenant and fans out.
type BusSubscriber struct {
	hub     *Hub
	source  EventSource
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewBusSubscriber creates a new bus to websocket bridge.
func NewBusSubscriber(hub *Hub, source EventSource) *BusSubscriber {
	return &BusSubscriber{
		hub:    hub,
		source: source,
	}
}

// Start begins forwarding bus events to the hub. Idempotent while
// running; a failed Start leaves the subscriber stopped so the
// supervisor can retry it.
func (s *BusSubscriber) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	messages, err := s.source.Subscribe(ctx)
	if err != nil {
		return err
	}

	// Fresh channels per run, so a restarted subscriber never reuses a
	// closed stop channel.
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.processMessages(ctx, messages, s.stopCh, s.doneCh)

	logging.Info().Msg("bus to websocket subscriber started")
	return nil
}

// Stop stops the subscriber and waits for the forwarding goroutine.
func (s *BusSubscriber) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stopCh)
	<-doneCh
	logging.Info().Msg("bus to websocket subscriber stopped")
}

// processMessages forwards bus messages until stopped or the source
// channel closes. Messages are always acked: the hub drop path already
// counts losses, and redelivery of a stale delta would be rejected by
// sequence checks on the consumer anyway.
func (s *BusSubscriber) processMessages(ctx context.Context, messages <-chan *message.Message, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			start := time.Now()
			s.hub.BroadcastRaw(msg.Payload)
			msg.Ack()
			metrics.EventDeliveryDuration.Observe(time.Since(start).Seconds())
		}
	}
}
