// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/worktrace/worktrace/internal/config"
	"github.com/worktrace/worktrace/internal/metrics"
)

// breakerName labels the publish circuit breaker in metrics.
const breakerName = "event-bus"

// Publisher wraps the bus publisher with circuit breaker protection. A
// run of consecutive publish failures opens the breaker; while open,
// events are dropped immediately instead of queuing behind a wedged bus.
// Realtime updates are best-effort: the durable record is already in the
// database before anything is published.
type Publisher struct {
	publisher      message.Publisher
	circuitBreaker *gobreaker.CircuitBreaker[interface{}]
	mu             sync.RWMutex
	closed         bool
	logger         watermill.LoggerAdapter
}

// NewPublisher creates a breaker-protected publisher on top of the bus.
func NewPublisher(bus *Bus, cfg *config.EventsConfig, logger watermill.LoggerAdapter) *Publisher {
	if logger == nil {
		logger = NewLoggerAdapter()
	}

	p := &Publisher{
		publisher: bus.Publisher(),
		logger:    logger,
	}
	p.circuitBreaker = newCircuitBreaker(cfg, logger)
	return p
}

// newCircuitBreaker builds the publish breaker from the events config.
// Uses the gobreaker v2 generic API.
func newCircuitBreaker(cfg *config.EventsConfig, logger watermill.LoggerAdapter) *gobreaker.CircuitBreaker[interface{}] {
	threshold := uint32(cfg.BreakerMaxFails)
	if threshold == 0 {
		threshold = 5
	}
	openPeriod := cfg.BreakerOpenPeriod
	if openPeriod <= 0 {
		openPeriod = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     openPeriod,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			logger.Info("Event publish breaker state change", watermill.LogFields{
				"from": from.String(),
				"to":   to.String(),
			})
		},
	}

	return gobreaker.NewCircuitBreaker[interface{}](settings)
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

// Publish serializes the event and sends it through the breaker. The
// message UUID doubles as a deduplication handle for consumers.
func (p *Publisher) Publish(event *Event) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		metrics.RecordEventPublish(event.Kind, fmt.Errorf("publisher closed"))
		return fmt.Errorf("publisher is closed")
	}
	p.mu.RUnlock()

	data, err := Serialize(event)
	if err != nil {
		metrics.RecordEventPublish(event.Kind, err)
		return err
	}

	msg := message.NewMessage(uuid.NewString(), data)
	msg.Metadata.Set("kind", event.Kind)
	msg.Metadata.Set("admin_id", event.AdminID.String())

	_, err = p.circuitBreaker.Execute(func() (interface{}, error) {
		return nil, p.publisher.Publish(TrackingTopic, msg)
	})

	metrics.RecordEventPublish(event.Kind, err)
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	case err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
	}

	if err != nil {
		p.logger.Error("Event publish failed", err, watermill.LogFields{
			"kind":        event.Kind,
			"employee_id": event.EmployeeID.String(),
		})
	}
	return err
}

// BreakerState reports the current breaker state for health reporting.
func (p *Publisher) BreakerState() gobreaker.State {
	return p.circuitBreaker.State()
}

// Close marks the publisher closed. The underlying bus is owned by the
// caller and closed separately.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}
