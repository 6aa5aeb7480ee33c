// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/worktrace/worktrace/internal/config"
)

// Bus is the in-process Pub/Sub fabric between the tracking handlers and
// the websocket hub. All traffic stays inside the process; the Watermill
// GoChannel transport gives us buffered fan-out without a broker.
type Bus struct {
	channel *gochannel.GoChannel
	logger  watermill.LoggerAdapter
}

// NewBus creates the bus with the configured per-subscriber buffer.
func NewBus(cfg *config.EventsConfig, logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = NewLoggerAdapter()
	}

	channel := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            int64(cfg.BufferSize),
		BlockPublishUntilSubscriberAck: false,
	}, logger)

	return &Bus{channel: channel, logger: logger}
}

// Publisher exposes the raw Watermill publisher side.
func (b *Bus) Publisher() message.Publisher {
	return b.channel
}

// Subscribe returns a channel of tracking events. Each subscriber gets its
// own buffered channel; slow subscribers drop messages at the buffer
// boundary rather than stalling publishers.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	messages, err := b.channel.Subscribe(ctx, TrackingTopic)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", TrackingTopic, err)
	}
	return messages, nil
}

// Close shuts down the bus and closes all subscriber channels.
func (b *Bus) Close() error {
	return b.channel.Close()
}
