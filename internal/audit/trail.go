// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/worktrace/worktrace/internal/config"
	"github.com/worktrace/worktrace/internal/logging"
)

// saveTimeout bounds each asynchronous store write.
const saveTimeout = 5 * time.Second

// Trail is the audit recorder. Record buffers entries and a background
// writer persists them, so the request path never blocks on audit I/O.
// A full buffer drops the entry with a warning rather than stalling the
// handler. All methods are safe on a nil Trail, which behaves as a
// disabled recorder.
type Trail struct {
	store   Store
	entries chan *Entry
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewTrail creates a Trail and starts its writer.
func NewTrail(store Store, cfg *config.AuditConfig) *Trail {
	size := cfg.BufferSize
	if size <= 0 {
		size = 256
	}

	t := &Trail{
		store:   store,
		entries: make(chan *Entry, size),
		stop:    make(chan struct{}),
	}
	t.wg.Add(1)
	go t.writer()
	return t
}

// Record queues one entry. Missing ID and timestamp are filled in.
func (t *Trail) Record(entry Entry) {
	if t == nil {
		return
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}

	select {
	case t.entries <- &entry:
	default:
		logging.Warn().Str("action", string(entry.Action)).Msg("audit buffer full, dropping entry")
	}
}

// Query returns a tenant's entries matching the filter, newest first.
// A nil Trail returns an empty result.
func (t *Trail) Query(ctx context.Context, tenant uuid.UUID, filter Filter) ([]Entry, error) {
	if t == nil {
		return nil, nil
	}
	return t.store.Query(ctx, tenant, filter)
}

// Count returns the number of a tenant's entries matching the filter.
func (t *Trail) Count(ctx context.Context, tenant uuid.UUID, filter Filter) (int64, error) {
	if t == nil {
		return 0, nil
	}
	return t.store.Count(ctx, tenant, filter)
}

// Close stops the writer after draining buffered entries.
func (t *Trail) Close() error {
	if t == nil {
		return nil
	}
	close(t.stop)
	t.wg.Wait()
	return nil
}

// writer persists buffered entries until Close, then drains.
func (t *Trail) writer() {
	defer t.wg.Done()
	for {
		select {
		case <-t.stop:
			for {
				select {
				case entry := <-t.entries:
					t.persist(entry)
				default:
					return
				}
			}
		case entry := <-t.entries:
			t.persist(entry)
		}
	}
}

func (t *Trail) persist(entry *Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := t.store.Save(ctx, entry); err != nil {
		logging.Error().Err(err).Str("action", string(entry.Action)).Msg("failed to save audit entry")
	}
}

// RunRetention purges entries older than the configured retention each
// cleanup interval, blocking until the context is canceled. It is run
// under the supervision tree.
func (t *Trail) RunRetention(ctx context.Context, retention, interval time.Duration) error {
	if t == nil || retention <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := t.store.Purge(ctx, time.Now().Add(-retention)); err != nil {
				logging.Error().Err(err).Msg("audit retention purge failed")
			}
		}
	}
}
