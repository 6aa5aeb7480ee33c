// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package audit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/worktrace/worktrace/internal/audit"
	"github.com/worktrace/worktrace/internal/config"
)

// mockStore records saves and purges in memory.
type mockStore struct {
	mu     sync.Mutex
	saved  []audit.Entry
	purges int
}

func (m *mockStore) Save(ctx context.Context, entry *audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, *entry)
	return nil
}

func (m *mockStore) Query(ctx context.Context, tenant uuid.UUID, f audit.Filter) ([]audit.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []audit.Entry
	for _, e := range m.saved {
		if e.AdminID == tenant {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockStore) Count(ctx context.Context, tenant uuid.UUID, f audit.Filter) (int64, error) {
	entries, _ := m.Query(ctx, tenant, f)
	return int64(len(entries)), nil
}

func (m *mockStore) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purges++
	return 0, nil
}

func (m *mockStore) savedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

func (m *mockStore) purgeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.purges
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func testAuditConfig() *config.AuditConfig {
	return &config.AuditConfig{
		Enabled:         true,
		BufferSize:      16,
		RetentionDays:   90,
		CleanupInterval: 24 * time.Hour,
	}
}

func TestTrailRecordFillsDefaults(t *testing.T) {
	store := &mockStore{}
	trail := audit.NewTrail(store, testAuditConfig())
	defer trail.Close()

	trail.Record(audit.Entry{
		AdminID:   uuid.New(),
		ActorID:   "someone",
		ActorType: "admin",
		Action:    audit.ActionLogin,
	})

	waitFor(t, func() bool { return store.savedCount() == 1 }, "entry never persisted")

	store.mu.Lock()
	entry := store.saved[0]
	store.mu.Unlock()
	if entry.ID == uuid.Nil {
		t.Error("ID not generated")
	}
	if entry.OccurredAt.IsZero() {
		t.Error("OccurredAt not set")
	}
}

func TestTrailCloseDrains(t *testing.T) {
	store := &mockStore{}
	trail := audit.NewTrail(store, testAuditConfig())

	for i := 0; i < 10; i++ {
		trail.Record(audit.Entry{Action: audit.ActionLogin, ActorID: "a", ActorType: "admin"})
	}
	if err := trail.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := store.savedCount(); got != 10 {
		t.Errorf("saved = %d after Close, want 10", got)
	}
}

func TestNilTrailIsNoop(t *testing.T) {
	var trail *audit.Trail

	// None of these may panic.
	trail.Record(audit.Entry{Action: audit.ActionLogin})
	if err := trail.Close(); err != nil {
		t.Errorf("Close() on nil trail error = %v", err)
	}

	entries, err := trail.Query(context.Background(), uuid.New(), audit.DefaultFilter())
	if err != nil || entries != nil {
		t.Errorf("Query() on nil trail = %v, %v", entries, err)
	}
	count, err := trail.Count(context.Background(), uuid.New(), audit.DefaultFilter())
	if err != nil || count != 0 {
		t.Errorf("Count() on nil trail = %d, %v", count, err)
	}
}

func TestRunRetentionPurges(t *testing.T) {
	store := &mockStore{}
	trail := audit.NewTrail(store, testAuditConfig())
	defer trail.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- trail.RunRetention(ctx, 90*24*time.Hour, 10*time.Millisecond)
	}()

	waitFor(t, func() bool { return store.purgeCount() >= 2 }, "retention never purged")
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("RunRetention() = %v, want context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("RunRetention did not stop on cancel")
	}
}
