// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// mockHTTPServer is a test double for the HTTPServer interface.
type mockHTTPServer struct {
	listenAndServeErr   error
	listenAndServeBlock bool
	shutdownErr         error
	listenCount         atomic.Int32
	shutdownCount       atomic.Int32
	started             chan struct{}
	stopCh              chan struct{}
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{
		started: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
	}
}

func (m *mockHTTPServer) ListenAndServe() error {
	m.listenCount.Add(1)
	select {
	case m.started <- struct{}{}:
	default:
	}

	if m.listenAndServeErr != nil {
		return m.listenAndServeErr
	}
	if m.listenAndServeBlock {
		<-m.stopCh
		return http.ErrServerClosed
	}
	return nil
}

func (m *mockHTTPServer) Shutdown(ctx context.Context) error {
	m.shutdownCount.Add(1)
	close(m.stopCh)
	return m.shutdownErr
}

func TestServiceInterfaces(t *testing.T) {
	var _ suture.Service = (*HTTPServerService)(nil)
	var _ suture.Service = (*WebSocketHubService)(nil)
	var _ suture.Service = (*EventBridgeService)(nil)
	var _ suture.Service = (*SessionMaintenanceService)(nil)
	var _ suture.Service = (*AuditRetentionService)(nil)
}

func TestHTTPServerService_GracefulShutdown(t *testing.T) {
	server := newMockHTTPServer()
	server.listenAndServeBlock = true
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	select {
	case <-server.started:
	case <-time.After(time.Second):
		t.Fatal("server did not start")
	}
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	if n := server.shutdownCount.Load(); n != 1 {
		t.Errorf("Shutdown calls = %d, want 1", n)
	}
}

func TestHTTPServerService_StartupFailure(t *testing.T) {
	bindErr := errors.New("bind: address already in use")
	server := newMockHTTPServer()
	server.listenAndServeErr = bindErr
	svc := NewHTTPServerService(server, time.Second)

	if err := svc.Serve(context.Background()); !errors.Is(err, bindErr) {
		t.Errorf("Serve() error = %v, want %v", err, bindErr)
	}
}

func TestHTTPServerService_ShutdownFailure(t *testing.T) {
	shutdownErr := errors.New("shutdown timeout")
	server := newMockHTTPServer()
	server.listenAndServeBlock = true
	server.shutdownErr = shutdownErr
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	<-server.started
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, shutdownErr) {
			t.Errorf("Serve() error = %v, want %v", err, shutdownErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestHTTPServerService_DefaultTimeout(t *testing.T) {
	for _, timeout := range []time.Duration{0, -5 * time.Second} {
		svc := NewHTTPServerService(newMockHTTPServer(), timeout)
		if svc.shutdownTimeout != 10*time.Second {
			t.Errorf("shutdownTimeout(%v) = %v, want 10s", timeout, svc.shutdownTimeout)
		}
	}
}

type mockHub struct {
	ran atomic.Bool
}

func (m *mockHub) RunWithContext(ctx context.Context) error {
	m.ran.Store(true)
	<-ctx.Done()
	return ctx.Err()
}

func TestWebSocketHubService(t *testing.T) {
	hub := &mockHub{}
	svc := NewWebSocketHubService(hub)
	if svc.String() != "websocket-hub" {
		t.Errorf("String() = %q", svc.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return")
	}
	if !hub.ran.Load() {
		t.Error("hub loop never ran")
	}
}

type mockBridge struct {
	startErr error
	started  atomic.Int32
	stopped  atomic.Int32
}

func (m *mockBridge) Start(ctx context.Context) error {
	m.started.Add(1)
	return m.startErr
}

func (m *mockBridge) Stop() {
	m.stopped.Add(1)
}

func TestEventBridgeService(t *testing.T) {
	t.Run("stops bridge on cancellation", func(t *testing.T) {
		bridge := &mockBridge{}
		svc := NewEventBridgeService(bridge)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		time.Sleep(10 * time.Millisecond)
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() error = %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Serve did not return")
		}
		if bridge.started.Load() != 1 || bridge.stopped.Load() != 1 {
			t.Errorf("started = %d, stopped = %d, want 1 and 1",
				bridge.started.Load(), bridge.stopped.Load())
		}
	})

	t.Run("propagates start failure", func(t *testing.T) {
		startErr := errors.New("subscribe failed")
		bridge := &mockBridge{startErr: startErr}
		svc := NewEventBridgeService(bridge)

		if err := svc.Serve(context.Background()); !errors.Is(err, startErr) {
			t.Errorf("Serve() error = %v, want %v", err, startErr)
		}
		if bridge.stopped.Load() != 0 {
			t.Error("Stop called after failed Start")
		}
	})
}

type mockMaintainer struct {
	calls atomic.Int32
}

func (m *mockMaintainer) RunMaintenance(ctx context.Context, interval time.Duration) error {
	m.calls.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func TestSessionMaintenanceService(t *testing.T) {
	store := &mockMaintainer{}
	svc := NewSessionMaintenanceService(store, 0)
	if svc.interval != 5*time.Minute {
		t.Errorf("default interval = %v, want 5m", svc.interval)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return")
	}
	if store.calls.Load() != 1 {
		t.Errorf("RunMaintenance calls = %d, want 1", store.calls.Load())
	}
}

type mockRetention struct {
	calls atomic.Int32
}

func (m *mockRetention) RunRetention(ctx context.Context, retention, interval time.Duration) error {
	m.calls.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func TestAuditRetentionService(t *testing.T) {
	trail := &mockRetention{}
	svc := NewAuditRetentionService(trail, 90*24*time.Hour, time.Hour)
	if got := svc.String(); got != "audit-retention" {
		t.Errorf("String() = %q", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return")
	}
	if trail.calls.Load() != 1 {
		t.Errorf("RunRetention calls = %d, want 1", trail.calls.Load())
	}
}

func TestHTTPServerService_UnderSupervisor(t *testing.T) {
	server := newMockHTTPServer()
	server.listenAndServeBlock = true
	svc := NewHTTPServerService(server, time.Second)

	sup := suture.New("test-sup", suture.Spec{
		FailureThreshold: 3,
		FailureBackoff:   10 * time.Millisecond,
		Timeout:          2 * time.Second,
	})
	sup.Add(svc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	select {
	case <-server.started:
	case <-time.After(time.Second):
		t.Fatal("server did not start under supervision")
	}

	cancel()
	<-errCh

	if server.shutdownCount.Load() < 1 {
		t.Error("Shutdown was not called during supervised stop")
	}
}
