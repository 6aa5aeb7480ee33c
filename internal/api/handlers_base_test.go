// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/worktrace/worktrace/internal/audit"
	"github.com/worktrace/worktrace/internal/auth"
	"github.com/worktrace/worktrace/internal/config"
	"github.com/worktrace/worktrace/internal/database"
	"github.com/worktrace/worktrace/internal/events"
	"github.com/worktrace/worktrace/internal/logging"
	"github.com/worktrace/worktrace/internal/middleware"
	"github.com/worktrace/worktrace/internal/models"
	"github.com/worktrace/worktrace/internal/sessions"
	ws "github.com/worktrace/worktrace/internal/websocket"
)

func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

const (
	testSecret   = "test-secret-key-with-32-characters!!"
	testPassword = "correct-horse-battery"
)

var (
	testHashOnce sync.Once
	testHash     string
)

// sharedPasswordHash avoids paying bcrypt cost in every test.
func sharedPasswordHash(t *testing.T) string {
	t.Helper()
	testHashOnce.Do(func() {
		hash, err := auth.HashPassword(testPassword)
		if err != nil {
			t.Fatalf("HashPassword() error = %v", err)
		}
		testHash = hash
	})
	return testHash
}

// testServer bundles the full API stack against in-memory stores.
type testServer struct {
	db       *database.DB
	sessions *sessions.Store
	jwt      *auth.JWTManager
	bus      *events.Bus
	hub      *ws.Hub
	trail    *audit.Trail
	router   http.Handler
	cfg      *config.Config
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 8473, Timeout: 30 * time.Second},
		Security: config.SecurityConfig{
			JWTSecret:         testSecret,
			SessionTimeout:    time.Hour,
			RateLimitDisabled: true,
			CORSOrigins:       []string{"*"},
		},
		Tracking: config.TrackingConfig{
			DefaultGeofenceRadiusM: 200,
			LocationMinInterval:    0,
			SnapshotMaxAge:         0,
		},
		Events: config.EventsConfig{
			BufferSize:        16,
			BreakerMaxFails:   5,
			BreakerOpenPeriod: time.Minute,
		},
		API: config.APIConfig{DefaultPageSize: 50, MaxPageSize: 200},
		Audit: config.AuditConfig{
			Enabled:    true,
			BufferSize: 64,
		},
	}
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}

	db, err := database.NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := sessions.OpenInMemory()
	if err != nil {
		t.Fatalf("sessions.OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	bus := events.NewBus(&cfg.Events, nil)
	t.Cleanup(func() { bus.Close() })
	publisher := events.NewPublisher(bus, &cfg.Events, nil)

	auditStore := audit.NewDuckDBStore(db.Conn())
	if err := auditStore.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("audit EnsureSchema() error = %v", err)
	}
	trail := audit.NewTrail(auditStore, &cfg.Audit)
	t.Cleanup(func() { trail.Close() })

	hub := ws.NewHub()
	handler := NewHandler(db, cfg, jwtManager, store, publisher, hub).WithAudit(trail)
	authn := middleware.NewAuthenticator(jwtManager, store)

	return &testServer{
		db:       db,
		sessions: store,
		jwt:      jwtManager,
		bus:      bus,
		hub:      hub,
		trail:    trail,
		router:   NewRouter(handler, authn, cfg).Setup(),
		cfg:      cfg,
	}
}

// runHub starts the hub loop for tests exercising the realtime feed.
func (ts *testServer) runHub(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		ts.hub.RunWithContext(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

// createAdmin inserts an active admin directly and returns a login token.
func (ts *testServer) createAdmin(t *testing.T, email string) (*models.Admin, string) {
	t.Helper()

	admin := &models.Admin{
		FirstName:    "Test",
		LastName:     "Admin",
		Email:        email,
		PasswordHash: sharedPasswordHash(t),
		Role:         models.RoleAdmin,
		Verified:     true,
		Active:       true,
	}
	if err := ts.db.CreateAdmin(context.Background(), admin); err != nil {
		t.Fatalf("CreateAdmin() error = %v", err)
	}
	return admin, ts.issueToken(t, admin.ID, models.ActorAdmin, admin.Role)
}

// createSuperAdmin inserts an active super admin and returns a login token.
func (ts *testServer) createSuperAdmin(t *testing.T, email string) (*models.Admin, string) {
	t.Helper()

	admin := &models.Admin{
		FirstName:    "Root",
		LastName:     "Admin",
		Email:        email,
		PasswordHash: sharedPasswordHash(t),
		Role:         models.RoleSuperAdmin,
		Verified:     true,
		Active:       true,
	}
	if err := ts.db.CreateAdmin(context.Background(), admin); err != nil {
		t.Fatalf("CreateAdmin() error = %v", err)
	}
	return admin, ts.issueToken(t, admin.ID, models.ActorAdmin, admin.Role)
}

// createEmployee inserts an active employee and returns a login token.
func (ts *testServer) createEmployee(t *testing.T, adminID uuid.UUID, email string, siteID *uuid.UUID) (*models.Employee, string) {
	t.Helper()

	emp := &models.Employee{
		FirstName:    "Asha",
		LastName:     "Sharma",
		Email:        email,
		PasswordHash: sharedPasswordHash(t),
		AdminID:      adminID,
		SiteID:       siteID,
	}
	if err := ts.db.CreateEmployee(context.Background(), emp); err != nil {
		t.Fatalf("CreateEmployee() error = %v", err)
	}
	return emp, ts.issueToken(t, emp.ID, models.ActorEmployee, "")
}

func (ts *testServer) createSite(t *testing.T, adminID uuid.UUID, radius float64) *models.WorkSite {
	t.Helper()

	site := &models.WorkSite{
		Name:           "Connaught Place Office",
		Latitude:       28.6139,
		Longitude:      77.2090,
		GeofenceRadius: radius,
		AdminID:        adminID,
	}
	if err := ts.db.CreateWorkSite(context.Background(), site); err != nil {
		t.Fatalf("CreateWorkSite() error = %v", err)
	}
	return site
}

func (ts *testServer) issueToken(t *testing.T, actorID uuid.UUID, actorType, role string) string {
	t.Helper()

	session, err := ts.sessions.Create(context.Background(), actorID, actorType, time.Hour)
	if err != nil {
		t.Fatalf("session Create() error = %v", err)
	}
	token, err := ts.jwt.GenerateToken(actorID, actorType, role, session.ID)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	return token
}

// request performs an HTTP request against the router and decodes the
// envelope.
func (ts *testServer) request(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, *models.APIResponse) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	r := httptest.NewRequest(method, path, reader)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, r)

	var resp models.APIResponse
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal envelope (%s %s, status %d): %v\nbody: %s",
				method, path, w.Code, err, w.Body.String())
		}
	}
	return w, &resp
}

// decodeData re-marshals the envelope's data field into a typed value.
func decodeData(t *testing.T, resp *models.APIResponse, dst interface{}) {
	t.Helper()

	raw, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("re-marshal data: %v", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}
