// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/worktrace/worktrace/internal/config"
)

const testSecret = "test-secret-key-with-32-characters!!"

func testSecurityConfig(timeout time.Duration) *config.SecurityConfig {
	return &config.SecurityConfig{
		JWTSecret:      testSecret,
		SessionTimeout: timeout,
	}
}

func TestNewJWTManager(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		wantErr bool
	}{
		{name: "valid secret", secret: testSecret},
		{name: "empty secret", secret: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.SecurityConfig{JWTSecret: tt.secret, SessionTimeout: time.Hour}
			_, err := NewJWTManager(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewJWTManager() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	m, err := NewJWTManager(testSecurityConfig(time.Hour))
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	actorID := uuid.New()
	sessionID := uuid.NewString()

	tests := []struct {
		name      string
		actorType string
		role      string
	}{
		{name: "admin token", actorType: "admin", role: "admin"},
		{name: "super admin token", actorType: "admin", role: "super_admin"},
		{name: "employee token", actorType: "employee", role: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := m.GenerateToken(actorID, tt.actorType, tt.role, sessionID)
			if err != nil {
				t.Fatalf("GenerateToken() error = %v", err)
			}
			if strings.Count(token, ".") != 2 {
				t.Errorf("token has %d segments, want 3", strings.Count(token, ".")+1)
			}

			claims, err := m.ValidateToken(token)
			if err != nil {
				t.Fatalf("ValidateToken() error = %v", err)
			}
			if claims.Subject != actorID.String() {
				t.Errorf("Subject = %q, want %q", claims.Subject, actorID)
			}
			if claims.ActorType != tt.actorType {
				t.Errorf("ActorType = %q, want %q", claims.ActorType, tt.actorType)
			}
			if claims.Role != tt.role {
				t.Errorf("Role = %q, want %q", claims.Role, tt.role)
			}
			if claims.SessionID != sessionID {
				t.Errorf("SessionID = %q, want %q", claims.SessionID, sessionID)
			}

			got, err := claims.ActorID()
			if err != nil {
				t.Fatalf("ActorID() error = %v", err)
			}
			if got != actorID {
				t.Errorf("ActorID() = %v, want %v", got, actorID)
			}
		})
	}
}

func TestValidateToken_Expired(t *testing.T) {
	m, err := NewJWTManager(testSecurityConfig(-time.Minute))
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	token, err := m.GenerateToken(uuid.New(), "admin", "admin", "sid")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := m.ValidateToken(token); err == nil {
		t.Error("ValidateToken() = nil error for expired token")
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	m1, _ := NewJWTManager(testSecurityConfig(time.Hour))
	m2, _ := NewJWTManager(&config.SecurityConfig{
		JWTSecret:      "another-secret-key-with-32-chars!!!!",
		SessionTimeout: time.Hour,
	})

	token, err := m1.GenerateToken(uuid.New(), "admin", "admin", "sid")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := m2.ValidateToken(token); err == nil {
		t.Error("ValidateToken() accepted token signed with different secret")
	}
}

func TestValidateToken_Malformed(t *testing.T) {
	m, _ := NewJWTManager(testSecurityConfig(time.Hour))

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-jwt"},
		{name: "truncated", token: "eyJhbGciOiJIUzI1NiJ9.eyJzdWIi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.ValidateToken(tt.token); err == nil {
				t.Errorf("ValidateToken(%q) = nil error", tt.token)
			}
		})
	}
}

func TestValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	m, _ := NewJWTManager(testSecurityConfig(time.Hour))

	// Token signed with "none" must be rejected regardless of claims.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		ActorType: "admin",
		Role:      "super_admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign with none: %v", err)
	}

	if _, err := m.ValidateToken(token); err == nil {
		t.Error("ValidateToken() accepted alg=none token")
	}
}

func TestClaims_ActorID_Invalid(t *testing.T) {
	c := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "not-a-uuid"}}
	if _, err := c.ActorID(); err == nil {
		t.Error("ActorID() = nil error for invalid subject")
	}
}
