// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

// Package auth provides JWT token management and password hashing for the
// two actor populations: admins (tenant owners) and employees. Tokens are
// HMAC-SHA256 signed and paired with a revocable server-side session, so a
// logout invalidates the token before its expiry.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/worktrace/worktrace/internal/config"
)

// Claims represents JWT claims. Subject (from RegisteredClaims) holds the
// actor's UUID; ActorType distinguishes admins from employees; SessionID
// links the token to its revocable session record.
type Claims struct {
	ActorType string `json:"actor_type"` // "admin" or "employee"
	Role      string `json:"role,omitempty"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// JWTManager handles JWT token creation and validation
type JWTManager struct {
	secret  []byte
	timeout time.Duration
}

// NewJWTManager creates a new JWT token manager with the configured secret
// and timeout. The manager uses HMAC-SHA256 signing; the secret is stored
// as []byte to prevent string interning attacks.
func NewJWTManager(cfg *config.SecurityConfig) (*JWTManager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but was empty")
	}

	return &JWTManager{
		secret:  []byte(cfg.JWTSecret),
		timeout: cfg.SessionTimeout,
	}, nil
}

// Timeout returns the configured token lifetime. Session records are
// created with the same expiry so the two never disagree.
func (m *JWTManager) Timeout() time.Duration {
	return m.timeout
}

// GenerateToken creates a signed JWT for an authenticated actor.
//
// Token claims:
//   - Subject: actor UUID
//   - ActorType: "admin" or "employee"
//   - Role: admin role ("admin" or "super_admin"), empty for employees
//   - SessionID: server-side session record for revocation
//   - ExpiresAt / IssuedAt / NotBefore per the configured session timeout
func (m *JWTManager) GenerateToken(actorID uuid.UUID, actorType, role, sessionID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		ActorType: actorType,
		Role:      role,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.timeout)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// ValidateToken validates a JWT token string and extracts the claims.
//
// Validation checks the HMAC signature, the signing algorithm (rejecting
// anything but HMAC to prevent algorithm confusion), and the time claims.
// Session revocation is checked separately against the session store.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

// ActorID parses the Subject claim as a UUID.
func (c *Claims) ActorID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subject claim: %w", err)
	}
	return id, nil
}
