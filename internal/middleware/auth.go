// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/worktrace/worktrace/internal/auth"
	"github.com/worktrace/worktrace/internal/logging"
	"github.com/worktrace/worktrace/internal/models"
	"github.com/worktrace/worktrace/internal/sessions"
)

// claimsKey is the context key for authenticated JWT claims.
const claimsKey contextKey = "auth_claims"

// Authenticator validates bearer tokens and their backing sessions. A
// token is only honored while its session still exists in the store, so
// logout revokes access before the JWT itself expires.
type Authenticator struct {
	jwt      *auth.JWTManager
	sessions *sessions.Store
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(jwt *auth.JWTManager, store *sessions.Store) *Authenticator {
	return &Authenticator{jwt: jwt, sessions: store}
}

// Authenticate requires a valid token on every request it wraps. The
// token comes from the Authorization header, or from the token query
// parameter for websocket upgrades where browsers cannot set headers.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeAuthError(w, "missing authentication token")
			return
		}

		claims, err := a.jwt.ValidateToken(token)
		if err != nil {
			writeAuthError(w, "invalid or expired token")
			return
		}

		if _, err := a.sessions.Get(r.Context(), claims.SessionID); err != nil {
			writeAuthError(w, "session expired or revoked")
			return
		}

		// Sliding activity timestamp; failure here never blocks the request.
		if err := a.sessions.Touch(r.Context(), claims.SessionID); err != nil {
			logging.Debug().Err(err).Msg("session touch failed")
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireActor restricts a route to one actor type (admin or employee).
// It must run after Authenticate.
func RequireActor(actorType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeAuthError(w, "missing authentication token")
				return
			}
			if claims.ActorType != actorType {
				writeForbiddenError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole restricts a route to admins holding a specific role.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeAuthError(w, "missing authentication token")
				return
			}
			if claims.ActorType != models.ActorAdmin || claims.Role != role {
				writeForbiddenError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFromContext returns the authenticated claims, if any.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}

// ContextWithClaims injects claims; used by tests and the websocket
// upgrade path.
func ContextWithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// extractToken pulls the bearer token from the Authorization header or
// the token query parameter.
func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func writeAuthError(w http.ResponseWriter, message string) {
	writeErrorResponse(w, http.StatusUnauthorized, &models.APIError{
		Code:    "AUTHENTICATION_ERROR",
		Message: message,
	})
}

func writeForbiddenError(w http.ResponseWriter) {
	writeErrorResponse(w, http.StatusForbidden, &models.APIError{
		Code:    "AUTHORIZATION_ERROR",
		Message: "insufficient permissions",
	})
}

func writeErrorResponse(w http.ResponseWriter, status int, apiErr *models.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := models.APIResponse{
		Status:   "error",
		Error:    apiErr,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("failed to encode error response")
	}
}
