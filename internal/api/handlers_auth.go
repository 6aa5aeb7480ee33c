// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/worktrace/worktrace/internal/audit"
	"github.com/worktrace/worktrace/internal/auth"
	"github.com/worktrace/worktrace/internal/database"
	"github.com/worktrace/worktrace/internal/logging"
	"github.com/worktrace/worktrace/internal/middleware"
	"github.com/worktrace/worktrace/internal/models"
	"github.com/worktrace/worktrace/internal/validation"
)

// loginResponse is the payload returned by Login.
type loginResponse struct {
	Token     string      `json:"token"`
	ActorType string      `json:"actor_type"`
	Role      string      `json:"role,omitempty"`
	ExpiresAt time.Time   `json:"expires_at"`
	Admin     interface{} `json:"admin,omitempty"`
	Employee  interface{} `json:"employee,omitempty"`
}

// Signup registers a new admin account. Accounts start inactive and
// unverified; a super admin activates them before login succeeds.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		respondValidationError(w, ve)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, "password could not be processed")
		return
	}

	admin := &models.Admin{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Company:      req.Company,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := h.db.CreateAdmin(r.Context(), admin); err != nil {
		respondStoreError(w, err)
		return
	}

	logging.Info().Str("email", sanitizeLogValue(admin.Email)).Msg("admin account registered")
	h.audit.Record(audit.Entry{
		AdminID:   admin.ID,
		ActorID:   admin.ID.String(),
		ActorType: models.ActorAdmin,
		Action:    audit.ActionSignup,
		SourceIP:  audit.ClientIP(r),
	})
	respondJSON(w, http.StatusCreated, admin, start)
}

// Login authenticates an admin or employee and issues a JWT bound to a
// new session. The same endpoint serves both actor types; admin accounts
// are checked first, then employees.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		respondValidationError(w, ve)
		return
	}

	resp, err := h.authenticate(r, &req)
	if err != nil {
		h.audit.Record(audit.Entry{
			ActorID:   req.Email,
			ActorType: "unknown",
			Action:    audit.ActionLoginFailed,
			SourceIP:  audit.ClientIP(r),
		})
		// One message for every failure mode, so responses do not
		// disclose which emails exist.
		respondError(w, http.StatusUnauthorized, ErrCodeAuthentication, "invalid credentials")
		return
	}

	respondJSON(w, http.StatusOK, resp, start)
}

func (h *Handler) authenticate(r *http.Request, req *loginRequest) (*loginResponse, error) {
	ctx := r.Context()

	admin, err := h.db.GetAdminByEmail(ctx, req.Email)
	if err == nil {
		if !admin.Active {
			return nil, errors.New("admin account not activated")
		}
		if err := auth.CheckPassword(admin.PasswordHash, req.Password); err != nil {
			return nil, err
		}
		h.audit.Record(audit.Entry{
			AdminID:   admin.ID,
			ActorID:   admin.ID.String(),
			ActorType: models.ActorAdmin,
			Action:    audit.ActionLogin,
			SourceIP:  audit.ClientIP(r),
		})
		return h.issueToken(r, admin.ID, models.ActorAdmin, admin.Role, admin, nil)
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	employee, err := h.db.GetEmployeeByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if !employee.Active {
		return nil, errors.New("employee account deactivated")
	}
	if err := auth.CheckPassword(employee.PasswordHash, req.Password); err != nil {
		return nil, err
	}
	h.audit.Record(audit.Entry{
		AdminID:   employee.AdminID,
		ActorID:   employee.ID.String(),
		ActorType: models.ActorEmployee,
		Action:    audit.ActionLogin,
		SourceIP:  audit.ClientIP(r),
	})
	return h.issueToken(r, employee.ID, models.ActorEmployee, "", nil, employee)
}

func (h *Handler) issueToken(r *http.Request, actorID uuid.UUID, actorType, role string, admin *models.Admin, employee *models.Employee) (*loginResponse, error) {
	session, err := h.sessions.Create(r.Context(), actorID, actorType, h.jwtManager.Timeout())
	if err != nil {
		return nil, err
	}

	token, err := h.jwtManager.GenerateToken(actorID, actorType, role, session.ID)
	if err != nil {
		return nil, err
	}

	resp := &loginResponse{
		Token:     token,
		ActorType: actorType,
		Role:      role,
		ExpiresAt: session.ExpiresAt,
	}
	if admin != nil {
		admin.PasswordHash = ""
		resp.Admin = admin
	}
	if employee != nil {
		employee.PasswordHash = ""
		resp.Employee = employee
	}

	logging.Info().
		Str("actor_type", actorType).
		Str("actor_id", actorID.String()).
		Msg("login succeeded")
	return resp, nil
}

// tenantForActor resolves the owning tenant for an audit entry. Admins
// are their own tenant; employees belong to the admin that created them.
func (h *Handler) tenantForActor(r *http.Request, actorType, actorID string) uuid.UUID {
	id, err := uuid.Parse(actorID)
	if err != nil {
		return uuid.Nil
	}
	if actorType == models.ActorAdmin {
		return id
	}
	employee, err := h.db.GetEmployeeByID(r.Context(), id)
	if err != nil {
		return uuid.Nil
	}
	return employee.AdminID
}

// Logout revokes the session behind the presented token. The JWT itself
// becomes useless immediately, even though it has not expired.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, ErrCodeAuthentication, "missing authentication token")
		return
	}

	if err := h.sessions.Revoke(r.Context(), claims.SessionID); err != nil {
		logging.Warn().Err(err).Msg("session revoke failed during logout")
	}

	h.audit.Record(audit.Entry{
		AdminID:   h.tenantForActor(r, claims.ActorType, claims.Subject),
		ActorID:   claims.Subject,
		ActorType: claims.ActorType,
		Action:    audit.ActionLogout,
		SourceIP:  audit.ClientIP(r),
	})
	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"}, start)
}
