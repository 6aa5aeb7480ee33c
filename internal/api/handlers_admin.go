// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/worktrace/worktrace/internal/audit"
	"github.com/worktrace/worktrace/internal/auth"
	"github.com/worktrace/worktrace/internal/logging"
	"github.com/worktrace/worktrace/internal/middleware"
	"github.com/worktrace/worktrace/internal/models"
	"github.com/worktrace/worktrace/internal/validation"
)

// adminID resolves the authenticated admin's tenant ID from claims.
func adminID(r *http.Request) (uuid.UUID, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok || claims.ActorType != models.ActorAdmin {
		return uuid.Nil, false
	}
	id, err := claims.ActorID()
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// pathUUID parses a chi URL parameter as a UUID.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func requireAdmin(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := adminID(r)
	if !ok {
		respondError(w, http.StatusForbidden, ErrCodeAuthorization, "admin access required")
	}
	return id, ok
}

// recordAdminAction writes one audit entry for a tenant mutation.
func (h *Handler) recordAdminAction(r *http.Request, tenant uuid.UUID, action audit.Action, targetType string, targetID uuid.UUID) {
	h.audit.Record(audit.Entry{
		AdminID:    tenant,
		ActorID:    tenant.String(),
		ActorType:  models.ActorAdmin,
		Action:     action,
		TargetID:   targetID.String(),
		TargetType: targetType,
		SourceIP:   audit.ClientIP(r),
	})
}

// ---- Employees ----

// CreateEmployee registers a tracked worker under the calling admin.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	tenant, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	var req createEmployeeRequest
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

	emp := &models.Employee{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		AdminID:      tenant,
	}
	if req.EmployeeCode != "" {
		emp.EmployeeCode = &req.EmployeeCode
	}
	if !h.assignEmployeeRefs(w, r, tenant, emp, req.SiteID, req.DepartmentID) {
		return
	}

	if err := h.db.CreateEmployee(r.Context(), emp); err != nil {
		respondStoreError(w, err)
		return
	}
	h.recordAdminAction(r, tenant, audit.ActionEmployeeCreated, "employee", emp.ID)

	emp.PasswordHash = ""
	respondJSON(w, http.StatusCreated, emp, start)
}

// assignEmployeeRefs resolves optional site and department references,
// verifying both belong to the tenant.
func (h *Handler) assignEmployeeRefs(w http.ResponseWriter, r *http.Request, tenant uuid.UUID, emp *models.Employee, siteID, departmentID string) bool {
	if siteID != "" {
		id, err := uuid.Parse(siteID)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeValidation, "invalid site_id")
			return false
		}
		if _, err := h.db.GetWorkSite(r.Context(), tenant, id); err != nil {
			respondStoreError(w, err)
			return false
		}
		emp.SiteID = &id
	}
	if departmentID != "" {
		id, err := uuid.Parse(departmentID)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeValidation, "invalid department_id")
			return false
		}
		emp.DepartmentID = &id
	}
	return true
}

// ListEmployees returns the tenant's employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	tenant, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	employees, err := h.db.ListEmployees(r.Context(), tenant)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	for _, e := range employees {
		e.PasswordHash = ""
	}
	respondJSON(w, http.StatusOK, employees, start)
}

// GetEmployee returns one employee within the tenant.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	tenant, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	emp, err := h.db.GetEmployeeForAdmin(r.Context(), tenant, id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	emp.PasswordHash = ""
	respondJSON(w, http.StatusOK, emp, start)
}

// UpdateEmployee replaces the mutable fields of an employee.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	tenant, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req updateEmployeeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		respondValidationError(w, ve)
		return
	}

	emp, err := h.db.GetEmployeeForAdmin(r.Context(), tenant, id)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	emp.FirstName = req.FirstName
	emp.LastName = req.LastName
	emp.Phone = req.Phone
	emp.EmployeeCode = nil
	if req.EmployeeCode != "" {
		emp.EmployeeCode = &req.EmployeeCode
	}
	emp.SiteID = nil
	emp.DepartmentID = nil
	if !h.assignEmployeeRefs(w, r, tenant, emp, req.SiteID, req.DepartmentID) {
		return
	}

	if err := h.db.UpdateEmployee(r.Context(), tenant, emp); err != nil {
		respondStoreError(w, err)
		return
	}
	h.recordAdminAction(r, tenant, audit.ActionEmployeeUpdated, "employee", emp.ID)
	emp.PasswordHash = ""
	respondJSON(w, http.StatusOK, emp, start)
}

// DeactivateEmployee soft-deletes an employee; history is kept.
func (h *Handler) DeactivateEmployee(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	tenant, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.db.DeactivateEmployee(r.Context(), tenant, id); err != nil {
		respondStoreError(w, err)
		return
	}

	// Live sessions for the employee die with the account.
	if revoked, err := h.sessions.RevokeAllForActor(r.Context(), id); err != nil {
		logging.Warn().Err(err).Msg("failed to revoke sessions for deactivated employee")
	} else if revoked > 0 {
		logging.Info().Int("sessions", revoked).Msg("revoked sessions for deactivated employee")
	}

	h.recordAdminAction(r, tenant, audit.ActionEmployeeDeactivated, "employee", id)
	respondJSON(w, http.StatusOK, map[string]string{"message": "employee deactivated"}, start)
}

// ---- Work sites ----

// CreateSite registers a work site with a circular geofence.
func (h *Handler) CreateSite(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	tenant, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	var req siteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		respondValidationError(w, ve)
		return
	}

	site := &models.WorkSite{
		Name:           req.Name,
		Address:        req.Address,
		Latitude:       roundCoord(req.Latitude),
		Longitude:      roundCoord(req.Longitude),
		GeofenceRadius: req.GeofenceRadius,
		AdminID:        tenant,
	}
	if req.AreaID != "" {
		id, err := uuid.Parse(req.AreaID)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeValidation, "invalid area_id")
			return
		}
		site.AreaID = &id
	}

	if err := h.db.CreateWorkSite(r.Context(), site); err != nil {
		respondStoreError(w, err)
		return
	}
	h.recordAdminAction(r, tenant, audit.ActionSiteCreated, "site", site.ID)
	respondJSON(w, http.StatusCreated, site, start)
}

// ListSites returns the tenant's work sites.
func (h *Handler) ListSites(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	tenant, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	sites, err := h.db.ListWorkSites(r.Context(), tenant)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sites, start)
}

// GetSite returns one work site within the tenant.
func (h *Handler) GetSite(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	tenant, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	site, err := h.db.GetWorkSite(r.Context(), tenant, id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, site, start)
}

// UpdateSite replaces the mutable fields of a work site.
func (h *Handler) UpdateSite(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	tenant, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req siteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		respondValidationError(w, ve)
		return
	}

	site, err := h.db.GetWorkSite(r.Context(), tenant, id)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	site.Name = req.Name
	site.Address = req.Address
	site.Latitude = roundCoord(req.Latitude)
	site.Longitude = roundCoord(req.Longitude)
	if req.GeofenceRadius > 0 {
		site.GeofenceRadius = req.GeofenceRadius
	}
	site.AreaID = nil
	if req.AreaID != "" {
		areaID, err := uuid.Parse(req.AreaID)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeValidation, "invalid area_id")
			return
		}
		site.AreaID = &areaID
	}

	if err := h.db.UpdateWorkSite(r.Context(), tenant, site); err != nil {
		respondStoreError(w, err)
		return
	}
	h.recordAdminAction(r, tenant, audit.ActionSiteUpdated, "site", site.ID)
	respondJSON(w, http.StatusOK, site, start)
}

// DeactivateSite soft-deletes a work site.
func (h *Handler) DeactivateSite(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	tenant, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.db.DeactivateWorkSite(r.Context(), tenant, id); err != nil {
		respondStoreError(w, err)
		return
	}
	h.recordAdminAction(r, tenant, audit.ActionSiteDeactivated, "site", id)
	respondJSON(w, http.StatusOK, map[string]string{"message": "site deactivated"}, start)
}

// ---- Departments ----

// CreateDepartment adds an employee grouping.
func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	tenant, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	var req nameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		respondValidationError(w, ve)
		return
	}

	dept := &models.Department{Name: req.Name, AdminID: tenant}
	if err := h.db.CreateDepartment(r.Context(), dept); err != nil {
		respondStoreError(w, err)
		return
	}
	h.recordAdminAction(r, tenant, audit.ActionDepartmentCreated, "department", dept.ID)
	respondJSON(w, http.StatusCreated, dept, start)
}

// ListDepartments returns the tenant's departments.
func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	tenant, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	departments, err := h.db.ListDepartments(r.Context(), tenant)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, departments, start)
}

// DeleteDepartment removes a department; member employees keep working,
// their department reference is cleared.
func (h *Handler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	tenant, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.db.DeleteDepartment(r.Context(), tenant, id); err != nil {
		respondStoreError(w, err)
		return
	}
	h.recordAdminAction(r, tenant, audit.ActionDepartmentDeleted, "department", id)
	respondJSON(w, http.StatusOK, map[string]string{"message": "department deleted"}, start)
}

// ---- Areas ----

// CreateArea adds a work site grouping.
func (h *Handler) CreateArea(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	tenant, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	var req nameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		respondValidationError(w, ve)
		return
	}

	area := &models.Area{Name: req.Name, AdminID: tenant}
	if err := h.db.CreateArea(r.Context(), area); err != nil {
		respondStoreError(w, err)
		return
	}
	h.recordAdminAction(r, tenant, audit.ActionAreaCreated, "area", area.ID)
	respondJSON(w, http.StatusCreated, area, start)
}

// ListAreas returns the tenant's areas.
func (h *Handler) ListAreas(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	tenant, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	areas, err := h.db.ListAreas(r.Context(), tenant)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, areas, start)
}

// DeleteArea removes an area; sites keep working with the reference
// cleared.
func (h *Handler) DeleteArea(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	tenant, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.db.DeleteArea(r.Context(), tenant, id); err != nil {
		respondStoreError(w, err)
		return
	}
	h.recordAdminAction(r, tenant, audit.ActionAreaDeleted, "area", id)
	respondJSON(w, http.StatusOK, map[string]string{"message": "area deleted"}, start)
}

// ---- Admin accounts ----

// ListAdmins returns every admin account. Super admin only.
func (h *Handler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	admins, err := h.db.ListAdmins(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, admins, start)
}

// ActivateAdmin activates a signed-up admin account so it can log in.
// Super admin only.
func (h *Handler) ActivateAdmin(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	caller, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.db.SetAdminActive(r.Context(), id, true); err != nil {
		respondStoreError(w, err)
		return
	}
	h.recordAdminAction(r, caller, audit.ActionAdminActivated, "admin", id)
	respondJSON(w, http.StatusOK, map[string]string{"message": "admin activated"}, start)
}

// DeactivateAdmin disables an admin account and revokes its live
// sessions. Super admin only; the caller cannot deactivate themselves.
func (h *Handler) DeactivateAdmin(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	caller, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if id == caller {
		respondError(w, http.StatusConflict, ErrCodeConflict, "cannot deactivate own account")
		return
	}

	if err := h.db.SetAdminActive(r.Context(), id, false); err != nil {
		respondStoreError(w, err)
		return
	}
	if revoked, err := h.sessions.RevokeAllForActor(r.Context(), id); err != nil {
		logging.Warn().Err(err).Msg("failed to revoke sessions for deactivated admin")
	} else if revoked > 0 {
		logging.Info().Int("sessions", revoked).Msg("revoked sessions for deactivated admin")
	}
	h.recordAdminAction(r, caller, audit.ActionAdminDeactivated, "admin", id)
	respondJSON(w, http.StatusOK, map[string]string{"message": "admin deactivated"}, start)
}

// ---- Audit trail ----

// AuditLog returns the tenant's audit entries, newest first. Filters:
// action (comma-separated), actor_id, target_id, limit, offset.
func (h *Handler) AuditLog(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	tenant, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	filter := audit.DefaultFilter()
	q := r.URL.Query()
	if raw := q.Get("action"); raw != "" {
		for _, a := range strings.Split(raw, ",") {
			if a = strings.TrimSpace(a); a != "" {
				filter.Actions = append(filter.Actions, audit.Action(a))
			}
		}
	}
	filter.ActorID = q.Get("actor_id")
	filter.TargetID = q.Get("target_id")
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			respondError(w, http.StatusBadRequest, ErrCodeValidation, "invalid limit")
			return
		}
		if limit > h.config.API.MaxPageSize {
			limit = h.config.API.MaxPageSize
		}
		filter.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			respondError(w, http.StatusBadRequest, ErrCodeValidation, "invalid offset")
			return
		}
		filter.Offset = offset
	}

	entries, err := h.audit.Query(r.Context(), tenant, filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeDatabase, "audit query failed")
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	respondJSON(w, http.StatusOK, entries, start)
}
