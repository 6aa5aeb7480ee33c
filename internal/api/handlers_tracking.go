// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/worktrace/worktrace/internal/database"
	"github.com/worktrace/worktrace/internal/events"
	"github.com/worktrace/worktrace/internal/geo"
	"github.com/worktrace/worktrace/internal/logging"
	"github.com/worktrace/worktrace/internal/metrics"
	"github.com/worktrace/worktrace/internal/middleware"
	"github.com/worktrace/worktrace/internal/models"
	"github.com/worktrace/worktrace/internal/validation"
)

// ---- Admin reads ----

// Locations returns the live-map snapshot: each active employee's most
// recent position with its sequence number. Realtime deltas whose seq is
// higher than the snapshot row supersede it on the client.
func (h *Handler) Locations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	tenant, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	maxAge := h.config.Tracking.SnapshotMaxAge
	if raw := r.URL.Query().Get("max_age"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, ErrCodeValidation, "invalid max_age duration")
			return
		}
		maxAge = parsed
	}

	locations, err := h.db.LatestLocations(r.Context(), tenant, maxAge)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if locations == nil {
		locations = []*models.EmployeeLocation{}
	}
	respondJSON(w, http.StatusOK, locations, start)
}

// Attendance lists the tenant's attendance records, filterable by
// employee, site, time window, and open/closed state.
func (h *Handler) Attendance(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	tenant, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	filter, ok := h.parseAttendanceFilter(w, r)
	if !ok {
		return
	}

	records, err := h.db.ListAttendance(r.Context(), tenant, filter)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if records == nil {
		records = []*models.AttendanceRecord{}
	}
	respondJSON(w, http.StatusOK, records, start)
}

func (h *Handler) parseAttendanceFilter(w http.ResponseWriter, r *http.Request) (database.AttendanceFilter, bool) {
	q := r.URL.Query()
	filter := database.AttendanceFilter{
		Limit:  h.config.API.DefaultPageSize,
		Offset: 0,
	}

	if raw := q.Get("employee_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeValidation, "invalid employee_id")
			return filter, false
		}
		filter.EmployeeID = id
	}
	if raw := q.Get("site_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeValidation, "invalid site_id")
			return filter, false
		}
		filter.SiteID = id
	}
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeValidation, "invalid from timestamp")
			return filter, false
		}
		filter.From = t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeValidation, "invalid to timestamp")
			return filter, false
		}
		filter.To = t
	}
	filter.OpenOnly = q.Get("open") == "true"

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			respondError(w, http.StatusBadRequest, ErrCodeValidation, "invalid limit")
			return filter, false
		}
		filter.Limit = limit
	}
	if filter.Limit > h.config.API.MaxPageSize {
		filter.Limit = h.config.API.MaxPageSize
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			respondError(w, http.StatusBadRequest, ErrCodeValidation, "invalid offset")
			return filter, false
		}
		filter.Offset = offset
	}

	return filter, true
}

// OnSite reports how many of the tenant's employees are currently inside
// their site geofence, with the matching snapshot rows.
func (h *Handler) OnSite(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	tenant, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	locations, err := h.db.LatestLocations(r.Context(), tenant, h.config.Tracking.SnapshotMaxAge)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	onSite := make([]*models.EmployeeLocation, 0, len(locations))
	for _, el := range locations {
		if el.Location.OnSite {
			onSite = append(onSite, el)
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(onSite),
		"employees": onSite,
	}, start)
}

// LocationHistory returns one employee's location trail.
func (h *Handler) LocationHistory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	tenant, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	q := r.URL.Query()
	var from, to time.Time
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeValidation, "invalid from timestamp")
			return
		}
		from = t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeValidation, "invalid to timestamp")
			return
		}
		to = t
	}

	limit := h.config.API.DefaultPageSize
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, http.StatusBadRequest, ErrCodeValidation, "invalid limit")
			return
		}
		limit = parsed
	}
	if limit > h.config.API.MaxPageSize {
		limit = h.config.API.MaxPageSize
	}
	offset := 0
	if raw := q.Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, ErrCodeValidation, "invalid offset")
			return
		}
		offset = parsed
	}

	records, err := h.db.ListLocationHistory(r.Context(), tenant, id, from, to, limit, offset)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if records == nil {
		records = []*models.LocationRecord{}
	}
	respondJSON(w, http.StatusOK, records, start)
}

// ---- Employee operations ----

// employeeFromClaims loads the authenticated employee record.
func (h *Handler) employeeFromClaims(w http.ResponseWriter, r *http.Request) (*models.Employee, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok || claims.ActorType != models.ActorEmployee {
		respondError(w, http.StatusForbidden, ErrCodeAuthorization, "employee access required")
		return nil, false
	}
	id, err := claims.ActorID()
	if err != nil {
		respondError(w, http.StatusUnauthorized, ErrCodeAuthentication, "invalid token subject")
		return nil, false
	}

	emp, err := h.db.GetEmployeeByID(r.Context(), id)
	if err != nil {
		respondStoreError(w, err)
		return nil, false
	}
	if !emp.Active {
		respondError(w, http.StatusForbidden, ErrCodeAuthorization, "account deactivated")
		return nil, false
	}
	return emp, true
}

// assignedFence resolves the employee's site and its geofence.
func (h *Handler) assignedFence(r *http.Request, emp *models.Employee) (*models.WorkSite, geo.Fence, error) {
	if emp.SiteID == nil {
		return nil, geo.Fence{}, database.ErrNoAssignedSite
	}
	site, err := h.db.GetWorkSiteByID(r.Context(), *emp.SiteID)
	if err != nil {
		return nil, geo.Fence{}, err
	}
	return site, geo.Fence{Lat: site.Latitude, Lon: site.Longitude, RadiusM: site.GeofenceRadius}, nil
}

// Checkin opens an attendance session. The reported position must fall
// inside the assigned site's geofence (boundary inclusive).
func (h *Handler) Checkin(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	emp, ok := h.employeeFromClaims(w, r)
	if !ok {
		return
	}

	var req coordinatesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		respondValidationError(w, ve)
		return
	}
	lat, lon := roundCoord(req.Latitude), roundCoord(req.Longitude)

	site, fence, err := h.assignedFence(r, emp)
	if err != nil {
		metrics.AttendanceRejections.WithLabelValues("no_site").Inc()
		respondStoreError(w, err)
		return
	}

	onSite := fence.Contains(lat, lon)
	metrics.RecordGeofenceEvaluation(onSite)
	if !onSite {
		metrics.AttendanceRejections.WithLabelValues("outside_geofence").Inc()
		respondErrorDetails(w, http.StatusConflict, ErrCodeConflict,
			"position is outside the site geofence", map[string]interface{}{
				"distance_m": geo.Distance(fence.Lat, fence.Lon, lat, lon),
				"radius_m":   fence.RadiusM,
			})
		return
	}

	record, err := h.db.OpenAttendance(r.Context(), emp.ID, site.ID, lat, lon, time.Now().UTC())
	if err != nil {
		if errors.Is(err, database.ErrOpenSession) {
			metrics.AttendanceRejections.WithLabelValues("already_open").Inc()
		}
		respondStoreError(w, err)
		return
	}

	h.publishTrackingEvent(events.KindCheckin, emp, site.ID, lat, lon, true, 0, record.CheckinAt)
	respondJSON(w, http.StatusCreated, record, start)
}

// Checkout closes the open attendance session. Unlike check-in, the
// position is recorded but not fence-enforced: an employee leaving the
// site must still be able to clock out.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	emp, ok := h.employeeFromClaims(w, r)
	if !ok {
		return
	}

	var req coordinatesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		respondValidationError(w, ve)
		return
	}
	lat, lon := roundCoord(req.Latitude), roundCoord(req.Longitude)

	record, err := h.db.CloseAttendance(r.Context(), emp.ID, lat, lon, time.Now().UTC())
	if err != nil {
		if errors.Is(err, database.ErrNoOpenSession) {
			metrics.AttendanceRejections.WithLabelValues("no_open_session").Inc()
		}
		respondStoreError(w, err)
		return
	}

	onSite := false
	if _, fence, ferr := h.assignedFence(r, emp); ferr == nil {
		onSite = fence.Contains(lat, lon)
		metrics.RecordGeofenceEvaluation(onSite)
	}

	h.publishTrackingEvent(events.KindCheckout, emp, record.SiteID, lat, lon, onSite, 0, *record.CheckoutAt)
	respondJSON(w, http.StatusOK, record, start)
}

// ReportLocation appends a GPS sample. Samples arriving faster than the
// per-employee minimum interval are accepted and dropped: the feed is
// best-effort, and a 429 would make well-behaved clients back off the
// attendance operations too.
func (h *Handler) ReportLocation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	emp, ok := h.employeeFromClaims(w, r)
	if !ok {
		return
	}

	var req coordinatesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		respondValidationError(w, ve)
		return
	}
	lat, lon := roundCoord(req.Latitude), roundCoord(req.Longitude)

	if !h.throttle.Allow(emp.ID) {
		metrics.LocationReportsThrottled.Inc()
		respondJSON(w, http.StatusAccepted, map[string]interface{}{"throttled": true}, start)
		return
	}

	onSite := false
	var siteID *uuid.UUID
	if site, fence, err := h.assignedFence(r, emp); err == nil {
		onSite = fence.Contains(lat, lon)
		metrics.RecordGeofenceEvaluation(onSite)
		siteID = &site.ID
	}

	record := &models.LocationRecord{
		EmployeeID: emp.ID,
		Latitude:   lat,
		Longitude:  lon,
		OnSite:     onSite,
		RecordedAt: time.Now().UTC(),
	}
	seq, err := h.db.InsertLocationRecord(r.Context(), record)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	var eventSite uuid.UUID
	if siteID != nil {
		eventSite = *siteID
	}
	h.publishTrackingEvent(events.KindLocation, emp, eventSite, lat, lon, onSite, seq, record.RecordedAt)

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"record": record,
		"seq":    seq,
	}, start)
}

// Me returns the employee's profile, assigned site, and any open
// attendance session.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	emp, ok := h.employeeFromClaims(w, r)
	if !ok {
		return
	}
	emp.PasswordHash = ""

	resp := map[string]interface{}{"employee": emp}

	if emp.SiteID != nil {
		if site, err := h.db.GetWorkSiteByID(r.Context(), *emp.SiteID); err == nil {
			resp["site"] = site
		}
	}
	if open, err := h.db.GetOpenAttendance(r.Context(), emp.ID); err == nil {
		resp["open_attendance"] = open
	}

	respondJSON(w, http.StatusOK, resp, start)
}

// publishTrackingEvent sends a realtime event after the durable write.
// Publish failures are logged, not surfaced: the API response reflects
// the database state, and dashboards recover via the snapshot endpoint.
func (h *Handler) publishTrackingEvent(kind string, emp *models.Employee, siteID uuid.UUID, lat, lon float64, onSite bool, seq int64, at time.Time) {
	if h.publisher == nil {
		return
	}

	event := &events.Event{
		Kind:         kind,
		AdminID:      emp.AdminID,
		EmployeeID:   emp.ID,
		EmployeeName: emp.FullName(),
		Latitude:     lat,
		Longitude:    lon,
		OnSite:       onSite,
		Seq:          seq,
		OccurredAt:   at,
	}
	if siteID != uuid.Nil {
		event.SiteID = &siteID
	}

	if err := h.publisher.Publish(event); err != nil {
		logging.Warn().Err(err).Str("kind", kind).Msg("tracking event publish failed")
	}
}
