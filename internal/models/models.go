// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

// Package models defines the data structures used throughout Worktrace:
// tenant entities (admins, employees, sites, departments, areas), the
// append-only location and attendance records, and the API response
// envelope.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Admin roles.
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Actor types carried in JWT claims and session records.
const (
	ActorAdmin    = "admin"
	ActorEmployee = "employee"
)

// Admin is a tenant owner. Every employee, work site, department, and area
// belongs to exactly one admin; queries never cross tenant boundaries.
//
// Lifecycle: created at signup (inactive), activated by a super admin,
// mutated on profile edits.
type Admin struct {
	ID           uuid.UUID `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Company      string    `json:"company,omitempty"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"` // admin or super_admin
	Verified     bool      `json:"verified"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Employee is a tracked worker owned by an admin. Employees are
// deactivated (Active=false) rather than deleted so that historical
// attendance and location records keep a valid reference.
type Employee struct {
	ID           uuid.UUID  `json:"id"`
	EmployeeCode *string    `json:"employee_code,omitempty"` // optional external HR identifier
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone,omitempty"`
	PasswordHash string     `json:"-"`
	AdminID      uuid.UUID  `json:"admin_id"`
	SiteID       *uuid.UUID `json:"site_id,omitempty"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// FullName returns the employee's display name.
func (e *Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// DefaultGeofenceRadiusM is applied when a site is created without an
// explicit radius.
const DefaultGeofenceRadiusM = 200.0

// WorkSite is a physical location with a circular geofence. Latitude and
// longitude are rounded to six decimal places (~11cm resolution) at the
// API boundary; the radius is in meters.
type WorkSite struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Address        string     `json:"address,omitempty"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	GeofenceRadius float64    `json:"geofence_radius"` // meters
	ImagePath      *string    `json:"image_path,omitempty"`
	AreaID         *uuid.UUID `json:"area_id,omitempty"`
	AdminID        uuid.UUID  `json:"admin_id"`
	Active         bool       `json:"active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Department is a named grouping of employees within a tenant.
type Department struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	AdminID   uuid.UUID `json:"admin_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Area is a named grouping of work sites within a tenant.
type Area struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	AdminID   uuid.UUID `json:"admin_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LocationRecord is one reported GPS position. Records are append-only:
// never mutated, never deleted in normal operation. OnSite is computed
// against the employee's assigned site geofence at write time and must
// agree with that evaluation.
type LocationRecord struct {
	ID         uuid.UUID `json:"id"`
	EmployeeID uuid.UUID `json:"employee_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	OnSite     bool      `json:"on_site"`
	RecordedAt time.Time `json:"recorded_at"`
}

// AttendanceRecord is one work session: created at check-in, mutated
// exactly once at check-out. An employee has at most one open record
// (CheckoutAt == nil) at any time.
type AttendanceRecord struct {
	ID          uuid.UUID  `json:"id"`
	EmployeeID  uuid.UUID  `json:"employee_id"`
	SiteID      uuid.UUID  `json:"site_id"`
	CheckinAt   time.Time  `json:"checkin_at"`
	CheckinLat  float64    `json:"checkin_lat"`
	CheckinLon  float64    `json:"checkin_lon"`
	CheckoutAt  *time.Time `json:"checkout_at,omitempty"`
	CheckoutLat *float64   `json:"checkout_lat,omitempty"`
	CheckoutLon *float64   `json:"checkout_lon,omitempty"`
}

// Open reports whether the session is still in progress.
func (a *AttendanceRecord) Open() bool {
	return a.CheckoutAt == nil
}

// EmployeeLocation pairs an employee with their most recent location
// sample. This is the element type of the live-map snapshot endpoint.
type EmployeeLocation struct {
	Employee Employee       `json:"employee"`
	Location LocationRecord `json:"location"`
	// Seq orders snapshot rows against realtime deltas: consumers reject
	// updates older than the currently applied sequence per employee.
	Seq int64 `json:"seq"`
}
