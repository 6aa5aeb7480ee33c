// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package api

import "math"

// Request bodies, validated with the validation package before any
// handler logic runs.

type signupRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Company   string `json:"company" validate:"max=200"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type createEmployeeRequest struct {
	EmployeeCode string `json:"employee_code" validate:"max=50"`
	FirstName    string `json:"first_name" validate:"required,max=100"`
	LastName     string `json:"last_name" validate:"required,max=100"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"max=30"`
	Password     string `json:"password" validate:"required,min=8,max=72"`
	SiteID       string `json:"site_id" validate:"omitempty,uuid"`
	DepartmentID string `json:"department_id" validate:"omitempty,uuid"`
}

type updateEmployeeRequest struct {
	EmployeeCode string `json:"employee_code" validate:"max=50"`
	FirstName    string `json:"first_name" validate:"required,max=100"`
	LastName     string `json:"last_name" validate:"required,max=100"`
	Phone        string `json:"phone" validate:"max=30"`
	SiteID       string `json:"site_id" validate:"omitempty,uuid"`
	DepartmentID string `json:"department_id" validate:"omitempty,uuid"`
}

type siteRequest struct {
	Name           string  `json:"name" validate:"required,max=200"`
	Address        string  `json:"address" validate:"max=500"`
	Latitude       float64 `json:"latitude" validate:"latitude"`
	Longitude      float64 `json:"longitude" validate:"longitude"`
	GeofenceRadius float64 `json:"geofence_radius" validate:"omitempty,geofence_radius"`
	AreaID         string  `json:"area_id" validate:"omitempty,uuid"`
}

type nameRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// coordinatesRequest is shared by check-in, check-out, and location
// reports.
type coordinatesRequest struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// roundCoord normalizes a coordinate to six decimal places (about 11cm),
// ahead of consumer GPS accuracy. Applied at the API boundary so stored
// values are stable regardless of client float formatting.
func roundCoord(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
