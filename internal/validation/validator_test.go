// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package validation

import (
	"strings"
	"testing"
)

type reportLocationRequest struct {
	Latitude  float64 `validate:"latitude"`
	Longitude float64 `validate:"longitude"`
}

type createSiteRequest struct {
	Name           string  `validate:"required,min=1,max=200"`
	Latitude       float64 `validate:"latitude"`
	Longitude      float64 `validate:"longitude"`
	GeofenceRadius float64 `validate:"omitempty,geofence_radius"`
}

type createEmployeeRequest struct {
	FirstName string `validate:"required,min=1,max=100"`
	Email     string `validate:"required,email"`
	Password  string `validate:"required,min=8"`
}

func TestValidateStruct_Valid(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
	}{
		{
			name: "location in range",
			in:   &reportLocationRequest{Latitude: 28.6139, Longitude: 77.2090},
		},
		{
			name: "site with radius",
			in: &createSiteRequest{
				Name: "HQ", Latitude: 28.6139, Longitude: 77.2090, GeofenceRadius: 200,
			},
		},
		{
			name: "site with zero radius defaults later",
			in: &createSiteRequest{
				Name: "HQ", Latitude: 28.6139, Longitude: 77.2090,
			},
		},
		{
			name: "employee",
			in: &createEmployeeRequest{
				FirstName: "Asha", Email: "asha@example.com", Password: "correct-horse",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateStruct(tt.in); err != nil {
				t.Errorf("ValidateStruct() = %v, want nil", err)
			}
		})
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		in        interface{}
		wantField string
		wantTag   string
	}{
		{
			name:      "latitude out of range",
			in:        &reportLocationRequest{Latitude: 91.0, Longitude: 0},
			wantField: "Latitude",
			wantTag:   "latitude",
		},
		{
			name:      "longitude out of range",
			in:        &reportLocationRequest{Latitude: 0, Longitude: -181.0},
			wantField: "Longitude",
			wantTag:   "longitude",
		},
		{
			name: "radius too large",
			in: &createSiteRequest{
				Name: "HQ", Latitude: 0, Longitude: 0, GeofenceRadius: 60000,
			},
			wantField: "GeofenceRadius",
			wantTag:   "geofence_radius",
		},
		{
			name: "negative radius",
			in: &createSiteRequest{
				Name: "HQ", Latitude: 0, Longitude: 0, GeofenceRadius: -5,
			},
			wantField: "GeofenceRadius",
			wantTag:   "geofence_radius",
		},
		{
			name:      "bad email",
			in:        &createEmployeeRequest{FirstName: "A", Email: "nope", Password: "12345678"},
			wantField: "Email",
			wantTag:   "email",
		},
		{
			name:      "short password",
			in:        &createEmployeeRequest{FirstName: "A", Email: "a@b.com", Password: "short"},
			wantField: "Password",
			wantTag:   "min",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.in)
			if err == nil {
				t.Fatalf("ValidateStruct() = nil, want error on %s", tt.wantField)
			}
			found := false
			for _, fe := range err.Errors() {
				if fe.Field() == tt.wantField && fe.Tag() == tt.wantTag {
					found = true
				}
			}
			if !found {
				t.Errorf("missing error field=%s tag=%s in %v", tt.wantField, tt.wantTag, err)
			}
		})
	}
}

func TestToAPIError_SingleField(t *testing.T) {
	err := ValidateStruct(&reportLocationRequest{Latitude: 100, Longitude: 0})
	if err == nil {
		t.Fatal("expected validation error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "Latitude") {
		t.Errorf("Message = %q, want mention of Latitude", apiErr.Message)
	}
	if apiErr.Details["field"] != "Latitude" {
		t.Errorf("Details[field] = %v, want Latitude", apiErr.Details["field"])
	}
}

func TestToAPIError_MultipleFields(t *testing.T) {
	err := ValidateStruct(&createEmployeeRequest{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Errors()) < 2 {
		t.Fatalf("want multiple field errors, got %d", len(err.Errors()))
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok {
		t.Fatalf("Details[fields] has type %T", apiErr.Details["fields"])
	}
	if len(fields) != len(err.Errors()) {
		t.Errorf("fields count = %d, want %d", len(fields), len(err.Errors()))
	}
}

func TestTranslateError_Messages(t *testing.T) {
	err := ValidateStruct(&createEmployeeRequest{FirstName: "A", Email: "a@b.com", Password: "short"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "at least 8 characters") {
		t.Errorf("Error() = %q, want character-count message", msg)
	}
}

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()
	if v1 != v2 {
		t.Error("GetValidator() returned different instances")
	}
}
