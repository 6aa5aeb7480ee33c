// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/worktrace/worktrace/internal/database"
	"github.com/worktrace/worktrace/internal/logging"
	"github.com/worktrace/worktrace/internal/models"
	"github.com/worktrace/worktrace/internal/validation"
)

// Error codes used in API error responses.
const (
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeAuthentication = "AUTHENTICATION_ERROR"
	ErrCodeAuthorization  = "AUTHORIZATION_ERROR"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeConflict       = "CONFLICT"
	ErrCodeDatabase       = "DATABASE_ERROR"
	ErrCodeRateLimit      = "RATE_LIMIT_EXCEEDED"
)

// respondJSON writes a success envelope.
func respondJSON(w http.ResponseWriter, status int, data interface{}, start time.Time) {
	resp := models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	}
	writeJSON(w, status, resp)
}

// respondError writes an error envelope.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondErrorDetails(w, status, code, message, nil)
}

func respondErrorDetails(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) {
	resp := models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	}
	writeJSON(w, status, resp)
}

// respondValidationError maps a struct validation failure onto a 400.
func respondValidationError(w http.ResponseWriter, ve *validation.RequestValidationError) {
	apiErr := ve.ToAPIError()
	respondErrorDetails(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
}

// respondStoreError translates database sentinel errors into envelope
// errors with matching status codes. Unknown errors become a generic 500
// so internals never leak to clients.
func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "resource not found")
	case errors.Is(err, database.ErrDuplicateEmail):
		respondError(w, http.StatusConflict, ErrCodeConflict, "email already registered")
	case errors.Is(err, database.ErrOpenSession):
		respondError(w, http.StatusConflict, ErrCodeConflict, "an open attendance session already exists")
	case errors.Is(err, database.ErrNoOpenSession):
		respondError(w, http.StatusConflict, ErrCodeConflict, "no open attendance session")
	case errors.Is(err, database.ErrNoAssignedSite):
		respondError(w, http.StatusConflict, ErrCodeConflict, "employee has no assigned work site")
	default:
		logging.Error().Err(err).Msg("database operation failed")
		respondError(w, http.StatusInternalServerError, ErrCodeDatabase, "internal database error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

// decodeJSON reads and decodes a request body with a size cap.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, "malformed request body")
		return false
	}
	return true
}
