// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

/*
schema.go - Database Schema Management

Tables:
  - admins: tenant owners, one row per registered admin account
  - employees: tracked workers, owned by exactly one admin
  - work_sites: physical locations with a circular geofence
  - departments: employee groupings within a tenant
  - areas: work site groupings within a tenant
  - location_records: append-only GPS feed, one row per report
  - attendance_records: work sessions, one open row per employee at most

Coordinates are DOUBLE; values are rounded to six decimal places (about
11cm of resolution) at the API boundary, which is ahead of consumer GPS
accuracy. Geofence containment is computed in Go against the haversine
distance; the database stores only the inputs and the on_site verdict
made at write time.

Delta ordering:
location_records.seq is drawn from a global sequence so snapshot rows and
realtime deltas share one total order. Live-map consumers keep the highest
applied seq per employee and drop anything older.
*/
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := db.getTableCreationQueries()

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// getTableCreationQueries returns the table creation SQL statements
func (db *DB) getTableCreationQueries() []string {
	return []string{
		`CREATE SEQUENCE IF NOT EXISTS location_seq START 1`,

		`CREATE TABLE IF NOT EXISTS admins (
			id UUID PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			company TEXT,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'admin',
			verified BOOLEAN NOT NULL DEFAULT FALSE,
			active BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS departments (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			admin_id UUID NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS areas (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			admin_id UUID NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS work_sites (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			address TEXT,
			latitude DOUBLE NOT NULL,
			longitude DOUBLE NOT NULL,
			geofence_radius_m DOUBLE NOT NULL DEFAULT 200.0,
			image_path TEXT,
			area_id UUID,
			admin_id UUID NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS employees (
			id UUID PRIMARY KEY,
			employee_code TEXT,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			phone TEXT,
			password_hash TEXT NOT NULL,
			admin_id UUID NOT NULL,
			site_id UUID,
			department_id UUID,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// Append-only: rows are never updated or deleted in normal operation.
		`CREATE TABLE IF NOT EXISTS location_records (
			id UUID PRIMARY KEY,
			employee_id UUID NOT NULL,
			latitude DOUBLE NOT NULL,
			longitude DOUBLE NOT NULL,
			on_site BOOLEAN NOT NULL,
			seq BIGINT NOT NULL DEFAULT nextval('location_seq'),
			recorded_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS attendance_records (
			id UUID PRIMARY KEY,
			employee_id UUID NOT NULL,
			site_id UUID NOT NULL,
			checkin_at TIMESTAMP NOT NULL,
			checkin_lat DOUBLE NOT NULL,
			checkin_lon DOUBLE NOT NULL,
			checkout_at TIMESTAMP,
			checkout_lat DOUBLE,
			checkout_lon DOUBLE
		)`,
	}
}

// createIndexes creates indexes for the common query patterns: per-tenant
// listings, latest-location snapshots, and open-session lookups.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_employees_admin ON employees(admin_id)`,
		`CREATE INDEX IF NOT EXISTS idx_work_sites_admin ON work_sites(admin_id)`,
		`CREATE INDEX IF NOT EXISTS idx_departments_admin ON departments(admin_id)`,
		`CREATE INDEX IF NOT EXISTS idx_areas_admin ON areas(admin_id)`,
		`CREATE INDEX IF NOT EXISTS idx_locations_employee_seq ON location_records(employee_id, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_locations_recorded ON location_records(recorded_at)`,
		`CREATE INDEX IF NOT EXISTS idx_attendance_employee ON attendance_records(employee_id, checkin_at)`,
	}

	for _, idx := range indexes {
		if _, err := db.conn.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", idx, err)
		}
	}

	return nil
}
