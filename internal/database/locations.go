// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/worktrace/worktrace/internal/metrics"
	"github.com/worktrace/worktrace/internal/models"
)

// InsertLocationRecord appends one GPS report and returns its assigned
// sequence number. The sequence is global and strictly increasing, so
// live-map consumers can order snapshot rows against realtime deltas.
func (db *DB) InsertLocationRecord(ctx context.Context, r *models.LocationRecord) (int64, error) {
	start := time.Now()

	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.RecordedAt.IsZero() {
		r.RecordedAt = time.Now().UTC()
	}

	var seq int64
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO location_records (id, employee_id, latitude, longitude, on_site, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING seq`,
		r.ID, r.EmployeeID, r.Latitude, r.Longitude, r.OnSite, r.RecordedAt).Scan(&seq)

	metrics.RecordDBQuery("INSERT", "location_records", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("insert location record: %w", err)
	}

	metrics.LocationReportsIngested.Inc()
	return seq, nil
}

// LatestLocations returns each active employee's most recent location in a
// tenant, paired with the record's sequence number. This is the live-map
// snapshot: a client applies it, then applies realtime deltas whose seq is
// higher than the snapshot row for that employee.
//
// maxAge drops rows older than the cutoff; zero means no age limit.
func (db *DB) LatestLocations(ctx context.Context, adminID uuid.UUID, maxAge time.Duration) ([]*models.EmployeeLocation, error) {
	start := time.Now()

	query := `
		SELECT ` + employeeColumnsPrefixed("e") + `,
			l.id, l.employee_id, l.latitude, l.longitude, l.on_site, l.seq, l.recorded_at
		FROM employees e
		JOIN (
			SELECT *, ROW_NUMBER() OVER (PARTITION BY employee_id ORDER BY seq DESC) AS rn
			FROM location_records
		) l ON l.employee_id = e.id AND l.rn = 1
		WHERE e.admin_id = ? AND e.active`
	args := []interface{}{adminID}

	if maxAge > 0 {
		query += ` AND l.recorded_at >= ?`
		args = append(args, time.Now().UTC().Add(-maxAge))
	}

	query += ` ORDER BY e.last_name, e.first_name, e.id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("SELECT", "location_records", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("latest locations: %w", err)
	}
	defer closeWithLog(rows, "location rows")

	var result []*models.EmployeeLocation
	for rows.Next() {
		el, err := scanEmployeeLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee location: %w", err)
		}
		result = append(result, el)
	}
	return result, rows.Err()
}

// ListLocationHistory returns an employee's location trail within a tenant,
// newest first.
func (db *DB) ListLocationHistory(ctx context.Context, adminID, employeeID uuid.UUID, from, to time.Time, limit, offset int) ([]*models.LocationRecord, error) {
	start := time.Now()

	// Tenant check through the employees table.
	if _, err := db.GetEmployeeForAdmin(ctx, adminID, employeeID); err != nil {
		return nil, err
	}

	query := `SELECT id, employee_id, latitude, longitude, on_site, recorded_at
		FROM location_records WHERE employee_id = ?`
	args := []interface{}{employeeID}

	if !from.IsZero() {
		query += ` AND recorded_at >= ?`
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		query += ` AND recorded_at < ?`
		args = append(args, to.UTC())
	}

	query += ` ORDER BY recorded_at DESC, seq DESC`
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("SELECT", "location_records", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list location history: %w", err)
	}
	defer closeWithLog(rows, "location rows")

	var records []*models.LocationRecord
	for rows.Next() {
		var r models.LocationRecord
		if err := rows.Scan(&r.ID, &r.EmployeeID, &r.Latitude, &r.Longitude, &r.OnSite, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan location record: %w", err)
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

// CountOnSiteEmployees returns how many active employees in the tenant are
// currently on site, judged by their latest location report within maxAge.
func (db *DB) CountOnSiteEmployees(ctx context.Context, adminID uuid.UUID, maxAge time.Duration) (int, error) {
	locations, err := db.LatestLocations(ctx, adminID, maxAge)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, el := range locations {
		if el.Location.OnSite {
			count++
		}
	}
	return count, nil
}

// employeeColumnsPrefixed qualifies the employee column list with a table
// alias for joins.
func employeeColumnsPrefixed(alias string) string {
	return alias + `.id, ` + alias + `.employee_code, ` + alias + `.first_name, ` + alias + `.last_name, ` +
		alias + `.email, ` + alias + `.phone, ` + alias + `.password_hash, ` + alias + `.admin_id, ` +
		alias + `.site_id, ` + alias + `.department_id, ` + alias + `.active, ` + alias + `.created_at, ` + alias + `.updated_at`
}

func scanEmployeeLocation(row interface{ Scan(...interface{}) error }) (*models.EmployeeLocation, error) {
	var el models.EmployeeLocation
	e := &el.Employee
	l := &el.Location

	var code, phone sql.NullString
	var siteID, deptID uuid.NullUUID
	err := row.Scan(&e.ID, &code, &e.FirstName, &e.LastName, &e.Email, &phone,
		&e.PasswordHash, &e.AdminID, &siteID, &deptID, &e.Active, &e.CreatedAt, &e.UpdatedAt,
		&l.ID, &l.EmployeeID, &l.Latitude, &l.Longitude, &l.OnSite, &el.Seq, &l.RecordedAt)
	if err != nil {
		return nil, err
	}
	if code.Valid {
		e.EmployeeCode = &code.String
	}
	e.Phone = phone.String
	if siteID.Valid {
		e.SiteID = &siteID.UUID
	}
	if deptID.Valid {
		e.DepartmentID = &deptID.UUID
	}
	// Hashes never leave the data layer in snapshot payloads.
	e.PasswordHash = ""
	return &el, nil
}
