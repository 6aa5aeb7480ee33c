// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/worktrace/worktrace/internal/metrics"
	"github.com/worktrace/worktrace/internal/models"
)

const attendanceColumns = `id, employee_id, site_id, checkin_at, checkin_lat, checkin_lon, checkout_at, checkout_lat, checkout_lon`

func scanAttendance(row interface{ Scan(...interface{}) error }) (*models.AttendanceRecord, error) {
	var a models.AttendanceRecord
	var checkoutAt sql.NullTime
	var checkoutLat, checkoutLon sql.NullFloat64
	err := row.Scan(&a.ID, &a.EmployeeID, &a.SiteID, &a.CheckinAt, &a.CheckinLat, &a.CheckinLon,
		&checkoutAt, &checkoutLat, &checkoutLon)
	if err != nil {
		return nil, err
	}
	if checkoutAt.Valid {
		a.CheckoutAt = &checkoutAt.Time
	}
	if checkoutLat.Valid {
		a.CheckoutLat = &checkoutLat.Float64
	}
	if checkoutLon.Valid {
		a.CheckoutLon = &checkoutLon.Float64
	}
	return &a, nil
}

// GetOpenAttendance returns the employee's open session, or ErrNoOpenSession.
func (db *DB) GetOpenAttendance(ctx context.Context, employeeID uuid.UUID) (*models.AttendanceRecord, error) {
	start := time.Now()

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance_records
		 WHERE employee_id = ? AND checkout_at IS NULL`, employeeID)
	a, err := scanAttendance(row)

	metrics.RecordDBQuery("SELECT", "attendance_records", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoOpenSession
	}
	if err != nil {
		return nil, fmt.Errorf("get open attendance: %w", err)
	}
	return a, nil
}

// OpenAttendance creates a check-in record. At most one open session per
// employee: a second check-in fails with ErrOpenSession. The check is a
// read-then-insert inside a transaction, which is race-free with DuckDB's
// single-writer model.
func (db *DB) OpenAttendance(ctx context.Context, employeeID, siteID uuid.UUID, lat, lon float64, at time.Time) (*models.AttendanceRecord, error) {
	start := time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin checkin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var openCount int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attendance_records WHERE employee_id = ? AND checkout_at IS NULL`,
		employeeID).Scan(&openCount)
	if err != nil {
		metrics.RecordDBQuery("SELECT", "attendance_records", time.Since(start), err)
		return nil, fmt.Errorf("check open attendance: %w", err)
	}
	if openCount > 0 {
		return nil, ErrOpenSession
	}

	record := &models.AttendanceRecord{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		SiteID:     siteID,
		CheckinAt:  at.UTC(),
		CheckinLat: lat,
		CheckinLon: lon,
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO attendance_records (id, employee_id, site_id, checkin_at, checkin_lat, checkin_lon)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID, record.EmployeeID, record.SiteID, record.CheckinAt, record.CheckinLat, record.CheckinLon)
	metrics.RecordDBQuery("INSERT", "attendance_records", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("insert attendance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit checkin: %w", err)
	}

	metrics.AttendanceCheckins.Inc()
	return record, nil
}

// CloseAttendance checks out the employee's open session. The record is
// mutated exactly once; without an open session this is ErrNoOpenSession.
func (db *DB) CloseAttendance(ctx context.Context, employeeID uuid.UUID, lat, lon float64, at time.Time) (*models.AttendanceRecord, error) {
	start := time.Now()

	open, err := db.GetOpenAttendance(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	checkoutAt := at.UTC()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE attendance_records SET checkout_at = ?, checkout_lat = ?, checkout_lon = ?
		 WHERE id = ? AND checkout_at IS NULL`,
		checkoutAt, lat, lon, open.ID)
	metrics.RecordDBQuery("UPDATE", "attendance_records", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("close attendance: %w", err)
	}
	if err := requireRowAffected(res); err != nil {
		// Lost a race with another checkout of the same session.
		return nil, ErrNoOpenSession
	}

	open.CheckoutAt = &checkoutAt
	open.CheckoutLat = &lat
	open.CheckoutLon = &lon

	metrics.AttendanceCheckouts.Inc()
	return open, nil
}

// AttendanceFilter narrows ListAttendance. Zero values mean no filter.
type AttendanceFilter struct {
	EmployeeID uuid.UUID
	SiteID     uuid.UUID
	From       time.Time
	To         time.Time
	OpenOnly   bool
	Limit      int
	Offset     int
}

// ListAttendance returns attendance records for a tenant, newest first.
// Tenancy is enforced by joining through employees.admin_id.
func (db *DB) ListAttendance(ctx context.Context, adminID uuid.UUID, f AttendanceFilter) ([]*models.AttendanceRecord, error) {
	start := time.Now()

	query := `SELECT a.id, a.employee_id, a.site_id, a.checkin_at, a.checkin_lat, a.checkin_lon, a.checkout_at, a.checkout_lat, a.checkout_lon
		FROM attendance_records a
		JOIN employees e ON e.id = a.employee_id
		WHERE e.admin_id = ?`
	args := []interface{}{adminID}

	if f.EmployeeID != uuid.Nil {
		query += ` AND a.employee_id = ?`
		args = append(args, f.EmployeeID)
	}
	if f.SiteID != uuid.Nil {
		query += ` AND a.site_id = ?`
		args = append(args, f.SiteID)
	}
	if !f.From.IsZero() {
		query += ` AND a.checkin_at >= ?`
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		query += ` AND a.checkin_at < ?`
		args = append(args, f.To.UTC())
	}
	if f.OpenOnly {
		query += ` AND a.checkout_at IS NULL`
	}

	query += ` ORDER BY a.checkin_at DESC, a.id`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("SELECT", "attendance_records", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer closeWithLog(rows, "attendance rows")

	var records []*models.AttendanceRecord
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		records = append(records, a)
	}
	return records, rows.Err()
}

// ListEmployeeAttendance returns an employee's own attendance history,
// newest first.
func (db *DB) ListEmployeeAttendance(ctx context.Context, employeeID uuid.UUID, limit, offset int) ([]*models.AttendanceRecord, error) {
	start := time.Now()

	query := `SELECT ` + attendanceColumns + ` FROM attendance_records
		WHERE employee_id = ? ORDER BY checkin_at DESC, id`
	args := []interface{}{employeeID}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("SELECT", "attendance_records", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list employee attendance: %w", err)
	}
	defer closeWithLog(rows, "attendance rows")

	var records []*models.AttendanceRecord
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		records = append(records, a)
	}
	return records, rows.Err()
}
