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
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/worktrace/worktrace/internal/metrics"
	"github.com/worktrace/worktrace/internal/models"
)

// isDuplicateKeyErr detects DuckDB unique constraint violations.
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate key") || strings.Contains(msg, "Constraint Error")
}

const adminColumns = `id, first_name, last_name, company, email, password_hash, role, verified, active, created_at, updated_at`

func scanAdmin(row interface{ Scan(...interface{}) error }) (*models.Admin, error) {
	var a models.Admin
	var company sql.NullString
	err := row.Scan(&a.ID, &a.FirstName, &a.LastName, &company, &a.Email,
		&a.PasswordHash, &a.Role, &a.Verified, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Company = company.String
	return &a, nil
}

// CreateAdmin inserts a new admin account. New accounts start unverified
// and inactive; a super admin activates them.
func (db *DB) CreateAdmin(ctx context.Context, a *models.Admin) error {
	start := time.Now()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO admins (id, first_name, last_name, company, email, password_hash, role, verified, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.FirstName, a.LastName, nullIfEmpty(a.Company), a.Email,
		a.PasswordHash, a.Role, a.Verified, a.Active, a.CreatedAt, a.UpdatedAt)

	metrics.RecordDBQuery("INSERT", "admins", time.Since(start), err)
	if isDuplicateKeyErr(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

// GetAdminByEmail fetches an admin by email for login.
func (db *DB) GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	start := time.Now()

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE email = ?`, email)
	a, err := scanAdmin(row)

	metrics.RecordDBQuery("SELECT", "admins", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get admin by email: %w", err)
	}
	return a, nil
}

// GetAdminByID fetches an admin by ID.
func (db *DB) GetAdminByID(ctx context.Context, id uuid.UUID) (*models.Admin, error) {
	start := time.Now()

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE id = ?`, id)
	a, err := scanAdmin(row)

	metrics.RecordDBQuery("SELECT", "admins", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get admin by id: %w", err)
	}
	return a, nil
}

// UpdateAdminProfile updates the mutable profile fields of an admin.
func (db *DB) UpdateAdminProfile(ctx context.Context, id uuid.UUID, firstName, lastName, company string) error {
	start := time.Now()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE admins SET first_name = ?, last_name = ?, company = ?, updated_at = ? WHERE id = ?`,
		firstName, lastName, nullIfEmpty(company), time.Now().UTC(), id)

	metrics.RecordDBQuery("UPDATE", "admins", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("update admin profile: %w", err)
	}
	return requireRowAffected(res)
}

// SetAdminActive flips the active flag. Only super admins may call this.
func (db *DB) SetAdminActive(ctx context.Context, id uuid.UUID, active bool) error {
	start := time.Now()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE admins SET active = ?, verified = TRUE, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), id)

	metrics.RecordDBQuery("UPDATE", "admins", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("set admin active: %w", err)
	}
	return requireRowAffected(res)
}

// CountAdmins returns the total number of admin accounts. Used at startup
// to decide whether to bootstrap the initial super admin.
func (db *DB) CountAdmins(ctx context.Context) (int, error) {
	start := time.Now()

	var count int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count)

	metrics.RecordDBQuery("SELECT", "admins", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return count, nil
}

// ListAdmins returns all admin accounts ordered by creation. Super admin only.
func (db *DB) ListAdmins(ctx context.Context) ([]*models.Admin, error) {
	start := time.Now()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+adminColumns+` FROM admins ORDER BY created_at, id`)
	metrics.RecordDBQuery("SELECT", "admins", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer closeWithLog(rows, "admins rows")

	var admins []*models.Admin
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}

// nullIfEmpty maps "" to SQL NULL for optional text columns.
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// requireRowAffected converts a zero-row UPDATE into ErrNotFound.
func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
