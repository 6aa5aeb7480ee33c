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

const employeeColumns = `id, employee_code, first_name, last_name, email, phone, password_hash, admin_id, site_id, department_id, active, created_at, updated_at`

func scanEmployee(row interface{ Scan(...interface{}) error }) (*models.Employee, error) {
	var e models.Employee
	var code, phone sql.NullString
	var siteID, deptID uuid.NullUUID
	err := row.Scan(&e.ID, &code, &e.FirstName, &e.LastName, &e.Email, &phone,
		&e.PasswordHash, &e.AdminID, &siteID, &deptID, &e.Active, &e.CreatedAt, &e.UpdatedAt)
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
	return &e, nil
}

// CreateEmployee inserts a new employee under an admin's tenant.
func (db *DB) CreateEmployee(ctx context.Context, e *models.Employee) error {
	start := time.Now()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	e.Active = true

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO employees (id, employee_code, first_name, last_name, email, phone, password_hash, admin_id, site_id, department_id, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, nullStrPtr(e.EmployeeCode), e.FirstName, e.LastName, e.Email, nullIfEmpty(e.Phone),
		e.PasswordHash, e.AdminID, nullUUIDPtr(e.SiteID), nullUUIDPtr(e.DepartmentID),
		e.Active, e.CreatedAt, e.UpdatedAt)

	metrics.RecordDBQuery("INSERT", "employees", time.Since(start), err)
	if isDuplicateKeyErr(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("insert employee: %w", err)
	}
	return nil
}

// GetEmployeeByEmail fetches an employee by email for login. Tenancy is not
// filtered here: emails are globally unique.
func (db *DB) GetEmployeeByEmail(ctx context.Context, email string) (*models.Employee, error) {
	start := time.Now()

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE email = ?`, email)
	e, err := scanEmployee(row)

	metrics.RecordDBQuery("SELECT", "employees", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get employee by email: %w", err)
	}
	return e, nil
}

// GetEmployeeByID fetches an employee by ID without a tenant filter. Used
// on the employee's own authenticated requests.
func (db *DB) GetEmployeeByID(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	start := time.Now()

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
	e, err := scanEmployee(row)

	metrics.RecordDBQuery("SELECT", "employees", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get employee by id: %w", err)
	}
	return e, nil
}

// GetEmployeeForAdmin fetches an employee only if it belongs to the admin's
// tenant. Cross-tenant IDs come back as ErrNotFound, not a permission error,
// so the response does not leak row existence.
func (db *DB) GetEmployeeForAdmin(ctx context.Context, adminID, employeeID uuid.UUID) (*models.Employee, error) {
	start := time.Now()

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = ? AND admin_id = ?`, employeeID, adminID)
	e, err := scanEmployee(row)

	metrics.RecordDBQuery("SELECT", "employees", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get employee for admin: %w", err)
	}
	return e, nil
}

// ListEmployees returns all employees in an admin's tenant ordered by name.
func (db *DB) ListEmployees(ctx context.Context, adminID uuid.UUID) ([]*models.Employee, error) {
	start := time.Now()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE admin_id = ? ORDER BY last_name, first_name, id`, adminID)
	metrics.RecordDBQuery("SELECT", "employees", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer closeWithLog(rows, "employees rows")

	var employees []*models.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// UpdateEmployee updates mutable fields of an employee within a tenant.
func (db *DB) UpdateEmployee(ctx context.Context, adminID uuid.UUID, e *models.Employee) error {
	start := time.Now()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE employees
		 SET employee_code = ?, first_name = ?, last_name = ?, phone = ?, site_id = ?, department_id = ?, updated_at = ?
		 WHERE id = ? AND admin_id = ?`,
		nullStrPtr(e.EmployeeCode), e.FirstName, e.LastName, nullIfEmpty(e.Phone),
		nullUUIDPtr(e.SiteID), nullUUIDPtr(e.DepartmentID), time.Now().UTC(),
		e.ID, adminID)

	metrics.RecordDBQuery("UPDATE", "employees", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	return requireRowAffected(res)
}

// DeactivateEmployee soft-deletes an employee. Historical attendance and
// location rows keep a valid reference.
func (db *DB) DeactivateEmployee(ctx context.Context, adminID, employeeID uuid.UUID) error {
	start := time.Now()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE employees SET active = FALSE, updated_at = ? WHERE id = ? AND admin_id = ?`,
		time.Now().UTC(), employeeID, adminID)

	metrics.RecordDBQuery("UPDATE", "employees", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("deactivate employee: %w", err)
	}
	return requireRowAffected(res)
}

func nullStrPtr(s *string) interface{} {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func nullUUIDPtr(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return *id
}
