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

const siteColumns = `id, name, address, latitude, longitude, geofence_radius_m, image_path, area_id, admin_id, active, created_at, updated_at`

func scanSite(row interface{ Scan(...interface{}) error }) (*models.WorkSite, error) {
	var s models.WorkSite
	var address, imagePath sql.NullString
	var areaID uuid.NullUUID
	err := row.Scan(&s.ID, &s.Name, &address, &s.Latitude, &s.Longitude, &s.GeofenceRadius,
		&imagePath, &areaID, &s.AdminID, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Address = address.String
	if imagePath.Valid {
		s.ImagePath = &imagePath.String
	}
	if areaID.Valid {
		s.AreaID = &areaID.UUID
	}
	return &s, nil
}

// CreateWorkSite inserts a new work site. A zero GeofenceRadius gets the
// default radius.
func (db *DB) CreateWorkSite(ctx context.Context, s *models.WorkSite) error {
	start := time.Now()

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.GeofenceRadius == 0 {
		s.GeofenceRadius = models.DefaultGeofenceRadiusM
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	s.Active = true

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO work_sites (id, name, address, latitude, longitude, geofence_radius_m, image_path, area_id, admin_id, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Name, nullIfEmpty(s.Address), s.Latitude, s.Longitude, s.GeofenceRadius,
		nullStrPtr(s.ImagePath), nullUUIDPtr(s.AreaID), s.AdminID, s.Active, s.CreatedAt, s.UpdatedAt)

	metrics.RecordDBQuery("INSERT", "work_sites", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("insert work site: %w", err)
	}
	return nil
}

// GetWorkSite fetches a site within a tenant.
func (db *DB) GetWorkSite(ctx context.Context, adminID, siteID uuid.UUID) (*models.WorkSite, error) {
	start := time.Now()

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+siteColumns+` FROM work_sites WHERE id = ? AND admin_id = ?`, siteID, adminID)
	s, err := scanSite(row)

	metrics.RecordDBQuery("SELECT", "work_sites", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get work site: %w", err)
	}
	return s, nil
}

// GetWorkSiteByID fetches a site without a tenant filter. Used when
// resolving an employee's assigned site for geofence evaluation.
func (db *DB) GetWorkSiteByID(ctx context.Context, siteID uuid.UUID) (*models.WorkSite, error) {
	start := time.Now()

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+siteColumns+` FROM work_sites WHERE id = ?`, siteID)
	s, err := scanSite(row)

	metrics.RecordDBQuery("SELECT", "work_sites", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get work site by id: %w", err)
	}
	return s, nil
}

// ListWorkSites returns all sites in a tenant ordered by name.
func (db *DB) ListWorkSites(ctx context.Context, adminID uuid.UUID) ([]*models.WorkSite, error) {
	start := time.Now()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+siteColumns+` FROM work_sites WHERE admin_id = ? ORDER BY name, id`, adminID)
	metrics.RecordDBQuery("SELECT", "work_sites", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list work sites: %w", err)
	}
	defer closeWithLog(rows, "work_sites rows")

	var sites []*models.WorkSite
	for rows.Next() {
		s, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan work site: %w", err)
		}
		sites = append(sites, s)
	}
	return sites, rows.Err()
}

// UpdateWorkSite updates mutable site fields within a tenant. Moving a site
// or resizing its fence affects future evaluations only; recorded on_site
// verdicts are immutable history.
func (db *DB) UpdateWorkSite(ctx context.Context, adminID uuid.UUID, s *models.WorkSite) error {
	start := time.Now()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE work_sites
		 SET name = ?, address = ?, latitude = ?, longitude = ?, geofence_radius_m = ?, image_path = ?, area_id = ?, updated_at = ?
		 WHERE id = ? AND admin_id = ?`,
		s.Name, nullIfEmpty(s.Address), s.Latitude, s.Longitude, s.GeofenceRadius,
		nullStrPtr(s.ImagePath), nullUUIDPtr(s.AreaID), time.Now().UTC(),
		s.ID, adminID)

	metrics.RecordDBQuery("UPDATE", "work_sites", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("update work site: %w", err)
	}
	return requireRowAffected(res)
}

// DeactivateWorkSite soft-deletes a site.
func (db *DB) DeactivateWorkSite(ctx context.Context, adminID, siteID uuid.UUID) error {
	start := time.Now()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE work_sites SET active = FALSE, updated_at = ? WHERE id = ? AND admin_id = ?`,
		time.Now().UTC(), siteID, adminID)

	metrics.RecordDBQuery("UPDATE", "work_sites", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("deactivate work site: %w", err)
	}
	return requireRowAffected(res)
}

// CreateDepartment inserts a department into a tenant.
func (db *DB) CreateDepartment(ctx context.Context, d *models.Department) error {
	start := time.Now()

	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO departments (id, name, admin_id, created_at) VALUES (?, ?, ?, ?)`,
		d.ID, d.Name, d.AdminID, d.CreatedAt)

	metrics.RecordDBQuery("INSERT", "departments", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("insert department: %w", err)
	}
	return nil
}

// ListDepartments returns all departments in a tenant.
func (db *DB) ListDepartments(ctx context.Context, adminID uuid.UUID) ([]*models.Department, error) {
	start := time.Now()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, admin_id, created_at FROM departments WHERE admin_id = ? ORDER BY name, id`, adminID)
	metrics.RecordDBQuery("SELECT", "departments", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer closeWithLog(rows, "departments rows")

	var departments []*models.Department
	for rows.Next() {
		var d models.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.AdminID, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		departments = append(departments, &d)
	}
	return departments, rows.Err()
}

// DeleteDepartment removes a department and clears references from
// employees in the same tenant.
func (db *DB) DeleteDepartment(ctx context.Context, adminID, departmentID uuid.UUID) error {
	start := time.Now()

	_, err := db.conn.ExecContext(ctx,
		`UPDATE employees SET department_id = NULL WHERE department_id = ? AND admin_id = ?`,
		departmentID, adminID)
	if err != nil {
		metrics.RecordDBQuery("UPDATE", "employees", time.Since(start), err)
		return fmt.Errorf("clear department references: %w", err)
	}

	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM departments WHERE id = ? AND admin_id = ?`, departmentID, adminID)
	metrics.RecordDBQuery("DELETE", "departments", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("delete department: %w", err)
	}
	return requireRowAffected(res)
}

// CreateArea inserts an area into a tenant.
func (db *DB) CreateArea(ctx context.Context, a *models.Area) error {
	start := time.Now()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO areas (id, name, admin_id, created_at) VALUES (?, ?, ?, ?)`,
		a.ID, a.Name, a.AdminID, a.CreatedAt)

	metrics.RecordDBQuery("INSERT", "areas", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("insert area: %w", err)
	}
	return nil
}

// ListAreas returns all areas in a tenant.
func (db *DB) ListAreas(ctx context.Context, adminID uuid.UUID) ([]*models.Area, error) {
	start := time.Now()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, admin_id, created_at FROM areas WHERE admin_id = ? ORDER BY name, id`, adminID)
	metrics.RecordDBQuery("SELECT", "areas", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}
	defer closeWithLog(rows, "areas rows")

	var areas []*models.Area
	for rows.Next() {
		var a models.Area
		if err := rows.Scan(&a.ID, &a.Name, &a.AdminID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan area: %w", err)
		}
		areas = append(areas, &a)
	}
	return areas, rows.Err()
}

// DeleteArea removes an area and clears references from sites in the tenant.
func (db *DB) DeleteArea(ctx context.Context, adminID, areaID uuid.UUID) error {
	start := time.Now()

	_, err := db.conn.ExecContext(ctx,
		`UPDATE work_sites SET area_id = NULL WHERE area_id = ? AND admin_id = ?`,
		areaID, adminID)
	if err != nil {
		metrics.RecordDBQuery("UPDATE", "work_sites", time.Since(start), err)
		return fmt.Errorf("clear area references: %w", err)
	}

	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM areas WHERE id = ? AND admin_id = ?`, areaID, adminID)
	metrics.RecordDBQuery("DELETE", "areas", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("delete area: %w", err)
	}
	return requireRowAffected(res)
}
