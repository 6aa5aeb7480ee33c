// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package database

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/worktrace/worktrace/internal/geo"
	"github.com/worktrace/worktrace/internal/logging"
	"github.com/worktrace/worktrace/internal/models"
)

// SeedMockData populates the database with a demo tenant: one admin, three
// sites, two departments, a dozen employees, and a day of location and
// attendance history. Intended for demos and screenshot capture only; it is
// a no-op when any admin already exists.
func (db *DB) SeedMockData(ctx context.Context, passwordHash string) error {
	count, err := db.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		logging.Debug().Msg("Skipping mock data seed, admins already exist")
		return nil
	}

	logging.Info().Msg("Seeding database with mock data...")
	rng := rand.New(rand.NewSource(42)) // fixed seed for reproducible demos

	admin := &models.Admin{
		FirstName:    "Demo",
		LastName:     "Admin",
		Company:      "Worktrace Demo Co",
		Email:        "demo@worktrace.local",
		PasswordHash: passwordHash,
		Role:         models.RoleAdmin,
		Verified:     true,
		Active:       true,
	}
	if err := db.CreateAdmin(ctx, admin); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	siteDefs := []struct {
		name     string
		lat, lon float64
		radius   float64
	}{
		{"Connaught Place Office", 28.6315, 77.2167, 200},
		{"Gurugram Warehouse", 28.4595, 77.0266, 500},
		{"Noida Field Depot", 28.5355, 77.3910, 300},
	}

	sites := make([]*models.WorkSite, 0, len(siteDefs))
	for _, sd := range siteDefs {
		site := &models.WorkSite{
			Name:           sd.name,
			Latitude:       sd.lat,
			Longitude:      sd.lon,
			GeofenceRadius: sd.radius,
			AdminID:        admin.ID,
		}
		if err := db.CreateWorkSite(ctx, site); err != nil {
			return fmt.Errorf("seed site %s: %w", sd.name, err)
		}
		sites = append(sites, site)
	}

	departments := make([]*models.Department, 0, 2)
	for _, name := range []string{"Operations", "Logistics"} {
		d := &models.Department{Name: name, AdminID: admin.ID}
		if err := db.CreateDepartment(ctx, d); err != nil {
			return fmt.Errorf("seed department %s: %w", name, err)
		}
		departments = append(departments, d)
	}

	firstNames := []string{"Asha", "Rohan", "Priya", "Vikram", "Neha", "Arjun", "Kavya", "Sanjay", "Meera", "Dev", "Isha", "Rahul"}
	lastNames := []string{"Sharma", "Patel", "Singh", "Gupta", "Kumar", "Reddy", "Nair", "Joshi", "Mehta", "Bose", "Iyer", "Das"}

	for i := 0; i < len(firstNames); i++ {
		site := sites[i%len(sites)]
		dept := departments[i%len(departments)]
		emp := &models.Employee{
			FirstName:    firstNames[i],
			LastName:     lastNames[i],
			Email:        fmt.Sprintf("employee%02d@worktrace.local", i+1),
			PasswordHash: passwordHash,
			AdminID:      admin.ID,
			SiteID:       &site.ID,
			DepartmentID: &dept.ID,
		}
		if err := db.CreateEmployee(ctx, emp); err != nil {
			return fmt.Errorf("seed employee %d: %w", i, err)
		}

		if err := db.seedEmployeeDay(ctx, rng, emp, site); err != nil {
			return err
		}
	}

	logging.Info().Msg("Mock data seed complete")
	return nil
}

// seedEmployeeDay writes one working day of history for an employee:
// check-in at the site, hourly location reports drifting around the fence,
// and a check-out eight hours later.
func (db *DB) seedEmployeeDay(ctx context.Context, rng *rand.Rand, emp *models.Employee, site *models.WorkSite) error {
	dayStart := time.Now().UTC().Add(-10 * time.Hour)

	checkinLat, checkinLon := geo.DestinationPoint(site.Latitude, site.Longitude,
		rng.Float64()*site.GeofenceRadius*0.5, rng.Float64()*360)
	if _, err := db.OpenAttendance(ctx, emp.ID, site.ID, checkinLat, checkinLon, dayStart); err != nil {
		return fmt.Errorf("seed checkin: %w", err)
	}

	fence := geo.Fence{Lat: site.Latitude, Lon: site.Longitude, RadiusM: site.GeofenceRadius}
	for hour := 0; hour < 8; hour++ {
		// Mostly on site, occasionally a lunch run outside the fence.
		distance := rng.Float64() * site.GeofenceRadius * 0.8
		if hour == 4 && rng.Float64() < 0.5 {
			distance = site.GeofenceRadius * 2
		}
		lat, lon := geo.DestinationPoint(site.Latitude, site.Longitude, distance, rng.Float64()*360)

		record := &models.LocationRecord{
			EmployeeID: emp.ID,
			Latitude:   lat,
			Longitude:  lon,
			OnSite:     fence.Contains(lat, lon),
			RecordedAt: dayStart.Add(time.Duration(hour) * time.Hour),
		}
		if _, err := db.InsertLocationRecord(ctx, record); err != nil {
			return fmt.Errorf("seed location: %w", err)
		}
	}

	checkoutLat, checkoutLon := geo.DestinationPoint(site.Latitude, site.Longitude,
		rng.Float64()*site.GeofenceRadius*0.5, rng.Float64()*360)
	if _, err := db.CloseAttendance(ctx, emp.ID, checkoutLat, checkoutLon, dayStart.Add(8*time.Hour)); err != nil {
		return fmt.Errorf("seed checkout: %w", err)
	}

	return nil
}
