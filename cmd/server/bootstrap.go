// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/worktrace/worktrace/internal/auth"
	"github.com/worktrace/worktrace/internal/config"
	"github.com/worktrace/worktrace/internal/database"
	"github.com/worktrace/worktrace/internal/logging"
	"github.com/worktrace/worktrace/internal/models"
)

// bootstrapAdmin creates the initial super admin from BOOTSTRAP_EMAIL and
// BOOTSTRAP_PASSWORD on an empty admins table. Subsequent starts are a
// no-op regardless of the variables.
func bootstrapAdmin(ctx context.Context, db *database.DB, cfg *config.Config) error {
	if cfg.Security.BootstrapEmail == "" || cfg.Security.BootstrapPassword == "" {
		return nil
	}

	count, err := db.CountAdmins(ctx)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		logging.Debug().Msg("Admins exist, skipping bootstrap")
		return nil
	}

	hash, err := auth.HashPassword(cfg.Security.BootstrapPassword)
	if err != nil {
		return fmt.Errorf("hash bootstrap password: %w", err)
	}

	admin := &models.Admin{
		FirstName:    "Super",
		LastName:     "Admin",
		Email:        cfg.Security.BootstrapEmail,
		PasswordHash: hash,
		Role:         models.RoleSuperAdmin,
		Verified:     true,
		Active:       true,
	}
	if err := db.CreateAdmin(ctx, admin); err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}

	logging.Info().Str("email", admin.Email).Msg("Bootstrap super admin created")
	return nil
}

// seedMockData loads the demo tenant. All seeded accounts share one demo
// password so screenshots and walkthroughs can log in as any of them.
func seedMockData(ctx context.Context, db *database.DB) error {
	hash, err := auth.HashPassword("worktrace-demo")
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}
	return db.SeedMockData(ctx, hash)
}

// newHTTPServer builds the http.Server with the configured timeouts.
func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}
}
