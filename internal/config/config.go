// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package config

import (
	"time"
)

// Config holds all application configuration loaded from defaults, an
// optional YAML config file, and environment variables (highest priority).
//
// Config is immutable after LoadWithKoanf() and safe for concurrent read
// access from multiple goroutines.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Security SecurityConfig `koanf:"security"`
	Tracking TrackingConfig `koanf:"tracking"`
	Events   EventsConfig   `koanf:"events"`
	API      APIConfig      `koanf:"api"`
	Audit    AuditConfig    `koanf:"audit"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
//
// Environment variables: HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds DuckDB settings.
//
// Environment variables: DUCKDB_PATH, DUCKDB_MAX_MEMORY, DUCKDB_THREADS,
// SEED_MOCK_DATA.
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"` // 0 = runtime.NumCPU()
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
	SeedMockData           bool   `koanf:"seed_mock_data"`
}

// SecurityConfig holds authentication and rate limiting settings.
//
// JWTSecret must be at least 32 characters. BootstrapEmail/BootstrapPassword
// create the initial super admin on first start when the admins table is
// empty; both are ignored afterwards.
type SecurityConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	SessionStorePath  string        `koanf:"session_store_path"`
	BootstrapEmail    string        `koanf:"bootstrap_email"`
	BootstrapPassword string        `koanf:"bootstrap_password"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	LoginLimitReqs    int           `koanf:"login_limit_reqs"`
	LoginLimitWindow  time.Duration `koanf:"login_limit_window"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// TrackingConfig holds geofence and location ingest settings.
//
// LocationMinInterval throttles per-employee location reports; samples
// arriving faster are accepted and dropped rather than rejected, since the
// feed is best-effort supplementary data.
type TrackingConfig struct {
	DefaultGeofenceRadiusM float64       `koanf:"default_geofence_radius_m"`
	LocationMinInterval    time.Duration `koanf:"location_min_interval"`
	SnapshotMaxAge         time.Duration `koanf:"snapshot_max_age"`
}

// EventsConfig holds in-process event bus settings.
type EventsConfig struct {
	BufferSize        int           `koanf:"buffer_size"`
	PublishTimeout    time.Duration `koanf:"publish_timeout"`
	BreakerMaxFails   int           `koanf:"breaker_max_fails"`
	BreakerOpenPeriod time.Duration `koanf:"breaker_open_period"`
}

// APIConfig holds pagination limits.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// AuditConfig holds audit trail settings. Retention of 0 keeps entries
// forever.
type AuditConfig struct {
	Enabled         bool          `koanf:"enabled"`
	BufferSize      int           `koanf:"buffer_size"`
	RetentionDays   int           `koanf:"retention_days"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
