// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/worktrace/worktrace/internal/logging"
)

// DuckDBStore implements Store on the application's DuckDB connection.
// Audit entries share the database file with the domain tables, so a
// backup of one is a backup of both.
type DuckDBStore struct {
	db *sql.DB
}

// NewDuckDBStore creates a DuckDB-backed audit store. Call EnsureSchema
// before the first write.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// EnsureSchema creates the audit_log table and its indexes.
func (s *DuckDBStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS audit_log (
			id UUID PRIMARY KEY,
			admin_id UUID NOT NULL,
			actor_id TEXT NOT NULL,
			actor_type TEXT NOT NULL,
			action TEXT NOT NULL,
			target_id TEXT,
			target_type TEXT,
			source_ip TEXT,
			details JSON,
			occurred_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_admin ON audit_log(admin_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_occurred ON audit_log(occurred_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_action ON audit_log(action)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create audit schema: %w", err)
		}
	}
	return nil
}

// Save persists one entry.
func (s *DuckDBStore) Save(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("entry cannot be nil")
	}

	var details *string
	if len(entry.Details) > 0 {
		d := string(entry.Details)
		details = &d
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (
			id, admin_id, actor_id, actor_type, action,
			target_id, target_type, source_ip, details, occurred_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.AdminID, entry.ActorID, entry.ActorType, string(entry.Action),
		nullable(entry.TargetID), nullable(entry.TargetType), nullable(entry.SourceIP),
		details, entry.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save audit entry: %w", err)
	}
	return nil
}

// Query returns a tenant's entries matching the filter, newest first.
func (s *DuckDBStore) Query(ctx context.Context, tenant uuid.UUID, filter Filter) ([]Entry, error) {
	query, args := buildQuery(tenant, filter, false)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			logging.Warn().Err(err).Msg("failed to scan audit entry")
			continue
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}
	return entries, nil
}

// Count returns the number of a tenant's entries matching the filter.
func (s *DuckDBStore) Count(ctx context.Context, tenant uuid.UUID, filter Filter) (int64, error) {
	query, args := buildQuery(tenant, filter, true)

	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}
	return count, nil
}

// Purge removes entries older than the cutoff.
func (s *DuckDBStore) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM audit_log WHERE occurred_at < ?`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to purge audit entries: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get purged count: %w", err)
	}
	if count > 0 {
		logging.Info().Int64("purged", count).Time("older_than", olderThan).Msg("purged old audit entries")
	}
	return count, nil
}

// buildQuery assembles the tenant-scoped SELECT or COUNT statement.
func buildQuery(tenant uuid.UUID, filter Filter, countOnly bool) (string, []interface{}) {
	conditions := []string{"admin_id = ?"}
	args := []interface{}{tenant}

	if len(filter.Actions) > 0 {
		placeholders := make([]string, len(filter.Actions))
		for i, a := range filter.Actions {
			placeholders[i] = "?"
			args = append(args, string(a))
		}
		conditions = append(conditions, fmt.Sprintf("action IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.ActorID != "" {
		conditions = append(conditions, "actor_id = ?")
		args = append(args, filter.ActorID)
	}
	if filter.TargetID != "" {
		conditions = append(conditions, "target_id = ?")
		args = append(args, filter.TargetID)
	}
	if filter.Since != nil {
		conditions = append(conditions, "occurred_at >= ?")
		args = append(args, *filter.Since)
	}
	if filter.Until != nil {
		conditions = append(conditions, "occurred_at <= ?")
		args = append(args, *filter.Until)
	}

	var query string
	if countOnly {
		query = "SELECT COUNT(*) FROM audit_log"
	} else {
		// JSON columns scan as VARCHAR.
		query = `SELECT id, admin_id, actor_id, actor_type, action,
			target_id, target_type, source_ip,
			CAST(details AS VARCHAR), occurred_at
			FROM audit_log`
	}
	query += " WHERE " + strings.Join(conditions, " AND ")

	if !countOnly {
		query += " ORDER BY occurred_at DESC"
		if filter.Limit > 0 {
			query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		}
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}
	return query, args
}

// scanEntry reads one row into an Entry.
func scanEntry(rows *sql.Rows) (*Entry, error) {
	var (
		entry      Entry
		action     string
		targetID   sql.NullString
		targetType sql.NullString
		sourceIP   sql.NullString
		details    sql.NullString
	)
	if err := rows.Scan(
		&entry.ID, &entry.AdminID, &entry.ActorID, &entry.ActorType, &action,
		&targetID, &targetType, &sourceIP, &details, &entry.OccurredAt,
	); err != nil {
		return nil, err
	}

	entry.Action = Action(action)
	entry.TargetID = targetID.String
	entry.TargetType = targetType.String
	entry.SourceIP = sourceIP.String
	if details.Valid && details.String != "" {
		entry.Details = json.RawMessage(details.String)
	}
	return &entry, nil
}

// nullable maps "" to NULL for optional text columns.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
