// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

// Package sessions implements a revocable session store on BadgerDB.
// JWTs carry a session ID claim; a token is only honored while its session
// record exists and is unexpired, so logout and forced revocation take
// effect immediately instead of waiting for token expiry.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/worktrace/worktrace/internal/logging"
	"github.com/worktrace/worktrace/internal/metrics"
)

// Key prefixes for BadgerDB storage
const (
	sessionKeyPrefix      = "session:"
	sessionActorKeyPrefix = "session_actor:"
)

// Session errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Session is one issued login. ActorType is "admin" or "employee".
type Session struct {
	ID             string    `json:"id"`
	ActorID        string    `json:"actor_id"`
	ActorType      string    `json:"actor_type"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// IsExpired reports whether the session has passed its expiry.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Store persists sessions in BadgerDB. Suitable for production use with
// persistence across restarts.
type Store struct {
	db *badger.DB
}

// Open opens a BadgerDB at path and returns a session store. The returned
// store owns the DB handle; call Close on shutdown.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // badger's own logger is too chatty, we log operations ourselves
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open session store at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens an in-memory store. Used in tests.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory session store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying BadgerDB.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create issues a new session for an actor and returns it.
func (s *Store) Create(ctx context.Context, actorID uuid.UUID, actorType string, ttl time.Duration) (*Session, error) {
	now := time.Now()
	session := &Session{
		ID:             uuid.NewString(),
		ActorID:        actorID.String(),
		ActorType:      actorType,
		CreatedAt:      now,
		LastAccessedAt: now,
		ExpiresAt:      now.Add(ttl),
	}

	data, err := json.Marshal(session)
	if err != nil {
		metrics.RecordSessionOperation("create", false)
		return nil, fmt.Errorf("marshal session: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		// Store session by ID
		sessionKey := []byte(sessionKeyPrefix + session.ID)
		entry := badger.NewEntry(sessionKey, data).WithTTL(ttl)
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("set session: %w", err)
		}

		// Actor-to-session mapping for bulk revocation
		actorKey := []byte(sessionActorKeyPrefix + session.ActorID + ":" + session.ID)
		actorEntry := badger.NewEntry(actorKey, []byte(session.ID)).WithTTL(ttl)
		if err := txn.SetEntry(actorEntry); err != nil {
			return fmt.Errorf("set actor mapping: %w", err)
		}

		return nil
	})
	if err != nil {
		metrics.RecordSessionOperation("create", false)
		return nil, err
	}

	metrics.RecordSessionOperation("create", true)
	return session, nil
}

// Get retrieves a session by ID. Returns ErrSessionNotFound for unknown or
// revoked sessions and ErrSessionExpired for expired ones.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	var session Session

	err := s.db.View(func(txn *badger.Txn) error {
		key := []byte(sessionKeyPrefix + id)
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
	})

	if err != nil {
		metrics.RecordSessionOperation("get", false)
		return nil, err
	}

	if session.IsExpired() {
		metrics.RecordSessionOperation("get", false)
		return nil, ErrSessionExpired
	}

	metrics.RecordSessionOperation("get", true)
	return &session, nil
}

// Touch updates the session's last accessed time. The expiry is left
// unchanged: sessions have a fixed lifetime from login.
func (s *Store) Touch(ctx context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(sessionKeyPrefix + id)
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}

		var session Session
		err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
		if err != nil {
			return fmt.Errorf("unmarshal session: %w", err)
		}

		session.LastAccessedAt = time.Now()

		data, err := json.Marshal(&session)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}

		ttl := time.Until(session.ExpiresAt)
		if ttl <= 0 {
			return ErrSessionExpired
		}
		return txn.SetEntry(badger.NewEntry(key, data).WithTTL(ttl))
	})
}

// Revoke removes a session by ID. Revoking an unknown session is a no-op.
func (s *Store) Revoke(ctx context.Context, id string) error {
	// Fetch first to find the actor mapping key.
	var session Session
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		key := []byte(sessionKeyPrefix + id)
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
	})
	if err != nil {
		metrics.RecordSessionOperation("revoke", false)
		return err
	}
	if !found {
		return nil
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		sessionKey := []byte(sessionKeyPrefix + id)
		if err := txn.Delete(sessionKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete session: %w", err)
		}

		if session.ActorID != "" {
			actorKey := []byte(sessionActorKeyPrefix + session.ActorID + ":" + id)
			if err := txn.Delete(actorKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("delete actor mapping: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		metrics.RecordSessionOperation("revoke", false)
		return err
	}

	metrics.RecordSessionOperation("revoke", true)
	return nil
}

// RevokeAllForActor removes every session belonging to an actor. Used when
// an admin deactivates an employee. Returns the number revoked.
func (s *Store) RevokeAllForActor(ctx context.Context, actorID uuid.UUID) (int, error) {
	var sessionIDs []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(sessionActorKeyPrefix + actorID.String() + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				sessionIDs = append(sessionIDs, string(val))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return 0, fmt.Errorf("list actor sessions: %w", err)
	}

	count := 0
	for _, sessionID := range sessionIDs {
		if err := s.Revoke(ctx, sessionID); err != nil {
			logging.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to revoke session")
			continue
		}
		count++
	}

	return count, nil
}

// Count returns the total number of sessions in the store, including any
// expired records badger has not yet garbage collected.
func (s *Store) Count(ctx context.Context) (int, error) {
	count := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(sessionKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})

	return count, err
}

// RunMaintenance periodically updates the active-session gauge and
// triggers badger value log GC. Blocks until ctx is cancelled, so it can
// run as a supervised service.
func (s *Store) RunMaintenance(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n, err := s.Count(ctx); err == nil {
				metrics.SessionsActive.Set(float64(n))
			}
			// ErrNoRewrite just means there was nothing to collect.
			if err := s.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				logging.Debug().Err(err).Msg("Session store value log GC")
			}
		}
	}
}

// StartCleanupRoutine runs RunMaintenance in a background goroutine.
func (s *Store) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		_ = s.RunMaintenance(ctx, interval)
	}()
}
