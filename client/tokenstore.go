// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
)

// Role values stored alongside the token.
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// sessionState is the on-disk shape: three keys, mirroring the token,
// user record, and user type a browser client keeps in local storage.
type sessionState struct {
	Token    string          `json:"token,omitempty"`
	User     json.RawMessage `json:"user,omitempty"`
	UserType string          `json:"user_type,omitempty"`
}

// TokenStore persists the current session in a JSON file. Every read
// goes back to storage rather than a cached copy, so multiple
// processes sharing the file always agree on whether a session exists.
// An empty token is the sole "logged out" signal.
type TokenStore struct {
	path string
	mu   sync.Mutex
}

// NewTokenStore creates a store backed by the given file path. The
// file is created on first Set.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Get returns the current token, or "" when logged out.
func (s *TokenStore) Get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load().Token
}

// Role returns "admin", "employee", or "" when no session exists.
func (s *TokenStore) Role() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.load()
	if state.Token == "" {
		return ""
	}
	return state.UserType
}

// User returns the stored user record as raw JSON, or nil.
func (s *TokenStore) User() json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load().User
}

// Set persists a new token, keeping any stored user record.
func (s *TokenStore) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.load()
	state.Token = token
	return s.save(state)
}

// SetSession persists the full session: token, user record, and role.
func (s *TokenStore) SetSession(token string, user json.RawMessage, userType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(sessionState{Token: token, User: user, UserType: userType})
}

// Clear removes the session. Missing storage is not an error.
func (s *TokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// load reads the state file. Any read or decode failure is treated as
// logged out rather than surfaced: storage content the client cannot
// parse is equivalent to no session.
func (s *TokenStore) load() sessionState {
	var state sessionState
	data, err := os.ReadFile(s.path)
	if err != nil {
		return state
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return sessionState{}
	}
	return state
}

func (s *TokenStore) save(state sessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create session dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}
