// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package auth

import (
	"strings"
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$") && !strings.HasPrefix(hash, "$2b$") {
		t.Errorf("hash %q does not look like bcrypt", hash[:8])
	}

	if err := CheckPassword(hash, "correct-horse-battery"); err != nil {
		t.Errorf("CheckPassword() error = %v for matching password", err)
	}
	if err := CheckPassword(hash, "wrong-password"); err == nil {
		t.Error("CheckPassword() = nil for wrong password")
	}
}

func TestHashPassword_TooLong(t *testing.T) {
	if _, err := HashPassword(strings.Repeat("x", 73)); err == nil {
		t.Error("HashPassword() = nil error for 73-byte password")
	}
	if _, err := HashPassword(strings.Repeat("x", 72)); err != nil {
		t.Errorf("HashPassword() error = %v for 72-byte password", err)
	}
}

func TestHashPassword_Unique(t *testing.T) {
	h1, err := HashPassword("same-password")
	if err != nil {
		t.Fatal(err)
	}
	h2, err := HashPassword("same-password")
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password are identical, salt missing")
	}
}
