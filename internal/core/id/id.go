// Package id provides UUIDv7 identifiers for all entities.
// Time-ordered UUIDs sort naturally by creation time, which keeps ledger
// history queries index-friendly without an extra created_at sort key.
package id

import (
	"github.com/google/uuid"
)

// ID is the identifier type used across all entities.
type ID = uuid.UUID

// New generates a new UUIDv7.
func New() ID {
	v7, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the entropy source does; fall back to V4.
		return uuid.New()
	}
	return v7
}

// Parse converts a string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse converts a string to ID, panicking on error.
// Use only for constants and tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns the zero-value ID.
func Nil() ID {
	return uuid.Nil
}

// IsNil reports whether id is the zero value.
func IsNil(id ID) bool {
	return id == uuid.Nil
}
