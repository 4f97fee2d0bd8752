// Package id provides UUIDv7 generation for all entities.
// UUIDv7 is time-ordered, so primary keys sort by creation time.
package id

import (
	"github.com/google/uuid"

	"erpcore/internal/core/apperror"
)

// ID is a type alias for UUID, used across all entities.
type ID = uuid.UUID

// New generates a new UUIDv7.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// Parse converts string to ID.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// ParseField parses s and reports a validation error naming field on failure.
func ParseField(field, s string) (ID, error) {
	v, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, apperror.NewValidation("invalid id format").
			WithDetail("field", field).
			WithDetail("value", s)
	}
	return v, nil
}

// MustParse converts string to ID, panics on error.
// Use only for constants and tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns zero-value UUID.
func Nil() ID {
	return uuid.Nil
}

// IsNil checks if ID is zero-value.
func IsNil(v ID) bool {
	return v == uuid.Nil
}

// Less orders IDs bytewise; used to take row locks in a stable order.
func Less(a, b ID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
