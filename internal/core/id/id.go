// Package id provides UUIDv7 generation for products, carts and receipt lines.
// UUIDv7 is time-ordered, so listings sorted by id follow creation order.
package id

import (
	"github.com/google/uuid"
)

// ID is a type alias for UUID.
type ID = uuid.UUID

// New generates a new UUIDv7 (time-ordered UUID).
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// NewString returns New() in canonical text form.
// Products are addressed by opaque strings, so most callers want this.
func NewString() string {
	return New().String()
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// IsNil checks if ID is zero-value.
func IsNil(v ID) bool {
	return v == uuid.Nil
}
