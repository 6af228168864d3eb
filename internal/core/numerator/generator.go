// Package numerator provides domain contracts for invoice numbering.
// Implementations live in infrastructure layer.
package numerator

import (
	"context"
	"time"
)

// Generator produces invoice numbers.
//
// Uniqueness is not guaranteed by every strategy: the caller persists the
// number under a unique constraint and asks for a fresh one on collision.
type Generator interface {
	// GetNextNumber generates a number dated at the given instant.
	// Pattern: PREFIX-UNIQUEddMMyy (e.g., INV-84120357150126)
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, at time.Time) (string, error)
}
