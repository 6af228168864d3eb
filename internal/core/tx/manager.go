// Package tx provides transaction management abstractions.
// Domain services depend on these interfaces; postgres and the in-memory
// store provide the implementations.
package tx

import (
	"context"
)

// Manager runs a unit of work atomically.
//
// If fn returns an error, every write made through ctx is discarded.
// Nested calls reuse the transaction already carried by ctx.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// Nop runs fn directly. It is used where the backing store applies each
// call atomically on its own.
type Nop struct{}

// RunInTransaction implements Manager.
func (Nop) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
