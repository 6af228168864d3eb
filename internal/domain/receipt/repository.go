package receipt

import (
	"context"
	"time"
)

// ListFilter narrows a receipt listing.
type ListFilter struct {
	// CashierID scopes receipts to one cashier. Empty lists every cashier.
	CashierID string
	From      *time.Time
	To        *time.Time
	// Manual, when set, keeps only manual or only POS receipts.
	Manual *bool
	// Limit caps the number of receipts. Zero means no cap.
	Limit int
}

// Repository is the storage contract for receipts.
type Repository interface {
	// InsertHeader stores a receipt header. A taken id is reported as
	// apperror Duplicate.
	InsertHeader(ctx context.Context, h *Header) error
	InsertItems(ctx context.Context, items []ItemRow) error

	// List returns receipts newest first with their items joined to the
	// products that still exist.
	List(ctx context.Context, filter ListFilter) ([]Row, error)
	Get(ctx context.Context, receiptID string) (Row, error)
}
