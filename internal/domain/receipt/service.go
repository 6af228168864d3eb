package receipt

import (
	"context"
	"fmt"

	"warungpos/internal/core/apperror"
	appctx "warungpos/internal/core/context"
)

// Service reads committed receipts. Receipts are only written by checkout.
type Service struct {
	repo Repository
}

// NewService creates a receipt reader.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns receipts newest first. Cashiers only see their own receipts;
// admins see the filter they ask for.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Receipt, error) {
	if !appctx.IsAdmin(ctx) {
		if cashierID := appctx.GetCashierID(ctx); cashierID != "" {
			filter.CashierID = cashierID
		}
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	return ReconstructAll(rows), nil
}

// Get returns one receipt.
func (s *Service) Get(ctx context.Context, receiptID string) (Receipt, error) {
	row, err := s.repo.Get(ctx, receiptID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return Receipt{}, apperror.NewNotFound("receipt", receiptID)
		}
		return Receipt{}, fmt.Errorf("get receipt: %w", err)
	}
	cashierID := appctx.GetCashierID(ctx)
	if cashierID != "" && !appctx.IsAdmin(ctx) && row.Header.CashierID != cashierID {
		return Receipt{}, apperror.NewNotFound("receipt", receiptID)
	}
	return Reconstruct(row), nil
}
