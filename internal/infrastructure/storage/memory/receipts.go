package memory

import (
	"context"

	"warungpos/internal/core/apperror"
	"warungpos/internal/core/numerator"
	"warungpos/internal/domain/receipt"
)

// ReceiptRepo implements receipt.Repository.
type ReceiptRepo struct {
	s *Store
}

var _ receipt.Repository = (*ReceiptRepo)(nil)

// InsertHeader implements receipt.Repository.
func (r *ReceiptRepo) InsertHeader(ctx context.Context, h *receipt.Header) error {
	return r.s.write(ctx, TableReceipts, func() error {
		if _, ok := r.s.headers[h.ID]; ok {
			return apperror.NewDuplicate("receipt", "id", h.ID)
		}
		r.s.headers[h.ID] = *h
		return nil
	})
}

// InsertItems implements receipt.Repository.
func (r *ReceiptRepo) InsertItems(ctx context.Context, items []receipt.ItemRow) error {
	return r.s.write(ctx, TableReceipts, func() error {
		for _, it := range items {
			if _, ok := r.s.headers[it.ReceiptID]; !ok {
				return apperror.NewBusinessRule(apperror.CodeBusinessRule, "receipt item references a missing receipt").
					WithDetail("receipt_id", it.ReceiptID)
			}
		}
		for _, it := range items {
			r.s.items[it.ReceiptID] = append(r.s.items[it.ReceiptID], it)
		}
		return nil
	})
}

// List implements receipt.Repository.
func (r *ReceiptRepo) List(_ context.Context, filter receipt.ListFilter) ([]receipt.Row, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rows := make([]receipt.Row, 0, len(r.s.headers))
	for _, h := range r.s.headers {
		if !matches(h, filter) {
			continue
		}
		rows = append(rows, r.row(h))
	}
	sortRows(rows)
	if filter.Limit > 0 && len(rows) > filter.Limit {
		rows = rows[:filter.Limit]
	}
	return rows, nil
}

// Get implements receipt.Repository.
func (r *ReceiptRepo) Get(_ context.Context, receiptID string) (receipt.Row, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	h, ok := r.s.headers[receiptID]
	if !ok {
		return receipt.Row{}, apperror.NewNotFound("receipt", receiptID)
	}
	return r.row(h), nil
}

// row joins items to the products that still exist. Caller holds mu.
func (r *ReceiptRepo) row(h receipt.Header) receipt.Row {
	stored := r.s.items[h.ID]
	items := make([]receipt.StoredItem, len(stored))
	for i, it := range stored {
		items[i] = receipt.StoredItem{ItemRow: it}
		if it.ProductID == nil {
			continue
		}
		if p, ok := r.s.products[*it.ProductID]; ok {
			joined := p
			items[i].Product = &joined
		}
	}
	return receipt.Row{Header: h, Items: items}
}

func matches(h receipt.Header, f receipt.ListFilter) bool {
	if f.CashierID != "" && h.CashierID != f.CashierID {
		return false
	}
	if f.From != nil && h.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !h.CreatedAt.Before(*f.To) {
		return false
	}
	if f.Manual != nil && numerator.HasManualPrefix(h.ID) != *f.Manual {
		return false
	}
	return true
}

func sortRows(rows []receipt.Row) {
	receipts := make([]receipt.Receipt, len(rows))
	byID := make(map[string]receipt.Row, len(rows))
	for i, row := range rows {
		receipts[i] = receipt.Receipt{ID: row.Header.ID, CreatedAt: row.Header.CreatedAt}
		byID[row.Header.ID] = row
	}
	receipt.SortNewestFirst(receipts)
	for i, rc := range receipts {
		rows[i] = byID[rc.ID]
	}
}
