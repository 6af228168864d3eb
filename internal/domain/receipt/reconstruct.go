package receipt

import (
	"sort"

	"warungpos/internal/core/numerator"
	"warungpos/internal/domain/catalog"
)

// Reconstruct maps stored rows back to a Receipt. Items whose product was
// deleted get a placeholder product built from the row's own name and prices.
func Reconstruct(row Row) Receipt {
	h := row.Header
	r := Receipt{
		ID:            h.ID,
		CashierID:     h.CashierID,
		Items:         make([]Item, 0, len(row.Items)),
		Subtotal:      h.Subtotal,
		Discount:      h.Discount,
		Total:         h.Total,
		Profit:        h.Profit,
		PaymentMethod: h.PaymentMethod,
		IsManual:      numerator.HasManualPrefix(h.ID),
		CreatedAt:     h.CreatedAt,
	}
	for _, it := range row.Items {
		var product catalog.Product
		if it.Product != nil {
			product = *it.Product
		} else {
			product = *catalog.Placeholder(it.ProductName, it.UnitPrice, it.CostPrice)
		}
		r.Items = append(r.Items, Item{
			Product:   product,
			Name:      it.ProductName,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			CostPrice: it.CostPrice,
			Total:     it.TotalPrice,
			Profit:    it.Profit,
		})
	}
	return r
}

// ReconstructAll maps rows to receipts ordered newest first.
func ReconstructAll(rows []Row) []Receipt {
	out := make([]Receipt, 0, len(rows))
	for _, row := range rows {
		out = append(out, Reconstruct(row))
	}
	SortNewestFirst(out)
	return out
}

// SortNewestFirst orders receipts by creation time, newest first.
// Receipts created in the same instant are ordered by id, descending.
func SortNewestFirst(receipts []Receipt) {
	sort.SliceStable(receipts, func(i, j int) bool {
		a, b := receipts[i], receipts[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}
