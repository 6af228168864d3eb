// Package receipt provides committed sales: their stored shape, the mapping
// from stored rows back to receipts, and the in-memory history shown to
// cashiers.
package receipt

import (
	"time"

	"warungpos/internal/core/types"
	"warungpos/internal/domain/cart"
	"warungpos/internal/domain/catalog"
)

// Receipt is an immutable record of a completed sale.
// Money fields are the values stored at commit time and are never recomputed.
type Receipt struct {
	ID            string      `json:"id"`
	CashierID     string      `json:"cashierId,omitempty"`
	Items         []Item      `json:"items"`
	Subtotal      types.Money `json:"subtotal"`
	Discount      types.Money `json:"discount"`
	Total         types.Money `json:"total"`
	Profit        types.Money `json:"profit"`
	PaymentMethod *string     `json:"paymentMethod,omitempty"`
	IsManual      bool        `json:"isManual"`
	CreatedAt     time.Time   `json:"timestamp"`
}

// Item is one line of a receipt with the name and prices frozen at commit.
type Item struct {
	// Product is the current catalog product, or a placeholder once the
	// product has been deleted.
	Product   catalog.Product `json:"product"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice types.Money     `json:"unitPrice"`
	CostPrice types.Money     `json:"costPrice"`
	Total     types.Money     `json:"total"`
	Profit    types.Money     `json:"profit"`
}

// Line returns the item as a cart line priced at its frozen unit price and
// cost, so totals recomputed from it match the stored ones.
func (it Item) Line() cart.Line {
	p := it.Product
	p.CostPrice = it.CostPrice
	return cart.Line{
		Product:  p,
		Quantity: it.Quantity,
		Pricing:  cart.OverridePrice{Price: it.UnitPrice},
	}
}

// Header is the stored receipts row.
type Header struct {
	ID            string      `db:"id"`
	CashierID     string      `db:"user_id"`
	InvoiceNumber string      `db:"invoice_number"`
	Subtotal      types.Money `db:"subtotal"`
	Discount      types.Money `db:"discount"`
	Total         types.Money `db:"total"`
	Profit        types.Money `db:"profit"`
	PaymentMethod *string     `db:"payment_method"`
	CreatedAt     time.Time   `db:"created_at"`
}

// ItemRow is a stored receipt_items row.
type ItemRow struct {
	ID          string      `db:"id"`
	ReceiptID   string      `db:"receipt_id"`
	ProductID   *string     `db:"product_id"`
	ProductName string      `db:"product_name"`
	Quantity    int         `db:"quantity"`
	UnitPrice   types.Money `db:"unit_price"`
	CostPrice   types.Money `db:"cost_price"`
	TotalPrice  types.Money `db:"total_price"`
	Profit      types.Money `db:"profit"`
}

// StoredItem is an item row joined to its product, if it still exists.
type StoredItem struct {
	ItemRow
	Product *catalog.Product
}

// Row is a receipt header with its items as read back from storage.
type Row struct {
	Header Header
	Items  []StoredItem
}

// NewItemRow freezes a cart line into a receipt_items row. Lines of products
// that carry no stock are stored without a product reference.
func NewItemRow(rowID, receiptID string, l cart.Line) ItemRow {
	var productID *string
	if l.Product.TracksStock() {
		pid := l.Product.ID
		productID = &pid
	}
	return ItemRow{
		ID:          rowID,
		ReceiptID:   receiptID,
		ProductID:   productID,
		ProductName: l.Product.Name,
		Quantity:    l.Quantity,
		UnitPrice:   l.StoredUnitPrice(),
		CostPrice:   l.Product.CostPrice,
		TotalPrice:  l.Amount(),
		Profit:      l.Profit(),
	}
}
