package dto

import (
	"time"

	"warungpos/internal/core/types"
	"warungpos/internal/domain/cart"
	"warungpos/internal/domain/catalog"
)

// AddItemRequest adds a product to a cart. The product is named by id or by
// a scanned barcode or code. Price overrides the unit price; Total sells the
// whole quantity for a lump sum. At most one of them may be set.
type AddItemRequest struct {
	ProductID string       `json:"productId"`
	Code      string       `json:"code"`
	Quantity  int          `json:"quantity"`
	Unit      string       `json:"unit"`
	Price     *types.Money `json:"price"`
	Total     *types.Money `json:"total"`
}

// UpdateItemRequest sets the quantity of a cart line. A quantity of zero or
// less removes the line.
type UpdateItemRequest struct {
	Quantity int          `json:"quantity"`
	Unit     string       `json:"unit"`
	Price    *types.Money `json:"price"`
}

// TotalsQuery holds the discount applied to a totals preview.
type TotalsQuery struct {
	Discount string `form:"discount"`
}

// LineResponse is one cart line with its computed amounts.
type LineResponse struct {
	ProductID    string                   `json:"productId"`
	Name         string                   `json:"name"`
	Category     string                   `json:"category,omitempty"`
	IsPhotocopy  bool                     `json:"isPhotocopy"`
	Quantity     int                      `json:"quantity"`
	PriceKind    cart.PriceKind           `json:"priceKind"`
	UnitPrice    types.Money              `json:"unitPrice"`
	FinalPrice   *types.Money             `json:"finalPrice,omitempty"`
	Amount       types.Money              `json:"amount"`
	Profit       types.Money              `json:"profit"`
	QuantityUnit []catalog.UnitConversion `json:"quantityDisplay,omitempty"`
}

// CartResponse is a cart with its undiscounted totals.
type CartResponse struct {
	ID        string         `json:"id"`
	CashierID string         `json:"cashierId,omitempty"`
	Lines     []LineResponse `json:"lines"`
	Totals    cart.Totals    `json:"totals"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// FromCart creates a CartResponse.
func FromCart(c *cart.Cart) CartResponse {
	lines := make([]LineResponse, len(c.Lines))
	for i, l := range c.Lines {
		lines[i] = LineResponse{
			ProductID:    l.Product.ID,
			Name:         l.Product.Name,
			Category:     l.Product.CategoryName(),
			IsPhotocopy:  l.Product.IsPhotocopy,
			Quantity:     l.Quantity,
			PriceKind:    l.Pricing.Kind(),
			UnitPrice:    l.UnitPrice(),
			FinalPrice:   l.FinalPrice(),
			Amount:       l.Amount(),
			Profit:       l.Profit(),
			QuantityUnit: catalog.UnitDisplay(l.Quantity, l.Product.CategoryName()),
		}
	}
	// A zero discount never exceeds the subtotal.
	totals, _ := c.ComputeTotals(types.Zero())
	return CartResponse{
		ID:        c.ID,
		CashierID: c.CashierID,
		Lines:     lines,
		Totals:    totals,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
