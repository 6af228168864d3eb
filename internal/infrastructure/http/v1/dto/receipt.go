package dto

import (
	"time"

	"warungpos/internal/core/types"
	"warungpos/internal/domain/receipt"
)

// CheckoutRequest commits a cart.
type CheckoutRequest struct {
	Discount      types.Money `json:"discount"`
	PaymentMethod string      `json:"paymentMethod"`
}

// ManualItemRequest is one line of a manual invoice. ProductID is optional;
// without it the line is an ad-hoc item described by Name.
type ManualItemRequest struct {
	ProductID string       `json:"productId"`
	Name      string       `json:"name"`
	Quantity  int          `json:"quantity" binding:"required,min=1"`
	Price     types.Money  `json:"price"`
	Cost      *types.Money `json:"cost"`
}

// ManualReceiptRequest records an invoice written by hand.
type ManualReceiptRequest struct {
	Items         []ManualItemRequest `json:"items" binding:"required,min=1,dive"`
	Discount      types.Money         `json:"discount"`
	PaymentMethod string              `json:"paymentMethod"`
	// Timestamp is when the sale happened. Omitted means now.
	Timestamp *time.Time `json:"timestamp"`
}

// ReceiptListQuery holds the query parameters of a receipt listing. Dates
// are calendar days in the shop's time zone; To is inclusive.
type ReceiptListQuery struct {
	From    string `form:"from"`
	To      string `form:"to"`
	Manual  *bool  `form:"manual"`
	Cashier string `form:"cashier"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=500"`
	// Recent serves the in-memory history instead of querying storage.
	Recent bool `form:"recent"`
}

// ReceiptResponse is a receipt with its printable header.
type ReceiptResponse struct {
	receipt.Receipt
	Display     receipt.Display `json:"display"`
	TotalRupiah string          `json:"totalRupiah"`
}

// FromReceipt creates a ReceiptResponse.
func FromReceipt(r receipt.Receipt, loc *time.Location) ReceiptResponse {
	return ReceiptResponse{
		Receipt:     r,
		Display:     receipt.FormatDisplay(r, loc),
		TotalRupiah: receipt.FormatRupiah(r.Total),
	}
}

// FromReceipts maps a receipt listing.
func FromReceipts(rs []receipt.Receipt, loc *time.Location) []ReceiptResponse {
	out := make([]ReceiptResponse, len(rs))
	for i, r := range rs {
		out[i] = FromReceipt(r, loc)
	}
	return out
}
