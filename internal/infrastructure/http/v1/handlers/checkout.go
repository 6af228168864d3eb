package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"warungpos/internal/core/apperror"
	"warungpos/internal/core/types"
	"warungpos/internal/domain/cart"
	"warungpos/internal/domain/catalog"
	"warungpos/internal/domain/checkout"
	"warungpos/internal/domain/receipt"
	"warungpos/internal/infrastructure/http/v1/dto"
)

// CheckoutHandler commits carts and manual invoices into receipts.
type CheckoutHandler struct {
	*BaseHandler
	sessions  *cart.Sessions
	catalog   *catalog.Service
	committer *checkout.Committer
	loc       *time.Location
}

// NewCheckoutHandler creates a checkout handler.
func NewCheckoutHandler(
	base *BaseHandler,
	sessions *cart.Sessions,
	catalog *catalog.Service,
	committer *checkout.Committer,
	loc *time.Location,
) *CheckoutHandler {
	return &CheckoutHandler{
		BaseHandler: base,
		sessions:    sessions,
		catalog:     catalog,
		committer:   committer,
		loc:         loc,
	}
}

// Checkout handles POST /carts/:id/checkout. The cart is destroyed only when
// the receipt is committed; after a failure it can be submitted again.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	cartID := c.Param("id")
	var committed receipt.Receipt
	err := h.sessions.Consume(ctx, cartID, func(ct *cart.Cart) error {
		var err error
		committed, err = h.committer.Commit(ctx, checkout.Request{
			CartID:        cartID,
			Lines:         ct.Snapshot(),
			Discount:      req.Discount,
			PaymentMethod: paymentMethod(req.PaymentMethod),
			CashierID:     h.CashierID(c),
		})
		return err
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromReceipt(committed, h.loc))
}

// Manual handles POST /receipts/manual. Manual invoices never change stock.
func (h *CheckoutHandler) Manual(c *gin.Context) {
	var req dto.ManualReceiptRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	lines := make([]cart.Line, 0, len(req.Items))
	for _, it := range req.Items {
		var p *catalog.Product
		if it.ProductID != "" {
			found, err := h.catalog.Get(ctx, it.ProductID)
			if err != nil {
				h.Error(c, err)
				return
			}
			p = found
		}

		name := strings.TrimSpace(it.Name)
		if p == nil && name == "" {
			h.Error(c, apperror.NewValidation("name is required for an item without product").WithDetail("field", "name"))
			return
		}
		cost := types.Zero()
		switch {
		case it.Cost != nil:
			cost = *it.Cost
		case p != nil:
			cost = p.CostPrice
		}
		if p != nil && name != "" {
			p.Name = name
		}
		lines = append(lines, checkout.ManualLine(p, name, it.Quantity, it.Price, cost))
	}

	var ts time.Time
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}
	committed, err := h.committer.Commit(ctx, checkout.Request{
		Lines:         lines,
		Discount:      req.Discount,
		PaymentMethod: paymentMethod(req.PaymentMethod),
		Manual:        true,
		Timestamp:     ts,
		CashierID:     h.CashierID(c),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromReceipt(committed, h.loc))
}

func paymentMethod(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
