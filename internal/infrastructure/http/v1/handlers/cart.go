package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"warungpos/internal/core/apperror"
	"warungpos/internal/core/types"
	"warungpos/internal/domain/cart"
	"warungpos/internal/domain/catalog"
	"warungpos/internal/infrastructure/http/v1/dto"
)

// CartHandler serves the carts of cashier sessions.
type CartHandler struct {
	*BaseHandler
	sessions *cart.Sessions
	catalog  *catalog.Service
}

// NewCartHandler creates a cart handler.
func NewCartHandler(base *BaseHandler, sessions *cart.Sessions, catalog *catalog.Service) *CartHandler {
	return &CartHandler{BaseHandler: base, sessions: sessions, catalog: catalog}
}

// Open handles POST /carts.
func (h *CartHandler) Open(c *gin.Context) {
	ct, err := h.sessions.Open(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromCart(ct))
}

// Get handles GET /carts/:id.
func (h *CartHandler) Get(c *gin.Context) {
	ct, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCart(ct))
}

// Discard handles DELETE /carts/:id.
func (h *CartHandler) Discard(c *gin.Context) {
	if err := h.sessions.Discard(c.Request.Context(), c.Param("id")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// AddItem handles POST /carts/:id/items.
func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if req.Price != nil && req.Total != nil {
		h.Error(c, apperror.NewValidation("price and total are mutually exclusive"))
		return
	}

	ctx := c.Request.Context()
	p, err := h.resolveProduct(c, req.ProductID, req.Code)
	if err != nil {
		h.Error(c, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity > cart.MaxQuantity {
		h.Error(c, apperror.NewValidation("quantity is too large").WithDetail("field", "quantity"))
		return
	}
	qty := req.Quantity * catalog.UnitMultiplier(req.Unit, p.CategoryName())

	ct, err := h.sessions.Update(ctx, c.Param("id"), func(ct *cart.Cart) error {
		if req.Total != nil {
			return ct.AddWithTotal(p, qty, *req.Total)
		}
		return ct.AddItem(p, qty, req.Price)
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCart(ct))
}

func (h *CartHandler) resolveProduct(c *gin.Context, productID, code string) (*catalog.Product, error) {
	ctx := c.Request.Context()
	switch {
	case strings.TrimSpace(productID) != "":
		return h.catalog.Get(ctx, productID)
	case strings.TrimSpace(code) != "":
		return h.catalog.Lookup(ctx, code)
	default:
		return nil, apperror.NewValidation("productId or code is required")
	}
}

// UpdateItem handles PATCH /carts/:id/items/:productId.
func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req dto.UpdateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if req.Quantity > cart.MaxQuantity {
		h.Error(c, apperror.NewValidation("quantity is too large").WithDetail("field", "quantity"))
		return
	}

	productID := c.Param("productId")
	ct, err := h.sessions.Update(c.Request.Context(), c.Param("id"), func(ct *cart.Cart) error {
		qty := req.Quantity
		if req.Unit != "" {
			qty *= catalog.UnitMultiplier(req.Unit, lineCategory(ct, productID))
		}
		found, err := ct.UpdateQuantity(productID, qty, req.Price)
		if !found {
			return apperror.NewNotFound("cart line", productID)
		}
		return err
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCart(ct))
}

func lineCategory(ct *cart.Cart, productID string) string {
	for _, l := range ct.Lines {
		if l.Product.ID == productID {
			return l.Product.CategoryName()
		}
	}
	return ""
}

// RemoveItem handles DELETE /carts/:id/items/:productId.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID := c.Param("productId")
	ct, err := h.sessions.Update(c.Request.Context(), c.Param("id"), func(ct *cart.Cart) error {
		if !ct.RemoveItem(productID) {
			return apperror.NewNotFound("cart line", productID)
		}
		return nil
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCart(ct))
}

// Clear handles DELETE /carts/:id/items.
func (h *CartHandler) Clear(c *gin.Context) {
	ct, err := h.sessions.Update(c.Request.Context(), c.Param("id"), func(ct *cart.Cart) error {
		ct.Clear()
		return nil
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCart(ct))
}

// Totals handles GET /carts/:id/totals?discount=.
func (h *CartHandler) Totals(c *gin.Context) {
	var q dto.TotalsQuery
	if !h.BindQuery(c, &q) {
		return
	}
	discount, err := parseMoney(q.Discount, "discount")
	if err != nil {
		h.Error(c, err)
		return
	}

	ct, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	totals, err := ct.ComputeTotals(discount)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, totals)
}

func parseMoney(s, field string) (types.Money, error) {
	if strings.TrimSpace(s) == "" {
		return types.Zero(), nil
	}
	m, err := types.NewMoneyFromString(strings.TrimSpace(s))
	if err != nil {
		return types.Zero(), apperror.NewValidation("invalid amount").WithDetail("field", field)
	}
	return m, nil
}
