package handlers

import (
	"github.com/gin-gonic/gin"

	"warungpos/internal/domain/catalog"
	"warungpos/internal/infrastructure/http/v1/dto"
)

// UnitHandler serves the quantity units offered per category.
type UnitHandler struct {
	*BaseHandler
}

// NewUnitHandler creates a unit handler.
func NewUnitHandler(base *BaseHandler) *UnitHandler {
	return &UnitHandler{BaseHandler: base}
}

// List handles GET /units?category=&quantity=.
func (h *UnitHandler) List(c *gin.Context) {
	var q dto.UnitsQuery
	if !h.BindQuery(c, &q) {
		return
	}

	resp := dto.UnitsResponse{
		Category: q.Category,
		Options:  catalog.UnitOptions(q.Category),
	}
	if q.Quantity != nil {
		resp.Display = catalog.UnitDisplay(*q.Quantity, q.Category)
	}
	h.OK(c, resp)
}
