package handlers

import (
	"github.com/gin-gonic/gin"

	"warungpos/internal/domain/catalog"
	"warungpos/internal/infrastructure/http/v1/dto"
)

// ProductHandler serves the product catalog.
type ProductHandler struct {
	*BaseHandler
	service *catalog.Service
}

// NewProductHandler creates a product handler.
func NewProductHandler(base *BaseHandler, service *catalog.Service) *ProductHandler {
	return &ProductHandler{BaseHandler: base, service: service}
}

// List handles GET /products.
func (h *ProductHandler) List(c *gin.Context) {
	var q dto.ProductListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	products, err := h.service.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(dto.FromProducts(products)))
}

// Lookup handles GET /products/lookup?code=, resolving scanner input.
func (h *ProductHandler) Lookup(c *gin.Context) {
	p, err := h.service.Lookup(c.Request.Context(), c.Query("code"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProduct(p))
}

// Get handles GET /products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	p, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProduct(p))
}

// Create handles POST /products.
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromProduct(p))
}

// Update handles PATCH /products/:id.
func (h *ProductHandler) Update(c *gin.Context) {
	var req dto.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProduct(p))
}

// Delete handles DELETE /products/:id. Open carts drop the product through
// the catalog's after-delete hook.
func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
