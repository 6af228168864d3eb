package dto

import (
	"strings"

	"warungpos/internal/core/types"
	"warungpos/internal/domain/catalog"
)

// CreateProductRequest is the request body for creating a product.
type CreateProductRequest struct {
	Name        string      `json:"name" binding:"required"`
	CostPrice   types.Money `json:"costPrice"`
	SellPrice   types.Money `json:"sellPrice"`
	Stock       int         `json:"stock"`
	Category    string      `json:"category"`
	Barcode     string      `json:"barcode"`
	Code        string      `json:"code"`
	IsPhotocopy bool        `json:"isPhotocopy"`
}

// ToEntity converts the request to a product.
func (r CreateProductRequest) ToEntity() *catalog.Product {
	return &catalog.Product{
		Name:        strings.TrimSpace(r.Name),
		CostPrice:   r.CostPrice,
		SellPrice:   r.SellPrice,
		Stock:       r.Stock,
		Category:    optional(r.Category),
		Barcode:     optional(r.Barcode),
		Code:        optional(r.Code),
		IsPhotocopy: r.IsPhotocopy,
	}
}

// UpdateProductRequest is a partial product update. Omitted fields keep
// their value; an empty string clears category, barcode or code.
type UpdateProductRequest = catalog.Patch

// ProductListQuery holds the query parameters of a product listing.
type ProductListQuery struct {
	Search    string `form:"search"`
	Category  string `form:"category"`
	Photocopy *bool  `form:"photocopy"`
}

// ToFilter converts the query to a repository filter.
func (q ProductListQuery) ToFilter() catalog.ListFilter {
	return catalog.ListFilter{
		Search:    strings.TrimSpace(q.Search),
		Category:  q.Category,
		Photocopy: q.Photocopy,
	}
}

// ProductResponse is a product with its stock expressed in larger units.
type ProductResponse struct {
	*catalog.Product
	StockDisplay []catalog.UnitConversion `json:"stockDisplay,omitempty"`
}

// FromProduct creates a ProductResponse.
func FromProduct(p *catalog.Product) ProductResponse {
	resp := ProductResponse{Product: p}
	if p.TracksStock() {
		resp.StockDisplay = catalog.UnitDisplay(p.Stock, p.CategoryName())
	}
	return resp
}

// FromProducts maps a product listing.
func FromProducts(products []*catalog.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = FromProduct(p)
	}
	return out
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
