// Package catalog provides the product catalog: the items a cashier can put in
// a cart, their prices and their stock.
package catalog

import (
	"strings"
	"time"

	"warungpos/internal/core/apperror"
	"warungpos/internal/core/types"
)

// PlaceholderID is the id carried by a product synthesized for a receipt line
// whose catalog product no longer exists.
const PlaceholderID = "manual"

// CategoryPaper is sold by the rim and karton instead of by the piece.
const CategoryPaper = "Kertas"

// Product is a sellable item or service.
type Product struct {
	ID        string      `db:"id" json:"id"`
	Name      string      `db:"name" json:"name"`
	CostPrice types.Money `db:"cost_price" json:"costPrice"`
	SellPrice types.Money `db:"sell_price" json:"sellPrice"`

	// Stock may be negative when the shop oversells.
	Stock int `db:"stock" json:"stock"`

	Category *string `db:"category" json:"category,omitempty"`
	Barcode  *string `db:"barcode" json:"barcode,omitempty"`
	Code     *string `db:"code" json:"code,omitempty"`

	// IsPhotocopy marks a service priced per sheet by a tier schedule.
	// Service products carry no stock.
	IsPhotocopy bool `db:"is_photocopy" json:"isPhotocopy"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Placeholder synthesizes a product from the denormalized fields of a
// receipt line.
func Placeholder(name string, unitPrice, costPrice types.Money) *Product {
	return &Product{
		ID:        PlaceholderID,
		Name:      name,
		SellPrice: unitPrice,
		CostPrice: costPrice,
	}
}

// Validate checks product invariants.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if p.CostPrice.IsNegative() {
		return apperror.NewValidation("cost price must not be negative").
			WithDetail("field", "costPrice")
	}
	if p.SellPrice.IsNegative() {
		return apperror.NewValidation("sell price must not be negative").
			WithDetail("field", "sellPrice")
	}
	return nil
}

// TracksStock reports whether selling the product changes its stock.
func (p *Product) TracksStock() bool {
	return !p.IsPhotocopy && p.ID != PlaceholderID
}

// CategoryName returns the category or an empty string.
func (p *Product) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return *p.Category
}

// Patch is a partial product update. Nil fields are left unchanged.
type Patch struct {
	Name        *string      `json:"name,omitempty"`
	CostPrice   *types.Money `json:"costPrice,omitempty"`
	SellPrice   *types.Money `json:"sellPrice,omitempty"`
	Stock       *int         `json:"stock,omitempty"`
	Category    *string      `json:"category,omitempty"`
	Barcode     *string      `json:"barcode,omitempty"`
	Code        *string      `json:"code,omitempty"`
	IsPhotocopy *bool        `json:"isPhotocopy,omitempty"`
}

// Apply copies the set fields of patch onto p.
// An empty string clears an optional text field.
func (patch Patch) Apply(p *Product) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.CostPrice != nil {
		p.CostPrice = *patch.CostPrice
	}
	if patch.SellPrice != nil {
		p.SellPrice = *patch.SellPrice
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Category != nil {
		p.Category = optional(*patch.Category)
	}
	if patch.Barcode != nil {
		p.Barcode = optional(*patch.Barcode)
	}
	if patch.Code != nil {
		p.Code = optional(*patch.Code)
	}
	if patch.IsPhotocopy != nil {
		p.IsPhotocopy = *patch.IsPhotocopy
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
