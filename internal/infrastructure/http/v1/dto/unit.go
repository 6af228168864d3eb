package dto

import "warungpos/internal/domain/catalog"

// UnitsQuery selects the units of a category. With Quantity set the response
// also converts that quantity.
type UnitsQuery struct {
	Category string `form:"category"`
	Quantity *int   `form:"quantity" binding:"omitempty,min=0"`
}

// UnitsResponse lists the units a quantity can be entered in.
type UnitsResponse struct {
	Category string                   `json:"category"`
	Options  []catalog.UnitOption     `json:"options"`
	Display  []catalog.UnitConversion `json:"display,omitempty"`
}
