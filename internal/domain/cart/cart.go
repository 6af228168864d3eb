// Package cart provides the cart engine: the lines of an in-progress sale and
// the money totals computed from them.
package cart

import (
	"encoding/json"
	"fmt"
	"time"

	"warungpos/internal/core/apperror"
	"warungpos/internal/core/types"
	"warungpos/internal/domain/catalog"
)

// MaxQuantity bounds the quantity of a single line.
const MaxQuantity = 1_000_000

// Line is one product in a cart.
type Line struct {
	// Product is the catalog state captured when the line was added.
	Product  catalog.Product
	Quantity int
	Pricing  Pricing
}

// UnitPrice returns the effective unit price of the line.
func (l Line) UnitPrice() types.Money {
	return l.Pricing.UnitPrice(&l.Product, l.Quantity)
}

// FinalPrice returns the override price, if one is set.
func (l Line) FinalPrice() *types.Money {
	if o, ok := l.Pricing.(OverridePrice); ok {
		price := o.Price
		return &price
	}
	return nil
}

// StoredUnitPrice returns the unit price rounded to the money scale, as it is
// written to a receipt. A price split from a lump sum may carry more digits;
// the line amount stays the authoritative figure.
func (l Line) StoredUnitPrice() types.Money {
	return l.UnitPrice().Round(types.MoneyScale)
}

// Validate checks the quantity and the prices a line can be committed with.
func (l Line) Validate() error {
	if l.Quantity <= 0 {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("product_id", l.Product.ID)
	}
	if l.Quantity > MaxQuantity {
		return quantityTooLarge(l.Product.ID)
	}
	if fp := l.FinalPrice(); fp != nil && fp.IsNegative() {
		return negativePrice(l.Product.ID)
	}
	if l.Product.CostPrice.IsNegative() {
		return apperror.NewValidation("cost must not be negative").
			WithDetail("field", "cost").
			WithDetail("product_id", l.Product.ID)
	}
	return nil
}

func negativePrice(productID string) error {
	return apperror.NewValidation("price must not be negative").
		WithDetail("field", "price").
		WithDetail("product_id", productID)
}

func quantityTooLarge(productID string) error {
	return apperror.NewValidation(fmt.Sprintf("quantity must not exceed %d", MaxQuantity)).
		WithDetail("field", "quantity").
		WithDetail("product_id", productID)
}

// Amount returns unit price × quantity.
func (l Line) Amount() types.Money {
	return types.LineAmount(l.UnitPrice(), l.Quantity)
}

// Profit returns (unit price - cost price) × quantity.
func (l Line) Profit() types.Money {
	return l.Amount().Sub(types.LineAmount(l.Product.CostPrice, l.Quantity))
}

type lineJSON struct {
	Product    catalog.Product `json:"product"`
	Quantity   int             `json:"quantity"`
	PriceKind  PriceKind       `json:"priceKind"`
	FinalPrice *types.Money    `json:"finalPrice,omitempty"`
	ScheduleID string          `json:"scheduleId,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (l Line) MarshalJSON() ([]byte, error) {
	out := lineJSON{Product: l.Product, Quantity: l.Quantity, PriceKind: KindBase}
	if l.Pricing != nil {
		out.PriceKind = l.Pricing.Kind()
	}
	switch p := l.Pricing.(type) {
	case OverridePrice:
		out.FinalPrice = &p.Price
	case TieredPrice:
		out.ScheduleID = p.ScheduleID
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Line) UnmarshalJSON(data []byte) error {
	var in lineJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	l.Product = in.Product
	l.Quantity = in.Quantity
	switch in.PriceKind {
	case KindOverride:
		if in.FinalPrice == nil {
			return fmt.Errorf("cart line %s: override without price", in.Product.ID)
		}
		l.Pricing = OverridePrice{Price: *in.FinalPrice}
	case KindTiered:
		l.Pricing = TieredPrice{ScheduleID: in.ScheduleID}
	case KindBase, "":
		l.Pricing = BasePrice{}
	default:
		return fmt.Errorf("cart line %s: unknown price kind %q", in.Product.ID, in.PriceKind)
	}
	return nil
}

// Totals are the money figures of a sale.
type Totals struct {
	Subtotal types.Money `json:"subtotal"`
	Discount types.Money `json:"discount"`
	Total    types.Money `json:"total"`
	Profit   types.Money `json:"profit"`
}

// ComputeTotals sums lines and applies discount.
// A discount below zero or above the subtotal is rejected.
func ComputeTotals(lines []Line, discount types.Money) (Totals, error) {
	subtotal, profit := types.Zero(), types.Zero()
	for _, l := range lines {
		subtotal = subtotal.Add(l.Amount())
		profit = profit.Add(l.Profit())
	}
	if discount.IsNegative() {
		return Totals{}, apperror.NewValidation("discount must not be negative").
			WithDetail("discount", discount.String())
	}
	if discount.GreaterThan(subtotal) {
		return Totals{}, apperror.NewValidation("discount exceeds subtotal").
			WithDetail("discount", discount.String()).
			WithDetail("subtotal", subtotal.String())
	}
	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Total:    subtotal.Sub(discount),
		Profit:   profit,
	}, nil
}

// Cart is an in-progress sale owned by one cashier session.
// A Cart is not safe for concurrent use; Sessions serializes access.
type Cart struct {
	ID        string    `json:"id"`
	CashierID string    `json:"cashierId"`
	Lines     []Line    `json:"lines"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// New creates an empty cart.
func New(cartID, cashierID string, now time.Time) *Cart {
	return &Cart{ID: cartID, CashierID: cashierID, CreatedAt: now, UpdatedAt: now}
}

func (c *Cart) find(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

// AddItem adds quantity of product. An existing line is merged: its quantity
// grows and, when price is given, its price is replaced. Quantity <= 0 is a no-op.
// A negative price, or a line quantity above MaxQuantity, is rejected and
// leaves the cart unchanged.
func (c *Cart) AddItem(p *catalog.Product, quantity int, price *types.Money) error {
	if quantity <= 0 {
		return nil
	}
	if price != nil && price.IsNegative() {
		return negativePrice(p.ID)
	}
	i := c.find(p.ID)
	existing := 0
	if i >= 0 {
		existing = c.Lines[i].Quantity
	}
	if quantity > MaxQuantity-existing {
		return quantityTooLarge(p.ID)
	}
	if i >= 0 {
		c.Lines[i].Quantity += quantity
		if price != nil {
			c.Lines[i].Pricing = OverridePrice{Price: *price}
		}
		return nil
	}
	c.Lines = append(c.Lines, Line{
		Product:  *p,
		Quantity: quantity,
		Pricing:  pricingFor(p, price),
	})
	return nil
}

// AddWithTotal adds quantity of product sold for a lump sum. The unit price
// becomes total / quantity.
func (c *Cart) AddWithTotal(p *catalog.Product, quantity int, total types.Money) error {
	if quantity <= 0 {
		return nil
	}
	if total.IsNegative() {
		return apperror.NewValidation("total must not be negative").WithDetail("field", "total")
	}
	unit := types.UnitPriceFromTotal(total, quantity)
	return c.AddItem(p, quantity, &unit)
}

// UpdateQuantity sets the quantity of a line and, when price is given, its
// price. Quantity <= 0 removes the line. Reports whether the line existed.
// A negative price or a quantity above MaxQuantity is rejected.
func (c *Cart) UpdateQuantity(productID string, quantity int, price *types.Money) (bool, error) {
	i := c.find(productID)
	if i < 0 {
		return false, nil
	}
	if quantity <= 0 {
		c.removeAt(i)
		return true, nil
	}
	if quantity > MaxQuantity {
		return true, quantityTooLarge(productID)
	}
	if price != nil && price.IsNegative() {
		return true, negativePrice(productID)
	}
	c.Lines[i].Quantity = quantity
	if price != nil {
		c.Lines[i].Pricing = OverridePrice{Price: *price}
	}
	return true, nil
}

// RemoveItem deletes the line of a product. Reports whether it existed.
func (c *Cart) RemoveItem(productID string) bool {
	i := c.find(productID)
	if i < 0 {
		return false
	}
	c.removeAt(i)
	return true
}

func (c *Cart) removeAt(i int) {
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Lines = nil
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// ComputeTotals returns the totals of the current lines.
func (c *Cart) ComputeTotals(discount types.Money) (Totals, error) {
	return ComputeTotals(c.Lines, discount)
}

// Snapshot returns a copy of the lines that later cart edits cannot change.
func (c *Cart) Snapshot() []Line {
	out := make([]Line, len(c.Lines))
	copy(out, c.Lines)
	return out
}
