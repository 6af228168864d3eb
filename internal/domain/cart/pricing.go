package cart

import (
	"warungpos/internal/core/types"
	"warungpos/internal/domain/catalog"
)

// Pricing is the price shape of a cart line. Exactly one of BasePrice,
// OverridePrice or TieredPrice applies, chosen when the line is priced:
// an explicit price beats a tier schedule, which beats the catalog price.
type Pricing interface {
	// UnitPrice returns the price of one unit when quantity units are bought.
	UnitPrice(p *catalog.Product, quantity int) types.Money
	Kind() PriceKind
	sealed()
}

// PriceKind names a Pricing variant.
type PriceKind string

const (
	KindBase     PriceKind = "base"
	KindOverride PriceKind = "override"
	KindTiered   PriceKind = "tiered"
)

// BasePrice sells at the product's catalog price.
type BasePrice struct{}

func (BasePrice) UnitPrice(p *catalog.Product, _ int) types.Money { return p.SellPrice }
func (BasePrice) Kind() PriceKind                                 { return KindBase }
func (BasePrice) sealed()                                         {}

// OverridePrice sells at a price entered by the cashier.
type OverridePrice struct {
	Price types.Money
}

func (o OverridePrice) UnitPrice(*catalog.Product, int) types.Money { return o.Price }
func (OverridePrice) Kind() PriceKind                               { return KindOverride }
func (OverridePrice) sealed()                                       {}

// TieredPrice sells at the tier of a schedule matching the line quantity.
type TieredPrice struct {
	ScheduleID string
}

func (t TieredPrice) UnitPrice(p *catalog.Product, quantity int) types.Money {
	s, ok := ScheduleByID(t.ScheduleID)
	if !ok {
		return p.SellPrice
	}
	return s.PriceFor(quantity, p.SellPrice)
}
func (TieredPrice) Kind() PriceKind { return KindTiered }
func (TieredPrice) sealed()         {}

// Tier is one breakpoint of a schedule.
type Tier struct {
	MinQuantity int
	Price       types.Money
}

// Schedule is a step function from quantity to unit price. The whole
// quantity is priced at the single highest tier it reaches; below the lowest
// tier the product's own price applies.
type Schedule struct {
	ID string
	// Tiers are ordered by MinQuantity, highest first.
	Tiers []Tier
}

// PriceFor returns the unit price for quantity. Breakpoints are inclusive.
func (s Schedule) PriceFor(quantity int, base types.Money) types.Money {
	for _, t := range s.Tiers {
		if quantity >= t.MinQuantity {
			return t.Price
		}
	}
	return base
}

// PhotocopyScheduleID identifies the per-sheet photocopy schedule.
const PhotocopyScheduleID = "photocopy"

// PhotocopySchedule prices photocopy sheets.
var PhotocopySchedule = Schedule{
	ID: PhotocopyScheduleID,
	Tiers: []Tier{
		{MinQuantity: 1000, Price: types.NewMoneyFromInt(260)},
		{MinQuantity: 400, Price: types.NewMoneyFromInt(275)},
		{MinQuantity: 150, Price: types.NewMoneyFromInt(285)},
	},
}

// ScheduleByID resolves a tier schedule.
func ScheduleByID(scheduleID string) (Schedule, bool) {
	if scheduleID == PhotocopyScheduleID {
		return PhotocopySchedule, true
	}
	return Schedule{}, false
}

// pricingFor chooses the pricing variant for a product and optional price.
func pricingFor(p *catalog.Product, price *types.Money) Pricing {
	switch {
	case price != nil:
		return OverridePrice{Price: *price}
	case p.IsPhotocopy:
		return TieredPrice{ScheduleID: PhotocopyScheduleID}
	default:
		return BasePrice{}
	}
}
