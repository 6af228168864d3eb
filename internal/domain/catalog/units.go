package catalog

import "fmt"

// Unit names.
const (
	UnitPiece  = "pcs"
	UnitPack   = "pax"
	UnitDozen  = "lusin"
	UnitScore  = "kodi"
	UnitGross  = "gros"
	UnitRim    = "rim"
	UnitKarton = "karton"
)

// SheetsPerRim is printed next to rim quantities.
const SheetsPerRim = 500

// UnitOption is a unit a quantity can be entered in.
type UnitOption struct {
	Value      string `json:"value"`
	Label      string `json:"label"`
	Multiplier int    `json:"multiplier"`
}

// UnitConversion is a quantity expressed in a larger unit.
type UnitConversion struct {
	Unit     string `json:"unit"`
	Quantity int    `json:"quantity"`
	Display  string `json:"display"`
}

var (
	paperUnits = []UnitOption{
		{Value: UnitRim, Label: "Rim (500 lembar)", Multiplier: 1},
		{Value: UnitKarton, Label: "Karton (5 rim)", Multiplier: 5},
	}
	pieceUnits = []UnitOption{
		{Value: UnitPiece, Label: "Pcs", Multiplier: 1},
		{Value: UnitPack, Label: "Pax (10 pcs)", Multiplier: 10},
		{Value: UnitDozen, Label: "Lusin (12 pcs)", Multiplier: 12},
		{Value: UnitScore, Label: "Kodi (20 pcs)", Multiplier: 20},
		{Value: UnitGross, Label: "Gros (144 pcs)", Multiplier: 144},
	}
)

// UnitOptions returns the units offered for a category.
func UnitOptions(category string) []UnitOption {
	src := pieceUnits
	if category == CategoryPaper {
		src = paperUnits
	}
	out := make([]UnitOption, len(src))
	copy(out, src)
	return out
}

// UnitMultiplier converts one unit into base quantity. Unknown units count as 1.
// A karton is five rims only for paper.
func UnitMultiplier(unit, category string) int {
	switch unit {
	case UnitPack:
		return 10
	case UnitDozen:
		return 12
	case UnitScore:
		return 20
	case UnitGross:
		return 144
	case UnitKarton:
		if category == CategoryPaper {
			return 5
		}
		return 1
	default:
		return 1
	}
}

// UnitDisplay expresses quantity in the base unit followed by every larger
// unit it fills at least once.
func UnitDisplay(quantity int, category string) []UnitConversion {
	if category == CategoryPaper {
		out := []UnitConversion{{
			Unit:     UnitRim,
			Quantity: quantity,
			Display:  fmt.Sprintf("%d rim (%d lembar)", quantity, quantity*SheetsPerRim),
		}}
		if c, ok := convert(quantity, UnitKarton, 5, UnitRim); ok {
			out = append(out, c)
		}
		return out
	}

	out := []UnitConversion{{
		Unit:     UnitPiece,
		Quantity: quantity,
		Display:  fmt.Sprintf("%d pcs", quantity),
	}}
	for _, u := range pieceUnits[1:] {
		if c, ok := convert(quantity, u.Value, u.Multiplier, UnitPiece); ok {
			out = append(out, c)
		}
	}
	return out
}

func convert(quantity int, unit string, size int, base string) (UnitConversion, bool) {
	whole := quantity / size
	if whole < 1 {
		return UnitConversion{}, false
	}
	display := fmt.Sprintf("%d %s", whole, unit)
	if rem := quantity % size; rem > 0 {
		display = fmt.Sprintf("%s + %d %s", display, rem, base)
	}
	return UnitConversion{Unit: unit, Quantity: whole, Display: display}, true
}
