package receipt

import (
	"strings"
	"time"

	"warungpos/internal/core/types"
)

// Display is a receipt header formatted for printing.
type Display struct {
	DisplayID string `json:"displayId"`
	DateTime  string `json:"dateTime"`
	ShortDate string `json:"shortDate"`
	ShortTime string `json:"shortTime"`
}

// FormatDisplay formats a receipt the way Indonesian receipts print dates:
// 15/1/2026 and 08.05. The timestamp is shown in loc, or as stored when loc
// is nil.
func FormatDisplay(r Receipt, loc *time.Location) Display {
	ts := r.CreatedAt
	if loc != nil {
		ts = ts.In(loc)
	}
	date := ts.Format("2/1/2006")
	clock := ts.Format("15.04")
	return Display{
		DisplayID: r.ID,
		DateTime:  date + " " + clock,
		ShortDate: date,
		ShortTime: clock,
	}
}

// FormatRupiah renders an amount as Rp36.000. Fractions are rounded to whole
// rupiah.
func FormatRupiah(amount types.Money) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	digits := amount.Round(0).String()

	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return sign + "Rp" + b.String()
}
