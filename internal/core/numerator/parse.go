package numerator

import (
	"strings"
	"time"
)

// Parts is a decomposed invoice number.
type Parts struct {
	Prefix string
	Unique string
	Date   time.Time
}

// IsManual reports whether the number was issued for a manual receipt.
func (p Parts) IsManual() bool {
	return p.Prefix == PrefixManual
}

// Parse splits a number rendered with cfg. The date is parsed in cfg.Location.
func Parse(number string, cfg Config) (Parts, bool) {
	prefix, rest, ok := strings.Cut(number, "-")
	if !ok || prefix == "" {
		return Parts{}, false
	}
	n := len(cfg.DateLayout)
	if len(rest) <= n {
		return Parts{}, false
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	date, err := time.ParseInLocation(cfg.DateLayout, rest[len(rest)-n:], loc)
	if err != nil {
		return Parts{}, false
	}
	return Parts{Prefix: prefix, Unique: rest[:len(rest)-n], Date: date}, true
}

// HasManualPrefix reports whether number starts with the manual prefix.
func HasManualPrefix(number string) bool {
	return strings.HasPrefix(number, PrefixManual+"-")
}
