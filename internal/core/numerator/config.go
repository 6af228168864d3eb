// Package numerator provides domain contracts for invoice numbering.
package numerator

import (
	"fmt"
	"time"
)

// Invoice prefixes.
const (
	PrefixSale   = "INV"
	PrefixManual = "MNL"
)

// Strategy defines how the unique part of a number is produced.
type Strategy int

const (
	// StrategyOptimistic combines the low digits of a millisecond clock with a
	// random pad. Needs no coordination; callers retry on a uniqueness violation.
	StrategyOptimistic Strategy = iota

	// StrategySequence draws from a per-prefix, per-day counter in the database.
	// Gap-free and collision-free, at the cost of a round trip per number.
	StrategySequence
)

// ParseStrategy maps a configuration value ("optimistic" or "sequence") to a
// Strategy. Empty means optimistic.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "", "optimistic":
		return StrategyOptimistic, nil
	case "sequence":
		return StrategySequence, nil
	}
	return StrategyOptimistic, fmt.Errorf("unknown numbering strategy %q", s)
}

// Options configuration for number generation.
type Options struct {
	Strategy Strategy
}

// DefaultOptions returns standard options (Optimistic).
func DefaultOptions() *Options {
	return &Options{Strategy: StrategyOptimistic}
}

// Config holds numbering configuration.
//
// A number is rendered as {Prefix}-{unique}{date}, where unique is
// TimestampDigits clock digits followed by RandomDigits random digits
// (or a SequenceWidth-wide counter) and date is DateLayout applied in Location.
type Config struct {
	Prefix          string
	TimestampDigits int
	RandomDigits    int
	SequenceWidth   int
	DateLayout      string
	Location        *time.Location
}

// DefaultConfig returns the ddMMyy layout with a 6+2 digit unique part.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:          prefix,
		TimestampDigits: 6,
		RandomDigits:    2,
		SequenceWidth:   8,
		DateLayout:      "020106",
		Location:        time.Local,
	}
}

// PrefixFor returns the prefix used for POS or manual receipts.
func PrefixFor(manual bool) string {
	if manual {
		return PrefixManual
	}
	return PrefixSale
}
