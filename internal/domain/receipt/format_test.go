package receipt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"warungpos/internal/core/types"
)

func TestFormatDisplay(t *testing.T) {
	wib := time.FixedZone("WIB", 7*60*60)
	r := Receipt{ID: "INV-12345607150126", CreatedAt: time.Date(2026, 1, 15, 1, 5, 0, 0, time.UTC)}

	got := FormatDisplay(r, wib)

	assert.Equal(t, Display{
		DisplayID: "INV-12345607150126",
		DateTime:  "15/1/2026 08.05",
		ShortDate: "15/1/2026",
		ShortTime: "08.05",
	}, got)
}

func TestFormatRupiah(t *testing.T) {
	tests := map[string]string{
		"0":          "Rp0",
		"285":        "Rp285",
		"36000":      "Rp36.000",
		"1234567.50": "Rp1.234.568",
		"-57000":     "-Rp57.000",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatRupiah(types.MustMoney(in)), in)
	}
}
