package receipt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warungpos/internal/core/types"
	"warungpos/internal/domain/cart"
	"warungpos/internal/domain/catalog"
)

func money(v int64) types.Money { return types.NewMoneyFromInt(v) }

func strPtr(s string) *string { return &s }

func header(receiptID string, at time.Time) Header {
	return Header{
		ID:            receiptID,
		CashierID:     "kasir-1",
		InvoiceNumber: receiptID,
		Subtotal:      money(36000),
		Total:         money(36000),
		Profit:        money(6000),
		CreatedAt:     at,
	}
}

func aquaRow(receiptID string) ItemRow {
	return ItemRow{
		ID:          "row-1",
		ReceiptID:   receiptID,
		ProductID:   strPtr("aqua"),
		ProductName: "Aqua",
		Quantity:    6,
		UnitPrice:   money(6000),
		CostPrice:   money(5000),
		TotalPrice:  money(36000),
		Profit:      money(6000),
	}
}

func TestReconstruct_PlaceholderForDeletedProduct(t *testing.T) {
	row := Row{
		Header: header("INV-12345607150126", time.Now()),
		Items:  []StoredItem{{ItemRow: aquaRow("INV-12345607150126")}},
	}

	r := Reconstruct(row)

	require.Len(t, r.Items, 1)
	p := r.Items[0].Product
	assert.Equal(t, catalog.PlaceholderID, p.ID)
	assert.Equal(t, "Aqua", p.Name)
	assert.True(t, p.SellPrice.Equal(money(6000)))
	assert.True(t, p.CostPrice.Equal(money(5000)))
	assert.Equal(t, 0, p.Stock)
	assert.False(t, p.IsPhotocopy)
	assert.False(t, r.IsManual)
}

func TestReconstruct_PriceChangeDoesNotAlterHistory(t *testing.T) {
	current := &catalog.Product{ID: "aqua", Name: "Aqua 600ml", SellPrice: money(7000), CostPrice: money(5500), Stock: 18}
	row := Row{
		Header: header("INV-12345607150126", time.Now()),
		Items:  []StoredItem{{ItemRow: aquaRow("INV-12345607150126"), Product: current}},
	}

	r := Reconstruct(row)

	assert.True(t, r.Total.Equal(money(36000)))
	assert.True(t, r.Profit.Equal(money(6000)))
	it := r.Items[0]
	assert.Equal(t, "Aqua", it.Name)
	assert.True(t, it.UnitPrice.Equal(money(6000)))
	assert.True(t, it.Total.Equal(money(36000)))
	assert.Equal(t, "Aqua 600ml", it.Product.Name)

	totals, err := cart.ComputeTotals([]cart.Line{it.Line()}, types.Zero())
	require.NoError(t, err)
	assert.True(t, totals.Subtotal.Equal(money(36000)))
	assert.True(t, totals.Profit.Equal(money(6000)))
	assert.Equal(t, cart.KindOverride, it.Line().Pricing.Kind())
}

func TestReconstruct_ManualFromPrefix(t *testing.T) {
	r := Reconstruct(Row{Header: header("MNL-00000101150126", time.Now())})
	assert.True(t, r.IsManual)
	assert.Empty(t, r.Items)
}

func TestReconstructAll_NewestFirst(t *testing.T) {
	base := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	rows := []Row{
		{Header: header("INV-A", base)},
		{Header: header("INV-C", base.Add(2*time.Minute))},
		{Header: header("INV-B", base.Add(time.Minute))},
		{Header: header("INV-D", base.Add(2*time.Minute))},
	}

	got := ReconstructAll(rows)

	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"INV-D", "INV-C", "INV-B", "INV-A"}, ids)
}

func TestNewItemRow(t *testing.T) {
	aqua := catalog.Product{ID: "aqua", Name: "Aqua", SellPrice: money(6000), CostPrice: money(5000)}
	fc := catalog.Product{ID: "fc", Name: "Fotokopi", SellPrice: money(300), CostPrice: money(150), IsPhotocopy: true}

	row := NewItemRow("r1", "INV-1", cart.Line{Product: aqua, Quantity: 6, Pricing: cart.BasePrice{}})
	require.NotNil(t, row.ProductID)
	assert.Equal(t, "aqua", *row.ProductID)
	assert.True(t, row.TotalPrice.Equal(money(36000)))
	assert.True(t, row.Profit.Equal(money(6000)))

	row = NewItemRow("r2", "INV-1", cart.Line{Product: fc, Quantity: 200, Pricing: cart.TieredPrice{ScheduleID: cart.PhotocopyScheduleID}})
	assert.Nil(t, row.ProductID)
	assert.True(t, row.UnitPrice.Equal(money(285)))
	assert.True(t, row.TotalPrice.Equal(money(57000)))
}
