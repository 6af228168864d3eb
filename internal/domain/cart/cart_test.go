package cart

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warungpos/internal/core/apperror"
	"warungpos/internal/core/types"
	"warungpos/internal/domain/catalog"
)

func money(v int64) types.Money { return types.NewMoneyFromInt(v) }

func moneyPtr(v int64) *types.Money {
	m := money(v)
	return &m
}

func aqua() *catalog.Product {
	return &catalog.Product{ID: "aqua", Name: "Aqua", SellPrice: money(6000), CostPrice: money(5000), Stock: 48}
}

func photocopy() *catalog.Product {
	return &catalog.Product{ID: "fc", Name: "Fotokopi A4", SellPrice: money(300), CostPrice: money(150), IsPhotocopy: true}
}

func newCart() *Cart {
	return New("cart-1", "kasir-1", time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC))
}

func TestPhotocopyTierBoundaries(t *testing.T) {
	tests := []struct {
		qty  int
		want int64
	}{
		{1, 300},
		{149, 300},
		{150, 285},
		{399, 285},
		{400, 275},
		{999, 275},
		{1000, 260},
		{5000, 260},
	}
	for _, tt := range tests {
		c := newCart()
		c.AddItem(photocopy(), tt.qty, nil)

		line := c.Lines[0]
		assert.Equal(t, KindTiered, line.Pricing.Kind())
		assert.True(t, line.UnitPrice().Equal(money(tt.want)), "qty %d: got %s", tt.qty, line.UnitPrice())
		assert.True(t, line.Amount().Equal(money(tt.want*int64(tt.qty))), "qty %d", tt.qty)
	}
}

func TestAddItem_MergesAndReplacesPriceOnlyWhenGiven(t *testing.T) {
	c := newCart()
	c.AddItem(aqua(), 2, moneyPtr(5500))
	c.AddItem(aqua(), 3, nil)

	require.Len(t, c.Lines, 1)
	assert.Equal(t, 5, c.Lines[0].Quantity)
	assert.True(t, c.Lines[0].UnitPrice().Equal(money(5500)))

	c.AddItem(aqua(), 1, moneyPtr(5800))
	assert.Equal(t, 6, c.Lines[0].Quantity)
	assert.True(t, c.Lines[0].FinalPrice().Equal(money(5800)))
}

func TestAddItem_NonPositiveQuantityIsNoop(t *testing.T) {
	c := newCart()
	c.AddItem(aqua(), 0, nil)
	c.AddItem(aqua(), -2, nil)
	assert.True(t, c.IsEmpty())

	c.AddItem(aqua(), 1, nil)
	c.AddItem(aqua(), -1, nil)
	assert.Equal(t, 1, c.Lines[0].Quantity)
}

func TestOverrideBeatsTier(t *testing.T) {
	c := newCart()
	c.AddItem(photocopy(), 1000, moneyPtr(250))

	assert.Equal(t, KindOverride, c.Lines[0].Pricing.Kind())
	assert.True(t, c.Lines[0].UnitPrice().Equal(money(250)))
}

func TestMergedPhotocopyLineRepricesAtNewQuantity(t *testing.T) {
	c := newCart()
	c.AddItem(photocopy(), 100, nil)
	c.AddItem(photocopy(), 100, nil)

	assert.True(t, c.Lines[0].UnitPrice().Equal(money(285)))
}

func TestUpdateQuantity(t *testing.T) {
	c := newCart()
	c.AddItem(aqua(), 2, moneyPtr(5500))

	found, err := c.UpdateQuantity("aqua", 4, nil)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 4, c.Lines[0].Quantity)
	assert.True(t, c.Lines[0].UnitPrice().Equal(money(5500)), "override kept when price omitted")

	found, err = c.UpdateQuantity("aqua", 4, moneyPtr(6000))
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, c.Lines[0].UnitPrice().Equal(money(6000)))

	found, err = c.UpdateQuantity("missing", 1, nil)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUpdateQuantityZeroEqualsRemove(t *testing.T) {
	viaUpdate, viaRemove := newCart(), newCart()
	for _, c := range []*Cart{viaUpdate, viaRemove} {
		c.AddItem(aqua(), 2, nil)
		c.AddItem(photocopy(), 10, nil)
	}

	found, err := viaUpdate.UpdateQuantity("aqua", 0, nil)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, viaRemove.RemoveItem("aqua"))

	assert.Equal(t, viaRemove.Lines, viaUpdate.Lines)
	require.Len(t, viaUpdate.Lines, 1)
	assert.Equal(t, "fc", viaUpdate.Lines[0].Product.ID)
	assert.False(t, viaUpdate.RemoveItem("aqua"))
}

func TestComputeTotals(t *testing.T) {
	c := newCart()
	c.AddItem(aqua(), 6, nil)
	c.AddItem(photocopy(), 200, nil)

	totals, err := c.ComputeTotals(money(1000))
	require.NoError(t, err)

	// 36000 + 57000
	assert.True(t, totals.Subtotal.Equal(money(93000)))
	assert.True(t, totals.Total.Equal(money(92000)))
	// 6000 + (285-150)*200
	assert.True(t, totals.Profit.Equal(money(33000)))
	assert.True(t, totals.Discount.Equal(money(1000)))
}

func TestComputeTotals_IsPure(t *testing.T) {
	c := newCart()
	c.AddItem(aqua(), 3, moneyPtr(5750))
	c.AddItem(photocopy(), 420, nil)

	first, err := c.ComputeTotals(money(500))
	require.NoError(t, err)
	second, err := c.ComputeTotals(money(500))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeTotals_RejectsBadDiscount(t *testing.T) {
	c := newCart()
	c.AddItem(aqua(), 1, nil)

	_, err := c.ComputeTotals(money(6001))
	assert.True(t, apperror.IsValidation(err))

	_, err = c.ComputeTotals(money(-1))
	assert.True(t, apperror.IsValidation(err))

	totals, err := c.ComputeTotals(money(6000))
	require.NoError(t, err)
	assert.True(t, totals.Total.IsZero())

	empty, err := newCart().ComputeTotals(types.Zero())
	require.NoError(t, err)
	assert.True(t, empty.Subtotal.IsZero())
}

func TestAddWithTotal(t *testing.T) {
	c := newCart()
	require.NoError(t, c.AddWithTotal(photocopy(), 3, money(1000)))

	line := c.Lines[0]
	assert.Equal(t, KindOverride, line.Pricing.Kind())
	assert.True(t, line.Amount().Equal(money(1000)), "got %s", line.Amount())

	err := c.AddWithTotal(photocopy(), 1, money(-5))
	assert.True(t, apperror.IsValidation(err))
}

func TestAddWithTotal_StoredUnitPriceIsRounded(t *testing.T) {
	c := newCart()
	require.NoError(t, c.AddWithTotal(photocopy(), 3, money(10000)))

	line := c.Lines[0]
	assert.Equal(t, "3333.33", line.StoredUnitPrice().StringFixed(2))
	assert.True(t, line.StoredUnitPrice().Equal(types.MustMoney("3333.33")))
	assert.True(t, line.Amount().Equal(money(10000)), "line total stays exact")
}

func TestNegativePriceIsRejected(t *testing.T) {
	c := newCart()
	err := c.AddItem(photocopy(), 1, moneyPtr(-4000))
	assert.True(t, apperror.IsValidation(err))
	assert.True(t, c.IsEmpty())

	require.NoError(t, c.AddItem(aqua(), 1, nil))
	found, err := c.UpdateQuantity("aqua", 2, moneyPtr(-1))
	assert.True(t, found)
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, 1, c.Lines[0].Quantity)
	assert.Nil(t, c.Lines[0].FinalPrice())
}

func TestQuantityIsCapped(t *testing.T) {
	c := newCart()
	require.NoError(t, c.AddItem(aqua(), MaxQuantity, nil))

	err := c.AddItem(aqua(), 1, nil)
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, MaxQuantity, c.Lines[0].Quantity)

	err = c.AddItem(photocopy(), math.MaxInt, nil)
	assert.True(t, apperror.IsValidation(err))
	assert.Len(t, c.Lines, 1)

	_, err = c.UpdateQuantity("aqua", MaxQuantity+1, nil)
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, MaxQuantity, c.Lines[0].Quantity)
}

func TestLineValidate(t *testing.T) {
	tests := []struct {
		name string
		line Line
		ok   bool
	}{
		{"Base", Line{Product: *aqua(), Quantity: 1, Pricing: BasePrice{}}, true},
		{"ZeroQuantity", Line{Product: *aqua(), Quantity: 0, Pricing: BasePrice{}}, false},
		{"TooMany", Line{Product: *aqua(), Quantity: MaxQuantity + 1, Pricing: BasePrice{}}, false},
		{"NegativeOverride", Line{Product: *aqua(), Quantity: 1, Pricing: OverridePrice{Price: money(-1)}}, false},
		{"NegativeCost", Line{Product: catalog.Product{ID: "x", CostPrice: money(-1)}, Quantity: 1, Pricing: OverridePrice{Price: money(1)}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.line.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperror.IsValidation(err))
		})
	}
}

func TestClearAndSnapshot(t *testing.T) {
	c := newCart()
	c.AddItem(aqua(), 1, nil)

	snap := c.Snapshot()
	_, err := c.UpdateQuantity("aqua", 9, nil)
	require.NoError(t, err)
	c.Clear()

	assert.True(t, c.IsEmpty())
	require.Len(t, snap, 1)
	assert.Equal(t, 1, snap[0].Quantity)
}

func TestLineJSONRoundTripKeepsPricingVariant(t *testing.T) {
	c := newCart()
	c.AddItem(aqua(), 1, nil)
	c.AddItem(photocopy(), 150, nil)
	c.AddItem(&catalog.Product{ID: "map", Name: "Map", SellPrice: money(3000)}, 2, moneyPtr(2500))

	data, err := json.Marshal(c)
	require.NoError(t, err)

	var got Cart
	require.NoError(t, json.Unmarshal(data, &got))

	require.Len(t, got.Lines, 3)
	assert.Equal(t, BasePrice{}, got.Lines[0].Pricing)
	assert.Equal(t, TieredPrice{ScheduleID: PhotocopyScheduleID}, got.Lines[1].Pricing)
	assert.True(t, got.Lines[2].FinalPrice().Equal(money(2500)))
	assert.Equal(t, "cart-1", got.ID)

	var bad Line
	assert.Error(t, json.Unmarshal([]byte(`{"priceKind":"bogus"}`), &bad))
}
