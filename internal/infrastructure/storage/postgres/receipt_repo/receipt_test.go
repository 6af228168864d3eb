package receipt_repo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warungpos/internal/core/types"
	"warungpos/internal/domain/catalog"
	"warungpos/internal/domain/receipt"
)

const selectHeaders = "SELECT id, user_id, invoice_number, subtotal, discount, total, profit, payment_method, created_at FROM receipts"

func TestReceiptRepo_ListQuery(t *testing.T) {
	repo := NewReceiptRepo(nil)
	from := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	manual, pos := true, false

	tests := []struct {
		name     string
		filter   receipt.ListFilter
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "All",
			filter:  receipt.ListFilter{},
			wantSQL: selectHeaders + " ORDER BY created_at DESC, id DESC",
		},
		{
			name:     "CashierDayLimit",
			filter:   receipt.ListFilter{CashierID: "c-1", From: &from, To: &to, Limit: 20},
			wantSQL:  selectHeaders + " WHERE user_id = $1 AND created_at >= $2 AND created_at < $3 ORDER BY created_at DESC, id DESC LIMIT 20",
			wantArgs: []any{"c-1", from, to},
		},
		{
			name:     "ManualOnly",
			filter:   receipt.ListFilter{Manual: &manual},
			wantSQL:  selectHeaders + " WHERE id LIKE $1 ORDER BY created_at DESC, id DESC",
			wantArgs: []any{"MNL-%"},
		},
		{
			name:     "PosOnly",
			filter:   receipt.ListFilter{Manual: &pos},
			wantSQL:  selectHeaders + " WHERE id NOT LIKE $1 ORDER BY created_at DESC, id DESC",
			wantArgs: []any{"MNL-%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := repo.listQuery(tt.filter).ToSql()
			require.NoError(t, err)

			assert.Equal(t, tt.wantSQL, sql)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
				return
			}
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestReceiptRepo_ItemsQuery(t *testing.T) {
	repo := NewReceiptRepo(nil)

	sql, args, err := repo.itemsQuery([]string{"INV-1", "INV-2"}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM receipt_items ri LEFT JOIN products p ON p.id = ri.product_id")
	assert.Contains(t, sql, "WHERE ri.receipt_id = ANY($1) ORDER BY ri.receipt_id, ri.id")
	assert.Equal(t, []any{[]string{"INV-1", "INV-2"}}, args)
}

func TestReceiptRepo_InsertItemsQuery(t *testing.T) {
	repo := NewReceiptRepo(nil)
	pid := "p-aqua"
	items := []receipt.ItemRow{
		{ID: "r1", ReceiptID: "INV-1", ProductID: &pid, ProductName: "Aqua", Quantity: 12},
		{ID: "r2", ReceiptID: "INV-1", ProductName: "Fotokopi", Quantity: 400},
	}

	sql, args, err := repo.insertItemsQuery(items).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "INSERT INTO receipt_items (id,receipt_id,product_id,product_name,quantity,unit_price,cost_price,total_price,profit) "+
		"VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9),($10,$11,$12,$13,$14,$15,$16,$17,$18)", sql)
	assert.Len(t, args, 18)
	assert.Equal(t, &pid, args[2])
	assert.Nil(t, args[11])
}

func TestItemJoin_Stored(t *testing.T) {
	pid := "p-aqua"
	row := receipt.ItemRow{ID: "r1", ReceiptID: "INV-1", ProductID: &pid, ProductName: "Aqua", Quantity: 12}

	deleted := itemJoin{ItemRow: row}.stored()
	assert.Nil(t, deleted.Product)

	name, stock := "Aqua 600ml", 28
	live := itemJoin{
		ItemRow:    row,
		PID:        &pid,
		PName:      &name,
		PSellPrice: decimal.NewNullDecimal(types.NewMoneyFromInt(3500)),
		PStock:     &stock,
	}.stored()

	require.NotNil(t, live.Product)
	assert.Equal(t, catalog.Product{
		ID:        "p-aqua",
		Name:      "Aqua 600ml",
		SellPrice: types.NewMoneyFromInt(3500),
		Stock:     28,
	}, *live.Product)
	assert.Equal(t, "Aqua", live.ProductName)
}
