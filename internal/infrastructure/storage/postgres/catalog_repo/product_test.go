package catalog_repo

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warungpos/internal/core/types"
	"warungpos/internal/domain/catalog"
)

const selectProducts = "SELECT id, name, cost_price, sell_price, stock, category, barcode, code, is_photocopy, created_at, updated_at FROM products"

func TestProductRepo_ListQuery(t *testing.T) {
	repo := NewProductRepo(nil)
	yes := true

	tests := []struct {
		name     string
		filter   catalog.ListFilter
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "NoFilter",
			filter:  catalog.ListFilter{},
			wantSQL: selectProducts + " ORDER BY lower(name), id",
		},
		{
			name:     "Search",
			filter:   catalog.ListFilter{Search: "  aqua "},
			wantSQL:  selectProducts + " WHERE name ILIKE $1 ORDER BY lower(name), id",
			wantArgs: []any{"%aqua%"},
		},
		{
			name:     "CategoryAndPhotocopy",
			filter:   catalog.ListFilter{Category: "Kertas", Photocopy: &yes},
			wantSQL:  selectProducts + " WHERE category = $1 AND is_photocopy = $2 ORDER BY lower(name), id",
			wantArgs: []any{"Kertas", true},
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

func TestProductRepo_LookupQuery(t *testing.T) {
	repo := NewProductRepo(nil)

	sql, args, err := repo.baseSelect().Where(lookupWhere("8991002101234")).Limit(1).ToSql()
	require.NoError(t, err)

	assert.Equal(t, selectProducts+" WHERE (barcode = $1 OR code = $2) LIMIT 1", sql)
	assert.Equal(t, []any{"8991002101234", "8991002101234"}, args)
}

func TestProductRepo_DecrementQuery(t *testing.T) {
	repo := NewProductRepo(nil)

	sql, args, err := repo.decrementQuery("p-aqua", 12).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "UPDATE products SET stock = stock - $1, updated_at = now() WHERE id = $2 RETURNING stock", sql)
	assert.Equal(t, []any{12, "p-aqua"}, args)
}

func TestProductRepo_UpdateQuery_KeepsIdentity(t *testing.T) {
	repo := NewProductRepo(nil)
	p := &catalog.Product{
		ID:        "p-aqua",
		Name:      "Aqua 600ml",
		SellPrice: types.NewMoneyFromInt(3000),
		CostPrice: types.NewMoneyFromInt(2500),
		Stock:     40,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
	}

	sql, args, err := repo.updateQuery(p).ToSql()
	require.NoError(t, err)

	set := sql[:strings.Index(sql, " WHERE ")]
	assert.True(t, strings.HasPrefix(sql, "UPDATE products SET "))
	assert.NotContains(t, set, "created_at")
	assert.NotContains(t, set, " id =")
	assert.True(t, strings.HasSuffix(sql, "WHERE id = $10"))
	assert.Equal(t, "p-aqua", args[len(args)-1])
}

func TestLookupValue(t *testing.T) {
	barcode, code := "899", "AQ6"

	assert.Equal(t, "899", lookupValue(&catalog.Product{ID: "p", Barcode: &barcode, Code: &code}))
	assert.Equal(t, "AQ6", lookupValue(&catalog.Product{ID: "p", Code: &code}))
	assert.Equal(t, "p", lookupValue(&catalog.Product{ID: "p"}))
}
