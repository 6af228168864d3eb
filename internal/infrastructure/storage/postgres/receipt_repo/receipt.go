// Package receipt_repo provides the PostgreSQL receipt repository.
package receipt_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"warungpos/internal/core/apperror"
	"warungpos/internal/core/numerator"
	"warungpos/internal/domain/catalog"
	"warungpos/internal/domain/receipt"
	"warungpos/internal/infrastructure/storage/postgres"
)

const (
	receiptsTable = "receipts"
	itemsTable    = "receipt_items"
)

var headerColumns = postgres.ExtractDBColumns[receipt.Header]()

// ReceiptRepo implements receipt.Repository.
type ReceiptRepo struct {
	txManager *postgres.TxManager
	batch     *postgres.BatchInserter
}

var _ receipt.Repository = (*ReceiptRepo)(nil)

// NewReceiptRepo creates a new receipt repository.
func NewReceiptRepo(txManager *postgres.TxManager) *ReceiptRepo {
	return &ReceiptRepo{
		txManager: txManager,
		batch:     postgres.NewBatchInserter(txManager),
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *ReceiptRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// InsertHeader implements receipt.Repository.
func (r *ReceiptRepo) InsertHeader(ctx context.Context, h *receipt.Header) error {
	sql, args, err := r.Builder().
		Insert(receiptsTable).
		SetMap(postgres.StructToMap(h)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.TranslateError(err, "receipt", h.ID)
	}
	return nil
}

// InsertItems implements receipt.Repository. Inside a transaction the rows
// go through COPY; otherwise one multi-row INSERT is used.
func (r *ReceiptRepo) InsertItems(ctx context.Context, items []receipt.ItemRow) error {
	if len(items) == 0 {
		return nil
	}

	if r.txManager.GetTx(ctx) != nil {
		if _, err := postgres.CopyStructs(ctx, r.batch, itemsTable, items); err != nil {
			return postgres.TranslateError(err, "receipt item", items[0].ReceiptID)
		}
		return nil
	}

	sql, args, err := r.insertItemsQuery(items).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.TranslateError(err, "receipt item", items[0].ReceiptID)
	}
	return nil
}

func (r *ReceiptRepo) insertItemsQuery(items []receipt.ItemRow) squirrel.InsertBuilder {
	columns := postgres.ExtractDBColumns[receipt.ItemRow]()
	q := r.Builder().Insert(itemsTable).Columns(columns...)
	for i := range items {
		q = q.Values(postgres.StructValues(&items[i], columns)...)
	}
	return q
}

// List implements receipt.Repository.
func (r *ReceiptRepo) List(ctx context.Context, filter receipt.ListFilter) ([]receipt.Row, error) {
	sql, args, err := r.listQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var headers []receipt.Header
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &headers, sql, args...); err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	return r.attachItems(ctx, headers)
}

// Get implements receipt.Repository.
func (r *ReceiptRepo) Get(ctx context.Context, receiptID string) (receipt.Row, error) {
	sql, args, err := r.headerSelect().Where(squirrel.Eq{"id": receiptID}).ToSql()
	if err != nil {
		return receipt.Row{}, fmt.Errorf("build query: %w", err)
	}

	var h receipt.Header
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &h, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return receipt.Row{}, apperror.NewNotFound("receipt", receiptID)
		}
		return receipt.Row{}, fmt.Errorf("get receipt: %w", err)
	}

	rows, err := r.attachItems(ctx, []receipt.Header{h})
	if err != nil {
		return receipt.Row{}, err
	}
	return rows[0], nil
}

func (r *ReceiptRepo) headerSelect() squirrel.SelectBuilder {
	return r.Builder().Select(headerColumns...).From(receiptsTable)
}

func (r *ReceiptRepo) listQuery(f receipt.ListFilter) squirrel.SelectBuilder {
	q := r.headerSelect()
	if f.CashierID != "" {
		q = q.Where(squirrel.Eq{"user_id": f.CashierID})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.Lt{"created_at": *f.To})
	}
	if f.Manual != nil {
		pattern := numerator.PrefixManual + "-%"
		if *f.Manual {
			q = q.Where(squirrel.Like{"id": pattern})
		} else {
			q = q.Where(squirrel.NotLike{"id": pattern})
		}
	}
	q = q.OrderBy("created_at DESC", "id DESC")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	return q
}

// itemJoin is a receipt_items row LEFT JOINed to products. The p_ columns
// are NULL when the line has no product or the product was deleted.
type itemJoin struct {
	receipt.ItemRow

	PID          *string             `db:"p_id"`
	PName        *string             `db:"p_name"`
	PCostPrice   decimal.NullDecimal `db:"p_cost_price"`
	PSellPrice   decimal.NullDecimal `db:"p_sell_price"`
	PStock       *int                `db:"p_stock"`
	PCategory    *string             `db:"p_category"`
	PBarcode     *string             `db:"p_barcode"`
	PCode        *string             `db:"p_code"`
	PIsPhotocopy *bool               `db:"p_is_photocopy"`
	PCreatedAt   *time.Time          `db:"p_created_at"`
	PUpdatedAt   *time.Time          `db:"p_updated_at"`
}

func (j itemJoin) stored() receipt.StoredItem {
	item := receipt.StoredItem{ItemRow: j.ItemRow}
	if j.PID == nil {
		return item
	}
	item.Product = &catalog.Product{
		ID:          *j.PID,
		Name:        deref(j.PName),
		CostPrice:   j.PCostPrice.Decimal,
		SellPrice:   j.PSellPrice.Decimal,
		Stock:       deref(j.PStock),
		Category:    j.PCategory,
		Barcode:     j.PBarcode,
		Code:        j.PCode,
		IsPhotocopy: deref(j.PIsPhotocopy),
		CreatedAt:   deref(j.PCreatedAt),
		UpdatedAt:   deref(j.PUpdatedAt),
	}
	return item
}

func (r *ReceiptRepo) itemsQuery(receiptIDs []string) squirrel.SelectBuilder {
	return r.Builder().
		Select(
			"ri.id", "ri.receipt_id", "ri.product_id", "ri.product_name", "ri.quantity",
			"ri.unit_price", "ri.cost_price", "ri.total_price", "ri.profit",
			"p.id AS p_id", "p.name AS p_name", "p.cost_price AS p_cost_price",
			"p.sell_price AS p_sell_price", "p.stock AS p_stock", "p.category AS p_category",
			"p.barcode AS p_barcode", "p.code AS p_code", "p.is_photocopy AS p_is_photocopy",
			"p.created_at AS p_created_at", "p.updated_at AS p_updated_at",
		).
		From(itemsTable+" ri").
		LeftJoin("products p ON p.id = ri.product_id").
		Where("ri.receipt_id = ANY(?)", receiptIDs).
		OrderBy("ri.receipt_id", "ri.id")
}

func (r *ReceiptRepo) attachItems(ctx context.Context, headers []receipt.Header) ([]receipt.Row, error) {
	rows := make([]receipt.Row, len(headers))
	if len(headers) == 0 {
		return rows, nil
	}

	ids := make([]string, len(headers))
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		ids[i] = h.ID
		index[h.ID] = i
		rows[i] = receipt.Row{Header: h}
	}

	sql, args, err := r.itemsQuery(ids).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var joined []itemJoin
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &joined, sql, args...); err != nil {
		return nil, fmt.Errorf("list receipt items: %w", err)
	}
	for _, j := range joined {
		i := index[j.ReceiptID]
		rows[i].Items = append(rows[i].Items, j.stored())
	}
	return rows, nil
}

func deref[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}
