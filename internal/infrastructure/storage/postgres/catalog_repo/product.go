// Package catalog_repo provides the PostgreSQL product repository.
package catalog_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"warungpos/internal/core/apperror"
	"warungpos/internal/domain/catalog"
	"warungpos/internal/infrastructure/storage/postgres"
)

const productsTable = "products"

var productColumns = postgres.ExtractDBColumns[catalog.Product]()

// ProductRepo implements catalog.Repository.
type ProductRepo struct {
	txManager *postgres.TxManager
}

var _ catalog.Repository = (*ProductRepo)(nil)

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{txManager: txManager}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *ProductRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create implements catalog.Repository.
func (r *ProductRepo) Create(ctx context.Context, p *catalog.Product) error {
	sql, args, err := r.Builder().
		Insert(productsTable).
		SetMap(postgres.StructToMap(p)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert product: %w", postgres.TranslateError(err, "product", lookupValue(p)))
	}
	return nil
}

// Update implements catalog.Repository.
func (r *ProductRepo) Update(ctx context.Context, p *catalog.Product) error {
	sql, args, err := r.updateQuery(p).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update product: %w", postgres.TranslateError(err, "product", lookupValue(p)))
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", p.ID)
	}
	return nil
}

func (r *ProductRepo) updateQuery(p *catalog.Product) squirrel.UpdateBuilder {
	data := postgres.StructToMap(p)
	delete(data, "id")
	delete(data, "created_at")
	return r.Builder().
		Update(productsTable).
		SetMap(data).
		Where(squirrel.Eq{"id": p.ID})
}

// Delete implements catalog.Repository. Receipt lines keep their
// denormalized copy; the foreign key sets their product_id to NULL.
func (r *ProductRepo) Delete(ctx context.Context, productID string) error {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM products WHERE id = $1`, productID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID)
	}
	return nil
}

// GetByID implements catalog.Repository.
func (r *ProductRepo) GetByID(ctx context.Context, productID string) (*catalog.Product, error) {
	return r.getOne(ctx, squirrel.Eq{"id": productID}, productID)
}

// FindByLookup implements catalog.Repository.
func (r *ProductRepo) FindByLookup(ctx context.Context, code string) (*catalog.Product, error) {
	return r.getOne(ctx, lookupWhere(code), code)
}

func lookupWhere(code string) squirrel.Sqlizer {
	return squirrel.Or{
		squirrel.Eq{"barcode": code},
		squirrel.Eq{"code": code},
	}
}

func (r *ProductRepo) getOne(ctx context.Context, where squirrel.Sqlizer, key string) (*catalog.Product, error) {
	sql, args, err := r.baseSelect().Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p catalog.Product
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", key)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// List implements catalog.Repository.
func (r *ProductRepo) List(ctx context.Context, filter catalog.ListFilter) ([]*catalog.Product, error) {
	sql, args, err := r.listQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var products []*catalog.Product
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &products, sql, args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (r *ProductRepo) baseSelect() squirrel.SelectBuilder {
	return r.Builder().Select(productColumns...).From(productsTable)
}

func (r *ProductRepo) listQuery(filter catalog.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect()
	if s := strings.TrimSpace(filter.Search); s != "" {
		q = q.Where(squirrel.ILike{"name": "%" + s + "%"})
	}
	if filter.Category != "" {
		q = q.Where(squirrel.Eq{"category": filter.Category})
	}
	if filter.Photocopy != nil {
		q = q.Where(squirrel.Eq{"is_photocopy": *filter.Photocopy})
	}
	return q.OrderBy("lower(name)", "id")
}

// DecrementStock implements catalog.Repository. The subtraction happens in
// the UPDATE itself so concurrent sales of one product never lose a write.
func (r *ProductRepo) DecrementStock(ctx context.Context, productID string, qty int) (int, error) {
	sql, args, err := r.decrementQuery(productID, qty).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}

	var stock int
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&stock); err != nil {
		if pgxscan.NotFound(err) {
			return 0, apperror.NewNotFound("product", productID)
		}
		return 0, fmt.Errorf("decrement stock: %w", err)
	}
	return stock, nil
}

func (r *ProductRepo) decrementQuery(productID string, qty int) squirrel.UpdateBuilder {
	return r.Builder().
		Update(productsTable).
		Set("stock", squirrel.Expr("stock - ?", qty)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": productID}).
		Suffix("RETURNING stock")
}

func lookupValue(p *catalog.Product) string {
	switch {
	case p.Barcode != nil:
		return *p.Barcode
	case p.Code != nil:
		return *p.Code
	}
	return p.ID
}
