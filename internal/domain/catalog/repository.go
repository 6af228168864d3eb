package catalog

import "context"

// ListFilter narrows a product listing. Results are ordered by name.
type ListFilter struct {
	// Search matches a substring of the name, case-insensitively.
	Search   string
	Category string
	// Photocopy, when set, keeps only service or only stocked products.
	Photocopy *bool
}

// Repository defines the persistence contract for products.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, productID string) error

	// GetByID returns apperror NotFound when the product does not exist.
	GetByID(ctx context.Context, productID string) (*Product, error)

	// FindByLookup matches code against the barcode or code of a product.
	FindByLookup(ctx context.Context, code string) (*Product, error)

	List(ctx context.Context, filter ListFilter) ([]*Product, error)

	// DecrementStock subtracts qty from the stored stock in one statement and
	// returns the new stock.
	DecrementStock(ctx context.Context, productID string, qty int) (int, error)
}

// Auditor records product changes.
type Auditor interface {
	LogChange(ctx context.Context, entityType, entityID, action string, changes map[string]any) error
}
