package memory

import (
	"context"
	"sort"
	"strings"

	"warungpos/internal/core/apperror"
	"warungpos/internal/domain/catalog"
)

// ProductRepo implements catalog.Repository.
type ProductRepo struct {
	s *Store
}

var _ catalog.Repository = (*ProductRepo)(nil)

// Create implements catalog.Repository.
func (r *ProductRepo) Create(ctx context.Context, p *catalog.Product) error {
	return r.s.write(ctx, TableProducts, func() error {
		if _, ok := r.s.products[p.ID]; ok {
			return apperror.NewDuplicate("product", "id", p.ID)
		}
		if err := r.checkLookupKeys(p); err != nil {
			return err
		}
		r.s.products[p.ID] = *p
		r.s.productOrder = append(r.s.productOrder, p.ID)
		return nil
	})
}

// Update implements catalog.Repository.
func (r *ProductRepo) Update(ctx context.Context, p *catalog.Product) error {
	return r.s.write(ctx, TableProducts, func() error {
		if _, ok := r.s.products[p.ID]; !ok {
			return apperror.NewNotFound("product", p.ID)
		}
		if err := r.checkLookupKeys(p); err != nil {
			return err
		}
		r.s.products[p.ID] = *p
		return nil
	})
}

// checkLookupKeys mirrors the unique barcode and code indexes.
func (r *ProductRepo) checkLookupKeys(p *catalog.Product) error {
	for _, other := range r.s.products {
		if other.ID == p.ID {
			continue
		}
		if p.Barcode != nil && other.Barcode != nil && *p.Barcode == *other.Barcode {
			return apperror.NewDuplicate("product", "barcode", *p.Barcode)
		}
		if p.Code != nil && other.Code != nil && *p.Code == *other.Code {
			return apperror.NewDuplicate("product", "code", *p.Code)
		}
	}
	return nil
}

// Delete implements catalog.Repository.
func (r *ProductRepo) Delete(ctx context.Context, productID string) error {
	return r.s.write(ctx, TableProducts, func() error {
		if _, ok := r.s.products[productID]; !ok {
			return apperror.NewNotFound("product", productID)
		}
		delete(r.s.products, productID)
		for i, pid := range r.s.productOrder {
			if pid == productID {
				r.s.productOrder = append(r.s.productOrder[:i:i], r.s.productOrder[i+1:]...)
				break
			}
		}
		return nil
	})
}

// GetByID implements catalog.Repository.
func (r *ProductRepo) GetByID(_ context.Context, productID string) (*catalog.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	return &p, nil
}

// FindByLookup implements catalog.Repository.
func (r *ProductRepo) FindByLookup(_ context.Context, code string) (*catalog.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, pid := range r.s.productOrder {
		p := r.s.products[pid]
		if (p.Barcode != nil && *p.Barcode == code) || (p.Code != nil && *p.Code == code) {
			return &p, nil
		}
	}
	return nil, apperror.NewNotFound("product", code)
}

// List implements catalog.Repository.
func (r *ProductRepo) List(_ context.Context, filter catalog.ListFilter) ([]*catalog.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]*catalog.Product, 0, len(r.s.products))
	for _, pid := range r.s.productOrder {
		p := r.s.products[pid]
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		if filter.Category != "" && p.CategoryName() != filter.Category {
			continue
		}
		if filter.Photocopy != nil && p.IsPhotocopy != *filter.Photocopy {
			continue
		}
		out = append(out, &p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// DecrementStock implements catalog.Repository.
func (r *ProductRepo) DecrementStock(ctx context.Context, productID string, qty int) (int, error) {
	var left int
	err := r.s.write(ctx, TableProducts, func() error {
		p, ok := r.s.products[productID]
		if !ok {
			return apperror.NewNotFound("product", productID)
		}
		p.Stock -= qty
		r.s.products[productID] = p
		left = p.Stock
		return nil
	})
	return left, err
}
