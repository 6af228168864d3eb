package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"warungpos/internal/core/apperror"
	"warungpos/internal/core/id"
	"warungpos/internal/core/tx"
	"warungpos/internal/domain"
	"warungpos/pkg/logger"
)

const entityName = "product"

// Audit actions.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Service provides business logic for the product catalog.
type Service struct {
	repo      Repository
	txManager tx.Manager
	hooks     *domain.HookRegistry[*Product]
	auditor   Auditor
	now       func() time.Time
}

// NewService creates a catalog service. A nil txManager runs writes directly.
func NewService(repo Repository, txManager tx.Manager) *Service {
	if txManager == nil {
		txManager = tx.Nop{}
	}
	return &Service{
		repo:      repo,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*Product](),
		now:       time.Now,
	}
}

// WithAuditor enables the change log. Entries are written in the same
// transaction as the change.
func (s *Service) WithAuditor(a Auditor) *Service {
	s.auditor = a
	return s
}

// Hooks returns the hook registry for external registration.
func (s *Service) Hooks() *domain.HookRegistry[*Product] {
	return s.hooks
}

// Create validates and stores a new product.
func (s *Service) Create(ctx context.Context, p *Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = id.NewString()
	}
	now := s.now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	if err := s.hooks.Run(ctx, domain.BeforeCreate, p); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create %s: %w", entityName, err)
		}
		return s.audit(ctx, ActionCreate, nil, p)
	})
	if err != nil {
		return err
	}

	s.runAfter(ctx, domain.AfterCreate, p)
	return nil
}

// Update applies patch to an existing product.
func (s *Service) Update(ctx context.Context, productID string, patch Patch) (*Product, error) {
	var updated *Product
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, productID)
		if err != nil {
			return normalizeGetErr(err, productID)
		}
		before := *current
		patch.Apply(current)
		current.Name = strings.TrimSpace(current.Name)
		if err := current.Validate(); err != nil {
			return err
		}
		current.UpdatedAt = s.now().UTC()

		if err := s.hooks.Run(ctx, domain.BeforeUpdate, current); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, current); err != nil {
			return fmt.Errorf("update %s: %w", entityName, err)
		}
		if err := s.audit(ctx, ActionUpdate, &before, current); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.runAfter(ctx, domain.AfterUpdate, updated)
	return updated, nil
}

// Delete removes a product. Receipts keep their denormalized copy of it.
func (s *Service) Delete(ctx context.Context, productID string) error {
	var deleted *Product
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, productID)
		if err != nil {
			return normalizeGetErr(err, productID)
		}
		if err := s.hooks.Run(ctx, domain.BeforeDelete, current); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, productID); err != nil {
			return fmt.Errorf("delete %s: %w", entityName, err)
		}
		if err := s.audit(ctx, ActionDelete, current, nil); err != nil {
			return err
		}
		deleted = current
		return nil
	})
	if err != nil {
		return err
	}

	s.runAfter(ctx, domain.AfterDelete, deleted)
	return nil
}

// Get retrieves a product by id.
func (s *Service) Get(ctx context.Context, productID string) (*Product, error) {
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return nil, normalizeGetErr(err, productID)
	}
	return p, nil
}

// List returns products ordered by name.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Product, error) {
	return s.repo.List(ctx, filter)
}

// Lookup resolves scanner or keyboard input to a product by barcode or code.
func (s *Service) Lookup(ctx context.Context, code string) (*Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperror.NewValidation("code is required").WithDetail("field", "code")
	}
	p, err := s.repo.FindByLookup(ctx, code)
	if err != nil {
		return nil, normalizeGetErr(err, code)
	}
	return p, nil
}

func (s *Service) runAfter(ctx context.Context, event domain.HookEvent, p *Product) {
	// The change is already committed; hook failures are only reported.
	if err := s.hooks.Run(ctx, event, p); err != nil {
		logger.Warn(ctx, "catalog hook failed",
			"event", string(event),
			"product_id", p.ID,
			"error", err,
		)
	}
}

func (s *Service) audit(ctx context.Context, action string, before, after *Product) error {
	if s.auditor == nil {
		return nil
	}
	entityID := ""
	switch {
	case after != nil:
		entityID = after.ID
	case before != nil:
		entityID = before.ID
	}
	if err := s.auditor.LogChange(ctx, entityName, entityID, action, Diff(before, after)); err != nil {
		return fmt.Errorf("audit %s: %w", entityName, err)
	}
	return nil
}

func normalizeGetErr(err error, key string) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(entityName, key)
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", entityName).WithDetail("id", key)
}
