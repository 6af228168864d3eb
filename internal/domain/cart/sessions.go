package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"warungpos/internal/core/apperror"
	appctx "warungpos/internal/core/context"
	"warungpos/internal/core/id"
	"warungpos/pkg/logger"
)

// Store persists carts between requests.
type Store interface {
	// Load returns apperror NotFound for an unknown or expired cart.
	Load(ctx context.Context, cartID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, cartID string) error
	// IDs lists the carts currently held.
	IDs(ctx context.Context) ([]string, error)
}

// Sessions owns the carts of cashier sessions. Every change to a cart goes
// through Update, which serializes changes per cart within this process.
type Sessions struct {
	store Store
	now   func() time.Time

	mu    sync.Mutex
	locks map[string]*cartLock
}

// cartLock is dropped from Sessions.locks once no caller holds or waits on it.
type cartLock struct {
	mu   sync.Mutex
	refs int
}

// NewSessions creates a session service over store.
func NewSessions(store Store) *Sessions {
	return &Sessions{store: store, now: time.Now, locks: make(map[string]*cartLock)}
}

func (s *Sessions) lock(cartID string) func() {
	s.mu.Lock()
	l, ok := s.locks[cartID]
	if !ok {
		l = &cartLock{}
		s.locks[cartID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, cartID)
		}
		s.mu.Unlock()
	}
}

// Open creates an empty cart for the cashier in ctx.
func (s *Sessions) Open(ctx context.Context) (*Cart, error) {
	c := New(id.NewString(), appctx.GetCashierID(ctx), s.now().UTC())
	if err := s.store.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return c, nil
}

// Get returns a cart. A cart opened by another cashier is reported as not found.
func (s *Sessions) Get(ctx context.Context, cartID string) (*Cart, error) {
	c, err := s.store.Load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if !ownedBy(ctx, c) {
		return nil, apperror.NewNotFound("cart", cartID)
	}
	return c, nil
}

// Update loads a cart, applies fn and saves the result. Nothing is saved
// when fn fails.
func (s *Sessions) Update(ctx context.Context, cartID string, fn func(c *Cart) error) (*Cart, error) {
	unlock := s.lock(cartID)
	defer unlock()

	c, err := s.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	c.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return c, nil
}

// Discard destroys a cart. Discarding an unknown cart is not an error.
func (s *Sessions) Discard(ctx context.Context, cartID string) error {
	unlock := s.lock(cartID)
	defer unlock()

	if c, err := s.store.Load(ctx, cartID); err == nil && !ownedBy(ctx, c) {
		return apperror.NewNotFound("cart", cartID)
	}
	if err := s.store.Delete(ctx, cartID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

// Consume runs fn on a cart and destroys the cart when fn succeeds. The cart
// stays locked while fn runs, so a second checkout of the same cart waits and
// then finds it gone.
func (s *Sessions) Consume(ctx context.Context, cartID string, fn func(c *Cart) error) error {
	unlock := s.lock(cartID)
	defer unlock()

	c, err := s.Get(ctx, cartID)
	if err != nil {
		return err
	}
	if err := fn(c); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, cartID); err != nil {
		logger.Warn(ctx, "consumed cart not deleted", "cart_id", cartID, "error", err)
	}
	return nil
}

// ForgetProduct removes a deleted product from every open cart.
func (s *Sessions) ForgetProduct(ctx context.Context, productID string) error {
	ids, err := s.store.IDs(ctx)
	if err != nil {
		return fmt.Errorf("list carts: %w", err)
	}
	for _, cartID := range ids {
		if err := s.forget(ctx, cartID, productID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sessions) forget(ctx context.Context, cartID, productID string) error {
	unlock := s.lock(cartID)
	defer unlock()

	c, err := s.store.Load(ctx, cartID)
	if apperror.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load cart %s: %w", cartID, err)
	}
	if !c.RemoveItem(productID) {
		return nil
	}
	c.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, c); err != nil {
		return fmt.Errorf("save cart %s: %w", cartID, err)
	}
	logger.Debug(ctx, "removed deleted product from cart", "cart_id", cartID, "product_id", productID)
	return nil
}

// ownedBy allows admins and unauthenticated callers into any cart.
func ownedBy(ctx context.Context, c *Cart) bool {
	cashierID := appctx.GetCashierID(ctx)
	return cashierID == "" || c.CashierID == cashierID || appctx.IsAdmin(ctx)
}
