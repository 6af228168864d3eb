package cart

import (
	"context"
	"sort"
	"sync"

	"warungpos/internal/core/apperror"
)

// MemoryStore keeps carts in process memory. Carts live until discarded.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string]*Cart
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]*Cart)}
}

func clone(c *Cart) *Cart {
	out := *c
	out.Lines = c.Snapshot()
	return &out
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, cartID string) (*Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.carts[cartID]
	if !ok {
		return nil, apperror.NewNotFound("cart", cartID)
	}
	return clone(c), nil
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, c *Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[c.ID] = clone(c)
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, cartID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, cartID)
	return nil
}

// IDs implements Store.
func (m *MemoryStore) IDs(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.carts))
	for cartID := range m.carts {
		ids = append(ids, cartID)
	}
	sort.Strings(ids)
	return ids, nil
}

var _ Store = (*MemoryStore)(nil)
