// Package memory provides an in-process store with the same contracts as the
// postgres storage. It backs local runs without a database and the tests of
// the domain packages.
package memory

import (
	"context"
	"maps"
	"sync"

	"warungpos/internal/core/tx"
	"warungpos/internal/domain/catalog"
	"warungpos/internal/domain/receipt"
)

// Table names reported to change listeners.
const (
	TableProducts = "products"
	TableReceipts = "receipts"
)

// Store holds products and receipts.
//
// Writes run one transaction at a time. A transaction that fails is undone
// by restoring the state captured when it began.
type Store struct {
	// txMu serializes writers, mu guards the data.
	txMu sync.Mutex
	mu   sync.RWMutex

	products     map[string]catalog.Product
	headers      map[string]receipt.Header
	items        map[string][]receipt.ItemRow
	productOrder []string

	listenersMu sync.RWMutex
	listeners   []func(table string)
}

// New creates an empty store.
func New() *Store {
	return &Store{
		products: make(map[string]catalog.Product),
		headers:  make(map[string]receipt.Header),
		items:    make(map[string][]receipt.ItemRow),
	}
}

// OnChange registers a callback run after every committed write with the
// table it touched.
func (s *Store) OnChange(fn func(table string)) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify(tables map[string]struct{}) {
	s.listenersMu.RLock()
	listeners := append([]func(string){}, s.listeners...)
	s.listenersMu.RUnlock()

	for table := range tables {
		for _, fn := range listeners {
			fn(table)
		}
	}
}

// TxManager returns a tx.Manager over the store.
func (s *Store) TxManager() tx.Manager {
	return txManager{s}
}

// Products returns the product repository.
func (s *Store) Products() *ProductRepo {
	return &ProductRepo{s}
}

// Receipts returns the receipt repository.
func (s *Store) Receipts() *ReceiptRepo {
	return &ReceiptRepo{s}
}

type txKey struct{}

type txState struct {
	touched map[string]struct{}
}

func currentTx(ctx context.Context) *txState {
	st, _ := ctx.Value(txKey{}).(*txState)
	return st
}

type snapshot struct {
	products     map[string]catalog.Product
	headers      map[string]receipt.Header
	items        map[string][]receipt.ItemRow
	productOrder []string
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		products:     maps.Clone(s.products),
		headers:      maps.Clone(s.headers),
		items:        maps.Clone(s.items),
		productOrder: append([]string(nil), s.productOrder...),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = snap.products
	s.headers = snap.headers
	s.items = snap.items
	s.productOrder = snap.productOrder
}

type txManager struct {
	s *Store
}

// RunInTransaction implements tx.Manager.
func (m txManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if currentTx(ctx) != nil {
		return fn(ctx)
	}

	s := m.s
	s.txMu.Lock()
	snap := s.snapshot()
	st := &txState{touched: make(map[string]struct{})}

	err := fn(context.WithValue(ctx, txKey{}, st))
	if err != nil {
		s.restore(snap)
		s.txMu.Unlock()
		return err
	}
	s.txMu.Unlock()

	s.notify(st.touched)
	return nil
}

// write runs fn under the data lock. Outside a transaction it also takes the
// writer lock so it cannot interleave with a transaction that may roll back.
func (s *Store) write(ctx context.Context, table string, fn func() error) error {
	if st := currentTx(ctx); st != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := fn(); err != nil {
			return err
		}
		st.touched[table] = struct{}{}
		return nil
	}

	s.txMu.Lock()
	s.mu.Lock()
	err := fn()
	s.mu.Unlock()
	s.txMu.Unlock()
	if err != nil {
		return err
	}
	s.notify(map[string]struct{}{table: {}})
	return nil
}

var _ tx.Manager = txManager{}
