package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"warungpos/internal/domain/catalog"
	"warungpos/internal/domain/receipt"
	"warungpos/pkg/logger"
)

// Tables a change notification can refer to. Postgres channels carry a
// "_changes" suffix; the memory store reports the bare table name.
const (
	tableProducts = "products"
	tableReceipts = "receipts"
)

// Mirror keeps an in-process copy of the catalog and of the recent receipt
// history. It reloads a table whenever its change notification arrives, so
// receipts prepended optimistically after a commit are replaced by the
// authoritative listing on the next reload.
type Mirror struct {
	products     catalog.Repository
	receipts     receipt.Repository
	history      *receipt.History
	historyLimit int

	mu      sync.RWMutex
	catalog []*catalog.Product

	pendingMu sync.Mutex
	pending   map[string]struct{}
	wake      chan struct{}

	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// NewMirror creates a mirror that fills history with up to historyLimit
// receipts.
func NewMirror(products catalog.Repository, receipts receipt.Repository, history *receipt.History, historyLimit int) *Mirror {
	return &Mirror{
		products:     products,
		receipts:     receipts,
		history:      history,
		historyLimit: historyLimit,
		pending:      make(map[string]struct{}),
		wake:         make(chan struct{}, 1),
	}
}

// Start loads both tables and begins processing notifications.
func (m *Mirror) Start(ctx context.Context) error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()
	if m.started {
		return nil
	}

	if err := m.ReloadProducts(ctx); err != nil {
		return err
	}
	if err := m.ReloadReceipts(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel
	m.started = true
	m.wg.Add(1)
	go m.loop(runCtx)

	logger.Info(ctx, "mirror started", "products", len(m.Products()), "receipts", m.history.Len())
	return nil
}

// Stop waits for an in-flight reload to finish.
func (m *Mirror) Stop() {
	m.lifecycleMu.Lock()
	if !m.started {
		m.lifecycleMu.Unlock()
		return
	}
	cancel := m.cancel
	m.started = false
	m.cancel = nil
	m.lifecycleMu.Unlock()

	cancel()
	m.wg.Wait()
}

// Notify marks the table named by source as stale. It never blocks; bursts
// of notifications for one table collapse into a single reload.
func (m *Mirror) Notify(source string) {
	table := strings.TrimSuffix(source, "_changes")
	if table != tableProducts && table != tableReceipts {
		return
	}

	m.pendingMu.Lock()
	m.pending[table] = struct{}{}
	m.pendingMu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// HandleNotification adapts Notify to PGListener.
func (m *Mirror) HandleNotification(channel, _ string) {
	m.Notify(channel)
}

func (m *Mirror) loop(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.wake:
		}

		m.pendingMu.Lock()
		tables := m.pending
		m.pending = make(map[string]struct{})
		m.pendingMu.Unlock()

		for table := range tables {
			if err := m.reload(ctx, table); err != nil {
				logger.Error(ctx, "mirror reload failed", "table", table, "error", err)
			}
		}
	}
}

func (m *Mirror) reload(ctx context.Context, table string) error {
	if table == tableProducts {
		return m.ReloadProducts(ctx)
	}
	return m.ReloadReceipts(ctx)
}

// ReloadProducts replaces the catalog copy.
func (m *Mirror) ReloadProducts(ctx context.Context) error {
	products, err := m.products.List(ctx, catalog.ListFilter{})
	if err != nil {
		return fmt.Errorf("reload products: %w", err)
	}

	m.mu.Lock()
	m.catalog = products
	m.mu.Unlock()

	logger.Debug(ctx, "mirror reloaded products", "count", len(products))
	return nil
}

// ReloadReceipts replaces the history with the newest stored receipts.
func (m *Mirror) ReloadReceipts(ctx context.Context) error {
	rows, err := m.receipts.List(ctx, receipt.ListFilter{Limit: m.historyLimit})
	if err != nil {
		return fmt.Errorf("reload receipts: %w", err)
	}
	m.history.Replace(receipt.ReconstructAll(rows))

	logger.Debug(ctx, "mirror reloaded receipts", "count", len(rows))
	return nil
}

// Products returns the mirrored catalog ordered by name. The products are
// copies and may be modified by the caller.
func (m *Mirror) Products() []*catalog.Product {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*catalog.Product, len(m.catalog))
	for i, p := range m.catalog {
		cp := *p
		out[i] = &cp
	}
	return out
}
