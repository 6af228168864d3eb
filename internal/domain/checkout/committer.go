// Package checkout turns cart snapshots into committed receipts.
package checkout

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"warungpos/internal/core/apperror"
	"warungpos/internal/core/id"
	"warungpos/internal/core/numerator"
	"warungpos/internal/core/tx"
	"warungpos/internal/core/types"
	"warungpos/internal/domain/cart"
	"warungpos/internal/domain/catalog"
	"warungpos/internal/domain/receipt"
	"warungpos/pkg/logger"
)

// StockAdjuster decrements product stock.
type StockAdjuster interface {
	DecrementStock(ctx context.Context, productID string, qty int) (int, error)
}

// Request is a sale to commit.
type Request struct {
	// CartID keys the single-flight guard. Concurrent commits of the same cart
	// share one result. Empty disables the guard.
	CartID string

	Lines         []cart.Line
	Discount      types.Money
	PaymentMethod *string

	// Manual marks an invoice entered by hand: MNL prefix, no stock changes.
	Manual bool
	// Timestamp is the sale time of a manual invoice. Zero means now.
	Timestamp time.Time

	CashierID string
}

// Config tunes the committer.
type Config struct {
	MaxAttempts int
	// BackoffStep is multiplied by the attempt number between attempts.
	BackoffStep   time.Duration
	StockPolicy   StockPolicy
	Location      *time.Location
	NumberOptions *numerator.Options
}

// DefaultConfig returns 5 attempts with a 50ms linear backoff.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 5,
		BackoffStep: 50 * time.Millisecond,
		StockPolicy: AllowNegative,
		Location:    time.Local,
	}
}

// Deps are the collaborators of a Committer.
type Deps struct {
	TxManager tx.Manager
	Receipts  receipt.Repository
	Stock     StockAdjuster
	Numbers   numerator.Generator
	// History, when set, receives every committed receipt.
	History *receipt.History
}

// Committer persists a receipt, its items and the stock changes of one sale.
// Each attempt runs in a single transaction, so a failed attempt leaves
// nothing behind. A taken invoice number is retried with a fresh number.
type Committer struct {
	deps     Deps
	cfg      Config
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
	newRowID func() string
	observer Observer
	group    singleflight.Group
	tracer   trace.Tracer
}

// NewCommitter creates a committer. Zero fields of cfg take defaults.
func NewCommitter(deps Deps, cfg Config) *Committer {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BackoffStep < 0 {
		cfg.BackoffStep = 0
	}
	if cfg.StockPolicy == "" {
		cfg.StockPolicy = def.StockPolicy
	}
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	if deps.TxManager == nil {
		deps.TxManager = tx.Nop{}
	}
	return &Committer{
		deps:     deps,
		cfg:      cfg,
		now:      time.Now,
		sleep:    sleepCtx,
		newRowID: id.NewString,
		tracer:   otel.Tracer("warungpos/checkout"),
	}
}

// WithClock replaces the clock used for receipt timestamps.
func (c *Committer) WithClock(now func() time.Time) *Committer {
	c.now = now
	return c
}

// WithSleep replaces the backoff sleep.
func (c *Committer) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *Committer {
	c.sleep = sleep
	return c
}

// WithObserver registers a state change callback.
func (c *Committer) WithObserver(o Observer) *Committer {
	c.observer = o
	return c
}

// Commit validates and persists a sale.
//
// Errors are either Validation (the cart must change), InsufficientStock
// under RejectNegative, or CommitFailed (the same cart may be submitted
// again and will get a new number).
func (c *Committer) Commit(ctx context.Context, req Request) (receipt.Receipt, error) {
	if req.CartID == "" {
		return c.commit(ctx, req)
	}
	v, err, shared := c.group.Do(req.CartID, func() (any, error) {
		return c.commit(ctx, req)
	})
	if shared {
		logger.Debug(ctx, "commit shared with in-flight request", "cart_id", req.CartID)
	}
	if err != nil {
		return receipt.Receipt{}, err
	}
	return v.(receipt.Receipt), nil
}

type run struct {
	c       *Committer
	cartID  string
	attempt int
	state   State
	number  string
}

func (r *run) to(next State) {
	prev := r.state
	r.state = next
	if r.c.observer != nil {
		r.c.observer(Transition{
			CartID:    r.cartID,
			Attempt:   r.attempt,
			From:      prev,
			To:        next,
			InvoiceID: r.number,
		})
	}
}

func (c *Committer) commit(ctx context.Context, req Request) (receipt.Receipt, error) {
	if len(req.Lines) == 0 {
		return receipt.Receipt{}, apperror.NewValidation("cart is empty")
	}
	for _, l := range req.Lines {
		if err := l.Validate(); err != nil {
			return receipt.Receipt{}, err
		}
	}
	totals, err := cart.ComputeTotals(req.Lines, req.Discount)
	if err != nil {
		return receipt.Receipt{}, err
	}

	ctx, span := c.tracer.Start(ctx, "checkout.commit",
		trace.WithAttributes(
			attribute.String("cart.id", req.CartID),
			attribute.Bool("receipt.manual", req.Manual),
			attribute.Int("receipt.lines", len(req.Lines)),
		),
	)
	defer span.End()

	now := c.now()
	createdAt := now.UTC()
	if req.Manual && !req.Timestamp.IsZero() {
		createdAt = req.Timestamp.UTC()
	}
	numCfg := numerator.DefaultConfig(numerator.PrefixFor(req.Manual))
	numCfg.Location = c.cfg.Location

	r := &run{c: c, cartID: req.CartID, state: Idle}
	var lastErr error

	for r.attempt = 1; r.attempt <= c.cfg.MaxAttempts; r.attempt++ {
		r.number = ""
		r.to(GeneratingID)

		number, err := c.deps.Numbers.GetNextNumber(ctx, numCfg, c.cfg.NumberOptions, now)
		if err != nil {
			return c.fail(ctx, span, r, apperror.NewCommitFailed("could not generate invoice number", err))
		}
		r.number = number

		header := receipt.Header{
			ID:            number,
			CashierID:     req.CashierID,
			InvoiceNumber: number,
			Subtotal:      totals.Subtotal,
			Discount:      totals.Discount,
			Total:         totals.Total,
			Profit:        totals.Profit,
			PaymentMethod: req.PaymentMethod,
			CreatedAt:     createdAt,
		}
		items := make([]receipt.ItemRow, len(req.Lines))
		for i, l := range req.Lines {
			items[i] = receipt.NewItemRow(c.newRowID(), number, l)
		}

		err = c.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
			return c.persist(ctx, r, &header, items, req)
		})
		if err == nil {
			r.to(Committed)
			committed := buildReceipt(header, req)
			c.record(ctx, span, r, committed)
			return committed, nil
		}

		if r.state == PersistingReceipt && apperror.IsDuplicate(err) {
			lastErr = err
			logger.Warn(ctx, "invoice number collision",
				"invoice_id", number,
				"attempt", r.attempt,
				"max_attempts", c.cfg.MaxAttempts,
			)
			if r.attempt < c.cfg.MaxAttempts {
				if err := c.sleep(ctx, c.cfg.BackoffStep*time.Duration(r.attempt)); err != nil {
					return c.fail(ctx, span, r, apperror.NewCommitFailed("commit cancelled", err))
				}
			}
			continue
		}

		if apperror.HasCode(err, apperror.CodeInsufficientStock) {
			return c.fail(ctx, span, r, err)
		}
		return c.fail(ctx, span, r, apperror.NewCommitFailed(
			fmt.Sprintf("could not persist receipt while %s", r.state), err,
		).WithDetail("state", r.state.String()))
	}

	r.attempt = c.cfg.MaxAttempts
	return c.fail(ctx, span, r, apperror.NewCommitFailed("invoice number still taken after retries", lastErr).
		WithDetail("attempts", c.cfg.MaxAttempts))
}

// persist writes one attempt. Header happens before items, items before stock.
func (c *Committer) persist(ctx context.Context, r *run, header *receipt.Header, items []receipt.ItemRow, req Request) error {
	r.to(PersistingReceipt)
	if err := c.deps.Receipts.InsertHeader(ctx, header); err != nil {
		return err
	}

	r.to(PersistingItems)
	if err := c.deps.Receipts.InsertItems(ctx, items); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}

	r.to(AdjustingStock)
	if req.Manual {
		return nil
	}
	for _, l := range req.Lines {
		if !l.Product.TracksStock() {
			continue
		}
		left, err := c.deps.Stock.DecrementStock(ctx, l.Product.ID, l.Quantity)
		if err != nil {
			if apperror.IsNotFound(err) {
				// Deleted after it was added to the cart; the line still sells.
				logger.Warn(ctx, "stock not adjusted for missing product", "product_id", l.Product.ID)
				continue
			}
			return fmt.Errorf("decrement stock of %s: %w", l.Product.ID, err)
		}
		if left < 0 {
			if c.cfg.StockPolicy == RejectNegative {
				return apperror.NewInsufficientStock(l.Product.ID, l.Quantity, left+l.Quantity)
			}
			logger.Info(ctx, "stock went negative", "product_id", l.Product.ID, "stock", left)
		}
	}
	return nil
}

func (c *Committer) fail(ctx context.Context, span trace.Span, r *run, err error) (receipt.Receipt, error) {
	failedAt := r.state
	r.to(Failed)
	span.RecordError(err)
	span.SetStatus(codes.Error, "commit failed")
	span.SetAttributes(attribute.Int("commit.attempts", r.attempt))
	logger.Error(ctx, "commit failed",
		"cart_id", r.cartID,
		"state", failedAt.String(),
		"attempt", r.attempt,
		"error", err,
	)
	return receipt.Receipt{}, err
}

func (c *Committer) record(ctx context.Context, span trace.Span, r *run, committed receipt.Receipt) {
	span.SetAttributes(
		attribute.String("receipt.id", committed.ID),
		attribute.Int("commit.attempts", r.attempt),
	)
	if c.deps.History != nil {
		c.deps.History.Prepend(committed)
	}
	logger.Info(ctx, "receipt committed",
		"receipt_id", committed.ID,
		"cart_id", r.cartID,
		"attempts", r.attempt,
		"total", committed.Total.String(),
	)
}

func buildReceipt(h receipt.Header, req Request) receipt.Receipt {
	items := make([]receipt.Item, len(req.Lines))
	for i, l := range req.Lines {
		items[i] = receipt.Item{
			Product:   l.Product,
			Name:      l.Product.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.StoredUnitPrice(),
			CostPrice: l.Product.CostPrice,
			Total:     l.Amount(),
			Profit:    l.Profit(),
		}
	}
	return receipt.Receipt{
		ID:            h.ID,
		CashierID:     h.CashierID,
		Items:         items,
		Subtotal:      h.Subtotal,
		Discount:      h.Discount,
		Total:         h.Total,
		Profit:        h.Profit,
		PaymentMethod: h.PaymentMethod,
		IsManual:      req.Manual,
		CreatedAt:     h.CreatedAt,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ManualLine builds a line for a manual invoice. A nil product describes an
// ad-hoc item that is not in the catalog.
func ManualLine(p *catalog.Product, name string, quantity int, price, cost types.Money) cart.Line {
	if p == nil {
		p = catalog.Placeholder(name, price, cost)
	}
	return cart.Line{Product: *p, Quantity: quantity, Pricing: cart.OverridePrice{Price: price}}
}
