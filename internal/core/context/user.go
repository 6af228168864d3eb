// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// CashierContext identifies the authenticated cashier operating a terminal.
type CashierContext struct {
	CashierID string
	Email     string
	Role      string
	SessionID string
}

type cashierContextKey struct{}

// WithCashier adds CashierContext to context.
func WithCashier(ctx context.Context, cashier *CashierContext) context.Context {
	return context.WithValue(ctx, cashierContextKey{}, cashier)
}

// GetCashier returns CashierContext from context.
func GetCashier(ctx context.Context) *CashierContext {
	if v, ok := ctx.Value(cashierContextKey{}).(*CashierContext); ok {
		return v
	}
	return nil
}

// GetCashierID returns cashier ID from context or empty string.
func GetCashierID(ctx context.Context) string {
	if c := GetCashier(ctx); c != nil {
		return c.CashierID
	}
	return ""
}

// IsAdmin reports whether the cashier carries the admin role.
func IsAdmin(ctx context.Context) bool {
	c := GetCashier(ctx)
	return c != nil && c.Role == "admin"
}
