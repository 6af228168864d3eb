package postgres

import (
	"context"
	_ "embed"
	"fmt"
)

// Channels notified by the schema triggers after every write statement.
const (
	ChannelProducts = "products_changes"
	ChannelReceipts = "receipts_changes"
)

//go:embed schema.sql
var Schema string

// ApplySchema creates the tables, indexes and notify triggers if missing.
func ApplySchema(ctx context.Context, pool *Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
