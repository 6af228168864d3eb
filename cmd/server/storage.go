package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"warungpos/internal/config"
	"warungpos/internal/core/tx"
	"warungpos/internal/domain/cart"
	"warungpos/internal/domain/catalog"
	"warungpos/internal/domain/receipt"
	"warungpos/internal/infrastructure/cache"
	"warungpos/internal/infrastructure/numerator"
	"warungpos/internal/infrastructure/storage/memory"
	"warungpos/internal/infrastructure/storage/postgres"
	"warungpos/internal/infrastructure/storage/postgres/catalog_repo"
	"warungpos/internal/infrastructure/storage/postgres/receipt_repo"
	"warungpos/pkg/logger"
)

// storage is the product and receipt backend the server runs on.
type storage struct {
	kind      string
	txManager tx.Manager
	products  catalog.Repository
	receipts  receipt.Repository

	// Set for postgres only.
	pool        *postgres.Pool
	sequences   numerator.Querier
	auditor     catalog.Auditor
	idempotency *postgres.IdempotencyStore

	// Set for memory only.
	memory *memory.Store
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	if !cfg.Database.Enabled() {
		logger.Warn(ctx, "DATABASE_URL not set, data is kept in memory and lost on restart")
		mem := memory.New()
		return &storage{
			kind:      "memory",
			txManager: mem.TxManager(),
			products:  mem.Products(),
			receipts:  mem.Receipts(),
			memory:    mem,
		}, nil
	}

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	if cfg.Database.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Database.MaxConns
	}
	if cfg.Database.MinConns > 0 {
		poolCfg.MinConns = cfg.Database.MinConns
	}
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if cfg.Database.ApplySchema {
		if err := postgres.ApplySchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}

	txManager := postgres.NewTxManager(pool)
	auditor, err := postgres.NewAuditService(txManager)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("audit service: %w", err)
	}
	pool.LogStats(ctx)

	return &storage{
		kind:        "postgres",
		txManager:   txManager,
		products:    catalog_repo.NewProductRepo(txManager),
		receipts:    receipt_repo.NewReceiptRepo(txManager),
		pool:        pool,
		sequences:   pool.Pool,
		auditor:     auditor,
		idempotency: postgres.NewIdempotencyStore(txManager, cfg.HTTP.IdempotencyTTL),
	}, nil
}

func (s *storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// startMirror keeps history in step with the receipts table. Postgres
// changes arrive over LISTEN/NOTIFY; the memory store reports them directly.
func (s *storage) startMirror(ctx context.Context, history *receipt.History, limit int) *cache.Mirror {
	mirror := cache.NewMirror(s.products, s.receipts, history, limit)
	if err := mirror.Start(ctx); err != nil {
		logger.Warn(ctx, "mirror not started, history fills from new receipts only", "error", err)
		return mirror
	}

	if s.memory != nil {
		s.memory.OnChange(mirror.Notify)
		return mirror
	}
	listener := cache.NewPGListener(s.pool.Pool, postgres.ChannelProducts, postgres.ChannelReceipts)
	go listener.Run(ctx, mirror.HandleNotification)
	return mirror
}

// openCarts returns sessions over redis when configured, otherwise over
// process memory.
func openCarts(ctx context.Context, cfg *config.Config) (*cart.Sessions, func(), error) {
	if !cfg.Redis.Enabled() {
		return cart.NewSessions(cart.NewMemoryStore()), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info(ctx, "carts stored in redis", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CartTTL)

	store := cache.NewRedisCartStore(client, cfg.Redis.CartTTL)
	return cart.NewSessions(store), func() { client.Close() }, nil
}
