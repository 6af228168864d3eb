// Package main is the entry point for the warungpos API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"warungpos/internal/config"
	corenumerator "warungpos/internal/core/numerator"
	"warungpos/internal/domain/auth"
	"warungpos/internal/domain/catalog"
	"warungpos/internal/domain/checkout"
	"warungpos/internal/domain/receipt"
	v1 "warungpos/internal/infrastructure/http/v1"
	"warungpos/internal/infrastructure/http/v1/middleware"
	"warungpos/internal/infrastructure/numerator"
	"warungpos/pkg/logger"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load(envFile())
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	loc, err := cfg.App.Location()
	if err != nil {
		log.Fatalw("invalid timezone", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	log.Infow("starting warungpos server", "env", cfg.App.Env, "timezone", loc.String())

	// --- Storage ---
	store, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	defer store.Close()

	sessions, closeCarts, err := openCarts(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to open cart store", "error", err)
	}
	defer closeCarts()

	// --- Domain services ---
	catalogService := catalog.NewService(store.products, store.txManager)
	if store.auditor != nil {
		catalogService.WithAuditor(store.auditor)
	}
	catalogService.Hooks().OnAfterDelete(func(ctx context.Context, p *catalog.Product) error {
		return sessions.ForgetProduct(ctx, p.ID)
	})

	history := receipt.NewHistory(cfg.Checkout.HistoryLimit)

	strategy, err := corenumerator.ParseStrategy(cfg.Checkout.NumberStrategy)
	if err != nil {
		log.Fatalw("invalid numbering strategy", "error", err)
	}

	committer := checkout.NewCommitter(checkout.Deps{
		TxManager: store.txManager,
		Receipts:  store.receipts,
		Stock:     store.products,
		Numbers:   numerator.New(store.sequences),
		History:   history,
	}, checkout.Config{
		MaxAttempts:   cfg.Checkout.MaxAttempts,
		BackoffStep:   cfg.Checkout.BackoffStep,
		StockPolicy:   checkout.ParseStockPolicy(cfg.Checkout.StockPolicy),
		Location:      loc,
		NumberOptions: &corenumerator.Options{Strategy: strategy},
	})

	mirror := store.startMirror(ctx, history, cfg.Checkout.HistoryLimit)
	defer mirror.Stop()

	// --- Router ---
	routerCfg := v1.RouterConfig{
		Logger:    log,
		Pool:      store.pool,
		Version:   version,
		Catalog:   catalogService,
		Sessions:  sessions,
		Committer: committer,
		Receipts:  receipt.NewService(store.receipts),
		History:   history,
		Location:  loc,
		RateLimit: middleware.RateLimiterConfig{
			RequestsPerSecond: cfg.HTTP.RateLimitRPS,
			BurstSize:         cfg.HTTP.RateLimitBurst,
		},
		CORSOrigins:  cfg.HTTP.CORSOrigins,
		AuthRequired: cfg.Auth.Required,
		Debug:        cfg.App.IsDevelopment(),
	}
	if cfg.Auth.JWTSecret != "" {
		jwtConfig := auth.DefaultJWTConfig(cfg.Auth.JWTSecret)
		jwtConfig.Issuer = cfg.Auth.Issuer
		routerCfg.TokenValidator = auth.NewJWTService(jwtConfig)
	} else {
		log.Warn("JWT_SECRET not set, serving anonymous terminals only")
	}
	if cfg.HTTP.IdempotencyEnabled && store.idempotency != nil {
		routerCfg.Idempotency = store.idempotency
		go cleanupIdempotencyKeys(ctx, store, time.Hour)
	}

	router := v1.NewRouter(routerCfg)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.App.Port, "storage", store.kind)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	<-ctx.Done()
	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func envFile() string {
	if path := os.Getenv("ENV_FILE"); path != "" {
		return path
	}
	return ".env"
}

func cleanupIdempotencyKeys(ctx context.Context, store *storage, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.idempotency.CleanupExpired(ctx)
			if err != nil {
				logger.Warn(ctx, "idempotency cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info(ctx, "expired idempotency keys removed", "count", n)
			}
		}
	}
}
