// Package main provides a CLI tool for seeding the database with a demo
// catalog and printing a development token.
package main

import (
	"context"
	"fmt"
	"os"

	"warungpos/internal/config"
	"warungpos/internal/core/apperror"
	appctx "warungpos/internal/core/context"
	"warungpos/internal/core/types"
	"warungpos/internal/domain/auth"
	"warungpos/internal/domain/catalog"
	"warungpos/internal/infrastructure/storage/postgres"
	"warungpos/internal/infrastructure/storage/postgres/catalog_repo"
	"warungpos/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}
	if !cfg.Database.Enabled() {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	ctx := logger.WithLogger(context.Background(), log)

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.URL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	if err := postgres.ApplySchema(ctx, pool); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}
	log.Info("schema applied")

	txManager := postgres.NewTxManager(pool)
	auditor, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to create audit service", "error", err)
	}
	service := catalog.NewService(catalog_repo.NewProductRepo(txManager), txManager).WithAuditor(auditor)

	created := 0
	for _, p := range demoCatalog() {
		err := service.Create(ctx, p)
		switch {
		case apperror.IsDuplicate(err):
			log.Infow("product exists, skipped", "id", p.ID)
		case err != nil:
			log.Fatalw("failed to seed product", "id", p.ID, "error", err)
		default:
			created++
		}
	}
	log.Infow("demo catalog seeded", "created", created)

	if cfg.Auth.JWTSecret == "" {
		log.Info("JWT_SECRET not set, no development token printed")
		return
	}
	jwtConfig := auth.DefaultJWTConfig(cfg.Auth.JWTSecret)
	jwtConfig.Issuer = cfg.Auth.Issuer
	token, expires, err := auth.NewJWTService(jwtConfig).GenerateAccessToken(appctx.CashierContext{
		CashierID: "owner",
		Email:     "owner@warung.local",
		Role:      auth.RoleAdmin,
	})
	if err != nil {
		log.Fatalw("failed to sign token", "error", err)
	}
	fmt.Printf("admin token (expires %s):\n%s\n", expires.Format("2006-01-02 15:04"), token)
}

func demoCatalog() []*catalog.Product {
	text := func(s string) *string { return &s }
	paper := catalog.CategoryPaper
	return []*catalog.Product{
		{
			ID: "aqua-600", Name: "Aqua 600ml", Category: text("Minuman"), Barcode: text("8886008101053"),
			CostPrice: types.NewMoneyFromInt(2500), SellPrice: types.NewMoneyFromInt(3500), Stock: 48,
		},
		{
			ID: "fotokopi", Name: "Fotokopi", Category: text("Jasa"), Code: text("FC"),
			SellPrice: types.NewMoneyFromInt(300), IsPhotocopy: true,
		},
		{
			ID: "hvs-a4-70", Name: "Kertas HVS A4 70gsm", Category: &paper, Code: text("A470"),
			CostPrice: types.NewMoneyFromInt(42000), SellPrice: types.NewMoneyFromInt(48000), Stock: 25,
		},
		{
			ID: "pulpen-std", Name: "Pulpen Standard", Category: text("ATK"), Code: text("PS01"),
			CostPrice: types.NewMoneyFromInt(1500), SellPrice: types.NewMoneyFromInt(2500), Stock: 144,
		},
	}
}
