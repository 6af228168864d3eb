// Package v1 provides HTTP API version 1.
package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"warungpos/internal/domain/cart"
	"warungpos/internal/domain/catalog"
	"warungpos/internal/domain/checkout"
	"warungpos/internal/domain/receipt"
	"warungpos/internal/infrastructure/http/v1/handlers"
	"warungpos/internal/infrastructure/http/v1/middleware"
	"warungpos/internal/infrastructure/storage/postgres"
	"warungpos/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Logger *logger.Logger

	// Pool is nil when the in-memory store is used.
	Pool    *postgres.Pool
	Version string

	Catalog   *catalog.Service
	Sessions  *cart.Sessions
	Committer *checkout.Committer
	Receipts  *receipt.Service
	History   *receipt.History

	// Location is the shop's time zone for printed dates and day filters.
	Location *time.Location

	// TokenValidator verifies cashier tokens. AuthRequired rejects requests
	// without one.
	TokenValidator middleware.TokenValidator
	AuthRequired   bool

	// Idempotency, when set, honours X-Idempotency-Key on checkout.
	Idempotency middleware.IdempotencyStore

	RateLimit   middleware.RateLimiterConfig
	CORSOrigins []string

	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(cfg.CORSOrigins))

	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	v1 := router.Group("/api/v1")
	if cfg.TokenValidator != nil {
		v1.Use(middleware.Auth(cfg.TokenValidator, cfg.AuthRequired))
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit).Middleware()
	base := handlers.NewBaseHandler()

	registerCatalogRoutes(v1, base, cfg, limiter)
	registerCartRoutes(v1, base, cfg, limiter)
	registerReceiptRoutes(v1, base, cfg, limiter)

	return router
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig, limiter gin.HandlerFunc) {
	RegisterCatalogRoutes(rg.Group("/products"), handlers.NewProductHandler(base, cfg.Catalog),
		limiter, middleware.RequireAdmin())

	units := handlers.NewUnitHandler(base)
	rg.GET("/units", units.List)
}

func registerCartRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig, limiter gin.HandlerFunc) {
	carts := handlers.NewCartHandler(base, cfg.Sessions, cfg.Catalog)
	checkoutHandler := handlers.NewCheckoutHandler(base, cfg.Sessions, cfg.Catalog, cfg.Committer, cfg.Location)

	g := rg.Group("/carts")
	{
		g.POST("", limiter, carts.Open)
		g.GET("/:id", carts.Get)
		g.DELETE("/:id", limiter, carts.Discard)
		g.GET("/:id/totals", carts.Totals)
		g.POST("/:id/items", limiter, carts.AddItem)
		g.DELETE("/:id/items", limiter, carts.Clear)
		g.PATCH("/:id/items/:productId", limiter, carts.UpdateItem)
		g.DELETE("/:id/items/:productId", limiter, carts.RemoveItem)
		g.POST("/:id/checkout", withIdempotency(cfg, limiter, checkoutHandler.Checkout)...)
	}
}

func registerReceiptRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig, limiter gin.HandlerFunc) {
	receipts := handlers.NewReceiptHandler(base, cfg.Receipts, cfg.History, cfg.Location)
	checkoutHandler := handlers.NewCheckoutHandler(base, cfg.Sessions, cfg.Catalog, cfg.Committer, cfg.Location)

	g := rg.Group("/receipts")
	{
		g.GET("", receipts.List)
		g.GET("/:id", receipts.Get)
		g.POST("/manual", withIdempotency(cfg, limiter, checkoutHandler.Manual)...)
	}
}

func withIdempotency(cfg RouterConfig, limiter, h gin.HandlerFunc) []gin.HandlerFunc {
	if cfg.Idempotency == nil {
		return []gin.HandlerFunc{limiter, h}
	}
	return []gin.HandlerFunc{limiter, middleware.Idempotency(cfg.Idempotency), h}
}
