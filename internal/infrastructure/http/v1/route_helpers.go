package v1

import (
	"github.com/gin-gonic/gin"
)

// CatalogRouteHandler defines the interface for catalog handlers.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Lookup(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// RegisterCatalogRoutes registers the read and write routes of a catalog.
// The write guards run before every mutating route.
//
// Usage:
//
//	handler := handlers.NewProductHandler(base, catalogService)
//	RegisterCatalogRoutes(v1.Group("/products"), handler, middleware.RequireAdmin())
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler, writeGuards ...gin.HandlerFunc) {
	write := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, writeGuards...), h)
	}

	group.GET("", handler.List)
	group.GET("/lookup", handler.Lookup)
	group.GET("/:id", handler.Get)
	group.POST("", write(handler.Create)...)
	group.PATCH("/:id", write(handler.Update)...)
	group.DELETE("/:id", write(handler.Delete)...)
}
