package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"warungpos/internal/core/apperror"
	appctx "warungpos/internal/core/context"
)

// TokenValidator verifies a bearer token.
type TokenValidator interface {
	ValidateToken(tokenString string) (*appctx.CashierContext, error)
}

// Auth puts the cashier named by the bearer token into the context.
// With required unset, requests without a token continue anonymously; a
// token that is present must still be valid.
func Auth(validator TokenValidator, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if required {
				abortUnauthorized(c, "missing authorization header")
				return
			}
			c.Next()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		cashier, err := validator.ValidateToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		c.Request = c.Request.WithContext(appctx.WithCashier(c.Request.Context(), cashier))
		c.Set("cashier_id", cashier.CashierID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}

// RequireAdmin rejects cashiers without the admin role. Anonymous requests
// pass only when authentication is optional, which is a development setup.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if appctx.GetCashier(ctx) != nil && !appctx.IsAdmin(ctx) {
			_ = c.Error(apperror.NewForbidden("admin role required"))
			c.Abort()
			return
		}
		c.Next()
	}
}
