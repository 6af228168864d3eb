package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	appctx "warungpos/internal/core/context"
)

func newLimitedRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Cashier"); id != "" {
			ctx := appctx.WithCashier(c.Request.Context(), &appctx.CashierContext{CashierID: id})
			c.Request = c.Request.WithContext(ctx)
		}
	})
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func hit(r http.Handler, cashier string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cashier != "" {
		req.Header.Set("X-Cashier", cashier)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerSecond: 1, BurstSize: 2})
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	r := newLimitedRouter(rl)

	assert.Equal(t, http.StatusOK, hit(r, "kasir-1"))
	assert.Equal(t, http.StatusOK, hit(r, "kasir-1"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "kasir-1"))

	assert.Equal(t, http.StatusOK, hit(r, "kasir-2"), "buckets are per cashier")

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, hit(r, "kasir-1"))
}

func TestRateLimiter_AnonymousKeyedByIP(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerSecond: 1, BurstSize: 1})
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	r := newLimitedRouter(rl)

	assert.Equal(t, http.StatusOK, hit(r, ""))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, ""))
	assert.Contains(t, rl.limiters, "ip:192.0.2.1")
}

func TestRateLimiter_SweepsIdleClients(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerSecond: 1, BurstSize: 1, EntryTTL: time.Minute})
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.allow("a")
	now = now.Add(2 * time.Minute)
	rl.allow("b")

	assert.NotContains(t, rl.limiters, "a")
	assert.Contains(t, rl.limiters, "b")
}
