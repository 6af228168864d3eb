package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"warungpos/internal/core/apperror"
	appctx "warungpos/internal/core/context"
)

// RateLimiterConfig holds configuration for the rate limiter.
type RateLimiterConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// EntryTTL drops limiters of clients idle for longer.
	EntryTTL time.Duration
}

// DefaultRateLimiterConfig allows a scanner-driven burst per terminal.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 20,
		BurstSize:         40,
		EntryTTL:          10 * time.Minute,
	}
}

// RateLimiter keeps one token bucket per cashier, or per client IP for
// anonymous requests.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	cfg      RateLimiterConfig
	now      func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter. Zero fields take defaults.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	def := DefaultRateLimiterConfig()
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = def.BurstSize
	}
	if cfg.EntryTTL == 0 {
		cfg.EntryTTL = def.EntryTTL
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		cfg:      cfg,
		now:      time.Now,
	}
}

func (rl *RateLimiter) allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, ok := rl.limiters[client]
	if !ok {
		rl.sweep(now)
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.BurstSize)}
		rl.limiters[client] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// sweep drops idle entries. Caller holds mu.
func (rl *RateLimiter) sweep(now time.Time) {
	if rl.cfg.EntryTTL <= 0 {
		return
	}
	cutoff := now.Add(-rl.cfg.EntryTTL)
	for client, e := range rl.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(rl.limiters, client)
		}
	}
}

// Middleware limits every request passing through it.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		client := appctx.GetCashierID(c.Request.Context())
		if client == "" {
			client = "ip:" + c.ClientIP()
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.cfg.BurstSize))
		if !rl.allow(client) {
			c.Header("Retry-After", "1")
			_ = c.Error(apperror.NewRateLimited())
			c.Abort()
			return
		}
		c.Next()
	}
}
