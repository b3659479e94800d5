package middleware

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"metalhub_backend/internal/cache"
	"metalhub_backend/internal/logger"
	"metalhub_backend/internal/metrics"
	"metalhub_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware is a per-IP fixed window counted in the shared cache,
// so every API instance sees the same budget. Cache failures let the
// request through.
func RateLimitMiddleware(store *cache.Store, maxRequests int, window time.Duration) gin.HandlerFunc {
	limit := strconv.Itoa(maxRequests)

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		count, ttl, err := store.HitRateLimit(ctx, c.ClientIP(), window)
		if err != nil {
			logger.CtxWithError(ctx, "rate limit lookup failed", err)
			c.Next()
			return
		}

		remaining := maxRequests - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > int64(maxRequests) {
			if ttl > 0 {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(ttl.Seconds()))))
			}
			metrics.RateLimited.WithLabelValues("window").Inc()
			apperrors.HandleError(c, apperrors.NewTooManyRequestsError("Too many requests, please try again later."))
			return
		}
		c.Next()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// BurstLimiter is an in-process token bucket per client IP. It guards the
// auth endpoints against bursts the window limiter would still admit.
type BurstLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	idle     time.Duration
}

func NewBurstLimiter(rps float64, burst int) *BurstLimiter {
	if burst < 1 {
		burst = 1
	}
	return &BurstLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(rps),
		burst:    burst,
		idle:     10 * time.Minute,
	}
}

func (bl *BurstLimiter) limiter(key string) *rate.Limiter {
	bl.mu.Lock()
	defer bl.mu.Unlock()

	v, ok := bl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(bl.rate, bl.burst)}
		bl.visitors[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

func (bl *BurstLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !bl.limiter(c.ClientIP()).Allow() {
			logger.CtxWarn(c.Request.Context(), "burst limit exceeded", "ip", c.ClientIP(), "path", c.Request.URL.Path)
			metrics.RateLimited.WithLabelValues("burst").Inc()
			apperrors.HandleError(c, apperrors.NewTooManyRequestsError("Too many requests, please slow down."))
			return
		}
		c.Next()
	}
}

// Cleanup drops visitors idle for longer than the idle period and returns
// how many were removed.
func (bl *BurstLimiter) Cleanup(now time.Time) int {
	bl.mu.Lock()
	defer bl.mu.Unlock()

	removed := 0
	for key, v := range bl.visitors {
		if now.Sub(v.lastSeen) > bl.idle {
			delete(bl.visitors, key)
			removed++
		}
	}
	return removed
}

// Run sweeps idle visitors every interval until ctx is done.
func (bl *BurstLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := bl.Cleanup(now); n > 0 {
				logger.Debug("burst limiter swept", "visitors", n)
			}
		}
	}
}
