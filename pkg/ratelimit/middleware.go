package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"enrichsync/internal/config"
	"enrichsync/internal/constants"
	"enrichsync/pkg/metrics"
)

type limiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	mu       sync.Mutex
}

// Limiters holds one token bucket per caller. Callers are keyed by install
// id when the request carries one, by client IP otherwise.
type Limiters struct {
	cfg      config.RateLimitConfig
	mu       sync.RWMutex
	limiters map[string]*limiter
}

func DefaultConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:         true,
		RPS:             10.0,
		Burst:           20,
		CleanupInterval: 5 * time.Minute,
		MaxAge:          10 * time.Minute,
	}
}

func NewLimiters(cfg config.RateLimitConfig) *Limiters {
	return &Limiters{cfg: cfg, limiters: make(map[string]*limiter)}
}

// RunCleanup drops idle buckets until ctx is done.
func (l *Limiters) RunCleanup(ctx context.Context) {
	if l.cfg.CleanupInterval <= 0 {
		return
	}

	ticker := time.NewTicker(l.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweep(time.Now())
		}
	}
}

func (l *Limiters) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, lim := range l.limiters {
		lim.mu.Lock()
		lastSeen := lim.lastSeen
		lim.mu.Unlock()
		if now.Sub(lastSeen) > l.cfg.MaxAge {
			delete(l.limiters, key)
		}
	}
}

func (l *Limiters) get(key string) *limiter {
	l.mu.RLock()
	lim, exists := l.limiters[key]
	l.mu.RUnlock()
	if exists {
		return lim
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	lim, exists = l.limiters[key]
	if !exists {
		lim = &limiter{
			limiter:  rate.NewLimiter(rate.Limit(l.cfg.RPS), l.cfg.Burst),
			lastSeen: time.Now(),
		}
		l.limiters[key] = lim
	}
	return lim
}

func (l *Limiters) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(constants.HeaderInstallID)
		if key == "" {
			key = c.ClientIP()
		}
		if key == "" {
			key = c.RemoteIP()
		}

		lim := l.get(key)
		lim.mu.Lock()
		lim.lastSeen = time.Now()
		lim.mu.Unlock()

		c.Header("X-RateLimit-Limit", formatRate(l.cfg.RPS))

		if !lim.limiter.Allow() {
			metrics.RateLimitRequestsTotal.WithLabelValues("limited").Inc()
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "rate limit exceeded",
				"error_code": "RATE_LIMIT_EXCEEDED",
			})
			return
		}

		metrics.RateLimitRequestsTotal.WithLabelValues("allowed").Inc()

		remaining := int(lim.limiter.Tokens())
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		c.Next()
	}
}

func formatRate(rps float64) string {
	return strconv.FormatFloat(rps, 'f', -1, 64)
}
