package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"enrichsync/internal/config"
	"enrichsync/internal/constants"
)

func newRouter(cfg config.RateLimitConfig) (*gin.Engine, *Limiters) {
	gin.SetMode(gin.TestMode)
	limiters := NewLimiters(cfg)
	router := gin.New()
	router.Use(limiters.Middleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router, limiters
}

func request(router *gin.Engine, installID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if installID != "" {
		req.Header.Set(constants.HeaderInstallID, installID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMiddleware_LimitsPerInstall(t *testing.T) {
	router, _ := newRouter(config.RateLimitConfig{RPS: 0.001, Burst: 2, MaxAge: time.Minute})

	assert.Equal(t, http.StatusOK, request(router, "inst-1").Code)
	assert.Equal(t, http.StatusOK, request(router, "inst-1").Code)

	limited := request(router, "inst-1")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))
	assert.Contains(t, limited.Body.String(), "RATE_LIMIT_EXCEEDED")

	assert.Equal(t, http.StatusOK, request(router, "inst-2").Code)
}

func TestMiddleware_FallsBackToClientIP(t *testing.T) {
	router, limiters := newRouter(config.RateLimitConfig{RPS: 0.001, Burst: 1, MaxAge: time.Minute})

	assert.Equal(t, http.StatusOK, request(router, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, request(router, "").Code)
	assert.Len(t, limiters.limiters, 1)
}

func TestLimiters_Sweep(t *testing.T) {
	_, limiters := newRouter(config.RateLimitConfig{RPS: 1, Burst: 1, MaxAge: time.Minute})
	limiters.get("stale").lastSeen = time.Now().Add(-2 * time.Minute)
	limiters.get("fresh")

	limiters.sweep(time.Now())

	assert.NotContains(t, limiters.limiters, "stale")
	assert.Contains(t, limiters.limiters, "fresh")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 20, cfg.Burst)
}
