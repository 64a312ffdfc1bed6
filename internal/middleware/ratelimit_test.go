package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/pestiq-backend/internal/config"
	"github.com/iliyamo/pestiq-backend/internal/model"
)

func otpConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       5,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            30 * time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "rl:otp",
	}
}

func TestLocalLimiterAllowBurstThenRefill(t *testing.T) {
	l := NewLocalLimiter(otpConfig())
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		ok, _, _ := l.Allow("k", now)
		assert.True(t, ok, "request %d within burst", i+1)
	}
	ok, retry, _ := l.Allow("k", now)
	assert.False(t, ok)
	assert.InDelta(t, time.Minute.Seconds(), retry.Seconds(), 1)

	ok, _, _ = l.Allow("other", now)
	assert.True(t, ok, "keys are independent")

	ok, _, _ = l.Allow("k", now.Add(time.Minute))
	assert.True(t, ok, "one token back after the refill interval")
	ok, _, _ = l.Allow("k", now.Add(time.Minute))
	assert.False(t, ok)
}

func TestLocalLimiterEvictsIdleBuckets(t *testing.T) {
	cfg := otpConfig()
	l := NewLocalLimiter(cfg)
	now := time.Now()
	l.Allow("a", now)
	l.Allow("b", now.Add(cfg.TTL+time.Second))
	l.Allow("c", now.Add(2*cfg.TTL+2*time.Second))
	_, hasA := l.buckets["a"]
	assert.False(t, hasA)
}

func TestLocalLimiterMiddleware(t *testing.T) {
	cfg := otpConfig()
	cfg.Capacity = 2
	e := echo.New()
	e.POST("/api/auth/resend-otp", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		NewOTPLimiter(cfg, nil))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/resend-otp", nil)
		req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.Header.Set(echo.HeaderXRealIP, "1.2.3.4")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/auth/login")

	assert.Equal(t, "rl:otp:ip:1.2.3.4:route:POST /api/auth/login", buildRateKey(otpConfig(), c))

	SetPrincipal(c, model.Principal{ID: 12, Role: model.RoleOwner})
	cfg := otpConfig()
	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:otp:user:12", buildRateKey(cfg, c))
}
