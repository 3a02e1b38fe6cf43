// Copyright © 2026 Teradata Corporation - All Rights Reserved.
// Unauthorized copying of this file, via any medium is strictly prohibited.
// Proprietary and confidential.
package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teradata-labs/argonaut/pkg/config"
)

func TestRateLimiter_SlidingWindow(t *testing.T) {
	rl := newRateLimiter(3, time.Minute, zaptest.NewLogger(t))
	tick := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return tick }

	for i := 0; i < 3; i++ {
		allowed, _ := rl.allow("10.0.0.1")
		require.True(t, allowed, "request %d", i)
	}
	allowed, remaining := rl.allow("10.0.0.1")
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)

	// Another client has its own budget.
	allowed, _ = rl.allow("10.0.0.2")
	assert.True(t, allowed)

	// Just inside the window the budget stays spent.
	tick = tick.Add(59 * time.Second)
	allowed, _ = rl.allow("10.0.0.1")
	assert.False(t, allowed)

	// Once the first requests age past the window their slots free up.
	tick = tick.Add(2 * time.Second)
	allowed, remaining = rl.allow("10.0.0.1")
	assert.True(t, allowed)
	assert.Equal(t, 2, remaining)
}

func TestRateLimiter_RemainingCountsDown(t *testing.T) {
	rl := newRateLimiter(3, time.Minute, zaptest.NewLogger(t))

	_, remaining := rl.allow("client")
	assert.Equal(t, 2, remaining)
	_, remaining = rl.allow("client")
	assert.Equal(t, 1, remaining)
	_, remaining = rl.allow("client")
	assert.Equal(t, 0, remaining)
}

func rateLimitedServer(t *testing.T, requests int) *Server {
	t.Helper()
	srv, _ := newTestServer(t, func(o *Options) {
		o.Config.RateLimit = config.RateLimitConfig{
			Enabled:       true,
			Requests:      requests,
			WindowSeconds: 60,
		}
	})
	return srv
}

func TestRateLimiter_MiddlewareRejects(t *testing.T) {
	srv := rateLimitedServer(t, 2)

	for i := 0; i < 2; i++ {
		rec := doRequest(t, srv.Handler(), http.MethodGet, "/", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	}

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	payload := decodeBody(t, rec)
	assert.Equal(t, "Rate Limit Exceeded", payload["error"])
	assert.Equal(t, "Too many requests. Limit: 2 per 60 seconds", payload["message"])
	assert.Equal(t, float64(60), payload["retry_after"])
}

func TestRateLimiter_PerClientBudgets(t *testing.T) {
	srv := rateLimitedServer(t, 1)

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", addr)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.1"))
	assert.Equal(t, http.StatusOK, send("198.51.100.2"))
}

func TestRateLimiter_HealthAndMetricsExempt(t *testing.T) {
	srv := rateLimitedServer(t, 1)

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// The budget is spent, yet probes keep answering.
	for i := 0; i < 5; i++ {
		rec = doRequest(t, srv.Handler(), http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		rec = doRequest(t, srv.Handler(), http.MethodGet, "/metrics", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec = doRequest(t, srv.Handler(), http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
