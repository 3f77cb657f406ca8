package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestAllow_BurstThenDeny(t *testing.T) {
	limiter := New(Config{
		RequestsPerMinute: 60,
		BurstSize:         5,
		CleanupInterval:   time.Minute,
	})
	defer limiter.Stop()

	const key = "10.0.0.1"
	for i := 0; i < 5; i++ {
		if !limiter.Allow(key) {
			t.Errorf("request %d within burst should pass", i)
		}
	}
	if limiter.Allow(key) {
		t.Error("request past the burst should be denied")
	}

	// At 60/min one token refills per second.
	time.Sleep(1100 * time.Millisecond)
	if !limiter.Allow(key) {
		t.Error("request after refill window should pass")
	}
}

func TestAllow_ClientsDoNotShareBuckets(t *testing.T) {
	limiter := New(Config{
		RequestsPerMinute: 60,
		BurstSize:         3,
		CleanupInterval:   time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		limiter.Allow("table-7")
	}
	if limiter.Allow("table-7") {
		t.Error("exhausted client should be denied")
	}
	if !limiter.Allow("table-9") {
		t.Error("fresh client should not inherit another client's bucket")
	}
}

func TestAllow_RefillRateTracksConfig(t *testing.T) {
	limiter := New(Config{
		RequestsPerMinute: 600, // 10 tokens per second
		BurstSize:         1,
		CleanupInterval:   time.Minute,
	})
	defer limiter.Stop()

	const key = "fast"
	if !limiter.Allow(key) {
		t.Fatal("first request should pass")
	}
	if limiter.Allow(key) {
		t.Fatal("second immediate request should be denied at burst 1")
	}

	time.Sleep(120 * time.Millisecond)
	if !limiter.Allow(key) {
		t.Error("one token should have refilled after ~100ms at 10/s")
	}
}

func TestMiddleware_Returns429WhenExhausted(t *testing.T) {
	gin.SetMode(gin.TestMode)

	limiter := New(Config{
		RequestsPerMinute: 60,
		BurstSize:         2,
		CleanupInterval:   time.Minute,
	})
	defer limiter.Stop()

	router := gin.New()
	router.Use(limiter.Middleware())
	router.GET("/sessions", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	status := func() int {
		req := httptest.NewRequest("GET", "/sessions", nil)
		req.RemoteAddr = "198.51.100.7:4411"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	if got := status(); got != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", got)
	}
	if got := status(); got != http.StatusOK {
		t.Fatalf("second request status = %d, want 200", got)
	}
	if got := status(); got != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.RequestsPerMinute != 60 {
		t.Errorf("RequestsPerMinute = %d, want 60", cfg.RequestsPerMinute)
	}
	if cfg.BurstSize != 10 {
		t.Errorf("BurstSize = %d, want 10", cfg.BurstSize)
	}
	if cfg.CleanupInterval != time.Minute {
		t.Errorf("CleanupInterval = %v, want 1m", cfg.CleanupInterval)
	}
}
