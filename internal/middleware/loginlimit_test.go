package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adzspec-asad/ai-studio-api/internal/middleware"
)

func TestLoginLimiterThrottlesRepeatedAttempts(t *testing.T) {
	limiter := middleware.NewLoginLimiter(0.1, 3) // 3 attempts, slow refill
	handler := limiter.Handler("/api/system/auth/login")(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/system/auth/login", http.NoBody)
		req.RemoteAddr = "198.51.100.7:54321"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/system/auth/login", http.NoBody)
	req.RemoteAddr = "198.51.100.7:54321"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestLoginLimiterTracksIPsIndependently(t *testing.T) {
	limiter := middleware.NewLoginLimiter(0.1, 1)
	handler := limiter.Handler("/api/system/auth/login")(okHandler())

	for _, addr := range []string{"198.51.100.7:1", "198.51.100.8:2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/system/auth/login", http.NoBody)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("addr %s: status = %d, want 200", addr, rec.Code)
		}
	}
}

func TestLoginLimiterIgnoresOtherPaths(t *testing.T) {
	limiter := middleware.NewLoginLimiter(0.1, 1)
	handler := limiter.Handler("/api/system/auth/login")(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/system/tenants", http.NoBody)
		req.RemoteAddr = "198.51.100.7:54321"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}
}

func TestLoginLimiterCleanupStops(t *testing.T) {
	limiter := middleware.NewLoginLimiter(1, 1)
	stop := limiter.StartCleanup(time.Millisecond, time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	stop()
	stop() // second call is a no-op
}
