package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(1), 1, time.Minute, nil)
	handler := limiter.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/api/sync", nil)
	r.RemoteAddr = "203.0.113.5:1234"
	handler.ServeHTTP(first, r)
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, r)
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", second.Code)
	}
}

func TestClientIPIgnoresHeadersFromUntrustedPeer(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(1), 1, time.Minute, []string{"10.0.0.0/8"})

	r := httptest.NewRequest("GET", "/auth/login", nil)
	r.RemoteAddr = "203.0.113.5:1234"
	r.Header.Set("X-Forwarded-For", "198.51.100.7")

	if got := limiter.getClientIP(r); got != "203.0.113.5" {
		t.Errorf("client ip = %s, want the socket address", got)
	}
}

func TestClientIPHonorsTrustedProxy(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(1), 1, time.Minute, []string{"10.0.0.0/8", "192.0.2.1"})

	r := httptest.NewRequest("GET", "/auth/login", nil)
	r.RemoteAddr = "10.0.0.9:443"
	r.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.9")

	if got := limiter.getClientIP(r); got != "198.51.100.7" {
		t.Errorf("client ip = %s, want the forwarded client", got)
	}

	// A bare IP in the proxy list widens to a host range.
	r.RemoteAddr = "192.0.2.1:443"
	if got := limiter.getClientIP(r); got != "198.51.100.7" {
		t.Errorf("client ip via single-ip proxy = %s", got)
	}
}
